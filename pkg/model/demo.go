package model

// DemoCategory groups sample questions shown by the guided demo and the UI shell
type DemoCategory struct {
	Name      string
	Questions []string
}

// DemoCategories returns the sample questions in display order
func DemoCategories() []DemoCategory {
	return []DemoCategory{
		{
			Name: "Policy Questions",
			Questions: []string{
				"What collateral is required for SME overdraft?",
				"What is the turnaround time for loan approval?",
				"What documents are needed for SME loan application?",
				"What are the interest rates for term loans?",
				"How do I reactivate a dormant account?",
			},
		},
		{
			Name: "Customer Service",
			Questions: []string{
				"What is John Bello's complaint about?",
				"How many customer complaints are pending?",
				"What should we do about Fatima Ibrahim's ATM card issue?",
				"Draft a response to Chidi Okafor about his loan application delay",
			},
		},
		{
			Name: "Transactions",
			Questions: []string{
				"Show me account 0123456789's transaction summary for January",
				"What was the highest expense in January for account 0123456789?",
				"How much interest was earned in January?",
				"Why did transaction TXN20260205005 fail?",
			},
		},
		{
			Name: "Compliance & Regulations",
			Questions: []string{
				"What are the CBN requirements for foreign exchange transactions?",
				"What is the maximum Personal Travel Allowance?",
				"What are the KYC requirements for account opening?",
				"What transactions must be reported to NFIU?",
			},
		},
		{
			Name: "Operations",
			Questions: []string{
				"What is the branch manager's approval limit for overdrafts?",
				"What should I do during system downtime?",
				"What are the month-end procedures?",
				"When is the internal audit scheduled?",
			},
		},
	}
}

// DemoQuestions returns every sample question flattened in display order
func DemoQuestions() []string {
	var questions []string
	for _, c := range DemoCategories() {
		questions = append(questions, c.Questions...)
	}
	return questions
}
