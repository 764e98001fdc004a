package ask

import (
	_ "embed"
	"strings"

	"github.com/bankrag/bankrag/pkg/model"
)

//go:embed prompt/system.md
var systemPromptRaw string

// DefaultSystemPrompt is the grounding instruction placed at the top of every prompt
var DefaultSystemPrompt = strings.TrimSpace(systemPromptRaw)

// RefusalSentence is what the model must answer when the context lacks the answer
const RefusalSentence = "I could not find this information in the bank knowledge base."

const contextSeparator = "\n\n"

// AssembleContext joins fragment texts in retrieval order separated by a blank line
func AssembleContext(fragments []*model.Fragment) string {
	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		texts = append(texts, f.Text)
	}
	return strings.Join(texts, contextSeparator)
}

// BuildPrompt lays out the system instruction, the context, the question and the answer cue
func BuildPrompt(system, context, question string) string {
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nContext:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
