package model

import (
	"time"

	"github.com/google/uuid"
)

type QueryID string

// NewQueryID generates a new unique QueryID
func NewQueryID() QueryID {
	return QueryID(uuid.New().String())
}

// OutcomeKind tells how a handled query ended
type OutcomeKind string

const (
	OutcomeAnswered OutcomeKind = "answered"
	OutcomeDeclined OutcomeKind = "declined"
	OutcomeFailed   OutcomeKind = "failed"
)

// FailureReason classifies a failed query
type FailureReason string

const (
	FailureRetrieval      FailureReason = "retrieval"
	FailureGeneration     FailureReason = "generation"
	FailureNotInitialized FailureReason = "not_initialized"
)

// Failure carries the reason and underlying error of a failed query
type Failure struct {
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Outcome is the result of handling one query
type Outcome struct {
	ID        QueryID
	Query     string
	Intent    Intent
	Scope     Category
	Kind      OutcomeKind
	Answer    string
	Fragments int
	Elapsed   time.Duration
	Failure   *Failure
}

// Failed reports whether the query ended with a failure
func (o *Outcome) Failed() bool {
	return o.Kind == OutcomeFailed
}

// Text returns what a front end shows to the user
func (o *Outcome) Text() string {
	if o.Failure != nil {
		return "Error: " + o.Failure.Error()
	}
	return o.Answer
}

// QueryRecord is the audit row written for each handled query
type QueryRecord struct {
	ID            string    `bigquery:"id"`
	Timestamp     time.Time `bigquery:"timestamp"`
	Query         string    `bigquery:"query"`
	Intent        string    `bigquery:"intent"`
	Scope         string    `bigquery:"scope"`
	Kind          string    `bigquery:"kind"`
	FailureReason string    `bigquery:"failure_reason"`
	Fragments     int       `bigquery:"fragments"`
	LatencyMS     int64     `bigquery:"latency_ms"`
}

// NewQueryRecord builds the audit row for an outcome
func NewQueryRecord(o *Outcome, at time.Time) *QueryRecord {
	rec := &QueryRecord{
		ID:        string(o.ID),
		Timestamp: at,
		Query:     o.Query,
		Intent:    string(o.Intent),
		Scope:     string(o.Scope),
		Kind:      string(o.Kind),
		Fragments: o.Fragments,
		LatencyMS: o.Elapsed.Milliseconds(),
	}
	if o.Failure != nil {
		rec.FailureReason = string(o.Failure.Reason)
	}
	return rec
}
