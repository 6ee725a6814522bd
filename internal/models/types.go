package models

import (
	"time"
)

type Outcome string

const (
	OutcomeAnswered  Outcome = "answered"
	OutcomeRecovered Outcome = "recovered"
	OutcomeMalformed Outcome = "malformed"
	OutcomeCancelled Outcome = "cancelled"
)

// Input message

type CompletionRequest struct {
	ID     string `json:"id,omitempty" description:"Optional request identifier, generated when empty"`
	Prompt string `json:"prompt" description:"Prompt forwarded verbatim to the model server"`
}

// One completion round-trip as seen by every surface
type CompletionResult struct {
	ID       string        `json:"id"`
	Prompt   string        `json:"prompt"`
	Text     string        `json:"text"`
	Outcome  Outcome       `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the result carries text to show the user.
func (r CompletionResult) Succeeded() bool {
	return r.Outcome == OutcomeAnswered || r.Outcome == OutcomeRecovered
}
