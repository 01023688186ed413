package model

import "strings"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

func (o Outcome) String() string { return string(o) }

// DisplayName is the outcome channel name as shown to operators.
func (o Outcome) DisplayName() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeFailure:
		return "Failure"
	default:
		return string(o)
	}
}

func (o Outcome) Valid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// ParseOutcome is case-insensitive and accepts both "success" and "Success".
// Returns (value, true) if valid; otherwise ("", false).
func ParseOutcome(s string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return OutcomeSuccess, true
	case "failure":
		return OutcomeFailure, true
	default:
		return "", false
	}
}
