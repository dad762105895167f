package domain

import "fmt"

// VerdictStatus is the oracle's categorical judgment
type VerdictStatus string

const (
	StatusCorrect        VerdictStatus = "CORRECT"
	StatusIncorrect      VerdictStatus = "INCORRECT"
	StatusExecutionError VerdictStatus = "EXECUTION_ERROR"
)

// MismatchReason names the first comparison step that failed
type MismatchReason string

const (
	ReasonColumnMismatch          MismatchReason = "column_mismatch"
	ReasonRowCountMismatch        MismatchReason = "row_count_mismatch"
	ReasonRowOrderOrValueMismatch MismatchReason = "row_order_or_value_mismatch"
)

// Verdict is the tagged result of a check. Reason and Detail are set only for
// INCORRECT; Message only for EXECUTION_ERROR.
type Verdict struct {
	Status  VerdictStatus  `json:"status"`
	Reason  MismatchReason `json:"reason,omitempty"`
	Detail  string         `json:"detail,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Correct returns the passing verdict
func Correct() Verdict {
	return Verdict{Status: StatusCorrect}
}

// Incorrect returns a failing verdict with a diagnostic
func Incorrect(reason MismatchReason, detail string) Verdict {
	return Verdict{Status: StatusIncorrect, Reason: reason, Detail: detail}
}

// ExecutionError returns the verdict for a query the engine rejected
func ExecutionError(message string) Verdict {
	return Verdict{Status: StatusExecutionError, Message: message}
}

// IsCorrect reports whether the verdict passed
func (v Verdict) IsCorrect() bool {
	return v.Status == StatusCorrect
}

// Feedback is the text shown to the learner
func (v Verdict) Feedback() string {
	switch v.Status {
	case StatusCorrect:
		return "Correct!"
	case StatusIncorrect:
		return v.Detail
	case StatusExecutionError:
		return v.Message
	default:
		return fmt.Sprintf("unknown verdict %q", v.Status)
	}
}

func (v Verdict) String() string {
	switch v.Status {
	case StatusIncorrect:
		return fmt.Sprintf("%s{%s}", v.Status, v.Reason)
	default:
		return string(v.Status)
	}
}
