package scan

import (
	"context"

	"github.com/xelth-com/eckscan/internal/gateway"
)

// Severity tells the terminal how loudly to report an outcome
type Severity string

const (
	SeverityInfo  Severity = "info"  // inline status line
	SeverityToast Severity = "toast" // non-blocking notification
	SeverityAlert Severity = "alert" // blocking dialog
)

// Outcome is the terminal result of one scan attempt. There is no retry; a new scan is a new attempt.
type Outcome struct {
	OK          bool        `json:"ok"`
	Message     string      `json:"message"`
	Severity    Severity    `json:"severity"`
	Partial     bool        `json:"partial,omitempty"`     // a multi-step flow stopped halfway and could not roll back
	Compensated bool        `json:"compensated,omitempty"` // a multi-step flow stopped halfway and was rolled back
	Data        interface{} `json:"data,omitempty"`
	Err         error       `json:"-"`
}

// Kind classifies a failed outcome; successes report KindRemote and should not be asked
func (o Outcome) Kind() gateway.Kind {
	return gateway.KindOf(o.Err)
}

// Handler performs one submission for a code
type Handler func(ctx context.Context, code string) Outcome

func success(msg string, data interface{}) Outcome {
	return Outcome{OK: true, Message: msg, Severity: SeverityToast, Data: data}
}

func failure(msg string, severity Severity, err error) Outcome {
	return Outcome{Message: msg, Severity: severity, Err: err}
}
