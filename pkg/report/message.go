package report

import "fmt"

// Severity levels for grammar diagnostics.
type Severity string

const (
	Fatal   Severity = "FATAL"
	Error   Severity = "ERROR"
	Warning Severity = "WARNING"
	Info    Severity = "INFO"
)

// Message represents a single finding produced while building or
// checking a grammar.
type Message struct {
	Severity Severity `json:"severity"`
	CheckID  string   `json:"check_id"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
}

func (m Message) String() string {
	if m.Location != "" {
		return fmt.Sprintf("%s(%s): %s [%s]", m.Severity, m.CheckID, m.Message, m.Location)
	}
	return fmt.Sprintf("%s(%s): %s", m.Severity, m.CheckID, m.Message)
}

// Sink receives diagnostics as they are produced. *Report implements it.
type Sink interface {
	AddWithLocation(sev Severity, checkID string, msg string, location string)
}

// Report collects all messages from a build and check run.
type Report struct {
	Messages []Message `json:"messages"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// Add appends a message to the report.
func (r *Report) Add(sev Severity, checkID string, msg string) {
	r.Messages = append(r.Messages, Message{
		Severity: sev,
		CheckID:  checkID,
		Message:  msg,
	})
}

// AddWithLocation appends a message with a location to the report.
func (r *Report) AddWithLocation(sev Severity, checkID string, msg string, location string) {
	r.Messages = append(r.Messages, Message{
		Severity: sev,
		CheckID:  checkID,
		Message:  msg,
		Location: location,
	})
}

// Merge appends every message of other to r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Messages = append(r.Messages, other.Messages...)
}

func (r *Report) count(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// FatalCount returns the number of FATAL messages.
func (r *Report) FatalCount() int { return r.count(Fatal) }

// ErrorCount returns the number of ERROR messages.
func (r *Report) ErrorCount() int { return r.count(Error) }

// WarningCount returns the number of WARNING messages.
func (r *Report) WarningCount() int { return r.count(Warning) }

// InfoCount returns the number of INFO messages.
func (r *Report) InfoCount() int { return r.count(Info) }

// IsValid returns true if there are no FATAL or ERROR messages.
func (r *Report) IsValid() bool {
	return r.FatalCount() == 0 && r.ErrorCount() == 0
}

// Has reports whether any message carries checkID.
func (r *Report) Has(checkID string) bool {
	for _, m := range r.Messages {
		if m.CheckID == checkID {
			return true
		}
	}
	return false
}

// ByCheckID returns the messages carrying checkID in report order.
func (r *Report) ByCheckID(checkID string) []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.CheckID == checkID {
			out = append(out, m)
		}
	}
	return out
}

// DowngradeToInfo changes the severity of WARNING messages whose CheckID
// is in the given set to INFO. Non-strict runs use it for findings that
// are legal but usually unintended.
func (r *Report) DowngradeToInfo(checkIDs map[string]bool) {
	for i := range r.Messages {
		if r.Messages[i].Severity == Warning && checkIDs[r.Messages[i].CheckID] {
			r.Messages[i].Severity = Info
		}
	}
}
