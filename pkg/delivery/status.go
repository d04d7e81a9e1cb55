// Package delivery defines the provider-neutral delivery status vocabulary.
package delivery

// Status is a normalized delivery status. Provider adapters map their own
// vocabulary onto the four known values; anything else is passed through
// unchanged and must be treated as non-terminal.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// Known reports whether s is one of the four normalized values.
func (s Status) Known() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// Rank orders statuses so late callbacks cannot regress a message:
// sent < delivered = failed < read. Unknown statuses rank 0.
func (s Status) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered, StatusFailed:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

func (s Status) String() string {
	return string(s)
}
