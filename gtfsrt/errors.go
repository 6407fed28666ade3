package gtfsrt

import "fmt"

// Condition classifies a cycle-scoped feed failure.
type Condition string

const (
	NetworkTimeout     Condition = "network_timeout"
	NetworkUnavailable Condition = "network_unavailable"
	UnexpectedStatus   Condition = "unexpected_status"
	DecodeError        Condition = "decode_error"
)

// FeedError is the error returned by Client and Decoder. Status carries the
// HTTP status code for UnexpectedStatus and is zero otherwise.
type FeedError struct {
	Cond   Condition
	Status int
	Err    error
}

func (e *FeedError) Error() string {
	if e.Cond == UnexpectedStatus {
		return fmt.Sprintf("%s: HTTP %d", e.Cond, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Cond, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
