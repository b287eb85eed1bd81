package pipeline

import "fmt"

// ValidationError represents a request rejected before any generation call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// ChannelError identifies the channel at which a run aborted.
// The cause keeps its original kind for errors.As.
type ChannelError struct {
	ChannelID   string
	ChannelName string
	Cause       error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s (%s) failed: %v", e.ChannelName, e.ChannelID, e.Cause)
}

func (e *ChannelError) Unwrap() error {
	return e.Cause
}
