package config

import "fmt"

// ConfigurationError reports a condition the operator must fix before the
// program can do useful work: a missing credential, missing reference data,
// an invalid rule pattern or a malformed configuration file. It is never retried.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}
