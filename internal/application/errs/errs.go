package errs

import "fmt"

// RetryableError marks a failure worth another attempt, the order stays
// eligible for the stuck-order sweep.
type RetryableError struct {
	Err error
}

func (t RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", t.Err)
}

func (t RetryableError) Unwrap() error {
	return t.Err
}

// ConfigError means an admin has to fix routing or credentials before the
// operation can ever succeed.
type ConfigError struct {
	Err error
}

func (t ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", t.Err)
}

func (t ConfigError) Unwrap() error {
	return t.Err
}

// MalformedResponseError is an AI payload that survived no repair strategy.
type MalformedResponseError struct {
	Err error
}

func (t MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", t.Err)
}

func (t MalformedResponseError) Unwrap() error {
	return t.Err
}

// NotFoundError maps to a 404 at the REST boundary.
type NotFoundError struct {
	Entity string
	ID     string
}

func (t NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", t.Entity, t.ID)
}

// ValidationError maps to a 400 at the REST boundary.
type ValidationError struct {
	Msg string
}

func (t ValidationError) Error() string {
	return t.Msg
}

// ProviderError carries a deployment provider's own error payload.
type ProviderError struct {
	Provider string
	Payload  string
	Err      error
}

func (t ProviderError) Error() string {
	if t.Payload != "" {
		return fmt.Sprintf("provider %s: %v: %s", t.Provider, t.Err, t.Payload)
	}
	return fmt.Sprintf("provider %s: %v", t.Provider, t.Err)
}

func (t ProviderError) Unwrap() error {
	return t.Err
}
