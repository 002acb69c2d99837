package cin7

import "fmt"

// APIError is a non-recoverable vendor API failure: a 4xx the client must
// not retry, or a transient status that survived every retry. The zero
// status code marks a transport failure.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("cin7 %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("cin7 %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Temporary reports whether the underlying status is one the client retries.
// A true value here means retries were already exhausted.
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case 429, 500, 503:
		return true
	}
	return false
}
