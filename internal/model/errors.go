package model

import "fmt"

// NetworkError means the transport never produced a usable response from
// the prediction backend (connection refused, DNS, timeout).
type NetworkError struct {
	Op  string // "predict" or "explain"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError means the backend answered with a non-2xx status. Detail
// carries the response body's "detail" field when present.
type RemoteError struct {
	Op     string
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
}

// PersistenceError means the history store rejected a write or delete.
// Callers treat it as non-fatal to the submission flow.
type PersistenceError struct {
	Op  string // "append" or "clear"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
