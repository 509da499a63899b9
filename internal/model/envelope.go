package model

// Envelope wraps the payload of the employee-scoped endpoints.
//
// Data is a pointer so that an absent or null payload can be told apart from
// an empty one: an empty payment history is still data.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the envelope carries a successful payload.
func (e *Envelope[T]) OK() bool {
	return e != nil && e.Success && e.Data != nil
}

// Reason returns the server-supplied explanation, preferring message over error.
func (e *Envelope[T]) Reason() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
