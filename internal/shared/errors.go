package shared

// Kind classifies an engine error for transport mapping.
type Kind int

const (
	// KindValidation marks rejected input; maps to 400.
	KindValidation Kind = iota
	// KindNotFound marks missing resources; maps to 404.
	KindNotFound
	// KindConflict marks uniqueness violations; maps to 409.
	KindConflict
	// KindState marks illegal lifecycle transitions; maps to 422.
	KindState
	// KindInternal marks unexpected failures; maps to 500.
	KindInternal
)

// Error is the caller-visible error shape: a short machine-readable code
// plus a human message. Engine packages declare sentinel values of this
// type and compare with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewValidation builds a validation error sentinel.
func NewValidation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NewNotFound builds a not-found error sentinel.
func NewNotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// NewConflict builds a conflict error sentinel.
func NewConflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// NewState builds an illegal-transition error sentinel.
func NewState(code, message string) *Error {
	return &Error{Kind: KindState, Code: code, Message: message}
}
