package auth

// Error is returned by an Authenticator when the credentials are rejected.
// Message is shown to the end user and must never contain the password.
type Error struct {
	Message string
	Err     error
}

func NewError(message string, err error) *Error {
	return &Error{Message: message, Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError is a user-visible form error. An empty Field marks a
// form-level error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. %s is not one of the available choices."
	MsgNoCookies     = "Your Web browser doesn't appear to have cookies enabled. Cookies are required for logging in."
)
