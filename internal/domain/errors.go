package domain

import "errors"

// Error kinds. Each is recovered locally: it becomes a transient message and leaves
// prior state unchanged.
var (
	ErrEmptyInput          = errors.New("empty input")
	ErrAddressNotFound     = errors.New("address not found")
	ErrHomeNotSet          = errors.New("home not set")
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationFetchFailed = errors.New("location fetch failed")
	ErrNoSensorAvailable   = errors.New("no compass sensor available")
	ErrReverseGeocodeEmpty = errors.New("reverse geocode returned no address")
	ErrStaleResult         = errors.New("result belongs to a reset session")
)

// UserError pairs an error kind with the message shown to the user.
type UserError struct {
	Kind    error
	Message string
	Err     error
}

func NewUserError(kind error, msg string, cause error) *UserError {
	return &UserError{Kind: kind, Message: msg, Err: cause}
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Is lets errors.Is match on the kind.
func (e *UserError) Is(target error) bool { return target == e.Kind }

func (e *UserError) Unwrap() error { return e.Err }

// UserMessage returns the text to surface for err, or "" if err carries none.
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}
