package guard

import "errors"

var (
	// ErrRedirectLoop is returned when following guard redirects does not settle.
	ErrRedirectLoop = errors.New("guard redirect loop")
	// ErrInvalidRoute is returned for malformed route table entries.
	ErrInvalidRoute = errors.New("invalid route")
)
