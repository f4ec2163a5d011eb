package chat

var (
	ErrUsernameTaken   = errorString("username_taken")
	ErrUsernameInvalid = errorString("username_invalid")

	// ErrNeedMore means the decoder buffer holds only a partial frame;
	// the caller should read more bytes and try again.
	ErrNeedMore = errorString("need_more_data")

	// ErrFrameTooLarge and ErrMalformedFrame are session-fatal: the
	// offending connection is closed, the server keeps running.
	ErrFrameTooLarge  = errorString("frame_too_large")
	ErrMalformedFrame = errorString("malformed_frame")

	// ErrAuthentication is returned when a ciphertext fails its integrity
	// check. Treated exactly like a malformed frame.
	ErrAuthentication = errorString("authentication_failure")
)

type errorString string

func (e errorString) Error() string { return string(e) }
