package playback

import "errors"

var (
	ErrNoAudio     = errors.New("no audio loaded")
	ErrInvalidLoop = errors.New("invalid loop region")
)

// PlaybackError reports an output device failure. The engine is Stopped
// whenever one is returned.
type PlaybackError struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *PlaybackError) Error() string {
	msg := "playback " + e.Op + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *PlaybackError) Unwrap() error {
	return e.Cause
}

// NewPlaybackError creates a new playback error
func NewPlaybackError(op, message string, cause error) *PlaybackError {
	return &PlaybackError{Op: op, Message: message, Cause: cause}
}
