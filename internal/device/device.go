// Package device connects the playback engine and the pitch monitor to the
// machine's sound hardware. Build with -tags headless to compile without
// the native audio backends.
package device

import (
	"errors"

	"github.com/RyanBlaney/spectro-tab/pkg/playback"
)

var ErrUnavailable = errors.New("audio device unavailable")

// Source delivers input blocks to a callback until closed
type Source interface {
	Start(onBlock func([]float32)) error
	Close() error
}

// Output returns the sink used for playback. headless forces a paced
// DiscardSink even when a native backend is compiled in.
func Output(headless bool) playback.Sink {
	if headless || !Native {
		return playback.DiscardSink{Realtime: true}
	}
	return NewOtoSink(nil)
}
