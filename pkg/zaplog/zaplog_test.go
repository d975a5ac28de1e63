package zaplog

import (
	"context"
	"errors"
	"testing"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	sonarlog "github.com/RyanBlaney/sonido-sonar/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewWithCore(core).WithFields(logging.Fields{"component": "test"})

	logger.Debug("hidden")
	logger.Info("rendered tile", logging.Fields{"cols": 12, "rows": 4})
	logger.Error(errors.New("device gone"), "stream failed")

	all := logs.All()
	require.Len(t, all, 2)

	ctx := all[0].ContextMap()
	assert.Equal(t, "test", ctx["component"])
	assert.EqualValues(t, 12, ctx["cols"])
	assert.EqualValues(t, 4, ctx["rows"])

	assert.Equal(t, zapcore.ErrorLevel, all[1].Level)
	assert.Equal(t, "device gone", all[1].ContextMap()["error"])
}

func TestLaterFieldsOverrideEarlier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core)

	logger.Warn("merged", logging.Fields{"k": 1}, logging.Fields{"k": 2})

	require.Equal(t, 1, logs.Len())
	assert.EqualValues(t, 2, logs.All()[0].ContextMap()["k"])
}

func TestWithContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := context.WithValue(context.Background(), "logger_fields", logging.Fields{"request": "r1"})

	NewWithCore(core).WithContext(ctx).Info("scoped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "r1", logs.All()[0].ContextMap()["request"])
}

func TestSonarBridge(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bridge := Sonar(NewWithCore(core)).WithFields(sonarlog.Fields{"component": "audio_decoder"})

	bridge.Debug("Running ffmpeg command", sonarlog.Fields{"args": "-f f64le"})
	bridge.Error(errors.New("exit 1"), "Ffmpeg decode failed")

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, "audio_decoder", all[0].ContextMap()["component"])
	assert.Equal(t, "-f f64le", all[0].ContextMap()["args"])
	assert.Equal(t, "exit 1", all[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.Level
		ok   bool
	}{
		{"debug", logging.DebugLevel, true},
		{"INFO", logging.InfoLevel, true},
		{" warn ", logging.WarnLevel, true},
		{"error", logging.ErrorLevel, true},
		{"fatal", logging.FatalLevel, true},
		{"chatty", logging.InfoLevel, false},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetLevel(t *testing.T) {
	l := New()
	prev := l.Level()
	defer l.SetLevel(prev)

	derived := l.WithFields(logging.Fields{"component": "x"})
	derived.SetLevel(logging.DebugLevel)
	assert.Equal(t, logging.DebugLevel, l.Level())
	l.SetLevel(logging.ErrorLevel)
	assert.Equal(t, logging.ErrorLevel, l.Level())
}

func TestInstall(t *testing.T) {
	prev := logging.GetGlobalLogger()
	defer logging.SetGlobalLogger(prev)

	l := Install()
	assert.Same(t, l, logging.GetGlobalLogger())
	assert.IsType(t, &sonarLogger{}, sonarlog.GetGlobalLogger())
}
