package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggerRecordsHistory(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", MaxHistory: 2, Console: true, Output: &buf})
	require.NoError(t, err)
	defer l.Close()

	log := l.Component("rig")
	log.Debug().Msg("hidden")
	log.Info().Msg("first")
	log.Warn().Msg("second")
	log.Info().Msg("third")

	hist := l.History(0)
	require.Len(t, hist, 2)
	assert.Equal(t, "second", hist[0].Message)
	assert.Equal(t, "warn", hist[0].Level)
	assert.Equal(t, "rig", hist[0].Component)
	assert.Equal(t, "third", hist[1].Message)

	assert.Len(t, l.History(1), 1)
	assert.Contains(t, buf.String(), "third")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{Dir: dir, Level: "debug"})
	require.NoError(t, err)

	z := l.Zerolog()
	z.Debug().Str("k", "v").Msg("to file")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
	assert.Contains(t, string(data), `"app":"cortexrig"`)

	hist := l.History(10)
	require.Len(t, hist, 1)
	assert.Equal(t, "", hist[0].Component)
}

func TestHistoryReadsComponentFromEvent(t *testing.T) {
	l, err := New(Config{Level: "info"})
	require.NoError(t, err)

	z := l.Zerolog().With().Str("component", "driver").Logger()
	z.Info().Msg("tick overrun")

	hist := l.History(0)
	require.Len(t, hist, 1)
	assert.Equal(t, "driver", hist[0].Component)
	assert.Equal(t, "info", hist[0].Level)
	assert.Equal(t, "tick overrun", hist[0].Message)
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "loud", Console: true, Output: &buf})
	require.NoError(t, err)

	log := l.Component("x")
	log.Debug().Msg("quiet")
	log.Info().Msg("shown")
	assert.Len(t, l.History(0), 1)
}
