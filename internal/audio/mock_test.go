package audio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/soundq/internal/playback"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestMock_RecordsCalls(t *testing.T) {
	m := NewMock(nil, quietLogger())

	h, err := m.Load("a.wav")
	require.NoError(t, err)
	m.SetVolume(h, 1.7)
	require.NoError(t, m.Trigger(h))

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "load", calls[0].Op)
	assert.Equal(t, "volume", calls[1].Op)
	assert.Equal(t, 1.7, calls[1].Volume)
	assert.Equal(t, "trigger", calls[2].Op)
	assert.Equal(t, 1.0, calls[2].Volume, "trigger uses the clamped volume")
	assert.EqualValues(t, 1, m.Triggers())

	m.Reset()
	assert.Empty(t, m.Calls())
}

func TestMock_FailLoad(t *testing.T) {
	m := NewMock(nil, quietLogger())
	boom := errors.New("no such clip")

	m.FailLoad("bad.wav", boom)
	_, err := m.Load("bad.wav")
	assert.ErrorIs(t, err, boom)

	m.FailLoad("bad.wav", nil)
	_, err = m.Load("bad.wav")
	assert.NoError(t, err)
}

func TestMock_InvalidHandleAndClose(t *testing.T) {
	m := NewMock(nil, quietLogger())
	assert.ErrorIs(t, m.Trigger(nil), ErrInvalidHandle)

	h, err := m.Load("a.wav")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.Trigger(h), ErrClosed)
	_, err = m.Load("a.wav")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMock_WaitCoversClipLength(t *testing.T) {
	m := NewMock(nil, quietLogger())
	m.SetClipLength(50 * time.Millisecond)

	h, err := m.Load("a.wav")
	require.NoError(t, err)
	require.NoError(t, m.Trigger(h))
	assert.Equal(t, 1, m.Playing())

	start := time.Now()
	require.NoError(t, m.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Zero(t, m.Playing())
}

func TestMock_WaitHonoursContext(t *testing.T) {
	m := NewMock(nil, quietLogger())
	m.SetClipLength(time.Hour)

	h, err := m.Load("a.wav")
	require.NoError(t, err)
	require.NoError(t, m.Trigger(h))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.DeadlineExceeded)
}

func TestMock_DecodesThroughLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeWAV(t, dir, "beep.wav", 44100, 16, 2, make([]int, 44100*2/10))

	m := NewMock(NewLoader(DefaultFormat(), nil, quietLogger()), quietLogger())

	_, err := m.Load(dir + "/missing.wav")
	assert.Error(t, err)

	h, err := m.Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Trigger(h))
	assert.Equal(t, 1, m.Playing(), "clip length comes from the decoded PCM")
}

func TestMock_DrivesEngine(t *testing.T) {
	m := NewMock(nil, quietLogger())
	e, err := playback.New(m, playback.WithLogger(quietLogger()))
	require.NoError(t, err)

	e.AddAudioClip(0, "a.wav")
	e.Play(0, 0.5)
	e.Play(0, 1.0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Flush(ctx))
	require.NoError(t, e.Close())

	var ops []string
	for _, c := range m.Calls() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"load", "volume", "trigger", "volume", "trigger"}, ops)
}
