package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/soundq/internal/audio"
	"github.com/dgnsrekt/soundq/internal/cache"
	"github.com/dgnsrekt/soundq/internal/config"
	"github.com/dgnsrekt/soundq/internal/playback"
)

func newTestSession(t *testing.T, clips []config.Clip) (*session, *audio.Mock) {
	t.Helper()
	log.SetOutput(io.Discard)

	mock := audio.NewMock(nil, log.New(io.Discard))
	s, err := startSession(mock, clips, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mock
}

func flushSession(t *testing.T, s *session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.engine.Flush(ctx))
}

func TestBoard_PlayAddStatsQuit(t *testing.T) {
	s, mock := newTestSession(t, testClips)

	var out bytes.Buffer
	b := newBoard(testClips, nil, &out)

	input := strings.Join([]string{
		"play kick snare@0.5",
		"add 20 clap.wav clap",
		"p clap",
		"bogus",
		"play nothing-like-this",
		"quit",
		"play kick", // never reached
	}, "\n")

	require.NoError(t, b.run(context.Background(), strings.NewReader(input)))
	flushSession(t, s)

	var triggered []string
	for _, c := range mock.Calls() {
		if c.Op == "trigger" {
			triggered = append(triggered, c.Source)
		}
	}
	assert.Equal(t, []string{"kick.wav", "snare.wav", "clap.wav"}, triggered)

	text := out.String()
	assert.Contains(t, text, "added clap")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.Contains(t, text, "no clip matches")

	out.Reset()
	require.True(t, b.exec([]string{"q"}))
	b.exec([]string{"stats"})
	assert.Contains(t, out.String(), "played=3")
	assert.Contains(t, out.String(), "engine="+s.engine.ID()[:8])
}

func TestBoard_ReloadRegistersClips(t *testing.T) {
	s, mock := newTestSession(t, nil)

	var out bytes.Buffer
	b := newBoard(nil, nil, &out)

	b.reload(&config.Config{Clips: []config.Clip{{ID: 3, Name: "bell", Source: "bell.wav"}}}, nil)
	b.exec([]string{"play", "bell"})
	flushSession(t, s)

	assert.EqualValues(t, 1, mock.Triggers())
	assert.Contains(t, out.String(), "reloaded 1 clips")

	b.reload(nil, config.ErrInvalid)
	assert.Contains(t, out.String(), "config not reloaded")
	assert.Len(t, b.snapshot(), 1, "a bad reload keeps the old clips")
}

func TestBoard_StopsOnContext(t *testing.T) {
	newTestSession(t, nil)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newBoard(nil, nil, io.Discard).run(ctx, pr) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("board did not stop")
	}
}

func TestInspect(t *testing.T) {
	s, _ := newTestSession(t, nil)

	e, ok := inspect(playback.Current())
	require.True(t, ok, "the engine is found through the logging decorator")
	assert.Equal(t, playback.StateRunning, e.Stats().State)
	assert.Equal(t, s.engine.ID(), e.ID())

	_, ok = inspect(playback.Null{})
	assert.False(t, ok)

	require.NoError(t, s.Close())
	assert.Equal(t, playback.Null{}, playback.Current(), "closing resets the registry")
}

func TestBoard_ClipsListsEngineRegistrations(t *testing.T) {
	newTestSession(t, testClips[:2])

	var out bytes.Buffer
	b := newBoard(testClips[:2], nil, &out)
	b.exec([]string{"add", "30", "extra.wav", "extra"})
	playback.Current().AddAudioClip(31, "direct.wav")
	b.reload(&config.Config{Clips: testClips[:1]}, nil)

	out.Reset()
	b.exec([]string{"clips"})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5, "header plus every clip the engine holds")
	assert.Contains(t, lines[1], "kick")
	assert.Contains(t, lines[2], "snare", "a clip dropped from the config stays registered")
	assert.Contains(t, lines[3], "extra")
	assert.Contains(t, lines[4], "direct.wav")
}

func TestRegistered(t *testing.T) {
	known := []config.Clip{
		{ID: 2, Name: "two", Source: "two.wav", Volume: 0.5},
		{ID: 3, Name: "three", Source: "three.wav"},
	}
	got := registered(map[playback.ClipID]string{
		3: "other.wav",
		2: "two.wav",
		1: "one.wav",
	}, known)

	assert.Equal(t, []config.Clip{
		{ID: 1, Source: "one.wav"},
		{ID: 2, Name: "two", Source: "two.wav", Volume: 0.5},
		{ID: 3, Source: "other.wav"},
	}, got)
}

func TestBoard_ReloadResizesCache(t *testing.T) {
	newTestSession(t, nil)

	c := cache.NewMemoryCache(8<<20, log.New(io.Discard))
	require.NoError(t, c.Put(cache.Key{Path: "a.wav", Format: "44100Hz/2ch"}, make([]byte, 512)))

	var out bytes.Buffer
	b := newBoard(nil, c, &out)

	b.reload(&config.Config{CacheSize: 8}, nil)
	assert.NotContains(t, out.String(), "cache resized", "an unchanged size is left alone")

	b.reload(&config.Config{CacheSize: 2}, nil)
	assert.EqualValues(t, 2<<20, c.Stats().Capacity)
	assert.Contains(t, out.String(), "cache resized to 2.1 MB")
}

func TestBoard_CacheCommand(t *testing.T) {
	var out bytes.Buffer
	newBoard(nil, nil, &out).exec([]string{"cache"})
	assert.Contains(t, out.String(), "clip cache is disabled")

	c := cache.NewMemoryCache(1<<20, log.New(io.Discard))
	require.NoError(t, c.Put(cache.Key{Path: "a.wav", Format: "44100Hz/2ch"}, make([]byte, 1000)))

	out.Reset()
	b := newBoard(nil, c, &out)
	b.exec([]string{"cache"})
	assert.Contains(t, out.String(), "cache: 1 clips, 1.0 kB of 1.0 MB")

	b.exec([]string{"cache", "clear"})
	assert.Contains(t, out.String(), "cache cleared")
	assert.Zero(t, c.Stats().ItemCount)

	b.exec([]string{"cache", "drop"})
	assert.Contains(t, out.String(), "usage: cache [clear]")
}

func TestParseAdd(t *testing.T) {
	c, err := parseAdd([]string{"7", "a.wav", "alpha"})
	require.NoError(t, err)
	assert.Equal(t, config.Clip{ID: 7, Name: "alpha", Source: "a.wav"}, c)

	_, err = parseAdd([]string{"x", "a.wav"})
	assert.Error(t, err)
	_, err = parseAdd([]string{"1"})
	assert.Error(t, err)
}
