package main

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/soundq/internal/cache"
	"github.com/dgnsrekt/soundq/internal/config"
	"github.com/dgnsrekt/soundq/internal/playback"
)

const boardHelp = `commands:
  play CLIP[@VOLUME]...   queue clips (alias p)
  add ID SOURCE [NAME]    register a clip
  clips                   list clips registered with the engine
  stats                   show engine counters
  cache [clear]           show or empty the decoded clip cache
  help                    show this help
  quit                    leave (alias q, exit)`

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive soundboard",
	Long: paragraph(fmt.Sprintf("\nStart an %s reading commands from stdin. "+
		"Changes to the config file are picked up while it runs.", keyword("interactive soundboard"))),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		b := newBoard(cfg.Clips, s.device.Cache(), cmd.OutOrStdout())
		if cfg.Path != "" {
			go func() {
				if err := config.Watch(ctx, cfg.Path, b.reload); err != nil {
					log.Warn("Config watch stopped", "error", err)
				}
			}()
		}

		return b.run(ctx, cmd.InOrStdin())
	},
}

// board is the soundboard REPL. It reaches the engine only through the
// registry, so it keeps working if the engine is swapped.
type board struct {
	out   io.Writer
	cache *cache.MemoryCache // nil when decoding is uncached

	mu    sync.Mutex
	clips []config.Clip
}

func newBoard(clips []config.Clip, c *cache.MemoryCache, out io.Writer) *board {
	return &board{out: out, cache: c, clips: append([]config.Clip(nil), clips...)}
}

func (b *board) snapshot() []config.Clip {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]config.Clip(nil), b.clips...)
}

// reload re-registers the clips of a changed config file.
func (b *board) reload(c *config.Config, err error) {
	if err != nil {
		log.Warn("Ignoring config change", "error", err)
		b.printf("%s %v\n", errorText("config not reloaded:"), err)
		return
	}

	b.mu.Lock()
	b.clips = append([]config.Clip(nil), c.Clips...)
	b.mu.Unlock()

	registerClips(playback.Current(), c.Clips)
	b.printf("%s %d clips\n", keyword("reloaded"), len(c.Clips))

	if b.cache != nil {
		if want := c.CacheBytes(); want != b.cache.Stats().Capacity {
			b.cache.Resize(want)
			b.printf("%s %s\n", keyword("cache resized to"), humanize.Bytes(uint64(want))) //nolint:gosec
		}
	}
}

func (b *board) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

// run reads commands from in until quit, EOF or ctx ends.
func (b *board) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	b.printf("%s\n", faint("type help for commands"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := b.exec(strings.Fields(line)); quit {
				return nil
			}
		}
	}
}

// exec runs one command and reports whether the board should exit.
func (b *board) exec(fields []string) bool {
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "quit", "q", "exit":
		return true

	case "play", "p":
		targets, err := resolveArgs(b.snapshot(), args)
		if err != nil {
			b.printf("%s %v\n", errorText("error:"), err)
			return false
		}
		engine := playback.Current()
		for _, t := range targets {
			if t.adhoc {
				b.remember(t.clip)
				engine.AddAudioClip(playback.ClipID(t.clip.ID), t.clip.Source)
			}
			engine.Play(playback.ClipID(t.clip.ID), t.volume)
		}

	case "add":
		clip, err := parseAdd(args)
		if err != nil {
			b.printf("%s %v\n", errorText("error:"), err)
			return false
		}
		b.remember(clip)
		playback.Current().AddAudioClip(playback.ClipID(clip.ID), clip.Source)
		b.printf("added %s\n", clip.Label())

	case "clips":
		clips := b.snapshot()
		if e, ok := inspect(playback.Current()); ok {
			clips = registered(e.Clips(), clips)
		}
		b.mu.Lock()
		err := renderClips(b.out, clips, false)
		b.mu.Unlock()
		if err != nil {
			log.Warn("Failed to list clips", "error", err)
		}

	case "stats":
		e, ok := inspect(playback.Current())
		if !ok {
			b.printf("no statistics for the current engine\n")
			return false
		}
		st := e.Stats()
		b.printf("engine=%.8s state=%s clips=%d queued=%d played=%d failed=%d unknown=%d peak_batch=%d\n",
			e.ID(), st.State, st.Clips, st.Queued, st.Played, st.Failed, st.Unknown, st.PeakBatch)

	case "cache":
		b.execCache(args)

	case "help", "?":
		b.printf("%s\n", boardHelp)

	default:
		b.printf("%s unknown command %q; type help\n", errorText("error:"), cmd)
	}
	return false
}

// remember records clip, replacing any clip with the same id.
func (b *board) remember(clip config.Clip) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.clips {
		if c.ID == clip.ID {
			b.clips[i] = clip
			return
		}
	}
	b.clips = append(b.clips, clip)
}

func parseAdd(args []string) (config.Clip, error) {
	if len(args) < 2 || len(args) > 3 {
		return config.Clip{}, fmt.Errorf("usage: add ID SOURCE [NAME]")
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return config.Clip{}, fmt.Errorf("bad id %q: %w", args[0], err)
	}
	c := config.Clip{ID: uint32(id), Source: args[1]}
	if len(args) == 3 {
		c.Name = args[2]
	}
	return c, nil
}

func (b *board) execCache(args []string) {
	if b.cache == nil {
		b.printf("clip cache is disabled\n")
		return
	}

	switch {
	case len(args) == 0:
		st := b.cache.Stats()
		b.printf("cache: %d clips, %s of %s, hit rate %.0f%%, %d evictions\n",
			st.ItemCount,
			humanize.Bytes(uint64(st.Size)),     //nolint:gosec
			humanize.Bytes(uint64(st.Capacity)), //nolint:gosec
			st.HitRate*100, st.Evictions)
	case len(args) == 1 && strings.EqualFold(args[0], "clear"):
		b.cache.Clear()
		b.printf("%s\n", keyword("cache cleared"))
	default:
		b.printf("%s usage: cache [clear]\n", errorText("error:"))
	}
}

// inspector is implemented by engines that expose their internals.
type inspector interface {
	ID() string
	Stats() playback.Stats
	Clips() map[playback.ClipID]string
}

// inspect unwraps decorators until it finds an engine it can inspect.
func inspect(e playback.Engine) (inspector, bool) {
	for e != nil {
		if in, ok := e.(inspector); ok {
			return in, true
		}
		u, ok := e.(interface{ Unwrap() playback.Engine })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return nil, false
}

// registered lists the clips an engine holds, in id order. Names and
// volumes come from known when it has the same id and source.
func registered(sources map[playback.ClipID]string, known []config.Clip) []config.Clip {
	byID := make(map[uint32]config.Clip, len(known))
	for _, c := range known {
		byID[c.ID] = c
	}

	out := make([]config.Clip, 0, len(sources))
	for id, source := range sources {
		c, ok := byID[uint32(id)]
		if !ok || c.Source != source {
			c = config.Clip{ID: uint32(id), Source: source}
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b config.Clip) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
