package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/soundq/internal/audio"
	"github.com/dgnsrekt/soundq/internal/config"
)

var (
	errUnknownClip   = errors.New("no clip matches")
	errAmbiguousClip = errors.New("clip name is ambiguous")
	errBadVolume     = errors.New("volume must be a number between 0 and 1")
)

// target is one clip to play.
type target struct {
	clip   config.Clip
	volume float64
	adhoc  bool // a file path given on the command line, not in the config
}

// splitVolume splits "name@0.5" into its name and volume. A suffix that is
// not a number is left as part of the name.
func splitVolume(arg string) (string, float64, bool, error) {
	i := strings.LastIndex(arg, "@")
	if i < 0 {
		return arg, 0, false, nil
	}

	v, err := strconv.ParseFloat(arg[i+1:], 64)
	if err != nil {
		// not a volume, so part of the name
		return arg, 0, false, nil
	}
	if v < 0 || v > 1 {
		return "", 0, false, fmt.Errorf("%q: %w", arg, errBadVolume)
	}
	return arg[:i], v, true, nil
}

// resolveClip finds the configured clip called name: by id ("3" or "#3"),
// by exact name, then by fuzzy match on names.
func resolveClip(clips []config.Clip, name string) (config.Clip, error) {
	if id, err := strconv.ParseUint(strings.TrimPrefix(name, "#"), 10, 32); err == nil {
		for _, c := range clips {
			if c.ID == uint32(id) {
				return c, nil
			}
		}
	}

	for _, c := range clips {
		if c.Name != "" && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}

	labels := make([]string, len(clips))
	for i, c := range clips {
		labels[i] = c.Label()
	}

	matches := fuzzy.Find(name, labels)
	switch {
	case len(matches) == 0:
		return config.Clip{}, fmt.Errorf("%w %q", errUnknownClip, name)
	case len(matches) > 1 && matches[0].Score == matches[1].Score:
		return config.Clip{}, fmt.Errorf("%w: %q could be %s or %s",
			errAmbiguousClip, name, matches[0].Str, matches[1].Str)
	default:
		return clips[matches[0].Index], nil
	}
}

// resolveArgs turns CLIP[@VOLUME] arguments into targets. Arguments naming
// an audio file that exists become ad-hoc clips with fresh ids.
func resolveArgs(clips []config.Clip, args []string) ([]target, error) {
	nextID := freeIDs(clips)
	adhoc := map[string]config.Clip{}

	targets := make([]target, 0, len(args))
	for _, arg := range args {
		name, volume, hasVolume, err := splitVolume(arg)
		if err != nil {
			return nil, err
		}

		t := target{}
		if c, err := resolveClip(clips, name); err == nil {
			t.clip = c
		} else if isAudioFile(name) {
			c, ok := adhoc[name]
			if !ok {
				c = config.Clip{ID: nextID(), Name: name, Source: name}
				adhoc[name] = c
			}
			t.clip, t.adhoc = c, true
		} else {
			return nil, err
		}

		t.volume = t.clip.EffectiveVolume()
		if hasVolume {
			t.volume = volume
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// freeIDs hands out ids no clip uses, starting after the highest
// configured id. Used ids are skipped, so math.MaxUint32 never wraps onto
// an existing clip.
func freeIDs(clips []config.Clip) func() uint32 {
	used := make(map[uint32]bool, len(clips))
	var next uint32
	for _, c := range clips {
		used[c.ID] = true
		if c.ID+1 > next {
			next = c.ID + 1
		}
	}

	return func() uint32 {
		for used[next] {
			next++
		}
		used[next] = true
		return next
	}
}

func isAudioFile(name string) bool {
	if !audio.Supported(name) {
		return false
	}
	path, err := audio.ResolvePath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
