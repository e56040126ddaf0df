package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/soundq/internal/audio"
	"github.com/dgnsrekt/soundq/internal/config"
)

const maxSourceWidth = 48

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "List configured clips",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(cfg.Clips) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), faint("No clips configured. Run `soundq config` or `soundq scan DIR` to add some."))
			return nil
		}
		styled := term.IsTerminal(int(os.Stdout.Fd()))
		return renderClips(cmd.OutOrStdout(), cfg.Clips, styled)
	},
}

// clipRow is one rendered line of the clip table.
type clipRow struct {
	id, name, volume, size, source string
	missing                        bool
}

func clipRows(clips []config.Clip) []clipRow {
	rows := make([]clipRow, 0, len(clips))
	for _, c := range clips {
		r := clipRow{
			id:     strconv.FormatUint(uint64(c.ID), 10),
			name:   c.Name,
			volume: strconv.FormatFloat(c.EffectiveVolume(), 'f', 2, 64),
			source: truncate.StringWithTail(c.Source, maxSourceWidth, "…"),
		}

		path, err := audio.ResolvePath(c.Source)
		if info, statErr := os.Stat(path); err == nil && statErr == nil {
			r.size = humanize.Bytes(uint64(info.Size())) //nolint:gosec
		} else {
			r.size = "missing"
			r.missing = true
		}
		rows = append(rows, r)
	}
	return rows
}

// renderClips writes an aligned table of clips. Styling is only applied
// when styled is set.
func renderClips(w io.Writer, clips []config.Clip, styled bool) error {
	rows := clipRows(clips)
	titles := clipRow{id: "ID", name: "NAME", volume: "VOLUME", size: "SIZE", source: "SOURCE"}

	widths := [4]int{}
	for _, r := range append([]clipRow{titles}, rows...) {
		for i, cell := range []string{r.id, r.name, r.volume, r.size} {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	line := func(r clipRow) string {
		cells := []string{r.id, r.name, r.volume, r.size}
		var b strings.Builder
		for i, cell := range cells {
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString(r.source)
		return b.String()
	}

	head := line(titles)
	if styled {
		head = header.Render(head)
	}
	if _, err := fmt.Fprintln(w, head); err != nil {
		return err //nolint:wrapcheck
	}

	for _, r := range rows {
		l := line(r)
		if styled && r.missing {
			l = errorText(l)
		}
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err //nolint:wrapcheck
		}
	}
	return nil
}
