package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muesli/gitcha"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/soundq/internal/config"
)

var (
	scanAll bool

	audioPatterns = []string{"*.wav", "*.wave", "*.mp3", "*.wav.zst", "*.mp3.zst"}

	scanCmd = &cobra.Command{
		Use:   "scan [DIR]",
		Short: "Find audio files and print them as clips",
		Long: paragraph(fmt.Sprintf("\n%s DIR for WAV and MP3 files, honouring .gitignore, and print a "+
			"clips section to paste into the config file. Ids continue after the configured clips.", keyword("Search"))),
		Example: paragraph("soundq scan ~/sounds >> ~/.config/soundq/soundq.yml"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			files, err := findAudioFiles(dir, scanAll)
			if err != nil {
				return err
			}
			return writeClipsYAML(cmd.OutOrStdout(), cfg.Clips, files)
		},
	}
)

// findAudioFiles returns the audio files under dir in sorted order.
func findAudioFiles(dir string, all bool) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}

	var ch chan gitcha.SearchResult
	if all {
		ch, err = gitcha.FindAllFilesExcept(abs, audioPatterns, nil)
	} else {
		ch, err = gitcha.FindFilesExcept(abs, audioPatterns, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to search %s: %w", dir, err)
	}

	var files []string
	for res := range ch {
		files = append(files, res.Path)
	}
	sort.Strings(files)
	return files, nil
}

// clipName derives a clip name from a file name.
func clipName(path string) string {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, ".zst")
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeClipsYAML prints a clips section for files, skipping sources that
// are already configured and names that are taken.
func writeClipsYAML(w io.Writer, existing []config.Clip, files []string) error {
	var nextID uint32
	sources := map[string]bool{}
	names := map[string]bool{}
	for _, c := range existing {
		if c.ID >= nextID {
			nextID = c.ID + 1
		}
		sources[c.Source] = true
		names[strings.ToLower(c.Name)] = true
	}

	type entry struct {
		ID     uint32 `yaml:"id"`
		Name   string `yaml:"name"`
		Source string `yaml:"source"`
	}
	var out []entry
	for _, f := range files {
		if sources[f] {
			continue
		}
		name := clipName(f)
		for n := 2; names[name]; n++ {
			name = fmt.Sprintf("%s-%d", clipName(f), n)
		}
		names[name] = true

		out = append(out, entry{ID: nextID, Name: name, Source: f})
		nextID++
	}

	if len(out) == 0 {
		_, err := fmt.Fprintln(w, "# no new audio files found")
		return err //nolint:wrapcheck
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]entry{"clips": out}); err != nil {
		return fmt.Errorf("unable to encode clips: %w", err)
	}
	return enc.Close() //nolint:wrapcheck
}

func init() {
	scanCmd.Flags().BoolVarP(&scanAll, "all", "a", false, "include files ignored by .gitignore")
}
