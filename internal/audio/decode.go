package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/klauspost/compress/zstd"
	"github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/soundq/internal/cache"
)

// Extensions lists the source suffixes Decode understands, without the
// optional ".zst".
var Extensions = []string{".wav", ".mp3"}

// Supported reports whether path has a decodable extension.
func Supported(path string) bool {
	_, ok := codecFor(path)
	return ok
}

type codec func(data []byte) (samples, error)

func codecFor(path string) (codec, bool) {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".zst")

	switch filepath.Ext(name) {
	case ".wav", ".wave":
		return decodeWAV, true
	case ".mp3":
		return decodeMP3, true
	default:
		return nil, false
	}
}

// ResolvePath expands a leading ~ and cleans path.
func ResolvePath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Clean(expanded), nil
}

// Decode reads the clip at source and returns it as PCM in format f.
func Decode(source string, f Format) ([]byte, error) {
	path, err := ResolvePath(source)
	if err != nil {
		return nil, err
	}

	dec, ok := codecFor(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	s, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if s.frames() == 0 {
		return nil, fmt.Errorf("decode %s: %w: no audio frames", path, ErrInvalidAudio)
	}
	return encode(s, f), nil
}

// readSource reads path, decompressing it when it ends in .zst.
func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clip: %w", err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".zst") {
		return data, nil
	}

	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer zr.Close()

	raw, err := zr.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return raw, nil
}

func decodeWAV(data []byte) (samples, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return samples{}, fmt.Errorf("%w: not a PCM wav file", ErrInvalidAudio)
	}
	if d.WavAudioFormat != 1 {
		return samples{}, fmt.Errorf("%w: wav encoding %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return samples{}, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}

	depth := int(d.BitDepth)
	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = toInt16(v, depth)
	}

	return samples{
		data:     out,
		rate:     buf.Format.SampleRate,
		channels: buf.Format.NumChannels,
	}, nil
}

// decodeMP3 yields 16-bit stereo, the only layout go-mp3 produces.
func decodeMP3(data []byte) (samples, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return samples{}, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return samples{}, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}

	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return samples{data: out, rate: d.SampleRate(), channels: 2}, nil
}

// Loader decodes clip sources and memoizes the result.
type Loader struct {
	format Format
	cache  *cache.MemoryCache
	logger *log.Logger
}

// NewLoader returns a loader for format f. A nil cache decodes on every
// call.
func NewLoader(f Format, c *cache.MemoryCache, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{format: f, cache: c, logger: logger}
}

// Format returns the output format.
func (l *Loader) Format() Format {
	return l.format
}

// Cache returns the decoded-clip cache, or nil when caching is off.
func (l *Loader) Cache() *cache.MemoryCache {
	if l == nil {
		return nil
	}
	return l.cache
}

// Load returns the PCM for source.
func (l *Loader) Load(source string) ([]byte, error) {
	if l.cache == nil {
		return Decode(source, l.format)
	}

	path, err := ResolvePath(source)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat clip: %w", err)
	}

	key := cache.KeyFor(path, info, l.format.String())
	return l.cache.Load(key, func() ([]byte, error) {
		pcm, err := Decode(path, l.format)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Decoded clip",
			"path", path,
			"duration", l.format.Duration(len(pcm)),
			"format", l.format)
		return pcm, nil
	})
}
