package audio

import (
	"fmt"
	"time"
)

const (
	// DefaultSampleRate is CD quality.
	DefaultSampleRate = 44100
	// DefaultChannels is stereo.
	DefaultChannels = 2
	// BitDepth is the only output depth: signed 16-bit little endian.
	BitDepth = 16
)

// Format is the PCM layout clips are decoded into.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat returns 44.1kHz stereo.
func DefaultFormat() Format {
	return Format{SampleRate: DefaultSampleRate, Channels: DefaultChannels}
}

// Validate reports whether the device libraries can open f.
func (f Format) Validate() error {
	if f.SampleRate != 22050 && f.SampleRate != 44100 && f.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 22050, 44100 or 48000 Hz, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", f.Channels)
	}
	return nil
}

// BytesPerFrame is the size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return BitDepth / 8 * f.Channels
}

// Duration returns how long n bytes of PCM in f play for.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate == 0 || f.BytesPerFrame() == 0 {
		return 0
	}
	frames := n / f.BytesPerFrame()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// String is used in cache keys and logs.
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}
