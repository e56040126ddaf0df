package audio

import (
	"encoding/binary"
	"math"
)

// samples is interleaved signed 16-bit audio at some rate and channel count.
type samples struct {
	data     []int16
	rate     int
	channels int
}

func (s samples) frames() int {
	if s.channels == 0 {
		return 0
	}
	return len(s.data) / s.channels
}

// toInt16 scales a decoded integer sample of the given bit depth to 16 bits.
// 8-bit WAV data is unsigned.
func toInt16(v, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		return int16((v - 128) << 8)
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	case bitDepth < 16:
		return int16(v << (16 - bitDepth))
	default:
		return int16(v)
	}
}

// remix converts s to the given channel count. Mono is duplicated to every
// output channel; downmixing to mono averages all input channels; any other
// mapping takes input channel min(c, in-1).
func remix(s samples, channels int) samples {
	if s.channels == channels || s.channels == 0 {
		return s
	}

	n := s.frames()
	out := make([]int16, n*channels)
	for f := 0; f < n; f++ {
		in := s.data[f*s.channels : (f+1)*s.channels]
		for c := 0; c < channels; c++ {
			var v int16
			switch {
			case s.channels == 1:
				v = in[0]
			case channels == 1:
				sum := 0
				for _, x := range in {
					sum += int(x)
				}
				v = int16(sum / len(in))
			default:
				v = in[min(c, s.channels-1)]
			}
			out[f*channels+c] = v
		}
	}
	return samples{data: out, rate: s.rate, channels: channels}
}

// resample converts s to rate by linear interpolation between frames.
func resample(s samples, rate int) samples {
	if s.rate == rate || s.rate == 0 || rate == 0 {
		return s
	}

	inFrames := s.frames()
	if inFrames == 0 {
		return samples{rate: rate, channels: s.channels}
	}

	outFrames := int(int64(inFrames) * int64(rate) / int64(s.rate))
	out := make([]int16, outFrames*s.channels)
	step := float64(s.rate) / float64(rate)

	for f := 0; f < outFrames; f++ {
		pos := float64(f) * step
		i0 := int(pos)
		i1 := min(i0+1, inFrames-1)
		frac := pos - float64(i0)

		for c := 0; c < s.channels; c++ {
			a := float64(s.data[i0*s.channels+c])
			b := float64(s.data[i1*s.channels+c])
			out[f*s.channels+c] = int16(math.Round(a + (b-a)*frac))
		}
	}
	return samples{data: out, rate: rate, channels: s.channels}
}

// encode converts s to format f and serializes it as little-endian bytes.
func encode(s samples, f Format) []byte {
	s = resample(remix(s, f.Channels), f.SampleRate)

	out := make([]byte, len(s.data)*2)
	for i, v := range s.data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
