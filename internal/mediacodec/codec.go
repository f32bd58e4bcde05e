// Package mediacodec handles the sample-level conversions the audio bridge
// needs: A-law encode/decode (via the G.711 library the switchboard teacher
// already uses for mu-law) and resampling between the device's native rate
// and the fixed 8kHz G.711 rate. No FFT-based resampler exists anywhere in
// the example corpus this was grounded from, so resampling here follows the
// teacher's own manual linear-interpolation approach rather than reaching
// for an unavailable third-party DSP library.
package mediacodec

import (
	"github.com/zaf/g711"
)

// SampleRate is the fixed G.711 A-law sample rate.
const SampleRate = 8000

// EncodeALaw converts 16-bit little-endian PCM samples to A-law bytes.
func EncodeALaw(pcm []byte) []byte {
	return g711.EncodeAlaw(pcm)
}

// DecodeALaw converts A-law bytes back to 16-bit little-endian PCM samples.
func DecodeALaw(alaw []byte) []byte {
	return g711.DecodeAlaw(alaw)
}

// Resample converts mono 16-bit little-endian PCM from one sample rate to
// another via linear interpolation between adjacent samples.
func Resample(pcm []byte, fromRate, toRate int) []byte {
	if fromRate == toRate || len(pcm) < 4 {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out
	}

	inSamples := len(pcm) / 2
	ratio := float64(fromRate) / float64(toRate)
	outSamples := int(float64(inSamples) / ratio)
	out := make([]byte, 0, outSamples*2)

	for i := 0; i < outSamples; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		if srcIdx >= inSamples {
			break
		}

		s1 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		// Past the last input sample there is no neighbour to interpolate
		// towards, so the last sample is held.
		s2 := s1
		if srcIdx+1 < inSamples {
			s2 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		}
		interp := int16(float64(s1)*(1-frac) + float64(s2)*frac)

		out = append(out, byte(interp&0xFF), byte((interp>>8)&0xFF))
	}

	return out
}
