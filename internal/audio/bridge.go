// Package audio is the Audio Bridge: it owns the portaudio input/output
// device streams, the only audio-hardware library present anywhere in this
// project's dependency corpus, and bridges them to bounded byte queues of
// A-law samples. The device itself is an external collaborator — this
// package exists only to wire its input/output callbacks to the rest of the
// softphone, not to reimplement device I/O.
package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/sebas/sipphone/internal/mediacodec"
)

// DeviceSampleRate is the native rate the local sound device is opened at;
// audio is resampled between this and G.711's fixed 8kHz rate.
const DeviceSampleRate = 48000

// QueueCapacity is the bounded channel size for each direction, per spec.
const QueueCapacity = 200

// backlogSpeedThreshold is the number of pending output frames above which
// playback speeds up to drain backlog instead of growing latency.
const backlogSpeedThreshold = 5

// ErrStreamExists is returned when a stream of the requested direction is
// already active.
var ErrStreamExists = fmt.Errorf("audio: stream already created")

// Bridge owns the process's single input and single output device stream.
type Bridge struct {
	mu     sync.Mutex
	out    *outputStream
	in     *inputStream
	inited bool
}

// New initializes the portaudio host. Device acquisition failure here is
// fatal at construction, per spec.
func New() (*Bridge, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize device host: %w", err)
	}
	return &Bridge{inited: true}, nil
}

// Close releases the portaudio host. Safe to call after streams are torn
// down.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inited {
		return nil
	}
	b.inited = false
	return portaudio.Terminate()
}

// outputStream pulls A-law frames from a bounded channel, decodes and
// resamples them, and writes PCM to the speaker callback.
type outputStream struct {
	stream *portaudio.Stream
	frames chan []byte
}

// CreateOutputStream starts the device-output callback and returns a bounded
// sender of A-law bytes. Fails with ErrStreamExists if one is already
// active.
func (b *Bridge) CreateOutputStream() (chan<- []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.out != nil {
		return nil, ErrStreamExists
	}

	frames := make(chan []byte, QueueCapacity)
	out := &outputStream{frames: frames}

	var leftover []int16
	speed := 1.0

	cb := func(output []int16) {
		backlog := len(frames)
		if backlog > backlogSpeedThreshold {
			speed = 1.1
		} else {
			speed = 1.0
		}

		for i := range output {
			if len(leftover) == 0 {
				select {
				case alaw, ok := <-frames:
					if !ok {
						output[i] = 0
						continue
					}
					pcm := mediacodec.DecodeALaw(alaw)
					// Resampling to fewer output samples than the device's native
					// rate packs the same audio into less playback time, draining
					// backlog; dividing by speed (not multiplying) is what shrinks
					// the sample count.
					resampled := mediacodec.Resample(pcm, mediacodec.SampleRate, int(float64(DeviceSampleRate)/speed))
					leftover = bytesToInt16(resampled)
				default:
					output[i] = 0
					continue
				}
			}
			if len(leftover) > 0 {
				output[i] = leftover[0]
				leftover = leftover[1:]
			} else {
				output[i] = 0
			}
		}
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(DeviceSampleRate), 0, cb)
	if err != nil {
		return nil, fmt.Errorf("audio: open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("audio: start output stream: %w", err)
	}

	out.stream = stream
	b.out = out
	return frames, nil
}

// DestroyOutputStream stops the output callback and releases the device.
func (b *Bridge) DestroyOutputStream() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.out == nil {
		return nil
	}
	err := b.out.stream.Close()
	close(b.out.frames)
	b.out = nil
	return err
}

// inputStream picks up mic samples, resamples and encodes them, and
// try-sends the result (lossy on overflow — the hard real-time path never
// blocks on a full queue).
type inputStream struct {
	stream *portaudio.Stream
	frames chan []byte
}

// CreateInputStream starts the device-input callback and returns a bounded
// receiver of A-law bytes.
func (b *Bridge) CreateInputStream() (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.in != nil {
		return nil, ErrStreamExists
	}

	frames := make(chan []byte, QueueCapacity)
	var pcmBuf []byte

	cb := func(input []int16) {
		for _, s := range input {
			pcmBuf = append(pcmBuf, byte(s&0xFF), byte((s>>8)&0xFF))
		}
		downsampled := mediacodec.Resample(pcmBuf, DeviceSampleRate, mediacodec.SampleRate)
		pcmBuf = pcmBuf[:0]

		if len(downsampled) == 0 {
			return
		}
		alaw := mediacodec.EncodeALaw(downsampled)

		select {
		case frames <- alaw:
		default:
			slog.Warn("audio: input queue full, dropping frame")
		}
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(DeviceSampleRate), 0, cb)
	if err != nil {
		return nil, fmt.Errorf("audio: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("audio: start input stream: %w", err)
	}

	b.in = &inputStream{stream: stream, frames: frames}
	return frames, nil
}

// DestroyInputStream stops the input callback and releases the device.
func (b *Bridge) DestroyInputStream() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.in == nil {
		return nil
	}
	err := b.in.stream.Close()
	close(b.in.frames)
	b.in = nil
	return err
}

func bytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return out
}
