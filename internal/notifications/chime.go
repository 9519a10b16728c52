package notifications

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"sync"
)

const (
	chimeSampleRate = 22050
	chimeDuration   = 0.5
	chimeSweepTime  = 0.1
	chimeStartHz    = 523.25
	chimeEndHz      = 1046.5
	chimeStartGain  = 0.1
	chimeEndGain    = 0.01
)

// Chime renders the "ding" cue as a mono 16-bit PCM WAV and writes it to a
// sink (a speaker pipe, a file, or io.Discard).
type Chime struct {
	mu   sync.Mutex
	sink io.Writer
	wav  []byte
}

// NewChime prepares the cue. A nil sink makes Play a no-op.
func NewChime(sink io.Writer) *Chime {
	return &Chime{sink: sink, wav: SynthesizeChime(chimeSampleRate)}
}

// Play writes one rendition of the cue to the sink.
func (c *Chime) Play(ctx context.Context) error {
	if c == nil || c.sink == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.sink.Write(c.wav)
	return err
}

// SynthesizeChime renders a sine that sweeps exponentially from C5 to C6 in
// the first 100ms while the gain decays exponentially over 500ms.
func SynthesizeChime(sampleRate int) []byte {
	n := int(float64(sampleRate) * chimeDuration)
	samples := make([]int16, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		freq := chimeEndHz
		if t < chimeSweepTime {
			freq = chimeStartHz * math.Pow(chimeEndHz/chimeStartHz, t/chimeSweepTime)
		}
		gain := chimeStartGain * math.Pow(chimeEndGain/chimeStartGain, t/chimeDuration)
		samples[i] = int16(math.Sin(phase) * gain * math.MaxInt16)
		phase += 2 * math.Pi * freq / float64(sampleRate)
	}
	return encodeWAV(samples, sampleRate)
}

func encodeWAV(samples []int16, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := uint32(len(samples) * 2)
	var buf bytes.Buffer
	buf.Grow(44 + int(dataLen))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
