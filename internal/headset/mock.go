package headset

import (
	"bytes"
	"io"
	"time"
)

// blockSize is the number of samples the amplifier delivers per callback
// block; the mock paces its replay in the same chunks.
const blockSize = 8

// MockPort replays fixture sample lines through an in-memory pipe so the
// full Stream path (scanner, parser, fan-out) runs without hardware.
type MockPort struct {
	io.Reader
	done chan struct{}
}

// Close stops the replay goroutine.
func (m *MockPort) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

// NewMockStream creates a Stream backed by a looping replay of the fixture
// bytes. Lines are emitted in blocks of eight, paced to approximate the
// given sampling rate.
func NewMockStream(fixture []byte, sampleRateHz int) *Stream {
	r, w := io.Pipe()
	done := make(chan struct{})

	lines := bytes.Split(bytes.TrimSpace(fixture), []byte("\n"))
	interval := time.Duration(blockSize) * time.Second / time.Duration(sampleRateHz)

	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		next := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				var block bytes.Buffer
				for i := 0; i < blockSize; i++ {
					block.Write(lines[next])
					block.WriteByte('\n')
					next = (next + 1) % len(lines)
				}
				if _, err := w.Write(block.Bytes()); err != nil {
					return
				}
			}
		}
	}()

	return NewStream(&MockPort{Reader: r, done: done})
}
