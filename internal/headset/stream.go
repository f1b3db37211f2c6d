// Package headset streams electrode samples from an EEG amplifier's serial
// port to any number of subscribers. One Monitor goroutine owns the port;
// subscribers receive parsed samples over channels and malformed lines are
// logged and skipped, never fatal.
package headset

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/airobo-data/neurotrainer/internal/eeg"
	"github.com/airobo-data/neurotrainer/internal/monitoring"
)

// StreamInterface defines the interface for the sample stream, allowing the
// service wiring to swap a mock transport in dev mode.
type StreamInterface interface {
	// Subscribe creates a new channel receiving parsed electrode samples.
	// The returned ID identifies the channel for Unsubscribe.
	Subscribe() (string, chan eeg.Sample)
	// Unsubscribe removes and closes a subscriber channel.
	Unsubscribe(string)
	// Monitor reads the port until the context is cancelled or the port
	// fails, fanning parsed samples out to subscribers.
	Monitor(ctx context.Context) error
	// Close closes all subscriber channels and the underlying port.
	Close() error
}

// Stream fans samples from one Porter out to many subscribers.
type Stream struct {
	port         Porter
	subscribers  map[string]chan eeg.Sample
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// NewStream creates a Stream over an open port.
func NewStream(port Porter) *Stream {
	return &Stream{
		port:        port,
		subscribers: make(map[string]chan eeg.Sample),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value).
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe registers a new sample channel.
func (s *Stream) Subscribe() (string, chan eeg.Sample) {
	id := randomID()
	ch := make(chan eeg.Sample, 64)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the stream.
func (s *Stream) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Monitor reads sample lines from the port and fans them out to subscribers.
// The blocking scanner runs in its own goroutine so the outer loop can await
// both lines and context cancellation.
func (s *Stream) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				return scan.Err()
			}

			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			sample, ok, err := ParseSampleLine(line)
			if err != nil {
				monitoring.Logf("headset: skipping malformed line %q: %v", line, err)
				continue
			}
			if !ok {
				continue
			}

			s.subscriberMu.Lock()
			for _, ch := range s.subscribers {
				select {
				case ch <- sample:
				default:
					// a slow subscriber must not stall acquisition
				}
			}
			s.subscriberMu.Unlock()
		}
	}
}

// Close closes all subscribed channels and the underlying port.
func (s *Stream) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.subscriberMu.Unlock()

	return s.port.Close()
}
