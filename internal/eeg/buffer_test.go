package eeg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRingBufferFillAndEvict(t *testing.T) {
	b := newRingBuffer(3)

	if b.len() != 0 {
		t.Fatalf("fresh buffer length = %d, want 0", b.len())
	}

	b.push(1)
	b.push(2)
	if diff := cmp.Diff([]float64{1, 2}, b.values()); diff != "" {
		t.Errorf("partial fill mismatch (-want +got):\n%s", diff)
	}

	b.push(3)
	b.push(4) // evicts 1
	b.push(5) // evicts 2

	if b.len() != 3 {
		t.Errorf("full buffer length = %d, want 3", b.len())
	}
	if diff := cmp.Diff([]float64{3, 4, 5}, b.values()); diff != "" {
		t.Errorf("post-eviction contents mismatch (-want +got):\n%s", diff)
	}
}

func TestRingBufferWrapsRepeatedly(t *testing.T) {
	b := newRingBuffer(4)
	for i := 0; i < 100; i++ {
		b.push(float64(i))
	}
	if diff := cmp.Diff([]float64{96, 97, 98, 99}, b.values()); diff != "" {
		t.Errorf("wrap contents mismatch (-want +got):\n%s", diff)
	}
}

func TestRingBufferValuesIsACopy(t *testing.T) {
	b := newRingBuffer(2)
	b.push(1)
	v := b.values()
	v[0] = 42
	if b.values()[0] != 1 {
		t.Error("values() must return a copy, not the backing array")
	}
}
