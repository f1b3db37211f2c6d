package eeg

// ringBuffer is a fixed-capacity FIFO over float64 samples. When full, a push
// evicts the oldest value. It is not safe for concurrent use; the estimator
// owns one per channel and the caller serializes access (one in-flight call
// per estimator instance).
type ringBuffer struct {
	data  []float64
	head  int // index of the oldest value
	count int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{data: make([]float64, capacity)}
}

func (b *ringBuffer) push(v float64) {
	if b.count < len(b.data) {
		b.data[(b.head+b.count)%len(b.data)] = v
		b.count++
		return
	}
	// full: overwrite the oldest slot and advance the head
	b.data[b.head] = v
	b.head = (b.head + 1) % len(b.data)
}

func (b *ringBuffer) len() int {
	return b.count
}

// values returns the buffered samples oldest-first as a fresh slice.
func (b *ringBuffer) values() []float64 {
	out := make([]float64, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(b.head+i)%len(b.data)]
	}
	return out
}
