package transport

// readBuffer holds bytes already received from the socket but not yet
// handed to a caller. Only data[:pos] is valid.
type readBuffer struct {
	data []byte
	pos  int
}

func newReadBuffer(capacity int) *readBuffer {
	return &readBuffer{data: make([]byte, capacity)}
}

func (rb *readBuffer) capacity() int { return len(rb.data) }

func (rb *readBuffer) empty() bool { return rb.pos == 0 }

func (rb *readBuffer) bytes() []byte { return rb.data[:rb.pos] }

// consume drops the first n buffered bytes and moves the rest to the front.
func (rb *readBuffer) consume(n int) {
	if n >= rb.pos {
		rb.pos = 0
		return
	}
	rb.pos = copy(rb.data, rb.data[n:rb.pos])
}

func (rb *readBuffer) reset() { rb.pos = 0 }
