package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadBuffer_Consume(t *testing.T) {
	rb := newReadBuffer(8)
	assert.True(t, rb.empty())
	assert.Equal(t, 8, rb.capacity())

	rb.pos = copy(rb.data, "abcdef")
	rb.consume(2)
	assert.Equal(t, "cdef", string(rb.bytes()))

	rb.consume(0)
	assert.Equal(t, "cdef", string(rb.bytes()))

	rb.consume(10)
	assert.True(t, rb.empty())
	assert.Empty(t, rb.bytes())
}

func TestReadBuffer_Reset(t *testing.T) {
	rb := newReadBuffer(4)
	rb.pos = copy(rb.data, "abcd")
	rb.reset()
	assert.True(t, rb.empty())
	assert.Equal(t, 4, rb.capacity())
}
