package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nczempin/sysock/transport"
)

func TestUnescape(t *testing.T) {
	tests := map[string]string{
		`hello`:      "hello",
		`GET /\r\n`:  "GET /\r\n",
		`\x00\x01`:   "\x00\x01",
		`say "hi"\n`: "say \"hi\"\n",
		`tab\there`:  "tab\there",
	}
	for in, want := range tests {
		got, err := unescape(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, string(got), in)
	}

	_, err := unescape(`bad\q`)
	require.Error(t, err)
}

func TestRenderStatusTable(t *testing.T) {
	tr, err := transport.NewSysTransport()
	require.NoError(t, err)
	defer tr.Destroy()

	out := RenderStatusTable(tr)
	assert.Contains(t, out, tr.ID().String())
	assert.Contains(t, out, "disconnected")
	assert.Contains(t, out, "syscall")
}
