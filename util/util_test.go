package util

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "42 B", FormatSize(42))
	assert.Equal(t, "999 B", FormatSize(999))
	assert.Equal(t, "1.0 KB", FormatSize(1000))
	assert.Equal(t, "1.5 KB", FormatSize(1500))
	assert.Equal(t, "1.5 MB", FormatSize(1500000))
	assert.Equal(t, "2.0 GB", FormatSize(2000000000))
}

func TestDecodeVersioned(t *testing.T) {
	var out struct {
		Version int    `json:"version"`
		Name    string `json:"name"`
	}

	err := DecodeVersioned([]byte(`{"version":1,"name":"x"}`), 1, &out)
	assert.NoError(t, err)
	assert.Equal(t, "x", out.Name)

	err = DecodeVersioned([]byte(`{"version":2,"name":"x"}`), 1, &out)
	assert.Equal(t, ErrUnknownVersion, err)

	err = DecodeVersioned([]byte(`not json`), 1, &out)
	assert.Equal(t, ErrMalformedJSON, err)

	// Probe passes, full decode doesn't.
	err = DecodeVersioned([]byte(`{"version":1,"name":7}`), 1, &out)
	assert.Equal(t, ErrMalformedJSON, err)
}

type trackedCloser struct {
	*bytes.Reader
	closed bool
}

func (c *trackedCloser) Close() error {
	c.closed = true
	return nil
}

func TestCloseAfter(t *testing.T) {
	rc := &trackedCloser{Reader: bytes.NewReader([]byte("abc"))}
	r := CloseAfter(rc)

	out, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "abc", string(out))
	assert.True(t, rc.closed, "closed on EOF")

	// Reading past the end stays EOF without re-closing.
	_, err = r.Read(make([]byte, 1))
	assert.Equal(t, io.EOF, err)
}
