package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	home := os.Getenv("HOME")
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "notes.txt"), ExpandPath("~/notes.txt"))
	assert.Equal(t, "/tmp/foo", ExpandPath("/tmp//foo/"))
	assert.Equal(t, "foo/bar", ExpandPath("./foo/bar"))

	// A bare ~user form is left alone, just cleaned.
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}

func TestWriteFileExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	data := []byte{0x03, 0x01, 0xff, 0x00}

	assert.NoError(t, WriteFileExclusive(path, data))
	got, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, data, got)

	// A second write to the same path refuses to clobber.
	err = WriteFileExclusive(path, []byte("other"))
	assert.True(t, os.IsExist(err))

	got, _ = os.ReadFile(path)
	assert.Equal(t, data, got, "original contents untouched")
}
