package util

import "io"

// CloseAfter returns a reader that closes rc once it reports EOF. Pipelines
// of wrapped readers can then drain a file or network handle without anyone
// holding the close responsibility explicitly.
func CloseAfter(rc io.ReadCloser) io.Reader {
	return &eofCloser{rc: rc}
}

type eofCloser struct {
	rc     io.ReadCloser
	closed bool
}

func (c *eofCloser) Read(b []byte) (int, error) {
	n, err := c.rc.Read(b)
	if err == io.EOF && !c.closed {
		c.closed = true
		c.rc.Close()
	}
	return n, err
}
