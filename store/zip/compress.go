// Package zip is the compression stage in front of the encryptor: envelopes
// hide all structure, so squeezing the plaintext has to happen first.
package zip

import (
	"compress/gzip"
	"io"

	"github.com/Sage-Bionetworks/RNCryptor/util"
)

// Compress gzips a stream on the fly. Errors from the source surface on the
// returned reader.
func Compress(in io.Reader) io.Reader {
	r, w := io.Pipe()
	go func() {
		gz := gzip.NewWriter(w)
		if _, err := io.Copy(gz, in); err != nil {
			w.CloseWithError(err)
			return
		}
		w.CloseWithError(gz.Close())
	}()
	return r
}

// Decompress unwraps a gzip stream produced by Compress.
func Decompress(in io.Reader) (io.Reader, error) {
	gz, err := gzip.NewReader(in)
	if err != nil {
		return nil, err
	}
	return util.CloseAfter(gz), nil
}
