package cryptor

import (
	"crypto/aes"
	"crypto/cipher"
)

// cipherEngine runs AES-256-CBC over a byte stream in explicit Update and
// Finish steps, buffering sub-block remainders between calls. The decrypt
// side also withholds the last whole block, since only Finish can know that
// it holds the padding.
type cipherEngine struct {
	mode    cipher.BlockMode
	decrypt bool
	buf     []byte
}

func newEncryptEngine(key, iv []byte) (*cipherEngine, error) {
	bc, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cipherEngine{mode: cipher.NewCBCEncrypter(bc, iv)}, nil
}

func newDecryptEngine(key, iv []byte) (*cipherEngine, error) {
	bc, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &cipherEngine{mode: cipher.NewCBCDecrypter(bc, iv), decrypt: true}, nil
}

// Update feeds more bytes through the cipher, returning whatever whole
// blocks can be emitted so far.
func (e *cipherEngine) Update(p []byte) []byte {
	e.buf = append(e.buf, p...)
	n := len(e.buf) / aes.BlockSize * aes.BlockSize
	if e.decrypt && n == len(e.buf) {
		// Keep the last block back; it may be the final (padded) one.
		n -= aes.BlockSize
	}
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	e.mode.CryptBlocks(out, e.buf[:n])
	e.buf = append(e.buf[:0], e.buf[n:]...)
	return out
}

// Finish flushes the stream. Encrypting, the remainder is padded and emitted
// as the final block; this cannot fail. Decrypting, the withheld final block
// is decrypted and unpadded, failing if the stream wasn't whole blocks or
// the padding is malformed.
func (e *cipherEngine) Finish() ([]byte, error) {
	defer func() { e.buf = nil }()
	if !e.decrypt {
		padded := pad(e.buf)
		final := make([]byte, len(padded))
		e.mode.CryptBlocks(final, padded)
		return final, nil
	}
	if len(e.buf) != aes.BlockSize {
		return nil, errDecryptionFailed
	}
	final := make([]byte, aes.BlockSize)
	e.mode.CryptBlocks(final, e.buf)
	return unpad(final)
}

// -----------------------------------------------------------------------------

// Pad a plaintext remainder to a whole block. We use PKCS7-style padding, so
// an empty remainder still pads out to one full block.
func pad(slice []byte) []byte {
	oldLen := len(slice)
	pad := aes.BlockSize - (oldLen % aes.BlockSize)
	newLen := oldLen + pad

	padded := make([]byte, newLen)
	copy(padded, slice)
	for i := oldLen; i < newLen; i++ {
		padded[i] = byte(pad)
	}
	return padded
}

// Strip a padded plaintext, validating the padding length and bytes.
func unpad(slice []byte) ([]byte, error) {
	pad := int(slice[len(slice)-1])
	if pad > aes.BlockSize || pad == 0 {
		return nil, errDecryptionFailed
	}
	for _, p := range slice[len(slice)-pad:] {
		if p != byte(pad) {
			return nil, errDecryptionFailed
		}
	}
	return slice[:len(slice)-pad], nil
}
