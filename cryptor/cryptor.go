// Package cryptor implements the RNCryptor v3 data format: a self-describing
// binary envelope carrying AES-256-CBC ciphertext authenticated by
// HMAC-SHA256, keyed either by a caller-supplied key pair or by
// PBKDF2-derived keys from a password.
//
// The streaming Encryptor and Decryptor work incrementally on arbitrary
// chunks; Encrypt and Decrypt are the one-shot forms. A Crypter bundles both
// directions behind one credential, including io.Reader pipelines.
package cryptor

import (
	"bytes"
	"io"
)

// Encrypt seals data into a password-based v3 envelope.
func Encrypt(data []byte, password string) ([]byte, error) {
	enc, err := NewEncryptor(password)
	if err != nil {
		return nil, err
	}
	return append(enc.Update(data), enc.Finish()...), nil
}

// Decrypt opens a password-based v3 envelope.
func Decrypt(data []byte, password string) ([]byte, error) {
	dec, err := NewDecryptor(password)
	if err != nil {
		return nil, err
	}
	return drain(dec, data)
}

// EncryptWithKeys seals data into a key-based v3 envelope.
func EncryptWithKeys(data []byte, encKey, hmacKey []byte) ([]byte, error) {
	enc, err := NewEncryptorWithKeys(encKey, hmacKey)
	if err != nil {
		return nil, err
	}
	return append(enc.Update(data), enc.Finish()...), nil
}

// DecryptWithKeys opens a key-based v3 envelope.
func DecryptWithKeys(data []byte, encKey, hmacKey []byte) ([]byte, error) {
	dec, err := NewDecryptorWithKeys(encKey, hmacKey)
	if err != nil {
		return nil, err
	}
	return drain(dec, data)
}

func drain(dec *Decryptor, data []byte) ([]byte, error) {
	out, err := dec.Update(data)
	if err != nil {
		return nil, err
	}
	final, err := dec.Finish()
	if err != nil {
		return nil, err
	}
	return append(out, final...), nil
}

// -----------------------------------------------------------------------------

// How much to pull from an underlying reader at a time.
const c_CHUNK_SIZE = 4096

// A Crypter encrypts and decrypts whole messages or io.Reader streams,
// producing and consuming v3 envelopes under one fixed credential. Each
// message gets its own envelope (fresh IV, and fresh salts when
// password-based).
type Crypter interface {
	Encrypt(plaintext []byte) (ciphertext []byte, err error)
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
	EncryptReader(plaintext io.Reader) (ciphertext io.Reader, err error)
	DecryptReader(ciphertext io.Reader) (plaintext io.Reader, err error)
}

// NewCrypter returns a Crypter for key-based envelopes. Both keys must be
// 32 bytes.
func NewCrypter(encKey, hmacKey []byte) (Crypter, error) {
	if len(encKey) != KeySize || len(hmacKey) != KeySize {
		return nil, ErrInvalidKeySize
	}
	return &crypter{encKey: encKey, hmacKey: hmacKey}, nil
}

// NewPasswordCrypter returns a Crypter for password-based envelopes.
func NewPasswordCrypter(password string) (Crypter, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return &crypter{password: password}, nil
}

type crypter struct {
	password string
	encKey   []byte
	hmacKey  []byte
}

func (c *crypter) newEncryptor() (*Encryptor, error) {
	if c.password != "" {
		return NewEncryptor(c.password)
	}
	return NewEncryptorWithKeys(c.encKey, c.hmacKey)
}

func (c *crypter) newDecryptor() (*Decryptor, error) {
	if c.password != "" {
		return NewDecryptor(c.password)
	}
	return NewDecryptorWithKeys(c.encKey, c.hmacKey)
}

func (c *crypter) Encrypt(plaintext []byte) ([]byte, error) {
	enc, err := c.newEncryptor()
	if err != nil {
		return nil, err
	}
	return append(enc.Update(plaintext), enc.Finish()...), nil
}

func (c *crypter) Decrypt(ciphertext []byte) ([]byte, error) {
	dec, err := c.newDecryptor()
	if err != nil {
		return nil, err
	}
	return drain(dec, ciphertext)
}

func (c *crypter) EncryptReader(plaintext io.Reader) (io.Reader, error) {
	enc, err := c.newEncryptor()
	if err != nil {
		return nil, err
	}
	return &encryptReader{src: plaintext, enc: enc, chunk: make([]byte, c_CHUNK_SIZE)}, nil
}

func (c *crypter) DecryptReader(ciphertext io.Reader) (io.Reader, error) {
	dec, err := c.newDecryptor()
	if err != nil {
		return nil, err
	}
	return &decryptReader{src: ciphertext, dec: dec, chunk: make([]byte, c_CHUNK_SIZE)}, nil
}

// -----------------------------------------------------------------------------

// encryptReader streams an envelope out of a plaintext source.
type encryptReader struct {
	src   io.Reader
	enc   *Encryptor
	buf   bytes.Buffer
	chunk []byte
	fin   bool
}

// Implement io.Reader.
func (r *encryptReader) Read(b []byte) (int, error) {
	for r.buf.Len() < len(b) && !r.fin {
		m, err := r.src.Read(r.chunk)
		if m > 0 {
			r.buf.Write(r.enc.Update(r.chunk[:m]))
		}
		switch err {
		case nil:
			// Keep reading.
		case io.EOF:
			r.buf.Write(r.enc.Finish())
			r.fin = true
		default:
			return 0, err
		}
	}
	return r.buf.Read(b)
}

// decryptReader streams plaintext out of an envelope source. Any
// authenticity error surfaces from the Read that hits the end of the stream.
type decryptReader struct {
	src   io.Reader
	dec   *Decryptor
	buf   bytes.Buffer
	chunk []byte
	fin   bool
}

// Implement io.Reader.
func (r *decryptReader) Read(b []byte) (int, error) {
	for r.buf.Len() < len(b) && !r.fin {
		m, err := r.src.Read(r.chunk)
		if m > 0 {
			out, derr := r.dec.Update(r.chunk[:m])
			if derr != nil {
				return 0, derr
			}
			r.buf.Write(out)
		}
		switch err {
		case nil:
			// Keep reading.
		case io.EOF:
			out, derr := r.dec.Finish()
			if derr != nil {
				return 0, derr
			}
			r.buf.Write(out)
			r.fin = true
		default:
			return 0, err
		}
	}
	return r.buf.Read(b)
}
