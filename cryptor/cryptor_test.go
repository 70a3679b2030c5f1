package cryptor

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

var samples = [][]byte{
	{},                            // empty (non-nil)
	[]byte(""),                    // empty (0 bytes)
	[]byte("f"),                   // tiny
	[]byte("foo"),                 // short
	[]byte("justshortof16.."),     // just short of 16 bytes
	[]byte("exampleplaintext"),    // exact (16 bytes == one block)
	[]byte("exampleplaintext!!1"), // longer
	{0x3b, 0x19, 0xec, 0x8a, 0x79, 0x37, 0xc4, 0xa4},
	[]byte(`
Lorem ipsum dolor sit amet, consectetur adipiscing elit. Cras porta volutpat leo eget dapibus. Duis scelerisque tellus
commodo magna ultrices sagittis. Duis eu imperdiet elit. Etiam convallis mauris lobortis pretium gravida. Phasellus ac
felis a leo bibendum egestas porttitor at quam. Proin laoreet aliquam nisl sit amet elementum. Duis elit quam, finibus
vitae semper eu, interdum ac ante. Duis magna urna, vulputate quis nisi vitae, tincidunt laoreet dui. Curabitur mattis
tellus sed mauris placerat, gravida porta eros lobortis. Nulla luctus lectus eget dolor congue lacinia. Aenean lacinia
neque diam, id vehicula arcu varius eget.`),
}

var testKey = bytes.Repeat([]byte{0xAB}, KeySize)
var testHmacKey = bytes.Repeat([]byte{0xCD}, KeySize)

func TestRoundTripPassword(t *testing.T) {
	for _, plaintext := range samples {
		envelope, err := Encrypt(plaintext, "some password")
		assert.NoError(t, err)
		assert.Equal(t, byte(Version), envelope[0])
		assert.Equal(t, byte(optionsPasswordBased), envelope[1])

		decrypted, err := Decrypt(envelope, "some password")
		assert.NoError(t, err)
		assert.Equal(t, string(plaintext), string(decrypted), "decrypted plaintext is the same")
	}
}

func TestRoundTripKeys(t *testing.T) {
	for _, plaintext := range samples {
		envelope, err := EncryptWithKeys(plaintext, testKey, testHmacKey)
		assert.NoError(t, err)
		assert.Equal(t, byte(Version), envelope[0])
		assert.Equal(t, byte(optionsKeyBased), envelope[1])

		decrypted, err := DecryptWithKeys(envelope, testKey, testHmacKey)
		assert.NoError(t, err)
		assert.Equal(t, string(plaintext), string(decrypted), "decrypted plaintext is the same")
	}
}

func TestEnvelopeSizes(t *testing.T) {
	// Header, at least one padded block, trailing HMAC.
	envelope, err := Encrypt(nil, "pw")
	assert.NoError(t, err)
	assert.Equal(t, PasswordHeaderSize+16+HMACSize, len(envelope))

	envelope, err = EncryptWithKeys([]byte("exampleplaintext"), testKey, testHmacKey)
	assert.NoError(t, err)
	assert.Equal(t, KeyHeaderSize+32+HMACSize, len(envelope))
}

func TestConstructorValidation(t *testing.T) {
	_, err := NewEncryptor("")
	assert.Equal(t, ErrEmptyPassword, err)
	_, err = NewDecryptor("")
	assert.Equal(t, ErrEmptyPassword, err)
	_, err = Encrypt([]byte("data"), "")
	assert.Equal(t, ErrEmptyPassword, err)

	short := make([]byte, 16)
	_, err = NewEncryptorWithKeys(short, testHmacKey)
	assert.Equal(t, ErrInvalidKeySize, err)
	_, err = NewEncryptorWithKeys(testKey, short)
	assert.Equal(t, ErrInvalidKeySize, err)
	_, err = NewDecryptorWithKeys(short, testHmacKey)
	assert.Equal(t, ErrInvalidKeySize, err)
	_, err = NewCrypter(testKey, short)
	assert.Equal(t, ErrInvalidKeySize, err)
	_, err = NewPasswordCrypter("")
	assert.Equal(t, ErrEmptyPassword, err)
}

func TestCrypter(t *testing.T) {
	enc, err := NewCrypter(testKey, testHmacKey)
	assert.NoError(t, err)

	for _, plaintext := range samples {
		ciphertext, err := enc.Encrypt(plaintext)
		assert.NoError(t, err)
		decrypted, err := enc.Decrypt(ciphertext)
		assert.NoError(t, err)
		assert.Equal(t, string(plaintext), string(decrypted), "decrypted plaintext is the same")
	}
}

func TestPasswordCrypter(t *testing.T) {
	enc, err := NewPasswordCrypter("some password")
	assert.NoError(t, err)

	for _, plaintext := range samples {
		ciphertext, err := enc.Encrypt(plaintext)
		assert.NoError(t, err)
		decrypted, err := enc.Decrypt(ciphertext)
		assert.NoError(t, err)
		assert.Equal(t, string(plaintext), string(decrypted), "decrypted plaintext is the same")
	}
}

func TestCrypterReaders(t *testing.T) {
	enc, err := NewCrypter(testKey, testHmacKey)
	assert.NoError(t, err)

	// Normal io.Readers
	for _, plaintext := range samples {
		r := bytes.NewReader(plaintext)
		e, _ := enc.EncryptReader(r)
		d, _ := enc.DecryptReader(e)

		decrypted, err := io.ReadAll(d)
		assert.NoError(t, err)
		assert.Equal(t, string(plaintext), string(decrypted), "decrypted plaintext is the same")
	}

	// Wrap readers in iotest.OneByteReader
	for _, plaintext := range samples {
		r := bytes.NewReader(plaintext)
		e, _ := enc.EncryptReader(iotest.OneByteReader(r))
		d, _ := enc.DecryptReader(iotest.OneByteReader(e))

		decrypted, err := io.ReadAll(iotest.OneByteReader(d))
		assert.NoError(t, err)
		assert.Equal(t, string(plaintext), string(decrypted), "decrypted plaintext is the same")
	}

	// Wrap readers in iotest.DataErrReader (return io.EOF on last data)
	for _, plaintext := range samples {
		r := bytes.NewReader(plaintext)
		e, _ := enc.EncryptReader(iotest.DataErrReader(r))
		d, _ := enc.DecryptReader(iotest.DataErrReader(e))

		decrypted, err := io.ReadAll(d)
		assert.NoError(t, err)
		assert.Equal(t, string(plaintext), string(decrypted), "decrypted plaintext is the same")
	}
}

func TestCrypterReaderErrors(t *testing.T) {
	enc, err := NewCrypter(testKey, testHmacKey)
	assert.NoError(t, err)

	// Append a few extra bytes to the envelope
	for _, plaintext := range samples {
		extraBytes := bytes.NewReader([]byte("abc"))
		e, _ := enc.EncryptReader(bytes.NewReader(plaintext))
		d, _ := enc.DecryptReader(io.MultiReader(e, extraBytes))

		_, err := io.ReadAll(d)
		assert.Equal(t, ErrHMACMismatch, err)
	}

	// Truncate the envelope down to part of the header
	for _, plaintext := range samples {
		e, _ := enc.EncryptReader(bytes.NewReader(plaintext))
		d, _ := enc.DecryptReader(io.LimitReader(e, 10))

		_, err := io.ReadAll(d)
		assert.Equal(t, ErrMessageTooShort, err)
	}

	// Timeout on the reader pipeline
	for _, plaintext := range samples {
		e, _ := enc.EncryptReader(iotest.TimeoutReader(bytes.NewReader(plaintext)))
		d, _ := enc.DecryptReader(e)

		_, err := io.ReadAll(d)
		if len(plaintext) > 0 {
			assert.EqualError(t, err, "timeout")
		}
	}
}

func TestKeyForPassword(t *testing.T) {
	salt := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	key := KeyForPassword([]byte("thepassword"), salt)
	assert.Equal(t, KeySize, len(key))

	// Deterministic for the same inputs, distinct across salts.
	assert.Equal(t, key, KeyForPassword([]byte("thepassword"), salt))
	otherSalt := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.NotEqual(t, key, KeyForPassword([]byte("thepassword"), otherSalt))
	assert.NotEqual(t, key, KeyForPassword([]byte("otherpassword"), salt))
}

func TestRandomSources(t *testing.T) {
	salt, err := RandomSalt()
	assert.NoError(t, err)
	assert.Equal(t, SaltSize, len(salt))

	iv, err := RandomIV()
	assert.NoError(t, err)
	assert.Equal(t, IVSize, len(iv))

	// Two password envelopes of the same plaintext differ past the
	// version/options prefix.
	a, _ := Encrypt([]byte("exampleplaintext"), "pw")
	b, _ := Encrypt([]byte("exampleplaintext"), "pw")
	assert.NotEqual(t, a[2:], b[2:])
}
