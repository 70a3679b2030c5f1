package cryptor

import (
	"crypto/aes"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// Format v3 envelope layout (all offsets in bytes):
//
//   0        1   version (3)
//   1        1   options: 0x00 key-based, 0x01 password-based
//   [2       8   encryption salt    (password-based only)
//    10      8   hmac salt          (password-based only)]
//   2|18     16  IV
//   ...      n   ciphertext (AES-256-CBC, PKCS7 padded)
//   end-32   32  HMAC-SHA256 over all of the preceding bytes

// Version is the format version byte this package reads and writes.
const Version = 3

const (
	optionsKeyBased      = 0x00
	optionsPasswordBased = 0x01
)

const (
	IVSize   = aes.BlockSize // 16-byte IV (AES block size)
	HMACSize = sha256.Size   // 32-byte trailing signature
	SaltSize = 8             // 8-byte KDF salts
	KeySize  = 32            // 32-byte keys for AES-256

	KeyHeaderSize      = 2 + IVSize              // 18
	PasswordHeaderSize = 2 + 2*SaltSize + IVSize // 34
)

// PBKDF2 rounds, fixed by the v3 format.
const c_KDF_ITERATIONS = 10000

// KeyForPassword derives a 32-byte key from a password and an 8-byte salt
// using PBKDF2-HMAC-SHA1, as fixed by the v3 format. The encryption key and
// the HMAC key are each derived independently, with their own salt.
func KeyForPassword(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, c_KDF_ITERATIONS, KeySize, sha1.New)
}

// RandomSalt returns a new cryptographically secure 8-byte KDF salt.
func RandomSalt() ([]byte, error) {
	return randomBytes(SaltSize)
}

// RandomIV returns a new cryptographically secure 16-byte IV.
func RandomIV() ([]byte, error) {
	return randomBytes(IVSize)
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
