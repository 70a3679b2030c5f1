package cryptor

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"
)

// Encryptor produces a v3 envelope incrementally: header first, then
// AES-256-CBC ciphertext as plaintext arrives, then the trailing HMAC.
// Every output byte passes through the HMAC in emit order, header included.
//
// An Encryptor is used once: any number of Update calls, then exactly one
// Finish, after which it must be discarded.
type Encryptor struct {
	engine *cipherEngine
	mac    hash.Hash
	header []byte // pending until the first output
}

// NewEncryptor returns an Encryptor producing a password-based envelope,
// with fresh random salts and IV. The encryption and HMAC keys are derived
// independently via PBKDF2, each with its own salt.
func NewEncryptor(password string) (*Encryptor, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	encSalt, err := RandomSalt()
	if err != nil {
		return nil, err
	}
	hmacSalt, err := RandomSalt()
	if err != nil {
		return nil, err
	}
	iv, err := RandomIV()
	if err != nil {
		return nil, err
	}
	return newPasswordEncryptor([]byte(password), encSalt, hmacSalt, iv)
}

// NewEncryptorWithKeys returns an Encryptor producing a key-based envelope,
// with a fresh random IV. Both keys must be 32 bytes.
func NewEncryptorWithKeys(encKey, hmacKey []byte) (*Encryptor, error) {
	if len(encKey) != KeySize || len(hmacKey) != KeySize {
		return nil, ErrInvalidKeySize
	}
	iv, err := RandomIV()
	if err != nil {
		return nil, err
	}
	return newKeyEncryptor(encKey, hmacKey, iv)
}

// Deterministic constructors, reserved for tests. Encrypting with a caller-
// chosen IV or salts leaks plaintext relationships, so these stay unexported.

func newPasswordEncryptor(password, encSalt, hmacSalt, iv []byte) (*Encryptor, error) {
	encKey := KeyForPassword(password, encSalt)
	hmacKey := KeyForPassword(password, hmacSalt)

	header := make([]byte, 0, PasswordHeaderSize)
	header = append(header, Version, optionsPasswordBased)
	header = append(header, encSalt...)
	header = append(header, hmacSalt...)
	header = append(header, iv...)
	return newEncryptor(encKey, hmacKey, iv, header)
}

func newKeyEncryptor(encKey, hmacKey, iv []byte) (*Encryptor, error) {
	header := make([]byte, 0, KeyHeaderSize)
	header = append(header, Version, optionsKeyBased)
	header = append(header, iv...)
	return newEncryptor(encKey, hmacKey, iv, header)
}

func newEncryptor(encKey, hmacKey, iv, header []byte) (*Encryptor, error) {
	engine, err := newEncryptEngine(encKey, iv)
	if err != nil {
		return nil, err
	}
	// The header is signed exactly once, before any ciphertext byte.
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(header)
	return &Encryptor{engine: engine, mac: mac, header: header}, nil
}

// Update encrypts more plaintext, returning whatever envelope bytes are
// ready so far. The first call's output carries the header prefix.
func (e *Encryptor) Update(p []byte) []byte {
	out := e.engine.Update(p)
	e.mac.Write(out)
	return e.emit(out)
}

// Finish emits the final padded block followed by the 32-byte HMAC. The
// Encryptor must not be used again afterwards.
func (e *Encryptor) Finish() []byte {
	final, _ := e.engine.Finish() // cannot fail when encrypting
	e.mac.Write(final)
	out := e.emit(final)
	return append(out, e.mac.Sum(nil)...)
}

// Prepend the pending header to the first output.
func (e *Encryptor) emit(out []byte) []byte {
	if e.header == nil {
		return out
	}
	header := e.header
	e.header = nil
	return append(header, out...)
}
