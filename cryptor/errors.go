package cryptor

import "errors"

// Error when the trailing HMAC doesn't verify. This is the only error raised
// for any authenticity problem inside a well-formed envelope: tampering,
// truncation of the signature, a wrong password, and bad final-block padding
// all surface as ErrHMACMismatch.
var ErrHMACMismatch = errors.New("ciphertext not authentic")

// Error when the input doesn't start with any recognized format version.
var ErrUnknownHeader = errors.New("unrecognized ciphertext header")

// Error when the stream ends before a full header (or the trailing HMAC)
// has arrived.
var ErrMessageTooShort = errors.New("ciphertext too short")

// Error when the header mode doesn't match the credential given: a
// password-based envelope opened with keys, or the other way around.
var ErrInvalidCredentialType = errors.New("credential does not match header type")

// Error when constructing with an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// Error when constructing with keys that aren't 32 bytes.
var ErrInvalidKeySize = errors.New("invalid key length")

// Cipher-layer failure (bad padding, short final block). Never escapes the
// package; always remapped to ErrHMACMismatch.
var errDecryptionFailed = errors.New("decryption failed")
