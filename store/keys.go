package store

import "github.com/Sage-Bionetworks/RNCryptor/cryptor"

// Keys seal and sign every object in the store: a 32-byte AES key and a
// 32-byte HMAC key, normally derived from a secret but storable directly in
// the local config to skip the KDF on later runs.
type Keys struct {
	EncKey  []byte `json:"encKey"`  // base64 encoded at rest
	HmacKey []byte `json:"hmacKey"` // base64 encoded at rest
}

// Zero reports whether the key pair is unset.
func (k Keys) Zero() bool {
	return len(k.EncKey) == 0 && len(k.HmacKey) == 0
}

// DeriveKeys runs the envelope key schedule over a secret: one PBKDF2 pass
// per key, each with its own salt, so any machine holding the secret and the
// store metadata arrives at the same pair.
func DeriveKeys(secret, encSalt, hmacSalt []byte) Keys {
	return Keys{
		EncKey:  cryptor.KeyForPassword(secret, encSalt),
		HmacKey: cryptor.KeyForPassword(secret, hmacSalt),
	}
}
