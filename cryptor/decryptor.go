package cryptor

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"
)

// A credential is either a password or an explicit 32-byte key pair.
type credential struct {
	password []byte
	encKey   []byte
	hmacKey  []byte
}

func (c credential) passwordBased() bool { return c.password != nil }

// -----------------------------------------------------------------------------

// A formatVersion knows how to recognize its own envelopes from a short
// preamble, and how to build a decryptor engine from a complete header.
// Formats are probed in order; adding a version means appending here with a
// distinct preamble predicate.
type formatVersion struct {
	preambleSize int
	canDecrypt   func(preamble []byte) bool
	headerSize   func(c credential) int
	newEngine    func(c credential, header []byte) (*decryptorEngine, error)
}

var knownFormats = []formatVersion{formatV3}

var formatV3 = formatVersion{
	preambleSize: 1,
	canDecrypt:   func(p []byte) bool { return p[0] == Version },
	headerSize: func(c credential) int {
		if c.passwordBased() {
			return PasswordHeaderSize
		}
		return KeyHeaderSize
	},
	newEngine: newEngineV3,
}

// Parse a v3 header and build the engine. The options byte must agree with
// the kind of credential we were given.
func newEngineV3(c credential, header []byte) (*decryptorEngine, error) {
	options := header[1]
	if c.passwordBased() {
		if options != optionsPasswordBased {
			return nil, ErrInvalidCredentialType
		}
		encSalt := header[2 : 2+SaltSize]
		hmacSalt := header[2+SaltSize : 2+2*SaltSize]
		iv := header[2+2*SaltSize : PasswordHeaderSize]
		encKey := KeyForPassword(c.password, encSalt)
		hmacKey := KeyForPassword(c.password, hmacSalt)
		return newDecryptorEngine(encKey, hmacKey, iv, header)
	}
	if options != optionsKeyBased {
		return nil, ErrInvalidCredentialType
	}
	iv := header[2:KeyHeaderSize]
	return newDecryptorEngine(c.encKey, c.hmacKey, iv, header)
}

// -----------------------------------------------------------------------------

// Decryptor recognizes the format version of an incoming envelope, parses
// its header and hands everything after it to the matching engine. Input is
// scratch-buffered only until the engine is installed; from then on Update
// bypasses the scratch entirely.
type Decryptor struct {
	cred    credential
	scratch []byte
	engine  *decryptorEngine
}

// NewDecryptor returns a Decryptor that opens password-based envelopes.
func NewDecryptor(password string) (*Decryptor, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return &Decryptor{cred: credential{password: []byte(password)}}, nil
}

// NewDecryptorWithKeys returns a Decryptor that opens key-based envelopes.
// Both keys must be 32 bytes.
func NewDecryptorWithKeys(encKey, hmacKey []byte) (*Decryptor, error) {
	if len(encKey) != KeySize || len(hmacKey) != KeySize {
		return nil, ErrInvalidKeySize
	}
	return &Decryptor{cred: credential{encKey: encKey, hmacKey: hmacKey}}, nil
}

// Update consumes more of the envelope, returning plaintext as it becomes
// available. Fails with ErrUnknownHeader if no known format claims the
// stream, or ErrInvalidCredentialType once the header shows a mode that
// doesn't match the credential.
func (d *Decryptor) Update(p []byte) ([]byte, error) {
	if d.engine != nil {
		return d.engine.Update(p), nil
	}
	d.scratch = append(d.scratch, p...)

	probed := 0
	for _, f := range knownFormats {
		if len(d.scratch) < f.preambleSize {
			continue
		}
		probed++
		if !f.canDecrypt(d.scratch[:f.preambleSize]) {
			continue
		}
		need := f.headerSize(d.cred)
		if len(d.scratch) < need {
			return nil, nil // wait for the full header
		}
		engine, err := f.newEngine(d.cred, d.scratch[:need])
		if err != nil {
			return nil, err
		}
		d.engine = engine
		rest := d.scratch[need:]
		d.scratch = nil
		return d.engine.Update(rest), nil
	}
	if probed == len(knownFormats) {
		// Every format saw its full preamble and none claimed the stream.
		return nil, ErrUnknownHeader
	}
	return nil, nil
}

// Finish flushes the stream and verifies its HMAC, returning the final
// plaintext. If no format was ever recognized, the stream ended before a
// complete header arrived.
func (d *Decryptor) Finish() ([]byte, error) {
	if d.engine == nil {
		return nil, ErrMessageTooShort
	}
	return d.engine.Finish()
}

// -----------------------------------------------------------------------------

// decryptorEngine decrypts the body of a v3 envelope once the header is
// known. A 32-byte overflowing buffer sits in front of the cipher and the
// HMAC, so the trailing bytes that might be the signature are never
// decrypted; whatever the buffer still holds when the stream ends is the
// candidate HMAC.
type decryptorEngine struct {
	engine *cipherEngine
	mac    hash.Hash
	tail   *overflowingBuffer
}

func newDecryptorEngine(encKey, hmacKey, iv, header []byte) (*decryptorEngine, error) {
	engine, err := newDecryptEngine(encKey, iv)
	if err != nil {
		return nil, err
	}
	// Sign the header up front, mirroring the encryptor's emit order.
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(header)
	return &decryptorEngine{
		engine: engine,
		mac:    mac,
		tail:   newOverflowingBuffer(HMACSize),
	}, nil
}

func (d *decryptorEngine) Update(p []byte) []byte {
	overflow := d.tail.Update(p)
	d.mac.Write(overflow)
	return d.engine.Update(overflow)
}

func (d *decryptorEngine) Finish() ([]byte, error) {
	receivedMAC := d.tail.Finish()
	if len(receivedMAC) < HMACSize {
		return nil, ErrMessageTooShort
	}
	if !hmac.Equal(d.mac.Sum(nil), receivedMAC) {
		return nil, ErrHMACMismatch
	}
	// The HMAC verifies before the final block is unpadded, and any
	// cipher-layer failure reports the same as a signature failure.
	plaintext, err := d.engine.Finish()
	if err != nil {
		return nil, ErrHMACMismatch
	}
	return plaintext, nil
}
