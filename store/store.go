// Package store seals blobs into v3 envelopes and parks them on a storage
// backend. Objects at rest are compressed then sealed under the store's key
// pair; the only thing kept in the clear is a small metadata object holding
// the KDF salts, so the secret alone unlocks the store from any machine.
package store

import (
	"bytes"
	"errors"
	"io"
	"log"

	"github.com/Sage-Bionetworks/RNCryptor/cryptor"
	"github.com/Sage-Bionetworks/RNCryptor/store/storage"
	"github.com/Sage-Bionetworks/RNCryptor/store/zip"
	"github.com/Sage-Bionetworks/RNCryptor/util"
)

// Error when unlocking a store that has no metadata yet.
var ErrStoreNotInitialized = errors.New("remote store not initialized")

// Error when reading or writing before Init, Unlock or UseKeys.
var ErrStoreNotConnected = errors.New("store not ready for reading/writing")

// Error when reading or writing the reserved metadata key.
var ErrForbiddenKey = errors.New("read/write to key name is forbidden")

// Backend is what the store needs from its storage: a container that can be
// probed and created, plus keyed reads and writes of opaque envelope bytes.
type Backend interface {
	Exists() (bool, error)
	Create() error
	GetReader(key string) (io.Reader, error)
	PutReader(key string, r io.Reader) (int, error)
	IsNotExist(err error) bool
}

// S3Config has the configuration options for creating a new S3 connection.
type S3Config struct {
	S3Region     string `json:"s3Region"`
	S3Bucket     string `json:"s3Bucket"`
	AWSAccessKey string `json:"awsAccessKey"`
	AWSSecretKey string `json:"awsSecretKey"`
}

// -----------------------------------------------------------------------------

type Store struct {
	layer Backend
	id    string
	meta  *storeMetadata
	enc   cryptor.Crypter
}

// NewStore returns a store on the given backend. It starts locked; follow
// with Init, Unlock or UseKeys.
func NewStore(layer Backend, id string) *Store {
	return &Store{layer: layer, id: id}
}

// NewStoreS3 returns a store backed by an S3 bucket.
func NewStoreS3(cfg S3Config) (*Store, error) {
	bucket, err := storage.NewBucket(cfg.S3Region, cfg.S3Bucket, cfg.AWSAccessKey, cfg.AWSSecretKey)
	if err != nil {
		return nil, err
	}
	return NewStore(bucket, "s3:"+cfg.S3Region+"/"+cfg.S3Bucket), nil
}

// NewStoreFS returns a store backed by a local directory.
func NewStoreFS(root string) (*Store, error) {
	return NewStore(storage.NewDisk(root), "fs:"+root), nil
}

// ID returns the unique identifier of the store.
func (s *Store) ID() string {
	return s.id
}

// Initialized reports whether the store already has metadata. Anything other
// than a clean "no such key" counts as initialized, so a half-broken store
// is never silently wiped.
func (s *Store) Initialized() bool {
	if _, err := s.getStoreMetadata(); err != nil {
		return !s.layer.IsNotExist(err)
	}
	return true
}

// Init provisions the store: fresh salts, fresh metadata, and the container
// created if missing. Existing objects become unreadable, since the old
// salts are gone. Leaves the store unlocked with the new key pair.
func (s *Store) Init(secret []byte) (Keys, error) {
	encSalt, err := cryptor.RandomSalt()
	if err != nil {
		return Keys{}, err
	}
	hmacSalt, err := cryptor.RandomSalt()
	if err != nil {
		return Keys{}, err
	}
	if ok, err := s.layer.Exists(); err != nil {
		return Keys{}, err
	} else if !ok {
		if err := s.layer.Create(); err != nil {
			return Keys{}, err
		}
	}
	if err := s.writeMetadata(newMetadata(encSalt, hmacSalt)); err != nil {
		return Keys{}, err
	}
	return s.Unlock(secret)
}

// Unlock reads the salts from the store metadata, derives the key pair from
// the secret, and readies the store with it. The derived keys are returned
// so callers can cache them and skip the KDF next time.
func (s *Store) Unlock(secret []byte) (Keys, error) {
	md, err := s.getStoreMetadata()
	if err != nil {
		if s.layer.IsNotExist(err) {
			err = ErrStoreNotInitialized
		}
		return Keys{}, err
	}
	keys := DeriveKeys(secret, md.EncSalt, md.HmacSalt)
	return keys, s.UseKeys(keys)
}

// UseKeys readies the store with an explicit key pair. A wrong pair only
// shows up later, when an object fails to authenticate on Get.
func (s *Store) UseKeys(keys Keys) error {
	enc, err := cryptor.NewCrypter(keys.EncKey, keys.HmacKey)
	if err != nil {
		return err
	}
	if ok, err := s.layer.Exists(); err != nil {
		return err
	} else if !ok {
		return ErrStoreNotInitialized
	}
	s.enc = enc
	return nil
}

// ready gates every object operation: the metadata key is reserved, and the
// key pair must be in place.
func (s *Store) ready(key string) error {
	if key == c_METADATA_KEY {
		return ErrForbiddenKey
	}
	if s.enc == nil {
		return ErrStoreNotConnected
	}
	return nil
}

// -----------------------------------------------------------------------------

// seal turns a plaintext stream into envelope bytes: compress, then encrypt.
func (s *Store) seal(r io.Reader) (io.Reader, error) {
	return s.enc.EncryptReader(zip.Compress(r))
}

// open reverses seal: authenticate and decrypt, then decompress.
func (s *Store) open(r io.Reader) (io.Reader, error) {
	plaintext, err := s.enc.DecryptReader(r)
	if err != nil {
		return nil, err
	}
	return zip.Decompress(plaintext)
}

// Put seals a blob into an object in the store. Returns the envelope bytes
// written. Overwrites existing keys.
func (s *Store) Put(key string, data []byte) (int, error) {
	return s.PutReader(key, bytes.NewReader(data))
}

// PutReader seals a stream into an object in the store. Returns the envelope
// bytes written. Overwrites existing keys.
func (s *Store) PutReader(key string, r io.Reader) (int, error) {
	if err := s.ready(key); err != nil {
		return 0, err
	}
	sealed, err := s.seal(r)
	if err != nil {
		return 0, err
	}
	n, err := s.layer.PutReader(key, sealed)
	log.Printf("store: put: %s (%s)\n", key, util.FormatSize(n))
	return n, err
}

// Get returns the plaintext stored under the given key.
func (s *Store) Get(key string) ([]byte, error) {
	r, err := s.GetReader(key)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// GetReader opens the object stored under the given key. Authentication
// errors for larger objects can surface from the reads rather than here.
func (s *Store) GetReader(key string) (io.Reader, error) {
	if err := s.ready(key); err != nil {
		return nil, err
	}
	log.Printf("store: get: %s\n", key)
	sealed, err := s.layer.GetReader(key)
	if err != nil {
		return nil, err
	}
	return s.open(sealed)
}

// IsNotExist reports whether the error means the object does not exist.
func (s *Store) IsNotExist(err error) bool {
	return s.layer.IsNotExist(err)
}

// -----------------------------------------------------------------------------

// Pack starts a multi-blob object: each appended blob is sealed into its own
// envelope and the envelopes are streamed into one stored object, back to
// back. Get and GetReader open an object as a single envelope; the store has
// no call that reads a packed object back blob by blob.
func (s *Store) Pack(key string) (*Packer, error) {
	if err := s.ready(key); err != nil {
		return nil, err
	}
	r, w := io.Pipe()
	p := &Packer{s: s, w: w, done: make(chan error, 1)}
	go func() {
		_, err := s.layer.PutReader(key, r)
		r.CloseWithError(err)
		p.done <- err
	}()
	return p, nil
}

// A Packer streams several sealed blobs into one stored object.
type Packer struct {
	s    *Store
	w    *io.PipeWriter
	done chan error
	err  error
}

// Append seals one blob and streams it into the object. Returns the envelope
// bytes written.
func (p *Packer) Append(r io.Reader) (int, error) {
	sealed, err := p.s.seal(r)
	if err != nil {
		p.shutdown(err)
		return 0, err
	}
	n, err := io.Copy(p.w, sealed)
	if err != nil {
		log.Printf("store: pack: append failed: %s\n", err)
		p.shutdown(err)
	}
	return int(n), err
}

// Close finishes the object and reports how the upload ended. Safe to call
// more than once.
func (p *Packer) Close() error {
	p.shutdown(nil)
	return p.err
}

// shutdown closes the blob pipe once and collects the uploader's verdict.
func (p *Packer) shutdown(cause error) {
	if p.done == nil {
		return
	}
	p.w.CloseWithError(cause)
	p.err = <-p.done
	p.done = nil
}
