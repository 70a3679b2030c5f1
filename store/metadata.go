package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/Sage-Bionetworks/RNCryptor/util"
)

// Error when the store metadata can't be decoded.
var ErrMalformedMetadata = errors.New("malformed metadata")

// Error when the store metadata has an unknown version.
var ErrBadVersion = errors.New("bad version")

// Error when reading a custom metadata field that was never set.
var ErrMissingMetadata = errors.New("user metadata not set")

// The reserved key of the one object kept in the clear.
const c_METADATA_KEY = "metadata"

const c_METADATA_VERSION = 1

// Objects at rest are v3 envelopes.
const c_STORE_FORMAT = 3

// storeMetadata pins the store format and carries the PBKDF2 salts. Without
// it, a secret alone can't be turned into the store's key pair.
type storeMetadata struct {
	Version     int    `json:"version"`
	StoreFormat int    `json:"storeFormat"`
	EncSalt     []byte `json:"encSalt"`  // base64 encoded
	HmacSalt    []byte `json:"hmacSalt"` // base64 encoded

	UserData map[string]interface{} `json:"userData,omitempty"`
}

func newMetadata(encSalt, hmacSalt []byte) storeMetadata {
	return storeMetadata{
		Version:     c_METADATA_VERSION,
		StoreFormat: c_STORE_FORMAT,
		EncSalt:     encSalt,
		HmacSalt:    hmacSalt,
	}
}

// fetchMetadata reads and decodes the metadata object straight from a
// backend, without touching any cache.
func fetchMetadata(layer Backend) (md storeMetadata, err error) {
	r, err := layer.GetReader(c_METADATA_KEY)
	if err != nil {
		return
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}
	switch util.DecodeVersioned(data, c_METADATA_VERSION, &md) {
	case nil:
	case util.ErrUnknownVersion:
		err = ErrBadVersion
	default:
		err = ErrMalformedMetadata
	}
	return
}

func (s *Store) getStoreMetadata() (storeMetadata, error) {
	if s.meta != nil {
		return *s.meta, nil
	}
	md, err := fetchMetadata(s.layer)
	if err == nil {
		s.meta = &md
	}
	return md, err
}

func (s *Store) writeMetadata(md storeMetadata) error {
	data, err := json.Marshal(md)
	if err != nil {
		return err
	}
	if _, err := s.layer.PutReader(c_METADATA_KEY, bytes.NewReader(data)); err != nil {
		return err
	}
	s.meta = &md
	return nil
}

// -----------------------------------------------------------------------------

// PutMetadata stores a custom field in the clear-text metadata object. Meant
// for small, non-secret configuration values.
func (s *Store) PutMetadata(key string, value interface{}) error {
	md, err := s.getStoreMetadata()
	if err != nil {
		return err
	}
	if md.UserData == nil {
		md.UserData = map[string]interface{}{}
	}
	md.UserData[key] = value
	return s.writeMetadata(md)
}

// GetMetadata returns the value of a custom metadata field.
func (s *Store) GetMetadata(key string) (interface{}, error) {
	md, err := s.getStoreMetadata()
	if err != nil {
		return nil, err
	}
	value, ok := md.UserData[key]
	if !ok {
		return nil, ErrMissingMetadata
	}
	return value, nil
}
