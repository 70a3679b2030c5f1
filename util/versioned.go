package util

import (
	"encoding/json"
	"errors"
)

// Error when a versioned JSON document can't be decoded at all.
var ErrMalformedJSON = errors.New("malformed versioned data")

// Error when a versioned JSON document carries a version we don't speak.
var ErrUnknownVersion = errors.New("unknown data version")

// DecodeVersioned unmarshals a JSON document whose "version" field gates the
// rest of the decode: the version is probed first, and v is only filled in
// when it matches want. Both the config file and the store metadata ride on
// this scheme.
func DecodeVersioned(raw []byte, want int, v interface{}) error {
	var probe struct {
		Version int `json:"version"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ErrMalformedJSON
	}
	if probe.Version != want {
		return ErrUnknownVersion
	}
	if json.Unmarshal(raw, v) != nil {
		return ErrMalformedJSON
	}
	return nil
}
