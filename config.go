package main

import (
	"encoding/json"
	"errors"
	"os"
	"reflect"

	"github.com/Sage-Bionetworks/RNCryptor/store"
	"github.com/Sage-Bionetworks/RNCryptor/util"
)

var ErrMalformedConfig = errors.New("malformed config data")
var ErrBadVersion = errors.New("bad version")

const c_CONFIG_VERSION = 1

// LocalConfig is the on-disk config file: store settings plus the cached
// key pair, so unlocking doesn't re-run the KDF every run. It holds key
// material, which is why it's written owner-only and never sealed into the
// store itself.
type LocalConfig struct {
	Version int              `json:"version"`
	Store   LocalConfigStore `json:"store"`
}

type LocalConfigStore struct {
	store.S3Config
	store.Keys
}

func NewConfig() LocalConfig {
	return LocalConfig{Version: c_CONFIG_VERSION}
}

// ReadConfig loads a config file written by an earlier run.
func ReadConfig(path string) (LocalConfig, error) {
	var cfg LocalConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch util.DecodeVersioned(data, c_CONFIG_VERSION, &cfg) {
	case nil:
		return cfg, nil
	case util.ErrUnknownVersion:
		return cfg, ErrBadVersion
	}
	return cfg, ErrMalformedConfig
}

// Save writes the config file with owner-only permissions.
func (cfg LocalConfig) Save(path string) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Changed reports whether the config differs from an earlier snapshot.
func (cfg LocalConfig) Changed(since LocalConfig) bool {
	return !reflect.DeepEqual(cfg, since)
}
