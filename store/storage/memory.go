package storage

import (
	"bytes"
	"errors"
	"io"
)

// Error a Memory backend returns for keys that were never stored.
var ErrKeyNotFound = errors.New("no such key in storage")

// Memory is an in-memory backend for tests: a map of keys to envelope bytes,
// with per-key failure injection.
type Memory struct {
	objects map[string][]byte
	faults  map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		faults:  make(map[string]error),
	}
}

func (m *Memory) Exists() (bool, error) { return true, nil }
func (m *Memory) Create() error         { return nil }

func (m *Memory) GetReader(key string) (io.Reader, error) {
	if err := m.faults[key]; err != nil {
		return nil, err
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.NewReader(data), nil
}

func (m *Memory) PutReader(key string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return len(data), err
	}
	m.objects[key] = data
	return len(data), nil
}

func (m *Memory) IsNotExist(err error) bool {
	return err == ErrKeyNotFound
}

// Seed primes a key with raw bytes, bypassing the store pipeline.
func (m *Memory) Seed(key string, data []byte) {
	m.objects[key] = data
}

// Raw hands back the stored bytes for a key, for tests that want to poke at
// the envelope directly.
func (m *Memory) Raw(key string) ([]byte, bool) {
	data, ok := m.objects[key]
	return data, ok
}

// FailKey makes every read of key fail with the given error.
func (m *Memory) FailKey(key string, err error) {
	m.faults[key] = err
}
