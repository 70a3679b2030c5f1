// Package storage provides the backends the store parks envelopes on: local
// disk, S3, and an in-memory fake for tests.
package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Sage-Bionetworks/RNCryptor/util"
)

// Disk keeps envelopes as plain files under a root directory.
type Disk struct {
	root string
}

func NewDisk(root string) *Disk {
	return &Disk{root: root}
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.root, key)
}

func (d *Disk) Exists() (bool, error) {
	fi, err := os.Stat(d.root)
	switch {
	case err == nil:
		return fi.IsDir(), nil
	case os.IsNotExist(err):
		return false, nil
	}
	return false, err
}

func (d *Disk) Create() error {
	return os.MkdirAll(d.root, 0755)
}

func (d *Disk) GetReader(key string) (io.Reader, error) {
	fh, err := os.Open(d.path(key))
	if err != nil {
		return nil, err
	}
	return util.CloseAfter(fh), nil
}

// PutReader writes through a temp file and renames into place, so a failed
// write never leaves a half-finished envelope under the real key.
func (d *Disk) PutReader(key string, r io.Reader) (int, error) {
	path := d.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return int(n), err
	}
	return int(n), os.Rename(tmp.Name(), path)
}

func (d *Disk) IsNotExist(err error) bool {
	return os.IsNotExist(err)
}
