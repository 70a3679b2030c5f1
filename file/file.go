package file

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath substitutes a leading ~ with the user's home directory and
// cleans the result.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return filepath.Clean(path)
}

// WriteFileExclusive writes data to a newly created file with 0644
// permissions, failing with os.ErrExist if the path is already taken.
// Sealing and restoring never overwrite an existing file.
func WriteFileExclusive(path string, data []byte) error {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
