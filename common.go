package main

import (
	"encoding/hex"
	"errors"
	"sort"

	"github.com/Sage-Bionetworks/RNCryptor/cryptor"
	"github.com/Sage-Bionetworks/RNCryptor/file"
)

// options is the parsed command line: which command runs, the credential,
// and where the store lives.
type options struct {
	encrypt   bool
	decrypt   bool
	storeInit bool
	storePut  bool
	storeGet  bool
	forceInit bool

	secret     string
	encKeyHex  string
	authKeyHex string

	storageType  string
	awsAccessKey string
	awsSecretKey string
	s3Region     string
	s3Bucket     string
	fsRootFolder string
	configPath   string
	destRoot     string

	paths []string
	keys  []string
}

// De-dupe, clean and sort a list of file paths.
func cleanPaths(paths []string) (out []string) {
	uniq := make(map[string]bool)
	for _, p := range paths {
		uniq[file.ExpandPath(p)] = true
	}
	out = make([]string, len(uniq))
	i := 0
	for key := range uniq {
		out[i] = key
		i += 1
	}
	sort.Strings(out)
	return
}

// Build a Crypter from the credential flags: a password, or a key pair given
// as hex.
func newCrypter(opt options) (cryptor.Crypter, error) {
	if opt.secret != "" {
		return cryptor.NewPasswordCrypter(opt.secret)
	}
	if opt.encKeyHex != "" && opt.authKeyHex != "" {
		encKey, err := hex.DecodeString(opt.encKeyHex)
		if err != nil {
			return nil, errors.New("malformed --key hex")
		}
		authKey, err := hex.DecodeString(opt.authKeyHex)
		if err != nil {
			return nil, errors.New("malformed --auth hex")
		}
		return cryptor.NewCrypter(encKey, authKey)
	}
	return nil, errors.New("a password or key pair is required")
}
