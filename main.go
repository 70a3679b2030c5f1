package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Sage-Bionetworks/RNCryptor/cryptor"
	"github.com/Sage-Bionetworks/RNCryptor/file"
	"github.com/Sage-Bionetworks/RNCryptor/store"
	"github.com/Sage-Bionetworks/RNCryptor/util"
	"github.com/docopt/docopt-go"
)

var usage = `File encryption utility using the RNCryptor v3 data format.

Usage:
  rncrypt encrypt (--pass SECRET | --key HEX --auth HEX) <path>...
  rncrypt decrypt (--pass SECRET | --key HEX --auth HEX) <path>...
  rncrypt init    [--cfg FILE] --pass SECRET [--storage TYPE] [--s3-key KEY]
                  [--s3-secret KEY] [--s3-region NAME] [--s3-bucket NAME]
                  [--fs-root PATH] [-f]
  rncrypt put     [--cfg FILE] [--pass SECRET] [--storage TYPE] [--s3-key KEY]
                  [--s3-secret KEY] [--s3-region NAME] [--s3-bucket NAME]
                  [--fs-root PATH] <path>...
  rncrypt get     [--cfg FILE] [--pass SECRET] [--storage TYPE] [--s3-key KEY]
                  [--s3-secret KEY] [--s3-region NAME] [--s3-bucket NAME]
                  [--fs-root PATH] --dest DIR <key>...
  rncrypt -h | --help
  rncrypt --version

Commands:
  encrypt           Seal files into envelopes written next to the originals (.rncrypted).
  decrypt           Open .rncrypted envelopes, writing the plaintext next to them.
  init              Initialize the remote store for first use. Will create the S3 bucket or
                    folder as required.
  put               Seal files and upload them to the store, keyed by base name.
  get               Download objects from the store and open them into a destination folder.

Options:
  --pass SECRET     Encryption password. Salts and keys are derived per envelope, or read
                    from the store metadata when unlocking the store.
  --key HEX         Encryption key as 64 hex digits. (alternative to a password)
  --auth HEX        HMAC key as 64 hex digits.
  --cfg FILE        Config file to read (if it exists) or write to. [default: ~/.rncrypt.cfg]
  -f --force        Force initialization. (WARNING: This will overwrite existing data in the store.)
  --storage TYPE    Storage medium to use (s3, fs). [default: s3]
  --s3-key KEY      AWS access key. (defaults to $AWS_ACCESS_KEY, or reads $HOME/.aws/credentials)
  --s3-secret KEY   AWS secret key. (defaults to $AWS_SECRET_KEY, or reads $HOME/.aws/credentials)
  --s3-region NAME  AWS region where S3 bucket should be located. (e.g. us-west-2)
  --s3-bucket NAME  S3 bucket name. Note: bucket names are globally unique.
  --fs-root PATH    Root path to store objects when using filesystem (fs) as storage.
  --dest DIR        Destination path to write retrieved objects to.
  -h --help         Show this screen.
  --version         Show version.

Examples:
  rncrypt encrypt --pass foobar ~/notes.txt
  rncrypt decrypt --pass foobar ~/notes.txt.rncrypted
  rncrypt init --pass foobar --s3-bucket myspecialbucket --s3-region us-west-2
  rncrypt put ~/notes.txt
  rncrypt get --dest /tmp/restore notes.txt`

var BUILD_DATE = "dev"
var BUILD_COMMIT = "unknown"

var buildTag = fmt.Sprintf("%s [%s] %s/%s", BUILD_DATE, BUILD_COMMIT, runtime.GOOS, runtime.GOARCH)

func parseFlags(argv []string, exit ...bool) (opt options, err error) {
	args, err := docopt.Parse(
		fmt.Sprintf("%s\n\n(build: %s)", usage, buildTag),
		argv,     // command line args
		true,     // help enabled
		buildTag, // --version tag
		false,    // require options first
		exit...,  // os.Exit on usage
	)
	if err != nil {
		return
	}

	if val, ok := args["encrypt"].(bool); ok {
		opt.encrypt = val
	}
	if val, ok := args["decrypt"].(bool); ok {
		opt.decrypt = val
	}
	if val, ok := args["init"].(bool); ok {
		opt.storeInit = val
	}
	if val, ok := args["put"].(bool); ok {
		opt.storePut = val
	}
	if val, ok := args["get"].(bool); ok {
		opt.storeGet = val
	}
	if val, ok := args["--force"].(bool); ok {
		opt.forceInit = val
	}
	if val, ok := args["--pass"].(string); ok {
		opt.secret = val
	}
	if val, ok := args["--key"].(string); ok {
		opt.encKeyHex = val
	}
	if val, ok := args["--auth"].(string); ok {
		opt.authKeyHex = val
	}
	if val, ok := args["--storage"].(string); ok {
		opt.storageType = val
	}
	if val, ok := args["--s3-key"].(string); ok {
		opt.awsAccessKey = val
	}
	if val, ok := args["--s3-secret"].(string); ok {
		opt.awsSecretKey = val
	}
	if val, ok := args["--s3-region"].(string); ok {
		opt.s3Region = val
	}
	if val, ok := args["--s3-bucket"].(string); ok {
		opt.s3Bucket = val
	}
	if val, ok := args["--fs-root"].(string); ok {
		opt.fsRootFolder = val
	}
	if val, ok := args["--dest"].(string); ok {
		opt.destRoot = val
	}

	if val, ok := args["<path>"].([]string); ok {
		for _, p := range val {
			opt.paths = append(opt.paths, file.ExpandPath(p))
		}
	}
	if val, ok := args["<key>"].([]string); ok {
		opt.keys = append(opt.keys, val...)
	}

	if val, ok := args["--cfg"].(string); ok {
		opt.configPath = file.ExpandPath(val)
	}
	return
}

// Load the config file (or default path), then set any specific command line overrides provided.
func loadConfig(opt options) (original, cfg LocalConfig) {
	cfg, err := ReadConfig(opt.configPath)
	if err != nil {
		log.Printf("unable to load config file: %q\n", opt.configPath)
		cfg = NewConfig()
	}
	original = cfg

	// Override any store specific settings.
	if opt.s3Region != "" {
		cfg.Store.S3Region = opt.s3Region
	}
	if opt.s3Bucket != "" {
		cfg.Store.S3Bucket = opt.s3Bucket
	}
	if opt.awsAccessKey != "" {
		cfg.Store.AWSAccessKey = opt.awsAccessKey
	}
	if opt.awsSecretKey != "" {
		cfg.Store.AWSSecretKey = opt.awsSecretKey
	}

	return
}

func setupStore(cfg *LocalConfigStore, opt options) (vault *store.Store, err error) {
	switch opt.storageType {
	case "s3":
		vault, err = store.NewStoreS3(cfg.S3Config)
		if err != nil {
			log.Println("failed to connect to the remote store")
			return
		}
	case "fs":
		vault, err = store.NewStoreFS(opt.fsRootFolder)
		if err != nil {
			log.Println("failed to setup file storage")
			return
		}
	default:
		err = errors.New("invalid storage type")
		return
	}

	// If we tried to initialize the store, check that a password was provided. Otherwise,
	// if a password was given, derive the key pair, or else just try the existing keys.
	if opt.storeInit {
		if opt.secret == "" {
			err = errors.New("You must provide a password to initialize the store.")
			return
		}
		if vault.Initialized() && !opt.forceInit {
			err = errors.New("Store is already initialized. Cannot wipe store without forcing.")
			return
		}
		log.Println("initializing the store for first use")
		cfg.Keys, err = vault.Init([]byte(opt.secret))
		return
	}
	if opt.secret != "" {
		log.Println("attempting to access the store with the password provided")
		cfg.Keys, err = vault.Unlock([]byte(opt.secret))
		return
	}
	log.Println("using the crypto keys from config to read the store")
	err = vault.UseKeys(cfg.Keys)
	return
}

// -----------------------------------------------------------------------------

// Suffix given to sealed files on disk.
const c_ENCRYPTED_SUFFIX = ".rncrypted"

func encryptFiles(enc cryptor.Crypter, paths []string) error {
	for _, path := range cleanPaths(paths) {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		envelope, err := enc.Encrypt(data)
		if err != nil {
			return err
		}
		out := path + c_ENCRYPTED_SUFFIX
		if err := file.WriteFileExclusive(out, envelope); err != nil {
			return err
		}
		log.Printf("encrypt: %s (%s)\n", out, util.FormatSize(len(envelope)))
	}
	return nil
}

func decryptFiles(dec cryptor.Crypter, paths []string) error {
	for _, path := range cleanPaths(paths) {
		if !strings.HasSuffix(path, c_ENCRYPTED_SUFFIX) {
			return fmt.Errorf("not an encrypted file: %s", path)
		}
		envelope, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		plaintext, err := dec.Decrypt(envelope)
		if err != nil {
			return err
		}
		out := strings.TrimSuffix(path, c_ENCRYPTED_SUFFIX)
		if err := file.WriteFileExclusive(out, plaintext); err != nil {
			return err
		}
		log.Printf("decrypt: %s (%s)\n", out, util.FormatSize(len(plaintext)))
	}
	return nil
}

// Seal files and upload them to the store, keyed by base name.
func putFiles(vault *store.Store, paths []string) error {
	for _, path := range cleanPaths(paths) {
		fh, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = vault.PutReader(filepath.Base(path), fh)
		fh.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Download objects from the store and open them into the destination folder.
func getFiles(vault *store.Store, destRoot string, keys []string) error {
	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return err
	}
	for _, key := range keys {
		data, err := vault.Get(key)
		if err != nil {
			return err
		}
		if err := file.WriteFileExclusive(filepath.Join(destRoot, key), data); err != nil {
			return err
		}
	}
	return nil
}

func exitIfError(err error) {
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func main() {
	opt, err := parseFlags(os.Args[1:])
	exitIfError(err)

	log.Printf("starting. build: %s\n", buildTag)

	if opt.encrypt || opt.decrypt {
		enc, err := newCrypter(opt)
		exitIfError(err)
		if opt.encrypt {
			exitIfError(encryptFiles(enc, opt.paths))
		} else {
			exitIfError(decryptFiles(enc, opt.paths))
		}
		return
	}

	original, cfg := loadConfig(opt)
	vault, err := setupStore(&cfg.Store, opt)
	exitIfError(err)

	// Save the config if it changed.
	if cfg.Changed(original) {
		log.Printf("saving updated config file: %q\n", opt.configPath)
		exitIfError(cfg.Save(opt.configPath))
	}

	switch {
	case opt.storePut:
		exitIfError(putFiles(vault, opt.paths))
	case opt.storeGet:
		exitIfError(getFiles(vault, opt.destRoot, opt.keys))
	}

	fmt.Println("<exited normally>")
}
