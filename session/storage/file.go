package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/farma-console/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	// FileName is the session document inside the data folder
	FileName = "session.json"

	saltLength  = 16
	nonceLength = 24
	keyLength   = 32
)

// fileDocument is the on-disk layout
type fileDocument struct {
	Salt   string            `json:"salt,omitempty"` // base64, only when values are sealed
	Values map[string]string `json:"values"`
}

// File persists values as a JSON document. When a secret is configured every
// value is sealed with NaCl secretbox under a scrypt-derived key.
type File struct {
	mu   sync.Mutex
	path string
	key  *[keyLength]byte
	salt []byte
}

var _ Store = (*File)(nil)

// FileOption defines a function type to modify the File store.
type FileOption func(*fileOptions)

type fileOptions struct {
	secret string
}

// WithSecret seals values at rest with the given passphrase
func WithSecret(secret string) FileOption {
	return func(o *fileOptions) {
		o.secret = secret
	}
}

// NewFile creates the store for dataFolder/session.json. The folder is created if missing.
func NewFile(dataFolder string, options ...FileOption) (*File, error) {
	var opts fileOptions
	for _, opt := range options {
		opt(&opts)
	}

	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, fmt.Errorf("[storage.NewFile] create data folder: %w", err)
	}

	f := &File{path: filepath.Join(dataFolder, FileName)}
	if opts.secret == "" {
		return f, nil
	}

	doc, _, err := f.readForUpdate()
	if err != nil {
		return nil, fmt.Errorf("[storage.NewFile] %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil || len(salt) != saltLength {
		salt = make([]byte, saltLength)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("[storage.NewFile] salt: %w", err)
		}
	}
	derived, err := scrypt.Key([]byte(opts.secret), salt, 1<<15, 8, 1, keyLength)
	if err != nil {
		return nil, fmt.Errorf("[storage.NewFile] derive key: %w", err)
	}
	f.key = new([keyLength]byte)
	copy(f.key[:], derived)
	f.salt = salt
	return f, nil
}

// Path returns the location of the session document
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.ErrKeyRequired
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", err
	}
	value, ok := doc.Values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return f.open(value)
}

func (f *File) Set(_ context.Context, key, value string) error {
	if key == "" {
		return errors.ErrKeyRequired
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, _, err := f.readForUpdate()
	if err != nil {
		return err
	}
	sealed, err := f.seal(value)
	if err != nil {
		return err
	}
	doc.Values[key] = sealed
	return f.write(doc)
}

func (f *File) Remove(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrKeyRequired
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, reset, err := f.readForUpdate()
	if err != nil {
		return err
	}
	if _, ok := doc.Values[key]; !ok && !reset {
		return nil
	}
	delete(doc.Values, key)
	return f.write(doc)
}

// read loads the document; a missing file is an empty document.
// An unparsable file is reported as corrupted.
func (f *File) read() (*fileDocument, error) {
	doc := &fileDocument{Values: make(map[string]string)}

	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[File.read] %s", f.path)
	}
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, errors.Wrapf(errors.ErrCorrupted, "[File.read] %s: %v", f.path, err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc, nil
}

// readForUpdate is read for callers that rewrite the document: an unparsable
// document is discarded (reset is true) so the next write replaces it.
func (f *File) readForUpdate() (doc *fileDocument, reset bool, err error) {
	doc, err = f.read()
	if errors.Is(err, errors.ErrCorrupted) {
		log.Warn().Str("path", f.path).Msg("Discarding unreadable session document")
		return &fileDocument{Values: make(map[string]string)}, true, nil
	}
	return doc, false, err
}

// write replaces the document atomically (temp file + rename)
func (f *File) write(doc *fileDocument) error {
	if f.key != nil {
		doc.Salt = base64.StdEncoding.EncodeToString(f.salt)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "[File.write] marshal")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), FileName+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "[File.write] create temp")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "[File.write] write temp")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "[File.write] chmod temp")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "[File.write] close temp")
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return errors.Wrapf(err, "[File.write] rename")
	}
	return nil
}

func (f *File) seal(value string) (string, error) {
	if f.key == nil {
		return value, nil
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.Wrapf(err, "[File.seal] nonce")
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, f.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (f *File) open(value string) (string, error) {
	if f.key == nil {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(raw) < nonceLength {
		return "", errors.ErrCorrupted
	}
	var nonce [nonceLength]byte
	copy(nonce[:], raw[:nonceLength])
	opened, ok := secretbox.Open(nil, raw[nonceLength:], &nonce, f.key)
	if !ok {
		return "", errors.ErrCorrupted
	}
	return string(opened), nil
}
