// Package blobstore keeps in-memory byte blobs reachable through local reference URLs,
// so a recording can be played back or re-read without going over the network.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const URLPrefix = "blob:echo/"

var ErrNotFound = errors.New("blob not found")

type Store struct {
	fs afero.Fs

	mutex        sync.Mutex // Protects contentTypes
	contentTypes map[string]string
}

func New() *Store {
	return &Store{
		fs:           afero.NewMemMapFs(),
		contentTypes: make(map[string]string),
	}
}

// Put stores a copy of data and returns its reference URL.
func (s *Store) Put(data []byte, contentType string) (string, error) {
	id := uuid.NewString()
	if err := afero.WriteFile(s.fs, id, data, 0644); err != nil {
		return "", errors.Wrapf(err, "cannot store blob of %d bytes", len(data))
	}

	s.mutex.Lock()
	s.contentTypes[id] = contentType
	s.mutex.Unlock()

	url := URLPrefix + id
	log.Debug().Str("url", url).Int("byte_size", len(data)).Str("content_type", contentType).Msg("blob stored")
	return url, nil
}

// Get resolves url into the blob bytes and content type.
func (s *Store) Get(url string) ([]byte, string, error) {
	id, err := s.lookup(url)
	if err != nil {
		return nil, "", err
	}
	file, err := s.fs.Open(id)
	if err != nil {
		return nil, "", errors.Wrapf(err, "cannot open blob %s", url)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errors.Wrapf(err, "cannot read blob %s", url)
	}

	s.mutex.Lock()
	contentType := s.contentTypes[id]
	s.mutex.Unlock()
	return data, contentType, nil
}

// Revoke releases the blob; url stops resolving afterwards.
func (s *Store) Revoke(url string) error {
	id, err := s.lookup(url)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(id); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "cannot remove blob %s", url)
	}

	s.mutex.Lock()
	delete(s.contentTypes, id)
	s.mutex.Unlock()

	log.Debug().Str("url", url).Msg("blob revoked")
	return nil
}

// Len is the number of live blobs.
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.contentTypes)
}

func (s *Store) lookup(url string) (string, error) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", fmt.Errorf("%w: %q is not a blob url", ErrNotFound, url)
	}
	id := strings.TrimPrefix(url, URLPrefix)

	s.mutex.Lock()
	_, ok := s.contentTypes[id]
	s.mutex.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return id, nil
}
