// Package memory provides map-backed stores. They are used for tests and for
// running the server with STORAGE=memory, where nothing survives a restart.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrUnavailable is returned by a store switched to failing mode.
var ErrUnavailable = errors.New("store unavailable")

type DocumentStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	FailLoad bool
	FailSave bool
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: map[string][]byte{}}
}

func (s *DocumentStore) Load(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoad {
		return nil, false, ErrUnavailable
	}
	b, ok := s.docs[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *DocumentStore) Save(_ context.Context, name string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave {
		return ErrUnavailable
	}
	s.docs[name] = append([]byte(nil), body...)
	return nil
}

type BlobStore struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	puts       int
	FailGet    bool
	FailPut    bool
	FailDelete bool
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: map[string][]byte{}}
}

func (s *BlobStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut {
		return ErrUnavailable
	}
	s.puts++
	s.blobs[key] = append([]byte(nil), value...)
	return nil
}

func (s *BlobStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGet {
		return nil, false, ErrUnavailable
	}
	b, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return ErrUnavailable
	}
	delete(s.blobs, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *BlobStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Puts returns the number of successful Put calls.
func (s *BlobStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
