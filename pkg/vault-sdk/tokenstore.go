package vault

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// StorageKey is the fixed key the live credential is stored under.
const StorageKey = "jwt_token"

// TokenStore persists the single live credential.
// Get reports ok=false when no credential is stored; that is not an error.
type TokenStore interface {
	Get(ctx context.Context) (Credential, bool, error)
	Set(ctx context.Context, c Credential) error
	Remove(ctx context.Context) error
}

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token Credential
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != "", nil
}

func (s *MemoryStore) Set(_ context.Context, c Credential) error {
	s.mu.Lock()
	s.token = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// FileStore keeps the credential in a single file so a session survives
// restarts of the client.
type FileStore struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path on fsys.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	return &FileStore{fs: fsys, path: path}
}

// Path returns the file the credential is written to.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context) (Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	token := Credential(strings.TrimSpace(string(data)))
	return token, token != "", nil
}

// Set writes the credential to a temp file and renames it into place, so a
// concurrent Get sees either the old or the new value.
func (s *FileStore) Set(_ context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(c), 0o600); err != nil {
		return err
	}
	return s.fs.Rename(tmp, s.path)
}

func (s *FileStore) Remove(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RedisStore keeps the credential in Redis under prefix+StorageKey, letting
// several clients on one host share a session.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore returns a store using client. prefix namespaces the key.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + StorageKey}
}

func (s *RedisStore) Get(ctx context.Context) (Credential, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Credential(val), val != "", nil
}

func (s *RedisStore) Set(ctx context.Context, c Credential) error {
	return s.client.Set(ctx, s.key, string(c), 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
