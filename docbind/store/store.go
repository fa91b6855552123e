// Package store is a local document store implementing types.Store.
//
// Documents live in memory, grouped by collection path. When created with
// NewJSON the whole store is also written to a JSON file after every
// write, atomically (temp file then rename) and under a cross-process file
// lock, and read back when the store is opened.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/arthur-debert/docbind/internal/validation"
	"github.com/arthur-debert/docbind/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the in-memory / JSON file store.
type Store struct {
	filePath string

	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	logger      *zap.Logger
	timeFunc    func() time.Time
	idFunc      func() string

	locks lockManager
	data  *storeData
}

var _ types.Store = (*Store)(nil)

// storeData is the persisted layout: collection path -> document ID -> fields.
type storeData struct {
	Metadata    metadata                                     `json:"metadata"`
	Collections map[string]map[string]map[string]interface{} `json:"collections"`
}

type metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const dataVersion = "1.0"

func (d *storeData) clone() *storeData {
	out := &storeData{
		Metadata:    d.Metadata,
		Collections: make(map[string]map[string]map[string]interface{}, len(d.Collections)),
	}
	for path, docs := range d.Collections {
		copied := make(map[string]map[string]interface{}, len(docs))
		for id, doc := range docs {
			copied[id] = copyDoc(doc)
		}
		out.Collections[path] = copied
	}
	return out
}

// Constants for file locking
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// New creates a memory-only store.
func New(opts ...Option) *Store {
	s := newStore("", opts...)
	return s
}

// NewJSON opens a store persisted to filePath, loading existing data.
func NewJSON(filePath string, opts ...Option) (*Store, error) {
	if filePath == "" {
		return nil, errors.New("store: file path is required")
	}
	s := newStore(filePath, opts...)
	s.fileLock = s.lockFactory.New(filePath + ".lock")

	if err := s.withFileLock(s.load); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	s.logger.Debug("store loaded",
		zap.String("file", filePath),
		zap.Int("collections", len(s.data.Collections)))
	return s, nil
}

func newStore(filePath string, opts ...Option) *Store {
	s := &Store{
		filePath: filePath,
		timeFunc: time.Now,
		idFunc:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	now := s.timeFunc()
	s.data = &storeData{
		Metadata:    metadata{Version: dataVersion, CreatedAt: now, UpdatedAt: now},
		Collections: make(map[string]map[string]map[string]interface{}),
	}
	return s
}

// Add implements types.Store.
func (s *Store) Add(ctx context.Context, collection string, data map[string]interface{}) (types.DocRef, error) {
	if err := ctx.Err(); err != nil {
		return types.DocRef{}, err
	}
	if err := types.ValidateCollectionPath(collection); err != nil {
		return types.DocRef{}, err
	}
	doc, err := prepare(data)
	if err != nil {
		return types.DocRef{}, err
	}

	var ref types.DocRef
	err = s.write(func() error {
		id := s.idFunc()
		docs := s.collection(collection)
		if _, taken := docs[id]; taken {
			return fmt.Errorf("generated id %q already exists in %s", id, collection)
		}
		docs[id] = doc
		ref = types.NewDocRef(collection, id)
		return nil
	})
	if err != nil {
		return types.DocRef{}, err
	}
	return ref, nil
}

// Set implements types.Store.
func (s *Store) Set(ctx context.Context, ref types.DocRef, data map[string]interface{}, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := types.ValidateDocumentPath(ref.Path); err != nil {
		return err
	}
	doc, err := prepare(data)
	if err != nil {
		return err
	}

	return s.write(func() error {
		docs := s.collection(ref.Collection())
		if previous, existed := docs[ref.ID()]; merge && existed {
			merged := copyDoc(previous)
			for k, v := range doc {
				merged[k] = v
			}
			doc = merged
		}
		docs[ref.ID()] = doc
		return nil
	})
}

// Get implements types.Store.
func (s *Store) Get(ctx context.Context, ref types.DocRef) (types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.Snapshot{}, err
	}
	if err := types.ValidateDocumentPath(ref.Path); err != nil {
		return types.Snapshot{}, err
	}

	snap := types.Snapshot{Ref: ref}
	err := s.locks.execute(readOperation, func() error {
		doc, ok := s.data.Collections[ref.Collection()][ref.ID()]
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrNotFound, ref.Path)
		}
		snap.Data = copyDoc(doc)
		return nil
	})
	if err != nil {
		return types.Snapshot{}, err
	}
	return snap, nil
}

// Query implements types.Store.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q, err := canonicalQuery(q)
	if err != nil {
		return nil, err
	}

	var out []types.Snapshot
	err = s.locks.execute(readOperation, func() error {
		entries := evaluate(q, s.data.Collections[q.Collection])
		out = make([]types.Snapshot, len(entries))
		for i, e := range entries {
			out[i] = types.Snapshot{
				Ref:  types.NewDocRef(q.Collection, e.id),
				Data: copyDoc(e.data),
			}
		}
		return nil
	})
	return out, err
}

// Close implements types.Store.
func (s *Store) Close() error {
	return nil
}

// Collections lists the collection paths holding at least one document.
func (s *Store) Collections() []string {
	var paths []string
	_ = s.locks.execute(readOperation, func() error {
		for path, docs := range s.data.Collections {
			if len(docs) > 0 {
				paths = append(paths, path)
			}
		}
		return nil
	})
	sort.Strings(paths)
	return paths
}

func (s *Store) collection(path string) map[string]map[string]interface{} {
	docs, ok := s.data.Collections[path]
	if !ok {
		docs = make(map[string]map[string]interface{})
		s.data.Collections[path] = docs
	}
	return docs
}

func prepare(data map[string]interface{}) (map[string]interface{}, error) {
	for name, value := range data {
		if validation.IsReservedFieldName(name) {
			return nil, fmt.Errorf("field name %q is reserved", name)
		}
		if err := validation.ValidateValue(value, name); err != nil {
			return nil, err
		}
	}
	return canonicalDoc(data)
}

func canonicalQuery(q types.Query) (types.Query, error) {
	filters := make([]types.Filter, len(q.Filters))
	for i, f := range q.Filters {
		v, err := canonical(f.Value)
		if err != nil {
			return q, fmt.Errorf("%w: filter on %q: %v", types.ErrInvalidQuery, f.Field, err)
		}
		f.Value = v
		filters[i] = f
	}
	q.Filters = filters
	return q, nil
}

// write runs fn under the write lock. File-backed stores reload the file
// under the file lock first, so writes made through other handles survive,
// then save. On any failure the in-memory data is left as loaded.
func (s *Store) write(fn func() error) error {
	return s.locks.execute(writeOperation, func() error {
		if s.filePath == "" {
			return fn()
		}
		return s.withFileLock(func() error {
			if err := s.load(); err != nil {
				return fmt.Errorf("failed to load data: %w", err)
			}
			loaded := s.data
			s.data = loaded.clone()
			if err := fn(); err != nil {
				s.data = loaded
				return err
			}
			if err := s.save(); err != nil {
				s.data = loaded
				return err
			}
			return nil
		})
	})
}

// acquireLock attempts to acquire an exclusive file lock with retry logic
func (s *Store) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (s *Store) withFileLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return fn()
}

// load reads the JSON file into memory. A missing or empty file is an
// empty store.
func (s *Store) load() error {
	if _, err := s.fs.Stat(s.filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	raw, err := s.fs.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var file struct {
		Metadata    metadata                                     `json:"metadata"`
		Collections map[string]map[string]map[string]interface{} `json:"collections"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	data := &storeData{
		Metadata:    file.Metadata,
		Collections: make(map[string]map[string]map[string]interface{}, len(file.Collections)),
	}
	for path, docs := range file.Collections {
		decoded := make(map[string]map[string]interface{}, len(docs))
		for id, doc := range docs {
			v, err := decodeValue(doc)
			if err != nil {
				return fmt.Errorf("document %s/%s: %w", path, id, err)
			}
			decoded[id] = v.(map[string]interface{})
		}
		data.Collections[path] = decoded
	}
	s.data = data
	return nil
}

// save writes the in-memory data to the JSON file
func (s *Store) save() error {
	s.data.Metadata.UpdatedAt = s.timeFunc()

	collections := make(map[string]interface{}, len(s.data.Collections))
	for path, docs := range s.data.Collections {
		encoded := make(map[string]interface{}, len(docs))
		for id, doc := range docs {
			encoded[id] = encodeValue(doc)
		}
		collections[path] = encoded
	}
	out, err := json.MarshalIndent(map[string]interface{}{
		"metadata":    s.data.Metadata,
		"collections": collections,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := s.fs.WriteFile(tmpFile, out, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmpFile, s.filePath); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	s.logger.Debug("store persisted", zap.String("file", s.filePath), zap.Int("bytes", len(out)))
	return nil
}
