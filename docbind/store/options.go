package store

import (
	"time"

	"go.uber.org/zap"
)

// Option is a function that modifies Store configuration
type Option func(*Store)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(s *Store) {
		s.lockFactory = factory
	}
}

// WithTimeFunc sets a custom time function for testing
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *Store) {
		s.timeFunc = fn
	}
}

// WithIDFunc sets the generator for identifiers of added documents.
// The default generates random UUIDs.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		s.idFunc = fn
	}
}

// WithLogger sets the logger used for load and persist events
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}
