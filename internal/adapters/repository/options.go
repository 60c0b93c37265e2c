// Package repository defines the analysis store interface and errors.
package repository

import "github.com/okian/vitae/pkg/logger"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFilename overrides the document filename inside the data directory.
func WithFilename(name string) Option {
	return func(s *FileStore) {
		if name != "" {
			s.filename = name
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
