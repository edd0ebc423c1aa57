package core

import (
	"github.com/snowduck/snowduck/convert"
)

const (
	DefaultSecretName         = "aws_bucket_secrets"
	DefaultStatementCacheSize = 16
)

// DefaultExtensions are installed on every connection with remote storage.
var DefaultExtensions = []string{"aws", "httpfs"}

type (
	// DriverOptions are handed to the adapter when connecting.
	DriverOptions struct {
		StatementCacheSize int
		// OnPrepare is called every time a statement is compiled.
		OnPrepare func(query string)
		Logger    Logger
	}

	options struct {
		id            ConnectionID
		url           string
		extensions    []string
		secretName    string
		remoteStorage bool
		indifferent   bool
		converter     *convert.Converter
		logger        Logger
		cacheSize     int
		onPrepare     func(query string)
	}
)

type Option func(*options)

func defaultOptions() *options {
	return &options{
		extensions:    DefaultExtensions,
		secretName:    DefaultSecretName,
		remoteStorage: true,
		converter:     convert.New(),
		logger:        NopLogger{},
		cacheSize:     DefaultStatementCacheSize,
	}
}

func WithID(id ConnectionID) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithURL opens a database file instead of an in-memory database.
func WithURL(url string) Option {
	return func(o *options) {
		o.url = url
	}
}

func WithExtensions(names ...string) Option {
	return func(o *options) {
		o.extensions = names
	}
}

func WithSecretName(name string) Option {
	return func(o *options) {
		o.secretName = name
	}
}

// WithoutRemoteStorage skips extension installation and secret registration.
// Credentials are not required then.
func WithoutRemoteStorage() Option {
	return func(o *options) {
		o.remoteStorage = false
	}
}

// WithIndifferentAccess makes object projections accept both string and
// symbol lookups.
func WithIndifferentAccess(enabled bool) Option {
	return func(o *options) {
		o.indifferent = enabled
	}
}

func WithConverter(c *convert.Converter) Option {
	return func(o *options) {
		if c != nil {
			o.converter = c
		}
	}
}

func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStatementCacheSize sets how many prepared statements are kept.
func WithStatementCacheSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.cacheSize = size
		}
	}
}

// WithOnPrepare registers a hook called whenever a statement is compiled
// rather than taken from the cache.
func WithOnPrepare(fn func(query string)) Option {
	return func(o *options) {
		o.onPrepare = fn
	}
}
