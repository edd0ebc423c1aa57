package builders

import (
	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/value"
)

// Decoder turns a scanned driver value into a Value. typeName is the
// column's database type name as reported by the driver, e.g. "DECIMAL(18,3)".
type Decoder func(raw any, typeName string) (value.Value, error)

type clientConfig struct {
	decoder   Decoder
	cacheSize int
	onPrepare func(query string)
	log       core.Logger
}

type ClientOption func(*clientConfig)

// WithDecoder replaces the default decoder (value.FromGo).
func WithDecoder(fn Decoder) ClientOption {
	return func(cc *clientConfig) {
		if fn != nil {
			cc.decoder = fn
		}
	}
}

func WithStatementCacheSize(size int) ClientOption {
	return func(cc *clientConfig) {
		if size > 0 {
			cc.cacheSize = size
		}
	}
}

func WithOnPrepare(fn func(query string)) ClientOption {
	return func(cc *clientConfig) {
		cc.onPrepare = fn
	}
}

func WithLogger(l core.Logger) ClientOption {
	return func(cc *clientConfig) {
		if l != nil {
			cc.log = l
		}
	}
}

// WithDriverOptions applies options handed over by core.Adapter.Connect.
func WithDriverOptions(opts *core.DriverOptions) ClientOption {
	return func(cc *clientConfig) {
		if opts == nil {
			return
		}
		WithStatementCacheSize(opts.StatementCacheSize)(cc)
		WithOnPrepare(opts.OnPrepare)(cc)
		WithLogger(opts.Logger)(cc)
	}
}
