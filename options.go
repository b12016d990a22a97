package goskemaform

import (
	"log/slog"
	"time"

	"github.com/reoring/goskemaform/internal/logging"
)

// Default option values.
const (
	DefaultDebounce          = 100 * time.Millisecond
	DefaultPathCacheSize     = 1024
	DefaultFieldCacheSize    = 512
	DefaultMethodCacheSize   = 256
	DefaultIdentityCacheSize = 512
)

// Options configures a Form. Zero fields take their defaults; when several
// Options are passed to New the last one wins.
type Options struct {
	// Debounce is the quiet window before a validation pass runs.
	Debounce time.Duration
	// Cache bounds. A negative size disables the bound.
	PathCacheSize     int
	FieldCacheSize    int
	MethodCacheSize   int
	IdentityCacheSize int
	// ValidateOnInit runs a validation pass from New.
	ValidateOnInit bool
	Logger         *slog.Logger
	Metrics        *Metrics
}

func normalizeOptions(opts []Options) Options {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Debounce <= 0 {
		opt.Debounce = DefaultDebounce
	}
	opt.PathCacheSize = cacheSize(opt.PathCacheSize, DefaultPathCacheSize)
	opt.FieldCacheSize = cacheSize(opt.FieldCacheSize, DefaultFieldCacheSize)
	opt.MethodCacheSize = cacheSize(opt.MethodCacheSize, DefaultMethodCacheSize)
	opt.IdentityCacheSize = cacheSize(opt.IdentityCacheSize, DefaultIdentityCacheSize)
	opt.Logger = logging.Or(opt.Logger)
	return opt
}

func cacheSize(n, def int) int {
	switch {
	case n == 0:
		return def
	case n < 0:
		return 0
	default:
		return n
	}
}
