package core

import (
	"context"
	"errors"
	"time"
)

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	// HeaderSearchRows bounds the header scan (default 30).
	HeaderSearchRows int

	// ImportTimeout bounds a single import (default 5m).
	ImportTimeout time.Duration

	MaxConcurrentImports int
	MaxImportWait        time.Duration

	// Files resolves stored document references to URLs for history
	// entries (default: MediaLocator under /media/).
	Files FileLocator

	// Sinks receive every recorded event after it is stored.
	Sinks []EventSink
}

// DefaultImportTimeout is the maximum duration of one import.
const DefaultImportTimeout = 5 * time.Minute

// Service provides the card tracker's business operations on top of a Store.
type Service struct {
	store    Store
	recorder *Recorder
	limiter  *ImportLimiter
	files    FileLocator

	headerRows    int
	importTimeout time.Duration
}

// NewService creates a Service backed by store.
func NewService(store Store, opts Options) (*Service, error) {
	if store == nil {
		return nil, errors.New("core: nil store")
	}

	if opts.HeaderSearchRows <= 0 {
		opts.HeaderSearchRows = DefaultHeaderSearchRows
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = DefaultImportTimeout
	}
	if opts.Files == nil {
		opts.Files = MediaLocator{Prefix: DefaultMediaPrefix}
	}

	return &Service{
		store:         store,
		recorder:      NewRecorder(store, opts.Sinks...),
		limiter:       NewImportLimiter(opts.MaxConcurrentImports, opts.MaxImportWait),
		files:         opts.Files,
		headerRows:    opts.HeaderSearchRows,
		importTimeout: opts.ImportTimeout,
	}, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ImportLimiterStatus reports import slot usage.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
