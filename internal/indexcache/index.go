package indexcache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/metrics"
	"github.com/alexmaslar/riff-plugin-editorial/internal/normalize"
	"github.com/alexmaslar/riff-plugin-editorial/internal/storage"
)

// Defaults for a full listing crawl.
const (
	DefaultMaxPages  uint32 = 348
	DefaultBatchSize uint32 = 25
)

// saveTimeout bounds the write that follows an extension. The write is
// detached from the caller's context so fetched pages outlive a canceled
// request.
const saveTimeout = 10 * time.Second

// Lister returns the review slugs listed on one page. Pages are numbered
// from 1.
type Lister interface {
	ListPage(ctx context.Context, page uint32) ([]string, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context, page uint32) ([]string, error)

// ListPage calls f.
func (f ListerFunc) ListPage(ctx context.Context, page uint32) ([]string, error) {
	return f(ctx, page)
}

// Config controls one index.
type Config struct {
	// Source labels logs and metrics.
	Source string
	// Key is the storage key the state is persisted under.
	Key       string
	MaxPages  uint32
	BatchSize uint32
}

// Index is a paginated slug index persisted through a storage.Store.
type Index struct {
	cfg    Config
	store  storage.Store
	lister Lister
	logger *zap.Logger

	// mu serialises load-extend-save within this process. Writers in other
	// processes are reconciled by merging on save.
	mu sync.Mutex
}

// New builds an Index.
func New(cfg Config, store storage.Store, lister Lister, logger *zap.Logger) (*Index, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if lister == nil {
		return nil, fmt.Errorf("lister is required")
	}
	if err := storage.ValidateKey(cfg.Key); err != nil {
		return nil, fmt.Errorf("index key %q: %w", cfg.Key, err)
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		cfg:    cfg,
		store:  store,
		lister: lister,
		logger: logger.Named("indexcache").With(zap.String("source", cfg.Source)),
	}, nil
}

// Load returns the stored state. A missing or unreadable state is treated as
// empty so a corrupt entry cannot wedge the adapter.
func (ix *Index) Load(ctx context.Context) State {
	data, ok, err := ix.store.Get(ctx, ix.cfg.Key)
	if err != nil {
		ix.logger.Warn("index load failed, starting empty", zap.Error(err))
		return State{}
	}
	if !ok {
		return State{}
	}
	state, err := Decode(data)
	if err != nil {
		ix.logger.Warn("index state unreadable, starting empty", zap.Error(err))
		return State{}
	}
	return state
}

// Extend processes the next batch of listing pages, if any remain, and
// persists the result. It returns the state after the batch.
func (ix *Index) Extend(ctx context.Context) State {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.extendLocked(ctx, ix.Load(ctx))
}

func (ix *Index) extendLocked(ctx context.Context, state State) State {
	if state.NextPage >= ix.cfg.MaxPages {
		return state
	}
	start := state.NextPage + 1
	end := min(start+ix.cfg.BatchSize, ix.cfg.MaxPages+1)

	set := newSlugSet(&state)
	added := 0
	for page := start; page < end; page++ {
		if ctx.Err() != nil {
			break
		}
		slugs, err := ix.lister.ListPage(ctx, page)
		if err != nil && ctx.Err() != nil {
			// Canceled mid-fetch: the page is retried by the next extension.
			break
		}
		if err != nil {
			ix.logger.Debug("listing page skipped", zap.Uint32("page", page), zap.Error(err))
			metrics.ObserveIndexPageFailure(ix.cfg.Source)
		}
		for _, slug := range slugs {
			if set.add(slug) {
				added++
			}
		}
		state.NextPage = page
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	state = ix.save(saveCtx, state)
	cancel()
	metrics.ObserveIndex(ix.cfg.Source, state.NextPage, len(state.Slugs))
	ix.logger.Info("index extended",
		zap.Uint32("next_page", state.NextPage),
		zap.Int("added", added),
		zap.Int("slugs", len(state.Slugs)),
		zap.Stringer("phase", state.Phase(ix.cfg.MaxPages)),
	)
	return state
}

// save merges state with whatever is stored now and writes the union. A
// failed write is logged; the in-memory state is still used for this call.
func (ix *Index) save(ctx context.Context, state State) State {
	merged := Merge(state, ix.Load(ctx))
	data, err := merged.Encode()
	if err != nil {
		ix.logger.Warn("index encode failed", zap.Error(err))
		return state
	}
	if err := ix.store.Set(ctx, ix.cfg.Key, data); err != nil {
		ix.logger.Warn("index save failed", zap.Error(err))
		return state
	}
	return merged
}

// Lookup extends the index when it is incomplete and returns the first slug
// equal to "artist-album" or starting with "artist-album-".
func (ix *Index) Lookup(ctx context.Context, artistSlug, albumSlug string) (string, error) {
	if albumSlug == "" {
		return "", editorial.ErrNotFound
	}
	prefix := normalize.Slugify(artistSlug + "-" + albumSlug)

	ix.mu.Lock()
	state := ix.Load(ctx)
	if state.NextPage < ix.cfg.MaxPages {
		state = ix.extendLocked(ctx, state)
	}
	ix.mu.Unlock()

	if slug, ok := MatchPrefix(state.Slugs, prefix); ok {
		return slug, nil
	}
	return "", fmt.Errorf("%w: no indexed slug for %q", editorial.ErrNotFound, prefix)
}

// MatchPrefix returns the first slug equal to prefix or starting with
// prefix followed by a hyphen.
func MatchPrefix(slugs []string, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	withDash := prefix + "-"
	for _, s := range slugs {
		if s == prefix || strings.HasPrefix(s, withDash) {
			return s, true
		}
	}
	return "", false
}
