package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"paper-translator/internal/cache"
	"paper-translator/internal/config"
	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
	"paper-translator/internal/translator"
)

const (
	// retryBaseDelay and retryMaxDelay bound the exponential backoff.
	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = 30 * time.Second
)

// Dispatcher translates units through a backend, consulting the cache first.
type Dispatcher struct {
	backend  translator.Backend
	fallback translator.Backend
	store    *cache.Store

	langIn  string
	langOut string
	model   string

	threads           int
	maxRetries        int
	contextWindow     int
	fallbackThreshold int
	forceRefresh      bool

	limiter *rate.Limiter

	mu                  sync.Mutex
	consecutiveFailures int
	usingFallback       bool
}

// Options configures a Dispatcher.
type Options struct {
	Backend  translator.Backend
	Fallback translator.Backend
	Store    *cache.Store
	LangIn   string
	LangOut  string
	Model    string
	Settings *config.Settings
}

// NewDispatcher builds a dispatcher from options, filling defaults from the
// settings where fields are zero.
func NewDispatcher(opts Options) *Dispatcher {
	s := opts.Settings
	threads := s.Threads
	if threads <= 0 {
		threads = config.DefaultThreads
	}
	maxRetries := s.MaxRetries
	if maxRetries <= 0 {
		maxRetries = config.DefaultMaxRetries
	}
	rps := s.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultRequestsPerSecond
	}
	contextWindow := s.ContextWindow
	if contextWindow <= 0 {
		contextWindow = config.DefaultContextWindow
	}
	threshold := s.FallbackThreshold
	if threshold <= 0 {
		threshold = config.DefaultFallbackThreshold
	}

	return &Dispatcher{
		backend:           opts.Backend,
		fallback:          opts.Fallback,
		store:             opts.Store,
		langIn:            opts.LangIn,
		langOut:           opts.LangOut,
		model:             opts.Model,
		threads:           threads,
		maxRetries:        maxRetries,
		contextWindow:     contextWindow,
		fallbackThreshold: threshold,
		forceRefresh:      s.IgnoreCache,
		limiter:           rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// TranslateAll resolves every unit, from cache where possible and through the
// backend otherwise. It returns a fatal error only for conditions that doom
// the whole run; individual unit failures are recorded on the units.
func (d *Dispatcher) TranslateAll(ctx context.Context, units []*Unit) error {
	if err := translator.ValidatePair(d.langIn, d.langOut); err != nil {
		return err
	}

	pending := d.resolveFromCache(units)
	if len(pending) == 0 {
		return nil
	}
	logger.Info("dispatching translation units",
		logger.Int("total", len(units)),
		logger.Int("cached", len(units)-len(pending)),
		logger.Int("pending", len(pending)))

	batches := d.makeBatches(pending)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.threads)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			return d.translateBatch(gctx, batch)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return doc.NewError(doc.ErrCancelled, "translation cancelled", err)
		}
		return err
	}

	d.writeCache(pending)
	return nil
}

// resolveFromCache fills units that hit the cache and returns the remainder.
func (d *Dispatcher) resolveFromCache(units []*Unit) []*Unit {
	if d.forceRefresh {
		return units
	}
	var pending []*Unit
	for _, unit := range units {
		translation, ok, err := d.store.Get(unit.Fingerprint)
		if err != nil {
			logger.Warn("cache lookup failed", logger.Err(err))
			pending = append(pending, unit)
			continue
		}
		if ok {
			unit.Translation = translation
			unit.FromCache = true
			continue
		}
		pending = append(pending, unit)
	}
	return pending
}

// makeBatches packs units into batches bounded by the context window, in
// characters, accounting for the separator overhead between blocks.
func (d *Dispatcher) makeBatches(units []*Unit) [][]*Unit {
	sepLen := len(translator.Separator)
	var batches [][]*Unit
	var current []*Unit
	size := 0

	for _, unit := range units {
		add := len(unit.Text)
		if len(current) > 0 {
			add += sepLen
		}
		if len(current) > 0 && size+add > d.contextWindow {
			batches = append(batches, current)
			current = nil
			size = 0
			add = len(unit.Text)
		}
		current = append(current, unit)
		size += add
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// translateBatch resolves one batch, falling back to per-unit requests when
// the batched call exhausts its retries.
func (d *Dispatcher) translateBatch(ctx context.Context, batch []*Unit) error {
	texts := make([]string, len(batch))
	for i, unit := range batch {
		texts[i] = unit.Text
	}

	results, err := d.callWithRetry(ctx, texts)
	if err == nil {
		for i, unit := range batch {
			unit.Translation = results[i]
		}
		return nil
	}
	if fatal := asFatal(err); fatal != nil {
		return fatal
	}

	logger.Warn("batch translation failed, retrying units individually",
		logger.Int("units", len(batch)), logger.Err(err))
	for _, unit := range batch {
		results, err := d.callWithRetry(ctx, []string{unit.Text})
		if err != nil {
			if fatal := asFatal(err); fatal != nil {
				return fatal
			}
			unit.Failed = true
			logger.Error("translation unit failed", err,
				logger.String("fingerprint", unit.Fingerprint))
			continue
		}
		unit.Translation = results[0]
	}
	return nil
}

// callWithRetry performs one backend call with rate limiting and exponential
// backoff on transient failures.
func (d *Dispatcher) callWithRetry(ctx context.Context, texts []string) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			logger.Debug("retrying translation",
				logger.Int("attempt", attempt),
				logger.String("delay", delay.String()))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		results, err := d.currentBackend().Translate(ctx, texts, d.langIn, d.langOut)
		if err == nil && len(results) == len(texts) {
			d.recordSuccess()
			return results, nil
		}
		if err == nil {
			err = doc.NewError(doc.ErrTranslateFailed,
				"backend returned wrong number of blocks", nil)
		}
		lastErr = err
		d.recordFailure()
		if !doc.IsTransient(err) {
			break
		}
	}
	return nil, lastErr
}

func (d *Dispatcher) currentBackend() translator.Backend {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.usingFallback && d.fallback != nil {
		return d.fallback
	}
	return d.backend
}

func (d *Dispatcher) recordSuccess() {
	d.mu.Lock()
	d.consecutiveFailures = 0
	d.mu.Unlock()
}

// recordFailure switches to the fallback backend after enough consecutive
// primary failures. The switch is one-way for the remainder of the run.
func (d *Dispatcher) recordFailure() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.consecutiveFailures++
	if !d.usingFallback && d.fallback != nil &&
		d.consecutiveFailures >= d.fallbackThreshold {
		d.usingFallback = true
		d.consecutiveFailures = 0
		logger.Warn("switching to fallback translation service",
			logger.String("fallback", d.fallback.Name()))
	}
}

// UsedFallback reports whether the run switched to the fallback service.
func (d *Dispatcher) UsedFallback() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.usingFallback
}

func (d *Dispatcher) writeCache(units []*Unit) {
	service := ""
	if d.backend != nil {
		service = d.backend.Name()
	}
	for _, unit := range units {
		if unit.Failed || unit.Translation == "" {
			continue
		}
		entry := cache.Entry{
			Fingerprint: unit.Fingerprint,
			Source:      unit.Text,
			Translation: unit.Translation,
			Service:     service,
			Model:       d.model,
			LangIn:      d.langIn,
			LangOut:     d.langOut,
		}
		var err error
		if d.forceRefresh {
			err = d.store.PutReplace(entry)
		} else {
			err = d.store.Put(entry)
		}
		if err != nil {
			logger.Warn("failed to cache translation", logger.Err(err))
		}
	}
}

// asFatal returns the error when it should abort the whole run.
func asFatal(err error) error {
	switch doc.CodeOf(err) {
	case doc.ErrInvalidLanguagePair, doc.ErrCancelled:
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return doc.NewError(doc.ErrCancelled, "translation cancelled", err)
	}
	return nil
}

// backoffDelay computes the exponential delay for the given attempt.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}
