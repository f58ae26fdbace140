package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/clients/doctorapi"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

type field int

const (
	fieldSpecialty field = iota
	fieldCity
	fieldMinPrice
	fieldMaxPrice
	fieldVerified
	fieldSort
	numFields
)

// State is what a directory view renders. View is nil while no list is
// loaded or after a failed load.
type State struct {
	Loading  bool
	Err      error
	View     *View
	Criteria entities.FilterCriteria
	Version  uint64
}

// Options configures an Engine
type Options struct {
	// TextDelay debounces specialty, city and the price bounds
	TextDelay time.Duration
	// ToggleDelay debounces onlyVerified and sort
	ToggleDelay time.Duration
	Scheduler   Scheduler
	Logger      zerolog.Logger
	Metrics     *observability.Metrics
	// OnChange is called after every derivation, in version order
	OnChange func(State)
}

type pending struct {
	timer Timer
	gen   uint64
}

// Engine owns one directory view: a loaded doctor snapshot, the raw and
// settled filter criteria, and the derived result.
type Engine struct {
	provider providers.DirectoryProvider
	sched    Scheduler
	delays   [numFields]time.Duration
	logger   zerolog.Logger
	metrics  *observability.Metrics
	onChange func(State)

	mu         sync.Mutex
	raw        entities.FilterCriteria
	settled    entities.FilterCriteria
	timers     [numFields]pending
	doctors    []entities.DoctorRecord
	listGen    uint64
	loading    bool
	err        error
	loadSeq    uint64
	cancelLoad context.CancelFunc
	view       *View
	memoList   uint64
	memoCrit   entities.FilterCriteria
	version    uint64
	closed     bool

	notifyMu  sync.Mutex
	published uint64
}

// NewEngine creates an engine with no list loaded
func NewEngine(provider providers.DirectoryProvider, opts Options) *Engine {
	sched := opts.Scheduler
	if sched == nil {
		sched = SystemScheduler{}
	}

	e := &Engine{
		provider: provider,
		sched:    sched,
		logger:   opts.Logger.With().Str("component", "directory").Logger(),
		metrics:  opts.Metrics,
		onChange: opts.OnChange,
		raw:      entities.FilterCriteria{Sort: entities.SortRelevance},
		settled:  entities.FilterCriteria{Sort: entities.SortRelevance},
	}
	for _, f := range []field{fieldSpecialty, fieldCity, fieldMinPrice, fieldMaxPrice} {
		e.delays[f] = opts.TextDelay
	}
	e.delays[fieldVerified] = opts.ToggleDelay
	e.delays[fieldSort] = opts.ToggleDelay

	return e
}

// Load fetches the full doctor list and replaces the current one. A newer
// Load supersedes an in-flight one; superseded, cancelled or closed loads are
// dropped and return nil. A failed load clears the list and returns the
// recorded DirectoryLoadFailed error.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	e.loadSeq++
	seq := e.loadSeq
	e.cancelLoad = cancel
	e.loading = true
	st := e.bumpLocked()
	e.mu.Unlock()
	e.publish(st)

	defer cancel()

	loadCtx, span := observability.StartSpan(loadCtx, "directory.load")
	defer span.End()

	doctors, err := e.provider.ListDoctors(loadCtx)

	e.mu.Lock()
	if e.closed || seq != e.loadSeq {
		e.mu.Unlock()
		e.logger.Debug().Uint64("load", seq).Msg("directory load superseded, result discarded")
		return nil
	}
	e.cancelLoad = nil
	e.loading = false
	if loadCtx.Err() != nil {
		st := e.bumpLocked()
		e.mu.Unlock()
		e.publish(st)
		e.logger.Debug().Uint64("load", seq).Msg("directory load cancelled, result discarded")
		return nil
	}

	if err != nil {
		observability.RecordError(span, err)
		e.err = apperrors.NewDirectoryLoadFailedError(loadFailureMessage(err), err)
		e.doctors = nil
	} else {
		snapshot := make([]entities.DoctorRecord, len(doctors))
		copy(snapshot, doctors)
		e.err = nil
		e.doctors = snapshot
	}
	e.listGen++
	loadErr := e.err
	st = e.recomputeLocked()
	e.mu.Unlock()

	if loadErr != nil {
		observability.LoggerFromContext(loadCtx, e.logger).Warn().Err(loadErr).Msg("directory load failed")
		e.recordLoad(ctx, "failed")
	} else {
		e.logger.Debug().Int("doctors", len(doctors)).Msg("directory loaded")
		e.recordLoad(ctx, "succeeded")
	}
	e.publish(st)
	return loadErr
}

func (e *Engine) SetSpecialty(v string) {
	e.schedule(fieldSpecialty, func(c *entities.FilterCriteria) { c.Specialty = v })
}

func (e *Engine) SetCity(v string) {
	e.schedule(fieldCity, func(c *entities.FilterCriteria) { c.City = v })
}

// SetMinPriceRON sets the lower price bound; nil clears it
func (e *Engine) SetMinPriceRON(v *float64) {
	v = cloneBound(v)
	e.schedule(fieldMinPrice, func(c *entities.FilterCriteria) { c.MinPriceRON = v })
}

// SetMaxPriceRON sets the upper price bound; nil clears it
func (e *Engine) SetMaxPriceRON(v *float64) {
	v = cloneBound(v)
	e.schedule(fieldMaxPrice, func(c *entities.FilterCriteria) { c.MaxPriceRON = v })
}

func (e *Engine) SetOnlyVerified(v bool) {
	e.schedule(fieldVerified, func(c *entities.FilterCriteria) { c.OnlyVerified = v })
}

func (e *Engine) SetSort(v entities.SortMode) {
	e.schedule(fieldSort, func(c *entities.FilterCriteria) { c.Sort = v })
}

// Raw returns the criteria as typed, before debouncing
func (e *Engine) Raw() entities.FilterCriteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.raw
}

// State returns the current derived state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Settle cancels every pending debounce and applies the raw criteria now
func (e *Engine) Settle() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	for f := range e.timers {
		e.stopLocked(field(f))
	}
	if e.raw.Equal(e.settled) {
		e.mu.Unlock()
		return
	}
	e.settled = e.raw
	st := e.recomputeLocked()
	e.mu.Unlock()
	e.publish(st)
}

// Close tears the view down: pending timers are stopped, an in-flight load is
// cancelled, and nothing settles afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for f := range e.timers {
		e.stopLocked(field(f))
	}
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
}

// schedule applies set to the raw criteria immediately and to the settled
// criteria once the field's debounce delay passes without another edit.
func (e *Engine) schedule(f field, set func(*entities.FilterCriteria)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	set(&e.raw)

	e.stopLocked(f)
	gen := e.timers[f].gen
	e.timers[f].timer = e.sched.AfterFunc(e.delays[f], func() {
		e.settle(f, gen, set)
	})
}

func (e *Engine) settle(f field, gen uint64, set func(*entities.FilterCriteria)) {
	e.mu.Lock()
	if e.closed || e.timers[f].gen != gen {
		e.mu.Unlock()
		return
	}
	e.timers[f].timer = nil

	next := e.settled
	set(&next)
	if next.Equal(e.settled) {
		e.mu.Unlock()
		return
	}
	e.settled = next
	st := e.recomputeLocked()
	e.mu.Unlock()
	e.publish(st)
}

// stopLocked invalidates the field's pending timer, including one whose
// callback has already started and is waiting on the lock.
func (e *Engine) stopLocked(f field) {
	p := &e.timers[f]
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (e *Engine) recomputeLocked() State {
	switch {
	case e.doctors == nil:
		e.view = nil
	case e.view != nil && e.memoList == e.listGen && e.memoCrit.Equal(e.settled):
	default:
		v := Derive(e.doctors, e.settled)
		e.view = &v
		e.memoList = e.listGen
		e.memoCrit = e.settled
	}
	return e.bumpLocked()
}

func (e *Engine) bumpLocked() State {
	e.version++
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	st := State{
		Loading:  e.loading,
		Err:      e.err,
		Criteria: e.settled,
		Version:  e.version,
	}
	if e.view != nil {
		v := *e.view
		st.View = &v
	}
	return st
}

// publish delivers st unless a newer state was already delivered
func (e *Engine) publish(st State) {
	if e.onChange == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if st.Version <= e.published {
		return
	}
	e.published = st.Version
	e.onChange(st)
}

func (e *Engine) recordLoad(ctx context.Context, outcome string) {
	if e.metrics == nil {
		return
	}
	observability.RecordOutcome(ctx, e.metrics.DirectoryLoadCount, outcome)
}

func loadFailureMessage(err error) string {
	if code := doctorapi.StatusCode(err); code != 0 {
		return fmt.Sprintf("Failed to load data: %d", code)
	}
	return "Failed to load data"
}

func cloneBound(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
