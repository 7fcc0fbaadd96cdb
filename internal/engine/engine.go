// Package engine wires the deck queue, swipe state machine, prefetch
// scheduler, undo stack, and persistence facade into the swipe-deck
// engine the UI layer talks to.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ramonehamilton/deckflow/internal/config"
	"github.com/ramonehamilton/deckflow/internal/deck"
	"github.com/ramonehamilton/deckflow/internal/events"
	"github.com/ramonehamilton/deckflow/internal/persist"
	"github.com/ramonehamilton/deckflow/internal/prefetch"
	"github.com/ramonehamilton/deckflow/internal/remote"
	"github.com/ramonehamilton/deckflow/internal/swipe"
	"github.com/ramonehamilton/deckflow/internal/undo"
)

// Supply is the external collaborator that yields pages of ranked
// candidate cards for a filter set.
type Supply interface {
	FetchPage(ctx context.Context, userID string, filters remote.Filters, pageToken string) (*remote.Page, error)
}

// Options configures an Engine.
type Options struct {
	// Config provides capacities and timings. Required.
	Config *config.Config

	// Supply yields candidate pages. Required.
	Supply Supply

	// Decisions records swipes remotely. Required.
	Decisions swipe.DecisionWriter

	// Images loads card media. Optional; without it prefetch is a no-op.
	Images prefetch.ImageLoader

	// Durable is the cross-session mirror. Optional; without it only
	// the session mirror is kept.
	Durable persist.Store

	// Dispatcher receives engine notifications. Optional.
	Dispatcher *events.Dispatcher
}

// Engine owns all deck state for one user session.
type Engine struct {
	userID     string
	manager    *deck.Manager
	machine    *swipe.Machine
	undoStack  *undo.Stack
	facade     *persist.Facade
	warmer     *prefetch.Warmer
	scheduler  *prefetch.Scheduler
	writer     *swipe.Writer
	supply     Supply
	dispatcher *events.Dispatcher

	mu         sync.Mutex
	cfg        *config.Config
	pageTokens map[deck.Key]string
	fetching   map[deck.Key]bool
}

// New creates an engine.
func New(options Options) (*Engine, error) {
	if options.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if options.Supply == nil {
		return nil, fmt.Errorf("supply is required")
	}
	if options.Decisions == nil {
		return nil, fmt.Errorf("decisions is required")
	}

	cfg := options.Config
	e := &Engine{
		userID:    cfg.App.UserID,
		manager:   deck.NewManager(cfg.Deck.Capacity),
		undoStack: undo.NewStack(),
		facade:    persist.NewFacade(persist.NewSessionStore(), options.Durable),
		warmer:    prefetch.NewWarmer(prefetch.SharedCache(), options.Images),
		scheduler: prefetch.NewScheduler(prefetch.SchedulerConfig{
			Delay:       cfg.DebounceDuration(),
			IdleCeiling: cfg.IdleCeilingDuration(),
		}),
		writer:     swipe.NewWriter(options.Decisions, options.Dispatcher),
		supply:     options.Supply,
		dispatcher: options.Dispatcher,
		cfg:        cfg,
		pageTokens: make(map[deck.Key]string),
		fetching:   make(map[deck.Key]bool),
	}
	e.machine = swipe.NewMachine(cfg.FlushTimeoutDuration(), e.commitSwipe)
	return e, nil
}

// ActiveKey derives the deck key from the configured filters.
func (e *Engine) ActiveKey() deck.Key {
	e.mu.Lock()
	defer e.mu.Unlock()
	return deck.Key{Role: e.cfg.Filters.Role, Category: e.cfg.Filters.Category}
}

// Mount prepares a deck for display: rehydrate from the mirrors, then
// top up from the supply if the deck is running low. Rehydration means
// a returning user sees their deck immediately, with no empty flash
// and no re-shown decided cards.
func (e *Engine) Mount(ctx context.Context, key deck.Key) deck.State {
	record, source, err := e.facade.Rehydrate(key.String())
	if err != nil {
		log.Printf("[Engine] rehydrate failed for %s: %v", key, err)
	}
	if record != nil {
		if e.manager.Hydrate(key, record.State(), e.userID) {
			log.Printf("[Engine] rehydrated %s from %s mirror", key, source)
		}
	}

	if e.manager.Remaining(key) <= e.lowWater() {
		e.ensureSupply(ctx, key)
	}
	return e.manager.Snapshot(key)
}

// Swipe starts a swipe on the top card. It returns false if no card is
// on top or a swipe is already animating; a second gesture during an
// animation has no effect on any state.
func (e *Engine) Swipe(ctx context.Context, key deck.Key, direction deck.Direction) bool {
	top, ok := e.manager.Top(key)
	if !ok {
		return false
	}

	// Pre-flight self-target guard; the ingestion filter should make
	// this unreachable.
	if top.OwnerID == e.userID {
		log.Printf("[Engine] refusing self-target swipe on %s", top.ID)
		e.publish(ctx, events.TypeSwipeUnsaved, events.SwipeUnsavedEvent{
			CandidateID: top.ID,
			Direction:   direction.String(),
			Reason:      "cannot decide on your own candidate",
		})
		return false
	}

	state := e.manager.Snapshot(key)
	return e.machine.Begin(swipe.Pending{
		Key:         key,
		CandidateID: top.ID,
		Direction:   direction,
		TargetType:  top.TargetType,
		PrevCursor:  state.Cursor,
	})
}

// FinishAnimation is the rendering layer's animation-completion
// callback. If it never arrives, the safety flush commits instead.
func (e *Engine) FinishAnimation() {
	e.machine.Finish()
}

// commitSwipe is the machine's commit callback: the point where the
// swipe becomes authoritative.
func (e *Engine) commitSwipe(p swipe.Pending) {
	ctx := context.Background()

	state := e.manager.CommitSwipe(p.Key, p.CandidateID)
	e.undoStack.Record(deck.Decision{
		Key:         p.Key,
		CandidateID: p.CandidateID,
		Direction:   p.Direction,
		TargetType:  p.TargetType,
		PrevCursor:  p.PrevCursor,
	})
	e.persistState(p.Key)
	e.writer.Dispatch(swipe.NewPendingWrite(p.CandidateID, p.Direction, p.TargetType))

	e.publish(ctx, events.TypeSwipeCommitted, events.SwipeCommittedEvent{
		CandidateID: p.CandidateID,
		Direction:   p.Direction.String(),
		Cursor:      state.Cursor,
		Remaining:   state.Remaining(),
		Key:         p.Key,
	})

	e.warmAhead(ctx, p.Key)
	e.scheduleDetailPrefetch(ctx, p.Key)

	if e.manager.Remaining(p.Key) <= e.lowWater() {
		e.ensureSupply(ctx, p.Key)
	}
}

// Undo reverses the last committed swipe on the deck. Returns false if
// there is nothing to undo or an undo is already in flight.
func (e *Engine) Undo(ctx context.Context, key deck.Key) bool {
	d, ok := e.undoStack.Begin(key)
	if !ok {
		return false
	}

	state := e.manager.RestoreSwipe(key, d.CandidateID, d.PrevCursor)
	e.persistState(key)
	e.writer.Rollback(d.CandidateID)
	e.undoStack.Finish(key)

	e.publish(ctx, events.TypeUndoApplied, events.UndoAppliedEvent{
		CandidateID: d.CandidateID,
		Cursor:      state.Cursor,
	})
	return true
}

// CanUndo reports whether an undo is currently possible for the deck.
func (e *Engine) CanUndo(key deck.Key) bool {
	return e.undoStack.CanUndo(key)
}

// Dismiss permanently excludes a candidate (reported, not-interested).
// Dismissals survive deck resets.
func (e *Engine) Dismiss(ctx context.Context, key deck.Key, candidateID string) {
	e.manager.Dismiss(key, candidateID)
	e.persistState(key)
	e.writer.Dismiss(candidateID)
}

// ResetDeck clears the deck for a filter change or manual refresh and
// starts refilling it. Any pending undo is invalidated: restoring a
// cursor into a rebuilt item list is never valid.
func (e *Engine) ResetDeck(ctx context.Context, key deck.Key) {
	e.machine.Flush()
	e.manager.Reset(key)
	e.undoStack.Invalidate(key)

	e.mu.Lock()
	delete(e.pageTokens, key)
	e.mu.Unlock()

	if err := e.facade.Delete(key.String()); err != nil {
		log.Printf("[Engine] delete mirrors for %s: %v", key, err)
	}
	e.publish(ctx, events.TypeDeckReset, events.DeckResetEvent{Key: key})
	e.ensureSupply(ctx, key)
}

// ApplyConfig installs a reloaded config. A filter change resets the
// previously active deck and mounts the new one.
func (e *Engine) ApplyConfig(ctx context.Context, cfg *config.Config, filtersChanged bool) {
	e.mu.Lock()
	oldKey := deck.Key{Role: e.cfg.Filters.Role, Category: e.cfg.Filters.Category}
	e.cfg = cfg
	e.mu.Unlock()

	if filtersChanged {
		e.ResetDeck(ctx, oldKey)
		e.Mount(ctx, e.ActiveKey())
	}
}

// Top returns the currently displayed card, if any.
func (e *Engine) Top(key deck.Key) (deck.Card, bool) {
	return e.manager.Top(key)
}

// Next returns the card behind the top card, if any.
func (e *Engine) Next(key deck.Key) (deck.Card, bool) {
	return e.manager.Next(key)
}

// Snapshot returns a copy of the deck's state.
func (e *Engine) Snapshot(key deck.Key) deck.State {
	return e.manager.Snapshot(key)
}

// BeginRender and EndRender bracket foreground rendering work so
// idle-deferred prefetch stays out of its way.
func (e *Engine) BeginRender() { e.scheduler.BeginWork() }

// EndRender marks the end of foreground rendering work.
func (e *Engine) EndRender() { e.scheduler.EndWork() }

// WaitRemote blocks until all dispatched remote writes have resolved.
// Intended for tests and shutdown.
func (e *Engine) WaitRemote() {
	e.writer.Wait()
	e.warmer.Wait()
}

// Close flushes any pending swipe, cancels scheduled prefetch, waits
// for remote writes, and closes the persistence tiers.
func (e *Engine) Close() error {
	e.machine.Flush()
	e.scheduler.Cancel()
	e.writer.Wait()
	e.warmer.Wait()
	return e.facade.Close()
}

// warmAhead eagerly loads media for the next few cards. Fired
// immediately, not idle-deferred: the user will need these within the
// next interaction.
func (e *Engine) warmAhead(ctx context.Context, key deck.Key) {
	lookAhead := e.lookAhead()
	urls := make([]string, 0, lookAhead)
	for i := 0; i < lookAhead; i++ {
		card, ok := e.manager.Peek(key, i)
		if !ok {
			break
		}
		if len(card.MediaURLs) > 0 {
			urls = append(urls, card.MediaURLs[0])
		}
	}
	e.warmer.Warm(ctx, urls)
}

// scheduleDetailPrefetch defers secondary media for the next card to
// the next idle slot; superseded automatically by the next advance.
func (e *Engine) scheduleDetailPrefetch(ctx context.Context, key deck.Key) {
	next, ok := e.manager.Next(key)
	if !ok || len(next.MediaURLs) < 2 {
		return
	}
	rest := append([]string(nil), next.MediaURLs[1:]...)
	e.scheduler.Schedule(func() {
		e.warmer.Warm(ctx, rest)
	})
}

// ensureSupply fetches the next candidate page for the deck, single
// flight per key. Ingestion, persistence, and the initial warm happen
// off the interactive path.
func (e *Engine) ensureSupply(ctx context.Context, key deck.Key) {
	e.mu.Lock()
	if e.fetching[key] {
		e.mu.Unlock()
		return
	}
	e.fetching[key] = true
	token := e.pageTokens[key]
	filters := remote.Filters{Role: key.Role, Category: key.Category, Query: e.cfg.Filters.Query}
	e.mu.Unlock()

	go func() {
		defer func() {
			e.mu.Lock()
			delete(e.fetching, key)
			e.mu.Unlock()
		}()

		page, err := e.supply.FetchPage(ctx, e.userID, filters, token)
		if err != nil {
			log.Printf("[Engine] supply fetch failed for %s: %v", key, err)
			return
		}

		added := e.manager.Ingest(key, page.Cards, e.userID)
		e.mu.Lock()
		e.pageTokens[key] = page.NextToken
		e.mu.Unlock()

		e.persistState(key)
		if added > 0 {
			e.warmAhead(ctx, key)
		}
	}()
}

func (e *Engine) persistState(key deck.Key) {
	record := persist.FromState(e.manager.Snapshot(key))
	if err := e.facade.Save(key.String(), record); err != nil {
		log.Printf("[Engine] persist failed for %s: %v", key, err)
	}
}

func (e *Engine) publish(ctx context.Context, eventType string, payload any) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Publish(events.NewEvent(eventType, payload, ctx))
}

func (e *Engine) lowWater() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Deck.LowWater
}

func (e *Engine) lookAhead() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Deck.LookAhead
}
