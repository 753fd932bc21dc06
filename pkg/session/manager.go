// Package session drives tour runs: one active session per manager,
// strictly ordered transitions, and asynchronous step resolution guarded
// by a generation token.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/internal/machine"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/geometry"
	"github.com/docentlabs/docent/pkg/highlight"
	"github.com/docentlabs/docent/pkg/ports"
	"github.com/docentlabs/docent/pkg/resolve"
)

const (
	// DefaultSettleDelay is how long the manager waits after a successful
	// resolution before re-measuring the target, absorbing smooth-scroll
	// and layout animation drift.
	DefaultSettleDelay = 300 * time.Millisecond

	// publishTimeout bounds the fire-and-forget analytics publish.
	publishTimeout = 5 * time.Second
)

// DefaultTooltipSize is the tooltip box used for placement solving when
// the embedder does not configure its own dimensions.
var DefaultTooltipSize = domain.Size{Width: 320, Height: 180}

// session is one live tour run. The manager owns at most one.
type session struct {
	id      string
	machine *machine.Machine

	// ctx spans the whole session. cancel fires exactly once, at the
	// terminal transition, and kills any in-flight step work.
	ctx    context.Context
	cancel context.CancelFunc

	// stepCancel invalidates the resolution of the step being left. It is
	// replaced on every step entry.
	stepCancel context.CancelFunc

	target    *ports.Element
	placement *domain.Placement
}

// stepRun captures everything a step-driving goroutine needs so that it
// never touches manager state without re-checking its generation first.
type stepRun struct {
	ctx       context.Context
	gen       int64
	sessionID string
	tourName  string
	step      domain.Step
	index     int
	skipDelay bool
}

// ended carries the post-lock half of a terminal transition: hook
// emission and the analytics publish both run with no locks held.
type ended struct {
	sessionID string
	tourName  string
	outcome   domain.Outcome
}

// Manager drives tour sessions against a UI surface. It owns the single
// active session, serializes every transition, and fans out to the
// resolver, placement solver, and highlight controller on step entry.
//
// All methods are safe for concurrent use. Step resolution runs on a
// background goroutine holding a generation token; transitions bump the
// generation, so a callback from a superseded step sees a stale token
// and drops its work instead of mutating the session.
type Manager struct {
	surface    ports.Surface
	catalog    ports.CatalogSource
	store      ports.RecordStore
	sink       ports.AnalyticsSink
	dispatcher ports.ActionDispatcher
	resolver   *resolve.Resolver
	highlights *highlight.Controller
	clock      ports.Clock
	hooks      domain.Hooks
	logger     *slog.Logger

	tooltip     domain.Size
	settleDelay time.Duration
	retry       resolve.RetryPolicy

	mu         sync.Mutex
	generation int64
	current    *session // non-nil while a session is running, never terminal
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for transition and resolution events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrNop(logger)
	}
}

// WithClock substitutes the time source used for delays and timestamps.
func WithClock(c ports.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithRecordStore enables persistence of visited/completed/skipped
// records. Without it the manager keeps no history.
func WithRecordStore(store ports.RecordStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithAnalyticsSink enables terminal outcome publishing.
func WithAnalyticsSink(sink ports.AnalyticsSink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithActionDispatcher wires the handler for step advance actions.
func WithActionDispatcher(d ports.ActionDispatcher) Option {
	return func(m *Manager) {
		m.dispatcher = d
	}
}

// WithHooks registers engine observability callbacks.
func WithHooks(h domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = h
	}
}

// WithTooltipSize sets the tooltip box used for placement solving.
func WithTooltipSize(size domain.Size) Option {
	return func(m *Manager) {
		m.tooltip = size
	}
}

// WithSettleDelay sets the post-resolution settle window. Zero disables
// the re-measure pass.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.settleDelay = d
	}
}

// WithRetryPolicy overrides the wait-for-target retry schedule.
func WithRetryPolicy(p resolve.RetryPolicy) Option {
	return func(m *Manager) {
		m.retry = p
	}
}

// NewManager creates a session manager bound to a surface and a tour
// catalog. The zero configuration runs on the system clock with no
// persistence, no analytics, and no logging.
func NewManager(surface ports.Surface, catalog ports.CatalogSource, opts ...Option) *Manager {
	m := &Manager{
		surface:     surface,
		catalog:     catalog,
		clock:       ports.SystemClock{},
		logger:      logging.NewNop(),
		tooltip:     DefaultTooltipSize,
		settleDelay: DefaultSettleDelay,
		retry:       resolve.DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resolver = resolve.New(surface,
		resolve.WithClock(m.clock),
		resolve.WithRetryPolicy(m.retry),
		resolve.WithLogger(m.logger),
	)
	m.highlights = highlight.New(surface, highlight.WithLogger(m.logger))
	return m
}

var _ ports.TourRunner = (*Manager)(nil)

// Start begins the named tour, preempting any session already running.
// The preempted session ends as skipped with its exit arithmetic intact,
// exactly as an explicit Skip would have recorded it.
func (m *Manager) Start(ctx context.Context, tourName string) (domain.Snapshot, error) {
	tour, err := m.catalog.Tour(ctx, tourName)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := tour.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("tour %q: %w", tourName, err)
	}

	m.mu.Lock()
	var end *ended
	if m.current != nil {
		tr, err := m.current.machine.Skip()
		if err != nil {
			m.mu.Unlock()
			return domain.Snapshot{}, err
		}
		m.logger.Info("Preempting running tour",
			"tour", m.current.machine.Tour().Name,
			"by", tourName,
		)
		_, end = m.endLocked(ctx, tr)
	}

	sess := &session{
		id:      uuid.NewString(),
		machine: machine.New(*tour),
	}
	sess.ctx, sess.cancel = context.WithCancel(context.Background())
	m.current = sess

	tr, err := sess.machine.Start()
	if err != nil {
		sess.cancel()
		m.current = nil
		m.mu.Unlock()
		return domain.Snapshot{}, err
	}
	run := m.enterStepLocked(ctx, tr)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.finishEnd(ctx, end)
	if m.store != nil {
		if err := ports.MarkVisited(ctx, m.store, m.clock.Now(), tour.Name); err != nil {
			m.logger.Warn("Failed to mark tour visited", "tour", tour.Name, "err", err)
		}
	}
	m.logger.Info("Tour started", "tour", tour.Name, "session_id", sess.id)
	m.emitTourStart(ctx, sess.id, tour.Name)
	go m.driveStep(run)
	return snap, nil
}

// Next advances to the following step, or completes the tour when the
// current step is the last one. The advance action of the step being
// left runs after the transition is committed.
func (m *Manager) Next(ctx context.Context) (domain.Snapshot, error) {
	return m.transition(ctx, func(sess *session) (machine.Transition, error) {
		return sess.machine.Next()
	})
}

// Previous returns to the prior step. At the first step it is a no-op,
// not an error. Revisited steps never re-apply their appear delay.
func (m *Manager) Previous(ctx context.Context) (domain.Snapshot, error) {
	return m.transition(ctx, func(sess *session) (machine.Transition, error) {
		return sess.machine.Previous()
	})
}

// Skip ends the session early. The recorded exit arithmetic counts the
// current step as reached: index+1.
func (m *Manager) Skip(ctx context.Context) (domain.Snapshot, error) {
	return m.transition(ctx, func(sess *session) (machine.Transition, error) {
		return sess.machine.Skip()
	})
}

// JumpTo moves directly to the named step. Jumps to steps with unmet
// prerequisites are no-ops; unknown step IDs are errors.
func (m *Manager) JumpTo(ctx context.Context, stepID string) (domain.Snapshot, error) {
	return m.transition(ctx, func(sess *session) (machine.Transition, error) {
		index := sess.machine.Tour().StepIndex(stepID)
		if index < 0 {
			return machine.Transition{}, fmt.Errorf("%w: %q", domain.ErrUnknownStep, stepID)
		}
		return sess.machine.JumpTo(index)
	})
}

// Snapshot returns the current session state. Idle managers return
// ErrNotRunning; terminal snapshots are only ever returned by the call
// that ended the session.
func (m *Manager) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.Snapshot{}, domain.ErrNotRunning
	}
	return m.snapshotLocked(), nil
}

// Active reports whether a session is currently running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// HandleResize re-solves the current placement against the new viewport.
// Safe to call at any time; idle managers ignore it.
func (m *Manager) HandleResize(ctx context.Context) {
	m.refreshPlacement(ctx, -1)
}

// WatchResize subscribes to the surface's resize events and re-solves
// the placement on each one. It returns an error when the surface does
// not emit resize events; the watch stops when ctx is done.
func (m *Manager) WatchResize(ctx context.Context) error {
	notifier, ok := m.surface.(ports.ResizeNotifier)
	if !ok {
		return fmt.Errorf("surface %T does not emit resize events", m.surface)
	}
	events, err := notifier.ResizeEvents(ctx)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				m.HandleResize(ctx)
			}
		}
	}()
	return nil
}

// transition applies one state machine operation under the manager lock
// and fans out its consequences: no-ops return the unchanged snapshot,
// terminal transitions funnel through endLocked, and step entries spawn
// a fresh driving goroutine.
func (m *Manager) transition(ctx context.Context, op func(*session) (machine.Transition, error)) (domain.Snapshot, error) {
	m.mu.Lock()
	sess := m.current
	if sess == nil {
		m.mu.Unlock()
		return domain.Snapshot{}, domain.ErrNotRunning
	}
	tour := sess.machine.Tour()

	tr, err := op(sess)
	if err != nil {
		m.mu.Unlock()
		return domain.Snapshot{}, err
	}
	if tr.NoOp {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, nil
	}
	if tr.Terminal {
		snap, end := m.endLocked(ctx, tr)
		m.mu.Unlock()
		m.dispatchAction(ctx, tr, tour)
		m.finishEnd(ctx, end)
		return snap, nil
	}

	run := m.enterStepLocked(ctx, tr)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.dispatchAction(ctx, tr, tour)
	go m.driveStep(run)
	return snap, nil
}

// enterStepLocked moves the session onto the step a transition entered:
// it invalidates the outgoing step's resolution, clears the solved
// placement, releases the old highlight, and hands the caller a fresh
// generation for the step-driving goroutine.
func (m *Manager) enterStepLocked(ctx context.Context, tr machine.Transition) *stepRun {
	sess := m.current
	if sess.stepCancel != nil {
		sess.stepCancel()
	}
	stepCtx, cancel := context.WithCancel(sess.ctx)
	sess.stepCancel = cancel

	m.generation++
	sess.target = nil
	sess.placement = nil
	m.highlights.ReleaseActive(ctx)

	return &stepRun{
		ctx:       stepCtx,
		gen:       m.generation,
		sessionID: sess.id,
		tourName:  sess.machine.Tour().Name,
		step:      sess.machine.Step(),
		index:     sess.machine.Index(),
		skipDelay: tr.SkipAppearDelay,
	}
}

// endLocked finishes the current session: it cancels outstanding step
// work, releases the highlight, persists the outcome, and clears the
// slot. Every terminal path funnels through here so the exit arithmetic
// and the record write cannot drift apart. Callers hold m.mu and must
// call finishEnd with the returned value after unlocking.
func (m *Manager) endLocked(ctx context.Context, tr machine.Transition) (domain.Snapshot, *ended) {
	sess := m.current
	snap := m.snapshotLocked()

	if sess.stepCancel != nil {
		sess.stepCancel()
	}
	sess.cancel()
	m.generation++
	m.highlights.ReleaseActive(ctx)

	outcome := domain.Outcome{
		TourName:       snap.TourName,
		Completed:      tr.Status == domain.StatusCompleted,
		Skipped:        tr.Status == domain.StatusSkipped,
		StepsCompleted: tr.StepsCompleted,
	}
	if m.store != nil {
		if err := ports.RecordOutcome(ctx, m.store, m.clock.Now(), outcome); err != nil {
			m.logger.Warn("Failed to persist tour outcome", "tour", outcome.TourName, "err", err)
		}
	}
	m.logger.Info("Tour ended",
		"tour", outcome.TourName,
		"status", string(snap.Status),
		"steps_completed", outcome.StepsCompleted,
	)
	m.current = nil
	return snap, &ended{sessionID: sess.id, tourName: snap.TourName, outcome: outcome}
}

// finishEnd emits the tour_end hook and fires the analytics publish.
// The publish is fire-and-forget: it runs on its own goroutine with its
// own deadline, and failures are logged and dropped.
func (m *Manager) finishEnd(ctx context.Context, end *ended) {
	if end == nil {
		return
	}
	m.emitTourEnd(ctx, end)
	if m.sink == nil {
		return
	}
	outcome := end.outcome
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := m.sink.Publish(ctx, outcome); err != nil {
			m.logger.Warn("Analytics publish failed", "tour", outcome.TourName, "err", err)
		}
	}()
}

// driveStep resolves and places one step. It runs on its own goroutine;
// every write back into the session re-checks the generation, so a
// transition that happened mid-flight turns the remaining work into a
// no-op.
func (m *Manager) driveStep(run *stepRun) {
	m.emitStepShown(run)

	if run.step.AppearDelay > 0 && !run.skipDelay {
		if err := m.clock.Sleep(run.ctx, run.step.AppearDelay); err != nil {
			return
		}
	}

	var result *resolve.Result
	started := m.clock.Now()
	if len(run.step.Locators) > 0 {
		var err error
		result, err = m.resolver.Resolve(run.ctx, run.step)
		if err != nil && !errors.Is(err, domain.ErrTargetNotFound) {
			if run.ctx.Err() != nil {
				// Cancelled mid-flight. Whoever cancelled us owns the
				// session now; there is nothing to place.
				return
			}
			// The surface failed outright. The step still has to show
			// something, so it takes the same centered degradation as a
			// target that never appeared.
			m.logger.Warn("Resolution failed, showing centered",
				"tour", run.tourName,
				"step", run.step.ID,
				"err", err,
			)
			result = nil
		}
	}
	elapsed := m.clock.Since(started)

	event, ok := m.applyResolution(run, result, elapsed)
	if !ok {
		return
	}
	m.emitStepResolved(run.ctx, event)

	if result != nil && m.settleDelay > 0 {
		if err := m.clock.Sleep(run.ctx, m.settleDelay); err != nil {
			return
		}
		m.refreshPlacement(run.ctx, run.gen)
	}
}

// applyResolution commits a resolution outcome to the session: solved
// placement plus highlight on success, the centered degraded policy when
// the target never appeared. It returns false when the step was
// superseded while resolution was in flight; adopted coercion patches
// are then reverted so the surface is left untouched.
func (m *Manager) applyResolution(run *stepRun, result *resolve.Result, elapsed time.Duration) (*domain.StepEvent, bool) {
	m.mu.Lock()
	if m.current == nil || m.current.id != run.sessionID || m.generation != run.gen {
		m.mu.Unlock()
		if result != nil {
			m.revertOrphaned(result.Patches)
		}
		return nil, false
	}
	sess := m.current

	viewport, err := m.surface.Viewport(run.ctx)
	if err != nil {
		m.logger.Warn("Viewport query failed, placement will pin to the origin", "err", err)
	}

	event := &domain.StepEvent{
		EventBase: m.eventBase(domain.EventStepResolved, run),
		StepID:    run.step.ID,
		Index:     run.index,
		Elapsed:   elapsed,
	}

	if result == nil {
		degraded := len(run.step.Locators) > 0
		sess.target = nil
		sess.placement = &domain.Placement{
			Position: geometry.Place(domain.Rect{}, domain.SideCenter, m.tooltip, viewport),
			Side:     domain.SideCenter,
			Degraded: degraded,
		}
		event.LocatorIndex = -1
		event.Degraded = degraded
		if degraded {
			m.logger.Warn("Step target not found, showing centered",
				"tour", run.tourName,
				"step", run.step.ID,
				"attempts", m.retry.MaxAttempts,
			)
		}
		m.mu.Unlock()
		return event, true
	}

	side := run.step.EffectiveSide()
	element := result.Element
	sess.target = &element
	sess.placement = &domain.Placement{
		Position: geometry.Place(result.Rect, side, m.tooltip, viewport),
		Side:     side,
	}
	event.LocatorIndex = result.LocatorIndex

	if _, err := m.highlights.Apply(run.ctx, element.ID, result.Patches...); err != nil {
		// The placement still anchors to the measured box; only the visual
		// emphasis is missing.
		m.logger.Warn("Highlight failed", "step", run.step.ID, "target", element.ID, "err", err)
	}
	m.mu.Unlock()
	return event, true
}

// revertOrphaned reverts coercion patches whose step was superseded
// before the highlight controller could adopt them.
func (m *Manager) revertOrphaned(patches []ports.Patch) {
	ctx := context.Background()
	for i := len(patches) - 1; i >= 0; i-- {
		if err := patches[i].Revert(ctx); err != nil {
			m.logger.Warn("Failed to revert orphaned patch", "err", err)
		}
	}
}

// refreshPlacement re-measures the current target and re-solves the
// tooltip position. gen < 0 means "whatever step is current now", used
// by resize handling; otherwise stale generations are dropped.
func (m *Manager) refreshPlacement(ctx context.Context, gen int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || (gen >= 0 && m.generation != gen) {
		return
	}
	sess := m.current
	if sess.placement == nil {
		return
	}
	viewport, err := m.surface.Viewport(ctx)
	if err != nil {
		m.logger.Warn("Viewport query failed", "err", err)
		return
	}
	if sess.target == nil {
		sess.placement.Position = geometry.Place(domain.Rect{}, domain.SideCenter, m.tooltip, viewport)
		return
	}
	if rect, err := m.surface.Measure(ctx, sess.target.ID); err == nil && !rect.Empty() {
		sess.target.Rect = rect
	}
	sess.placement.Position = geometry.Place(sess.target.Rect, sess.placement.Side, m.tooltip, viewport)
}

// dispatchAction runs the advance action of the step that was left.
// Action failures never block navigation; they are logged and dropped.
func (m *Manager) dispatchAction(ctx context.Context, tr machine.Transition, tour domain.Tour) {
	if tr.Action == "" || m.dispatcher == nil {
		return
	}
	step := tour.Steps[tr.From]
	if err := m.dispatcher.Dispatch(ctx, tr.Action, step); err != nil {
		m.logger.Warn("Advance action failed", "action", tr.Action, "step", step.ID, "err", err)
	}
}

// snapshotLocked builds a value copy of the current session state.
func (m *Manager) snapshotLocked() domain.Snapshot {
	sess := m.current
	snap := domain.Snapshot{
		SessionID: sess.id,
		TourName:  sess.machine.Tour().Name,
		Status:    sess.machine.Status(),
		Index:     sess.machine.Index(),
		StepID:    sess.machine.Step().ID,
	}
	if sess.target != nil {
		snap.TargetID = sess.target.ID
	}
	if sess.placement != nil {
		placement := *sess.placement
		snap.Placement = &placement
	}
	return snap
}

func (m *Manager) eventBase(t domain.EventType, run *stepRun) domain.EventBase {
	return domain.EventBase{
		Timestamp: m.clock.Now(),
		Type:      t,
		SessionID: run.sessionID,
		TourName:  run.tourName,
	}
}

func (m *Manager) emitStepShown(run *stepRun) {
	if m.hooks.OnStepShown == nil {
		return
	}
	m.hooks.OnStepShown(run.ctx, &domain.StepEvent{
		EventBase:    m.eventBase(domain.EventStepShown, run),
		StepID:       run.step.ID,
		Index:        run.index,
		LocatorIndex: -1,
	})
}

func (m *Manager) emitStepResolved(ctx context.Context, event *domain.StepEvent) {
	if m.hooks.OnStepResolved == nil || event == nil {
		return
	}
	m.hooks.OnStepResolved(ctx, event)
}

func (m *Manager) emitTourStart(ctx context.Context, sessionID, tourName string) {
	if m.hooks.OnTourStart == nil {
		return
	}
	m.hooks.OnTourStart(ctx, &domain.TourEvent{
		EventBase: domain.EventBase{
			Timestamp: m.clock.Now(),
			Type:      domain.EventTourStart,
			SessionID: sessionID,
			TourName:  tourName,
		},
	})
}

func (m *Manager) emitTourEnd(ctx context.Context, end *ended) {
	if m.hooks.OnTourEnd == nil {
		return
	}
	outcome := end.outcome
	m.hooks.OnTourEnd(ctx, &domain.TourEvent{
		EventBase: domain.EventBase{
			Timestamp: m.clock.Now(),
			Type:      domain.EventTourEnd,
			SessionID: end.sessionID,
			TourName:  end.tourName,
		},
		Outcome: &outcome,
	})
}
