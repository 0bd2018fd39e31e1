package nanny

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/goliatone/go-nanny/internal/hydrate"
	"github.com/goliatone/go-nanny/layering"
	"github.com/goliatone/go-nanny/pkg/activity"
	"github.com/goliatone/go-nanny/router"
)

// UpdateFunc applies a transformer and returns the committed state.
type UpdateFunc func(t Transformer, args ...any) (State, error)

// Nanny owns an application state, applies transformers to it and repaints
// through the configured Renderer after every change.
//
// A Nanny is not safe for concurrent use. Hosts with timers or goroutines
// should funnel calls through a Loop.
type Nanny struct {
	cfg config
	id  uuid.UUID

	state   State
	path    string
	title   string
	content any
	route   ResolvedRoute
	routed  bool

	updating atomic.Bool
	closed   atomic.Bool

	emitter     *activity.Emitter
	encoder     *hydrate.Encoder
	decoder     *hydrate.Decoder[any]
	unsubscribe func()

	mu    sync.Mutex
	stops []context.CancelFunc
}

// New builds an instance around initial, restores any persisted snapshot,
// runs the Initiate hook and renders once.
func New(initial State, opts ...Option) (*Nanny, error) {
	cfg := applyOptions(opts)
	if err := cfg.compileExpressions(); err != nil {
		return nil, err
	}

	n := &Nanny{
		cfg:   cfg,
		id:    uuid.New(),
		state: initial.Clone(),
		path:  cfg.path,
	}
	n.emitter = activity.NewEmitter(cfg.hooks, cfg.channel, cfg.actor)
	excluded := append([]string{cfg.contentField}, cfg.blacklist...)
	n.encoder = hydrate.NewEncoder(hydrate.WithEncodeHook(hydrate.Exclude(excluded...)))
	n.decoder = hydrate.NewDecoder[any](
		hydrate.WithIntegers[any](),
		hydrate.WithPreHook[any](hydrate.Exclude(cfg.contentField)),
	)
	if cfg.storageKey != "" && cfg.store == nil {
		cfg.logger.Warn("nanny: storage key set without a store, persistence disabled", "key", cfg.storageKey)
	}

	n.updating.Store(true)
	err := n.start()
	n.updating.Store(false)
	if err != nil {
		return nil, err
	}

	if cfg.navigator != nil {
		n.unsubscribe = cfg.navigator.OnExternalNavigation(n.onExternalNavigation)
	}
	return n, nil
}

// Start is New for callers that only need the update function.
func Start(initial State, opts ...Option) (UpdateFunc, error) {
	n, err := New(initial, opts...)
	if err != nil {
		return nil, err
	}
	return n.Update, nil
}

func (n *Nanny) start() error {
	changed := newChangeSet()
	changed.all = true

	next := n.restore(n.state, changed)
	next, err := n.hook(StageInitiate, n.cfg.initiate, next, changed)
	if err != nil {
		return err
	}
	next, err = n.derive(next, changed)
	if err != nil {
		return err
	}
	_, err = n.paint(next, changed, cycle{navigate: true, initial: true, path: n.path})
	return err
}

// Update runs one update cycle: Before hook, transformer, merge,
// calculations and effects, After hook, route content, persistence, render.
// On a hook, transformer, calculation, effect or view error the previous
// state is kept and the error returned. Render errors are returned after the
// new state is committed.
func (n *Nanny) Update(t Transformer, args ...any) (State, error) {
	if n.closed.Load() {
		return n.State(), ErrClosed
	}
	if !n.updating.CompareAndSwap(false, true) {
		return n.State(), ErrReentrantUpdate
	}
	defer n.updating.Store(false)

	start := time.Now()
	next, err := n.update(t, args)
	n.cfg.metrics.ObserveUpdate(time.Since(start), err)
	return next, err
}

func (n *Nanny) update(t Transformer, args []any) (State, error) {
	changed := newChangeSet()
	next, err := n.hook(StageBefore, n.cfg.before, n.state, changed)
	if err != nil {
		return n.State(), err
	}
	if next, err = n.apply(StageTransform, next, t, args, changed); err != nil {
		return n.State(), err
	}
	if next, err = n.derive(next, changed); err != nil {
		return n.State(), err
	}
	if next, err = n.hook(StageAfter, n.cfg.after, next, changed); err != nil {
		return n.State(), err
	}
	return n.paint(next, changed, cycle{path: n.path})
}

// Navigate moves to path, runs the matched route's Update, repaints and
// pushes a history entry. Unknown paths still repaint and push, call the
// NotFound handler and return an error matching router.ErrRouteNotFound.
func (n *Nanny) Navigate(path string) error {
	return n.navigate(path, true)
}

// HandleExternalNavigation is Navigate without the history push, for moves
// the host already recorded (back/forward, address bar).
func (n *Nanny) HandleExternalNavigation(path string) error {
	return n.navigate(path, false)
}

func (n *Nanny) navigate(path string, push bool) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if !n.updating.CompareAndSwap(false, true) {
		return ErrReentrantUpdate
	}
	defer n.updating.Store(false)

	start := time.Now()
	_, err := n.paint(n.state, newChangeSet(), cycle{navigate: true, push: push, path: path})
	n.cfg.metrics.ObserveUpdate(time.Since(start), err)
	return err
}

func (n *Nanny) onExternalNavigation(path string) {
	if err := n.HandleExternalNavigation(path); err != nil && !errors.Is(err, router.ErrRouteNotFound) {
		n.cfg.logger.Warn("nanny: external navigation failed", "path", path, "error", err)
	}
}

func (n *Nanny) hook(stage Stage, hook Hook, current State, changed *changeSet) (State, error) {
	if hook == nil {
		return current, nil
	}
	candidate, err := hook(current.Clone())
	if err != nil {
		return State{}, stageError(stage, "", err)
	}
	return n.merge(stage, current, candidate, changed), nil
}

func (n *Nanny) apply(stage Stage, current State, t Transformer, args []any, changed *changeSet) (State, error) {
	if t == nil {
		return current, nil
	}
	if batch, ok := t.(Batch); ok {
		var err error
		for _, step := range batch {
			if current, err = n.apply(stage, current, step, args, changed); err != nil {
				return State{}, err
			}
		}
		return current, nil
	}
	candidate, err := t.Apply(current.Clone(), args...)
	if err != nil {
		return State{}, stageError(stage, "", err)
	}
	return n.merge(stage, current, candidate, changed), nil
}

func (n *Nanny) merge(stage Stage, current, candidate State, changed *changeSet) State {
	next, res := current.Merge(candidate)
	changed.record(res)
	if res.Mismatch {
		n.cfg.metrics.IncShapeMismatch()
		n.cfg.logger.Warn("nanny: transformer type mismatch",
			"stage", string(stage),
			"state", current.Kind().String(),
			"candidate", candidate.Kind().String(),
			"error", ErrShapeMismatch,
		)
	}
	return next
}

type cycle struct {
	navigate bool
	push     bool
	initial  bool
	path     string
}

// paint resolves the route for the cycle path, computes content and the view
// tree, then commits, persists and renders. Nothing is committed when a
// route update or a view fails.
func (n *Nanny) paint(next State, changed *changeSet, c cycle) (State, error) {
	prev := n.state
	title := n.title
	content := n.content
	route, routed := n.route, n.routed
	var notFound error

	if len(n.cfg.routes) > 0 {
		match, err := FindRoute(c.path, n.cfg.routes)
		if err != nil {
			notFound = err
			route, routed = ResolvedRoute{}, false
		} else {
			route, routed = match, true
			if match.Route.Title != "" {
				title = match.Route.Title
			}
			if match.Route.Update != nil {
				t := match.Route.Update(match.Params.Clone())
				if next, err = n.apply(StageRouteUpdate, next, t, nil, changed); err != nil {
					return n.State(), err
				}
				if next, err = n.derive(next, changed); err != nil {
					return n.State(), err
				}
			}
			if match.Route.View != nil {
				if content, err = match.Route.View(next.Clone()); err != nil {
					return n.State(), stageError(StageContent, match.Route.Path, err)
				}
				if next.IsRecord() {
					next = next.With(n.cfg.contentField, content)
				}
			}
		}
	}

	tree, err := n.cfg.view(next.Clone())
	if err != nil {
		return n.State(), stageError(StageView, "", err)
	}

	n.state = next
	n.path = c.path
	n.content = content
	n.route, n.routed = route, routed
	if title != n.title {
		n.title = title
		if n.cfg.onTitle != nil {
			n.cfg.onTitle(title)
		}
	}

	n.persist()
	renderErr := n.cfg.renderer.Render(tree, n.cfg.element)
	n.cfg.metrics.IncRender()

	if c.push && n.cfg.navigator != nil {
		if err := n.cfg.navigator.PushPath(c.path); err != nil {
			n.cfg.logger.Warn("nanny: history push failed", "path", c.path, "error", err)
		}
	}
	n.debug(prev, next)
	n.report(c, changed, notFound)

	if renderErr != nil {
		return n.State(), fmt.Errorf("nanny: render: %w", renderErr)
	}
	if notFound != nil && c.navigate && !c.initial {
		return n.State(), notFound
	}
	return n.State(), nil
}

func (n *Nanny) report(c cycle, changed *changeSet, notFound error) {
	input := activity.NannyEventInput{
		InstanceID: n.id.String(),
		Path:       n.path,
		Changed:    changed.list(),
	}
	if !c.navigate {
		n.emit(activity.BuildStateUpdatedEvent(input))
		return
	}
	if len(n.cfg.routes) == 0 {
		return
	}
	n.cfg.metrics.ObserveRoute(notFound == nil)
	if notFound != nil {
		n.cfg.logger.Info("nanny: route not found", "path", n.path)
		if n.cfg.onNotFound != nil {
			n.cfg.onNotFound(n.path, notFound)
		}
		input.Err = notFound
		n.emit(activity.BuildRouteNotFoundEvent(input))
		return
	}
	input.Route = n.route.Route.Path
	input.Params = n.route.Params
	n.emit(activity.BuildRouteResolvedEvent(input))
}

func (n *Nanny) emit(event activity.Event) {
	if err := n.emitter.Emit(n.cfg.ctx, event); err != nil {
		n.cfg.logger.Warn("nanny: activity hook failed", "verb", event.Verb, "error", err)
	}
}

func (n *Nanny) restore(current State, changed *changeSet) State {
	key := n.cfg.storageKey
	if key == "" || n.cfg.store == nil {
		return current
	}
	payload, ok, err := n.cfg.store.Load(n.cfg.ctx, key)
	if err != nil {
		n.persistFailed("load", err)
		return current
	}
	if !ok {
		return current
	}
	value, err := n.decoder.Decode(hydrate.Context{Key: key}, payload)
	if err != nil {
		n.persistFailed("decode", err)
		return current
	}
	next := n.merge(StageInitiate, current, StateOf(value), changed)
	n.emit(activity.BuildStateRestoredEvent(activity.NannyEventInput{
		InstanceID: n.id.String(),
		StorageKey: key,
	}))
	return next
}

func (n *Nanny) persist() {
	key := n.cfg.storageKey
	if key == "" || n.cfg.store == nil {
		return
	}
	payload, err := n.encoder.Encode(hydrate.Context{Key: key}, n.state.Value())
	if err != nil {
		n.persistFailed("encode", err)
		return
	}
	if err := n.cfg.store.Save(n.cfg.ctx, key, payload); err != nil {
		n.persistFailed("save", err)
	}
}

func (n *Nanny) persistFailed(op string, err error) {
	perr := &PersistenceError{Op: op, Key: n.cfg.storageKey, Err: err}
	n.cfg.logger.Warn("nanny: persistence failed", "op", op, "key", n.cfg.storageKey, "error", perr)
	n.cfg.metrics.IncPersistFailure(op)
	n.emit(activity.BuildPersistFailedEvent(activity.NannyEventInput{
		InstanceID: n.id.String(),
		StorageKey: n.cfg.storageKey,
		Err:        perr,
	}))
}

func (n *Nanny) debug(prev, next State) {
	if !n.cfg.debug {
		return
	}
	n.cfg.sink.Log(next.Clone())
	if !prev.IsRecord() || !next.IsRecord() {
		return
	}
	before, err := json.Marshal(prev.Value())
	if err != nil {
		return
	}
	after, err := json.Marshal(next.Value())
	if err != nil {
		return
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		n.cfg.logger.Debug("nanny: state diff unavailable", "error", err)
		return
	}
	n.cfg.logger.Debug("nanny: state diff", "patch", string(patch))
}

// State returns a deep copy of the current state.
func (n *Nanny) State() State {
	return n.state.Clone()
}

// Get returns a copy of a record field.
func (n *Nanny) Get(field string) (any, bool) {
	v, ok := n.state.Get(field)
	if !ok {
		return nil, false
	}
	return layering.Clone(v), true
}

// Path returns the current path.
func (n *Nanny) Path() string { return n.path }

// Title returns the title of the last matched route that had one.
func (n *Nanny) Title() string { return n.title }

// Content returns the output of the last route view.
func (n *Nanny) Content() any { return n.content }

// Route returns the route matched for the current path. ok is false when
// the path matched nothing.
func (n *Nanny) Route() (ResolvedRoute, bool) { return n.route, n.routed }

// ID identifies the instance in activity events.
func (n *Nanny) ID() uuid.UUID { return n.id }

// AddRoute registers a route. It takes effect on the next render.
func (n *Nanny) AddRoute(route Route) {
	n.cfg.routes = append(n.cfg.routes, route)
}

// Close detaches from the navigator and stops schedules. Later updates fail
// with ErrClosed.
func (n *Nanny) Close() error {
	if n.closed.Swap(true) {
		return nil
	}
	if n.unsubscribe != nil {
		n.unsubscribe()
	}
	n.mu.Lock()
	stops := n.stops
	n.stops = nil
	n.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	return nil
}
