package nanny

import (
	"context"
	"strings"

	"github.com/goliatone/go-nanny/expression"
	"github.com/goliatone/go-nanny/internal/hydrate"
	"github.com/goliatone/go-nanny/pkg/activity"
	"github.com/goliatone/go-nanny/pkg/state"
)

const (
	// DefaultElement is the render target used when none is configured.
	DefaultElement = "body"
	// Placeholder is what the default view renders.
	Placeholder = "NANNY STATE"
	// DefaultContentField is the record field route views write to.
	DefaultContentField = "Content"
)

// Option configures a Nanny instance.
type Option func(*config)

type config struct {
	ctx          context.Context
	element      any
	view         View
	before       Hook
	after        Hook
	initiate     Hook
	debug        bool
	storageKey   string
	blacklist    []string
	store        state.Store
	routes       []Route
	path         string
	navigator    Navigator
	renderer     Renderer
	calculations []Calculation
	expressions  []exprDecl
	effects      []Effect
	engine       expression.Engine
	exprCache    expression.Cache
	funcs        expression.Funcs
	logger       Logger
	sink         Sink
	metrics      Metrics
	hooks        activity.Hooks
	channel      string
	actor        string
	onTitle      func(string)
	onNotFound   func(path string, err error)
	contentField string
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	if cfg.element == nil {
		cfg.element = DefaultElement
	}
	if cfg.view == nil {
		cfg.view = func(State) (any, error) { return Placeholder, nil }
	}
	if cfg.renderer == nil {
		cfg.renderer = RenderFunc(func(any, any) error { return nil })
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.metrics == nil {
		cfg.metrics = noopMetrics{}
	}
	if cfg.sink == nil {
		cfg.sink = LoggerSink(cfg.logger)
	}
	if cfg.contentField == "" {
		cfg.contentField = DefaultContentField
	}
	if cfg.path == "" {
		cfg.path = "/"
	}
	return cfg
}

// WithElement sets the render target passed to the Renderer.
func WithElement(element any) Option {
	return func(cfg *config) {
		cfg.element = element
	}
}

// WithView sets the function that turns state into a renderable tree.
func WithView(view View) Option {
	return func(cfg *config) {
		cfg.view = view
	}
}

// WithTemplate is WithView for views that cannot fail.
func WithTemplate(fn func(State) any) Option {
	return WithView(Template(fn))
}

func WithBefore(hook Hook) Option {
	return func(cfg *config) {
		cfg.before = hook
	}
}

func WithAfter(hook Hook) Option {
	return func(cfg *config) {
		cfg.after = hook
	}
}

// WithInitiate runs hook once before the first render.
func WithInitiate(hook Hook) Option {
	return func(cfg *config) {
		cfg.initiate = hook
	}
}

// WithDebug sends every committed state to the Sink and logs a merge patch
// of each change at debug level.
func WithDebug(debug bool) Option {
	return func(cfg *config) {
		cfg.debug = debug
	}
}

// WithLogState is an alias of WithDebug.
func WithLogState(enabled bool) Option {
	return WithDebug(enabled)
}

// WithStorageKey enables persistence under key.
func WithStorageKey(key string) Option {
	return func(cfg *config) {
		cfg.storageKey = strings.TrimSpace(key)
	}
}

// WithStorageBlackList excludes fields from persisted snapshots. It accepts
// a comma separated list.
func WithStorageBlackList(list string) Option {
	return func(cfg *config) {
		cfg.blacklist = append(cfg.blacklist, hydrate.SplitList(list)...)
	}
}

// WithStore sets the persistence backend.
func WithStore(store state.Store) Option {
	return func(cfg *config) {
		cfg.store = store
	}
}

func WithRoutes(routes ...Route) Option {
	return func(cfg *config) {
		cfg.routes = append(cfg.routes, routes...)
	}
}

// WithPath sets the initial path. Defaults to the navigator's current path
// when it has one, otherwise "/".
func WithPath(path string) Option {
	return func(cfg *config) {
		cfg.path = path
	}
}

func WithNavigator(nav Navigator) Option {
	return func(cfg *config) {
		cfg.navigator = nav
		if cur, ok := nav.(interface{ Current() string }); ok && cfg.path == "" {
			cfg.path = cur.Current()
		}
	}
}

func WithRenderer(renderer Renderer) Option {
	return func(cfg *config) {
		cfg.renderer = renderer
	}
}

// WithCalculation registers a derived-field computation.
func WithCalculation(calc Calculation) Option {
	return func(cfg *config) {
		cfg.calculations = append(cfg.calculations, calc)
	}
}

// WithExpression registers a calculation that stores the result of expr in
// field. It reruns when any of dependsOn changes, or on every update when
// none are listed.
func WithExpression(field, expr string, dependsOn ...string) Option {
	return func(cfg *config) {
		cfg.expressions = append(cfg.expressions, exprDecl{field: field, expr: expr, dependsOn: dependsOn})
	}
}

// WithEffect registers a side effect run after updates touching fields.
func WithEffect(effect Effect) Option {
	return func(cfg *config) {
		cfg.effects = append(cfg.effects, effect)
	}
}

// WithEngine sets the engine used by WithExpression calculations. The
// default is the expr engine built with WithExpressionCache and
// WithExpressionFuncs; a custom engine brings its own.
func WithEngine(engine expression.Engine) Option {
	return func(cfg *config) {
		cfg.engine = engine
	}
}

// WithExpressionCache keeps compiled programs of the default engine in cache.
func WithExpressionCache(cache expression.Cache) Option {
	return func(cfg *config) {
		cfg.exprCache = cache
	}
}

// WithExpressionFuncs exposes host functions to the default engine.
// Repeated calls add to the set.
func WithExpressionFuncs(funcs expression.Funcs) Option {
	return func(cfg *config) {
		if cfg.funcs == nil {
			cfg.funcs = expression.Funcs{}
		}
		for name, fn := range funcs {
			cfg.funcs[name] = fn
		}
	}
}

// WithLogger sets the structured logger. *slog.Logger satisfies Logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithSink sets where debug snapshots go.
func WithSink(sink Sink) Option {
	return func(cfg *config) {
		cfg.sink = sink
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = metrics
	}
}

// WithTitleHandler is called whenever the matched route changes the title.
func WithTitleHandler(fn func(title string)) Option {
	return func(cfg *config) {
		cfg.onTitle = fn
	}
}

// WithNotFound is called when navigation hits an unknown path.
func WithNotFound(fn func(path string, err error)) Option {
	return func(cfg *config) {
		cfg.onNotFound = fn
	}
}

// WithContentField renames the record field route views write to.
func WithContentField(field string) Option {
	return func(cfg *config) {
		cfg.contentField = strings.TrimSpace(field)
	}
}

// WithContext sets the context used for persistence and activity calls.
func WithContext(ctx context.Context) Option {
	return func(cfg *config) {
		cfg.ctx = ctx
	}
}
