// Package coordinator sequences one remote call with the actions that
// describe it: a start action before the call, then a success or error
// action once it settles. Faults never escape; every failure becomes an
// error action.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/api"
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
	"github.com/wilhg/persephone/pkg/session"
)

// Dispatcher receives actions. It returns nothing.
type Dispatcher interface {
	Dispatch(ctx context.Context, a action.Action)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, a action.Action)

func (f DispatchFunc) Dispatch(ctx context.Context, a action.Action) { f(ctx, a) }

// API is the remote surface the coordinators call. *api.Client implements it.
type API interface {
	GetArticle(ctx context.Context, slug string) (model.Article, error)
	CreateComment(ctx context.Context, token, slug string, in api.CommentInput) (model.Comment, error)
	RateArticle(ctx context.Context, token string, articleID, rating int) (model.RatingResult, error)
	LikeArticle(ctx context.Context, token string, articleID int, slug string) (model.Like, error)
	Bookmark(ctx context.Context, token, slug string) (model.Bookmark, error)
	Report(ctx context.Context, token, slug, reason string) (model.Report, error)
	Login(ctx context.Context, email, password string) (model.User, error)
	Signup(ctx context.Context, form model.SignupForm) (model.User, error)
}

var _ API = (*api.Client)(nil)

// Feature names used for tracing and the in-flight guard.
const (
	FeatureComment  = "comment"
	FeatureArticle  = "article"
	FeatureRating   = "rating"
	FeatureLike     = "like"
	FeatureBookmark = "bookmark"
	FeatureReport   = "report"
	FeatureLogin    = "login"
	FeatureSignup   = "signup"
)

// Coordinator runs the async flows against one API.
type Coordinator struct {
	api     API
	storage session.Storage
	logger  *log.Logger
	tracer  trace.Tracer
	now     func() time.Time

	latestOnly bool
	mu         sync.Mutex
	seq        map[string]uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStorage persists the signed-in user on login and signup and clears it
// on logout.
func WithStorage(st session.Storage) Option { return func(c *Coordinator) { c.storage = st } }

func WithLogger(l *log.Logger) Option { return func(c *Coordinator) { c.logger = l } }

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithLatestOnly drops an outcome when a newer invocation of the same
// feature started after it. Such an invocation emits only its start action.
func WithLatestOnly() Option { return func(c *Coordinator) { c.latestOnly = true } }

// New creates a Coordinator.
func New(remote API, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:    remote,
		logger: log.Default(),
		tracer: otel.Tracer("persephone/coordinator"),
		now:    time.Now,
		seq:    make(map[string]uint64),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// begin registers a new invocation of feature and returns its sequence.
func (c *Coordinator) begin(feature string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[feature]++
	return c.seq[feature]
}

// current reports whether seq is still the newest invocation of feature.
func (c *Coordinator) current(feature string, seq uint64) bool {
	if !c.latestOnly {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq[feature] == seq
}

// flow describes one start/outcome cycle.
type flow[T any] struct {
	feature string
	attrs   []attribute.KeyValue
	start   action.Action
	call    func(ctx context.Context) (T, error)
	success func(T) action.Action
	failure func(*errmodel.Error) action.Action
	// settled runs after a successful call, before the success action.
	settled func(ctx context.Context, v T)
}

// run emits the start action, makes the call, and emits exactly one outcome.
// It reports whether the outcome was emitted.
func run[T any](ctx context.Context, c *Coordinator, d Dispatcher, f flow[T]) bool {
	ctx, span := c.tracer.Start(ctx, "coordinator."+f.feature, trace.WithAttributes(f.attrs...))
	defer span.End()

	if f.start != nil {
		d.Dispatch(ctx, f.start)
	}
	seq := c.begin(f.feature)

	v, err := invoke(ctx, f.call)
	if !c.current(f.feature, seq) {
		c.logger.Printf("[WARN] %s: dropping outcome of superseded request %d", f.feature, seq)
		span.SetAttributes(attribute.Bool("outcome.dropped", true))
		return false
	}
	if err != nil {
		fault := errmodel.From(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, fault.Message)
		c.logger.Printf("[ERROR] %s failed: %s", f.feature, fault.Error())
		d.Dispatch(ctx, f.failure(fault))
		return true
	}
	if f.settled != nil {
		f.settled(ctx, v)
	}
	d.Dispatch(ctx, f.success(v))
	return true
}

// invoke calls fn and turns a panic into a system fault.
func invoke[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errmodel.System("panic", "unexpected failure", nil, fmt.Errorf("%v", r))
		}
	}()
	return fn(ctx)
}
