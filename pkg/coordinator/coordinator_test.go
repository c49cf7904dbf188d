package coordinator

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/api"
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
	"github.com/wilhg/persephone/pkg/runtime"
	"github.com/wilhg/persephone/pkg/session"
	"github.com/wilhg/persephone/pkg/state"
)

var quiet = log.New(io.Discard, "", 0)

const commentReply = `{
	"status": "success",
	"data": {
		"id": 34,
		"createdAt": "2019-08-13T08:04:23.738Z",
		"updatedAt": "2019-08-13T08:04:23.738Z",
		"slug": "how-to-build-high-performance-teams-1",
		"body": {"Tue Aug 13 2019 08:04:23 GMT+0000": "Please can you update the article to talk about the current changes"},
		"highlightedText": null,
		"author": {"firstName": "Halimah", "lastName": "Oladosu", "following": false}
	}
}`

func stubServer(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := api.New(srv.URL, api.WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCreateCommentOnArticle_Success(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/articles/how-to-build-high-performance-teams-1/comments" {
			t.Errorf("path=%s", r.URL.Path)
		}
		_, _ = io.WriteString(w, commentReply)
	})
	var rec runtime.Recorder

	New(client, WithLogger(quiet)).CreateCommentOnArticle(context.Background(), &rec,
		"how-to-build-high-performance-teams-1", "some comment", "some-token")

	got := rec.Actions()
	if len(got) != 2 {
		t.Fatalf("actions=%v", rec.Kinds())
	}
	if _, ok := got[0].(action.CreateCommentStart); !ok {
		t.Fatalf("first=%T", got[0])
	}
	success, ok := got[1].(action.CreateCommentSuccess)
	if !ok {
		t.Fatalf("second=%T", got[1])
	}
	if success.Comment.ID != 34 || success.Comment.Slug != "how-to-build-high-performance-teams-1" {
		t.Fatalf("comment=%+v", success.Comment)
	}
}

func TestCreateCommentOnArticle_Highlighting(t *testing.T) {
	fake := &fakeAPI{}
	var rec runtime.Recorder
	New(fake, WithLogger(quiet)).CreateCommentOnArticle(context.Background(), &rec, "slug", "agree", "tok", Highlighting("this passage"))
	if fake.lastComment.HighlightedText == nil || *fake.lastComment.HighlightedText != "this passage" {
		t.Fatalf("input=%+v", fake.lastComment)
	}
}

func TestRateArticle_FailEnvelope(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"fail","data":"You need to sign in to rate this article"}`)
	})
	var rec runtime.Recorder

	New(client, WithLogger(quiet)).RateArticle(context.Background(), &rec, RatingRequest{Rating: 4, ArticleID: 1}, "dkvjndfkvbndfnkvdfnvdmdkvndfkmvdk")

	want := []action.Kind{action.KindRateArticleError, action.KindCleanUpRating}
	if diff := cmp.Diff(want, rec.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	fault := rec.Actions()[0].(action.RateArticleError).Fault
	if fault.Status != errmodel.StatusFail || fault.Message != SignInToRate {
		t.Fatalf("fault=%+v", fault)
	}
}

func TestRateArticle_Success(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer klrgkfmjdfdjbfdnjfdnvbdnvbndgnmf" {
			t.Errorf("auth=%q", got)
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"rating":"4","articleId":1}}`)
	})
	var rec runtime.Recorder

	New(client, WithLogger(quiet)).RateArticle(context.Background(), &rec, RatingRequest{Rating: 4, ArticleID: 1}, "klrgkfmjdfdjbfdnjfdnvbdnvbndgnmf")

	want := []action.Action{
		action.RateArticle{Rating: model.RatingResult{Rating: 4, ArticleID: 1}},
		action.CleanUpRating{},
	}
	if diff := cmp.Diff(want, rec.Actions()); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestRateArticle_WithoutTokenSkipsRemote(t *testing.T) {
	fake := &fakeAPI{}
	var rec runtime.Recorder

	New(fake, WithLogger(quiet)).RateArticle(context.Background(), &rec, RatingRequest{Rating: 4, ArticleID: 1}, "")

	if n := fake.calls.Load(); n != 0 {
		t.Fatalf("remote called %d times", n)
	}
	got := rec.Actions()
	if len(got) != 2 {
		t.Fatalf("kinds=%v", rec.Kinds())
	}
	fault := got[0].(action.RateArticleError).Fault
	if fault.Message != SignInToRate || fault.Category != errmodel.CategoryPolicy {
		t.Fatalf("fault=%+v", fault)
	}
}

func TestRateArticle_ReducedIntoState(t *testing.T) {
	fake := &fakeAPI{}
	s := runtime.NewStore(nil, runtime.WithLogger(quiet))
	ctx := context.Background()
	c := New(fake, WithLogger(quiet))

	c.GetSingleArticle(ctx, s, "slug")
	c.RateArticle(ctx, s, RatingRequest{Rating: 5, ArticleID: 1}, "tok")

	// CLEAN_UP_RATING always follows, leaving an empty response.
	resp := s.State().ReadArticle.Article.Rating.Response
	if resp == nil || !resp.Empty() {
		t.Fatalf("response=%+v", resp)
	}
	if s.State().ReadArticle.Article.Slug != "slug" {
		t.Fatalf("article=%+v", s.State().ReadArticle.Article)
	}
}

// Every start/outcome flow emits exactly two actions, start first.
func TestOrdering_StartThenOutcome(t *testing.T) {
	ctx := context.Background()
	boom := errmodel.Network("unreachable", "could not reach server", nil, errors.New("dial tcp: refused"))

	flows := []struct {
		name    string
		run     func(c *Coordinator, d Dispatcher)
		start   action.Kind
		success action.Kind
		failure action.Kind
	}{
		{"comment", func(c *Coordinator, d Dispatcher) { c.CreateCommentOnArticle(ctx, d, "s", "hi", "tok") },
			action.KindCreateCommentStart, action.KindCreateCommentSuccess, action.KindCreateCommentError},
		{"article", func(c *Coordinator, d Dispatcher) { c.GetSingleArticle(ctx, d, "s") },
			action.KindGetArticleStart, action.KindGetArticleSuccess, action.KindGetArticleError},
		{"bookmark", func(c *Coordinator, d Dispatcher) { c.CreateBookmark(ctx, d, "s", "tok") },
			action.KindCreateBookmarkStart, action.KindCreateBookmarkSuccess, action.KindCreateBookmarkError},
		{"report", func(c *Coordinator, d Dispatcher) { c.ReportArticle(ctx, d, "s", "spam", "tok") },
			action.KindReportArticleStart, action.KindReportArticleSuccess, action.KindReportArticleError},
		{"login", func(c *Coordinator, d Dispatcher) { c.Login(ctx, d, "a@b.co", "pw") },
			action.KindLoginStart, action.KindLoginSuccess, action.KindLoginError},
		{"signup", func(c *Coordinator, d Dispatcher) { c.Signup(ctx, d, model.SignupForm{Email: "a@b.co"}) },
			action.KindSignupStart, action.KindSignupSuccess, action.KindSignupError},
	}
	for _, f := range flows {
		t.Run(f.name+"/success", func(t *testing.T) {
			var rec runtime.Recorder
			f.run(New(&fakeAPI{}, WithLogger(quiet)), &rec)
			if diff := cmp.Diff([]action.Kind{f.start, f.success}, rec.Kinds()); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
		t.Run(f.name+"/failure", func(t *testing.T) {
			var rec runtime.Recorder
			f.run(New(&fakeAPI{err: boom}, WithLogger(quiet)), &rec)
			if diff := cmp.Diff([]action.Kind{f.start, f.failure}, rec.Kinds()); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// The start action is dispatched before the remote call begins.
func TestStartPrecedesRemoteCall(t *testing.T) {
	var rec runtime.Recorder
	fake := &fakeAPI{onCall: func() {
		if k := rec.Kinds(); len(k) != 1 || k[0] != action.KindCreateBookmarkStart {
			t.Errorf("at call time kinds=%v", k)
		}
	}}
	New(fake, WithLogger(quiet)).CreateBookmark(context.Background(), &rec, "s", "tok")
}

func TestPanicInRemoteBecomesErrorAction(t *testing.T) {
	var rec runtime.Recorder
	fake := &fakeAPI{onCall: func() { panic("nil map") }}
	New(fake, WithLogger(quiet)).ReportArticle(context.Background(), &rec, "s", "spam", "tok")

	got := rec.Actions()
	if len(got) != 2 {
		t.Fatalf("kinds=%v", rec.Kinds())
	}
	e, ok := got[1].(action.ReportArticleError)
	if !ok || e.Fault.Category != errmodel.CategorySystem {
		t.Fatalf("second=%#v", got[1])
	}
}

func TestLikeArticle_SingleOutcome(t *testing.T) {
	var rec runtime.Recorder
	New(&fakeAPI{}, WithLogger(quiet)).LikeArticle(context.Background(), &rec, 7, "s", "tok")
	if diff := cmp.Diff([]action.Kind{action.KindLikeArticleSuccess}, rec.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if like := rec.Actions()[0].(action.LikeArticleSuccess).Like; like.ArticleID != 7 {
		t.Fatalf("like=%+v", like)
	}
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	ctx := context.Background()
	storage := session.NewMemory()
	s := runtime.NewStore(nil, runtime.WithLogger(quiet))
	c := New(&fakeAPI{}, WithStorage(storage), WithLogger(quiet))

	c.Login(ctx, s, "r@example.com", "secret")
	sc, err := session.Load(ctx, storage)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Token != "jwt-token" {
		t.Fatalf("persisted=%+v", sc)
	}
	if !s.State().User.IsAuthenticated || s.State().User.Token() != "jwt-token" {
		t.Fatalf("user slice=%+v", s.State().User)
	}

	c.Logout(ctx, s)
	sc, err = session.Load(ctx, storage)
	if err != nil {
		t.Fatal(err)
	}
	if !sc.Anonymous() || s.State().User.IsAuthenticated {
		t.Fatal("logout did not clear the session")
	}
}

func TestLoginFailureDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	storage := session.NewMemory()
	var rec runtime.Recorder
	New(&fakeAPI{err: errmodel.Remote("rejected", "Invalid credentials", nil)}, WithStorage(storage), WithLogger(quiet)).
		Login(ctx, &rec, "r@example.com", "wrong")
	if _, err := storage.Get(ctx, session.UserKey); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestToggleTheme(t *testing.T) {
	s := runtime.NewStore(nil, runtime.WithLogger(quiet))
	New(&fakeAPI{}, WithLogger(quiet)).ToggleTheme(context.Background(), s)
	if s.State().Theme.Theme != state.DarkTheme {
		t.Fatalf("theme=%s", s.State().Theme.Theme)
	}
}

// Without the guard, overlapping requests apply in completion order.
func TestOverlappingRequests_LastSettledWins(t *testing.T) {
	ctx := context.Background()
	gate := newGatedAPI()
	s := runtime.NewStore(nil, runtime.WithLogger(quiet))
	d, settled := signalOutcomes(s)
	c := New(gate, WithLogger(quiet))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.GetSingleArticle(ctx, d, "first") }()
	gate.waitStarted(t)
	go func() { defer wg.Done(); c.GetSingleArticle(ctx, d, "second") }()
	gate.waitStarted(t)

	gate.release("second")
	waitFor(t, settled)
	gate.release("first")
	waitFor(t, settled)
	wg.Wait()

	if got := s.State().ReadArticle.Article.Slug; got != "first" {
		t.Fatalf("slug=%s want first (settled last)", got)
	}
}

func TestOverlappingRequests_LatestOnly(t *testing.T) {
	ctx := context.Background()
	gate := newGatedAPI()
	var rec runtime.Recorder
	d, settled := signalOutcomes(&rec)
	c := New(gate, WithLogger(quiet), WithLatestOnly())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.GetSingleArticle(ctx, d, "first") }()
	gate.waitStarted(t)
	go func() { defer wg.Done(); c.GetSingleArticle(ctx, d, "second") }()
	gate.waitStarted(t)

	gate.release("second")
	waitFor(t, settled)
	gate.release("first")
	wg.Wait()

	var successes []string
	for _, a := range rec.Actions() {
		if s, ok := a.(action.GetArticleSuccess); ok {
			successes = append(successes, s.Article.Slug)
		}
	}
	if diff := cmp.Diff([]string{"second"}, successes); diff != "" {
		t.Fatalf("successes mismatch (-want +got):\n%s", diff)
	}
}

// signalOutcomes forwards to next and signals after each article outcome.
func signalOutcomes(next Dispatcher) (Dispatcher, <-chan struct{}) {
	ch := make(chan struct{}, 8)
	return DispatchFunc(func(ctx context.Context, a action.Action) {
		next.Dispatch(ctx, a)
		switch a.(type) {
		case action.GetArticleSuccess, action.GetArticleError:
			ch <- struct{}{}
		}
	}), ch
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}
}

// fakeAPI answers every call with canned data or err.
type fakeAPI struct {
	err         error
	onCall      func()
	calls       atomic.Int32
	lastComment api.CommentInput
}

func (f *fakeAPI) hit() error {
	f.calls.Add(1)
	if f.onCall != nil {
		f.onCall()
	}
	return f.err
}

func (f *fakeAPI) GetArticle(_ context.Context, slug string) (model.Article, error) {
	return model.Article{ID: 1, Slug: slug}, f.hit()
}

func (f *fakeAPI) CreateComment(_ context.Context, _, slug string, in api.CommentInput) (model.Comment, error) {
	f.lastComment = in
	return model.Comment{ID: 1, Slug: slug}, f.hit()
}

func (f *fakeAPI) RateArticle(_ context.Context, _ string, articleID, rating int) (model.RatingResult, error) {
	return model.RatingResult{Rating: model.Stars(rating), ArticleID: articleID}, f.hit()
}

func (f *fakeAPI) LikeArticle(_ context.Context, _ string, articleID int, _ string) (model.Like, error) {
	return model.Like{ArticleID: articleID, LikesCount: 1, Liked: true}, f.hit()
}

func (f *fakeAPI) Bookmark(_ context.Context, _, slug string) (model.Bookmark, error) {
	return model.Bookmark{ID: 1, Slug: slug}, f.hit()
}

func (f *fakeAPI) Report(_ context.Context, _, _, reason string) (model.Report, error) {
	return model.Report{ID: 1, Reason: reason}, f.hit()
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (model.User, error) {
	return model.User{ID: 1, Email: email, Token: "jwt-token"}, f.hit()
}

func (f *fakeAPI) Signup(_ context.Context, form model.SignupForm) (model.User, error) {
	return model.User{ID: 2, Email: form.Email, Token: "jwt-token"}, f.hit()
}

// gatedAPI blocks GetArticle until the slug is released.
type gatedAPI struct {
	fakeAPI
	started chan string
	mu      sync.Mutex
	gates   map[string]chan struct{}
}

func newGatedAPI() *gatedAPI {
	return &gatedAPI{started: make(chan string, 8), gates: make(map[string]chan struct{})}
}

func (g *gatedAPI) gate(slug string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[slug]
	if !ok {
		ch = make(chan struct{})
		g.gates[slug] = ch
	}
	return ch
}

func (g *gatedAPI) GetArticle(ctx context.Context, slug string) (model.Article, error) {
	ch := g.gate(slug)
	g.started <- slug
	select {
	case <-ch:
	case <-ctx.Done():
		return model.Article{}, ctx.Err()
	}
	return model.Article{ID: 1, Slug: slug}, nil
}

func (g *gatedAPI) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not start")
	}
}

func (g *gatedAPI) release(slug string) { close(g.gate(slug)) }
