package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
)

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

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Fatalf("base=%s", c.BaseURL())
	}
	if _, err := New("ftp://example.com"); err == nil {
		t.Fatal("expected scheme error")
	}
}

func TestCreateComment_Success(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, commentReply)
	})

	got, err := c.CreateComment(context.Background(), "some-token", "how-to-build-high-performance-teams-1", CommentInput{Comment: "some comment"})
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer some-token" {
		t.Fatalf("auth=%q", gotAuth)
	}
	if gotPath != "/api/v1/articles/how-to-build-high-performance-teams-1/comments" {
		t.Fatalf("path=%s", gotPath)
	}
	if gotBody["comment"] != "some comment" {
		t.Fatalf("body=%v", gotBody)
	}
	if _, ok := gotBody["highlightedText"]; ok {
		t.Fatalf("highlightedText should be omitted: %v", gotBody)
	}
	if got.ID != 34 || got.Author.FirstName != "Halimah" || got.HighlightedText != nil {
		t.Fatalf("comment=%+v", got)
	}
	if !strings.HasPrefix(got.Latest(), "Please can you update") {
		t.Fatalf("latest=%q", got.Latest())
	}
}

func TestFailEnvelope_IsRemoteFault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":"fail","data":"You need to sign in to rate this article"}`)
	})

	_, err := c.RateArticle(context.Background(), "tok", 1, 4)
	ce := errmodel.From(err)
	if ce == nil || ce.Category != errmodel.CategoryRemote {
		t.Fatalf("err=%v", err)
	}
	if ce.Message != "You need to sign in to rate this article" {
		t.Fatalf("message=%q", ce.Message)
	}
	if ce.Code != "unauthorized" || ce.Status != errmodel.StatusFail {
		t.Fatalf("code=%s status=%s", ce.Code, ce.Status)
	}
}

func TestFailEnvelope_ObjectMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","data":{"message":"Article not found"}}`)
	})
	_, err := c.GetArticle(context.Background(), "missing")
	ce := errmodel.From(err)
	if ce.Message != "Article not found" || ce.Status != errmodel.StatusError || ce.Code != "rejected" {
		t.Fatalf("fault=%+v", ce)
	}
}

func TestUnreadableReply_IsNetworkFault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	_, err := c.GetArticle(context.Background(), "slug")
	ce := errmodel.From(err)
	if ce.Category != errmodel.CategoryNetwork || ce.Code != "upstream" {
		t.Fatalf("fault=%+v", ce)
	}
	if ce.Context["http_status"] != float64(http.StatusBadGateway) {
		t.Fatalf("context=%v", ce.Context)
	}
}

func TestEnvelopeWithoutStatus_IsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"id":1}}`)
	})
	_, err := c.GetArticle(context.Background(), "slug")
	ce := errmodel.From(err)
	if ce.Category != errmodel.CategoryNetwork || ce.Code != "bad_envelope" {
		t.Fatalf("fault=%+v", ce)
	}
}

func TestValidationFailure_SendsNothing(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"status":"success","data":{}}`)
	})
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"empty comment", func() error { _, err := c.CreateComment(ctx, "t", "s", CommentInput{Comment: "  "}); return err }},
		{"rating too high", func() error { _, err := c.RateArticle(ctx, "t", 1, 6); return err }},
		{"rating zero", func() error { _, err := c.RateArticle(ctx, "t", 1, 0); return err }},
		{"empty reason", func() error { _, err := c.Report(ctx, "t", "s", ""); return err }},
		{"bad email", func() error { _, err := c.Login(ctx, "not-an-email", "pw"); return err }},
		{"short password", func() error {
			_, err := c.Signup(ctx, model.SignupForm{FirstName: "a", LastName: "b", Email: "a@b.co", Password: "123"})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if !errmodel.IsCategory(err, errmodel.CategoryValidation) {
				t.Fatalf("err=%v", err)
			}
		})
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("server called %d times", n)
	}
}

func TestRateArticle_StringRating(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/articles/1/ratings" {
			t.Errorf("path=%s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"rating":"4","articleId":1}}`)
	})
	got, err := c.RateArticle(context.Background(), "tok", 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rating != 4 || got.ArticleID != 1 {
		t.Fatalf("rating=%+v", got)
	}
}

func TestLikeAndLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/articles/slug-1/like":
			_, _ = io.WriteString(w, `{"status":"success","data":{"likesCount":8,"liked":true}}`)
		case "/api/v1/auth/login":
			if r.Header.Get("Authorization") != "" {
				t.Errorf("login must not carry a token")
			}
			_, _ = io.WriteString(w, `{"status":"success","data":{"id":2,"email":"r@example.com","token":"jwt"}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	like, err := c.LikeArticle(ctx, "tok", 7, "slug-1")
	if err != nil {
		t.Fatal(err)
	}
	if like.ArticleID != 7 || like.LikesCount != 8 || !like.Liked {
		t.Fatalf("like=%+v", like)
	}

	u, err := c.Login(ctx, "r@example.com", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if u.Token != "jwt" || u.ID != 2 {
		t.Fatalf("user=%+v", u)
	}
}

func TestTimeout_IsNetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithTimeout(50*time.Millisecond), WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Bookmark(context.Background(), "tok", "slug")
	ce := errmodel.From(err)
	if ce.Category != errmodel.CategoryNetwork || ce.Code != "timeout" {
		t.Fatalf("fault=%+v", ce)
	}
}
