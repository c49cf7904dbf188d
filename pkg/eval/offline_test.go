package eval

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
)

func TestEvaluateFixtures(t *testing.T) {
	fsys := fstest.MapFS{
		"cases/article.json": {Data: []byte(`{
			"name": "article",
			"actions": [
				{"id": "1", "kind": "GET_SINGLE_ARTICLE_START"},
				{"id": "2", "kind": "GET_SINGLE_ARTICLE_SUCCESS", "payload": {"article": {"id": 9, "slug": "s", "title": "Hello world"}}}
			],
			"checks": [
				{"template": "{{.ReadArticle.Article.Title}}", "equals": "Hello world"},
				{"template": "{{.ReadArticle.Loading}}", "equals": "false"}
			]
		}`)},
		"cases/theme.json": {Data: []byte(`{
			"actions": [{"id": "1", "kind": "TOGGLE_THEME"}],
			"checks": [{"template": "{{.Theme.Theme}}", "contains": ["dark"], "not_contains": ["light"]}]
		}`)},
		"cases/notes.txt": {Data: []byte("ignored")},
	}
	res, err := EvaluateFixtures(fsys, "cases")
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 || res.Passed != 2 || res.Score() != 1 {
		t.Fatalf("result = %+v", res)
	}

	failing := fstest.MapFS{
		"cases/x.json": {Data: []byte(`{"name":"x","checks":[{"template":"{{.Theme.Theme}}","equals":"dark-theme"}]}`)},
		"cases/y.json": {Data: []byte(`{"name":"y","checks":[{"template":"{{.Nope}}"}]}`)},
		"cases/z.json": {Data: []byte(`{"name":"z","actions":[{"id":"1","kind":"NOPE"}]}`)},
	}
	res, err = EvaluateFixtures(failing, "cases")
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 || res.Passed != 0 || res.Score() != 0 || len(res.Details) != 3 {
		t.Fatalf("expected three failures: %+v", res)
	}

	_, err = EvaluateFixtures(fstest.MapFS{}, "cases")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing dir err = %v", err)
	}
	if (Result{}).Score() != 1 {
		t.Fatal("empty result should score 1")
	}
}
