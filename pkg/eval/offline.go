package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/state"
)

// Fixture is one offline case: actions to reduce and checks on the state
// they produce.
type Fixture struct {
	Name    string            `json:"name"`
	Actions []action.Envelope `json:"actions"`
	Checks  []Check           `json:"checks"`
}

// Check renders Template against the final state.Root and compares the
// output.
type Check struct {
	Template    string   `json:"template"`
	Equals      *string  `json:"equals,omitempty"`
	Contains    []string `json:"contains,omitempty"`
	NotContains []string `json:"not_contains,omitempty"`
}

// Result summarizes a fixture directory.
type Result struct {
	Total   int
	Passed  int
	Details []string
}

// Score is the passed fraction; an empty run scores 1.
func (r Result) Score() float64 {
	if r.Total == 0 {
		return 1
	}
	return float64(r.Passed) / float64(r.Total)
}

// EvaluateFixtures loads every .json fixture in dir, reduces its actions
// from the initial state and evaluates its checks.
func EvaluateFixtures(fsys fs.FS, dir string) (Result, error) {
	fixtures, err := loadFixtures(fsys, dir)
	if err != nil {
		return Result{}, err
	}
	res := Result{Total: len(fixtures)}
	for _, fx := range fixtures {
		final, err := reduceAll(fx.Actions)
		if err != nil {
			res.Details = append(res.Details, fx.Name+": "+err.Error())
			continue
		}
		if fails := evaluate(final, fx.Checks); len(fails) > 0 {
			for _, f := range fails {
				res.Details = append(res.Details, fx.Name+": "+f)
			}
			continue
		}
		res.Passed++
	}
	return res, nil
}

func reduceAll(envs []action.Envelope) (state.Root, error) {
	return Replay(context.Background(), nil, Capture{Actions: envs})
}

func evaluate(final state.Root, checks []Check) []string {
	var fails []string
	for i, c := range checks {
		out, err := render(c.Template, final)
		if err != nil {
			fails = append(fails, fmt.Sprintf("check %d: render error: %v", i, err))
			continue
		}
		if c.Equals != nil && out != *c.Equals {
			fails = append(fails, fmt.Sprintf("check %d: got %q want %q", i, out, *c.Equals))
		}
		for _, s := range c.Contains {
			if !strings.Contains(out, s) {
				fails = append(fails, fmt.Sprintf("check %d: missing contains: %s", i, s))
			}
		}
		for _, s := range c.NotContains {
			if strings.Contains(out, s) {
				fails = append(fails, fmt.Sprintf("check %d: unexpected contains: %s", i, s))
			}
		}
	}
	return fails
}

func loadFixtures(fsys fs.FS, dir string) ([]Fixture, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []Fixture
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var fx Fixture
		if err := json.Unmarshal(b, &fx); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if fx.Name == "" {
			fx.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		out = append(out, fx)
	}
	return out, nil
}

func render(tpl string, data any) (string, error) {
	t, err := template.New("check").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
