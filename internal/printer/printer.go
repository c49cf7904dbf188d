// Package printer renders reader output for the terminal.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
	"github.com/wilhg/persephone/pkg/state"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

// Printer writes user-facing output. Out receives results, Err receives
// faults.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a printer on out and errw, falling back to stdout and stderr.
func New(out, errw io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errw == nil {
		errw = os.Stderr
	}
	return &Printer{Out: out, Err: errw}
}

// Success prints msg in green with a check mark.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Out, format+"\n", a...)
}

func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Err, "! %s\n", fmt.Sprintf(format, a...))
}

// Step prints a progress line.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Err, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints title, explanation and suggestions to Err and returns an error
// carrying only the title, for cobra to propagate silently.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	red.Fprintf(p.Err, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.Err, "\n%s\n", explanation)
	}
	p.suggest(suggestions)
	return fmt.Errorf("%s", title)
}

func (p *Printer) suggest(suggestions []string) {
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(p.Err, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(p.Err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(p.Err, "  %d. %s\n", i+1, s)
		}
	}
}

// Fault prints a categorized error with its context and returns it as an
// error for cobra.
func (p *Printer) Fault(e *errmodel.Error) error {
	if e == nil {
		return nil
	}
	red.Fprintf(p.Err, "%s\n", e.Message)
	faint.Fprintf(p.Err, "%s/%s\n", e.Category, e.Code)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(p.Err)
		for _, k := range keys {
			fmt.Fprintf(p.Err, "  %s: %v\n", k, e.Context[k])
		}
	}
	p.suggest(suggestionsFor(e))
	return fmt.Errorf("%s", e.Message)
}

func suggestionsFor(e *errmodel.Error) []string {
	switch e.Category {
	case errmodel.CategoryPolicy:
		return []string{"Sign in with `persephone login` and try again"}
	case errmodel.CategoryNetwork:
		return []string{"Check your connection or PERSEPHONE_API_URL"}
	case errmodel.CategoryValidation:
		return []string{"Check the command arguments"}
	}
	return nil
}

// Article prints the reading view of a.
func (p *Printer) Article(a model.Article) {
	bold.Fprintln(p.Out, a.Title)
	meta := []string{}
	if name := a.Author.FullName(); name != "" {
		meta = append(meta, name)
	}
	if d := a.Published(); d != "" {
		meta = append(meta, d)
	}
	if a.ReadTime != "" {
		meta = append(meta, a.ReadTime)
	}
	if len(meta) > 0 {
		faint.Fprintln(p.Out, strings.Join(meta, " · "))
	}
	if imgs, err := a.Images(); err == nil && len(imgs) > 0 {
		faint.Fprintf(p.Out, "image: %s\n", imgs[0])
	}
	fmt.Fprintf(p.Out, "♥ %d  ★ %.1f\n", a.LikesCount, a.Rating.AverageRating)
	if len(a.Tags) > 0 {
		names := make([]string, len(a.Tags))
		for i, t := range a.Tags {
			names[i] = "#" + t.Name
		}
		cyan.Fprintln(p.Out, strings.Join(names, " "))
	}
	if body := strings.TrimSpace(a.Body); body != "" {
		fmt.Fprintf(p.Out, "\n%s\n", body)
	}
}

func (p *Printer) Comment(c model.Comment) {
	if c.HighlightedText != nil && *c.HighlightedText != "" {
		faint.Fprintf(p.Out, "> %s\n", *c.HighlightedText)
	}
	fmt.Fprintln(p.Out, c.Latest())
	if name := c.Author.FullName(); name != "" {
		faint.Fprintf(p.Out, "  by %s\n", name)
	}
}

// Rating prints the notice of a settled rating.
func (p *Printer) Rating(r model.RatingResponse) {
	switch {
	case r.Fault != nil:
		yellow.Fprintln(p.Out, r.Message())
	case r.Result != nil:
		green.Fprintln(p.Out, r.Message())
	}
}

func (p *Printer) Like(l model.Like) {
	verb := "Unliked"
	if l.Liked {
		verb = "Liked"
	}
	p.Success("%s (%d likes)", verb, l.LikesCount)
}

// User prints the signed-in account, or a hint when anonymous.
func (p *Printer) User(u state.AuthState) {
	if !u.IsAuthenticated || u.User == nil {
		faint.Fprintln(p.Out, "Not signed in")
		return
	}
	name := strings.TrimSpace(u.User.FirstName + " " + u.User.LastName)
	if name == "" {
		name = u.User.Username
	}
	if name == "" {
		p.Success("Signed in as %s", u.User.Email)
		return
	}
	p.Success("Signed in as %s <%s>", name, u.User.Email)
}

func (p *Printer) Theme(t state.ThemeState) {
	if t.Light() {
		fmt.Fprintln(p.Out, "☀ light theme")
		return
	}
	fmt.Fprintln(p.Out, "☾ dark theme")
}
