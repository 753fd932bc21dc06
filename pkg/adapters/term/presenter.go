// Package term renders tour steps in a terminal. It is a presenter for
// demos and the CLI run command: the engine stays headless, and this
// adapter observes it through lifecycle hooks.
package term

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/docentlabs/docent/pkg/domain"
)

// Presenter writes one card per resolved step: title, glamour-rendered
// markdown body, progress, and where the tooltip would sit.
type Presenter struct {
	out     io.Writer
	profile termenv.Profile
	render  func(string) (string, error)

	steps func(tourName string) []domain.Step
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithOutput redirects the presenter, stdout by default.
func WithOutput(out io.Writer) Option {
	return func(p *Presenter) {
		p.out = out
	}
}

// WithStepLookup lets the presenter show titles, bodies, and progress.
// Events only carry IDs and indexes; the lookup resolves the rest.
func WithStepLookup(lookup func(tourName string) []domain.Step) Option {
	return func(p *Presenter) {
		p.steps = lookup
	}
}

// NewPresenter creates a terminal presenter. The markdown renderer
// auto-detects light and dark backgrounds; when glamour cannot
// initialize (no TTY), bodies pass through as plain text.
func NewPresenter(opts ...Option) *Presenter {
	p := &Presenter{
		out:     os.Stdout,
		profile: termenv.ColorProfile(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(cardWidth()),
	); err == nil {
		p.render = r.Render
	} else {
		p.render = func(md string) (string, error) { return md, nil }
	}
	return p
}

// Hooks returns the lifecycle hooks that drive the presenter. Merge them
// with any other hook set via domain.MergeHooks.
func (p *Presenter) Hooks() domain.Hooks {
	return domain.Hooks{
		OnTourStart:    p.tourStart,
		OnStepResolved: p.stepResolved,
		OnTourEnd:      p.tourEnd,
	}
}

// Viewport reports the terminal size in cells, usable as a demo
// viewport. Falls back to 80x24 when stdout is not a terminal.
func Viewport() domain.Size {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return domain.Size{Width: float64(w), Height: float64(h)}
	}
	return domain.Size{Width: 80, Height: 24}
}

func (p *Presenter) tourStart(_ context.Context, e *domain.TourEvent) {
	fmt.Fprintf(p.out, "\n%s %s\n%s\n",
		p.color("●", "#818cf8"),
		p.bold("Tour started: "+e.TourName),
		p.rule(),
	)
}

func (p *Presenter) stepResolved(_ context.Context, e *domain.StepEvent) {
	title := e.StepID
	body := ""
	total := 0
	if p.steps != nil {
		steps := p.steps(e.TourName)
		total = len(steps)
		if e.Index >= 0 && e.Index < total {
			step := steps[e.Index]
			if step.Title != "" {
				title = step.Title
			}
			body = step.Body
		}
	}

	progress := fmt.Sprintf("step %d", e.Index+1)
	if total > 0 {
		progress = fmt.Sprintf("step %d of %d", e.Index+1, total)
	}

	anchor := p.color("◆ centered", "#fbbf24")
	if !e.Degraded && e.LocatorIndex >= 0 {
		anchor = p.color("▸ anchored", "#34d399")
		if e.LocatorIndex > 0 {
			anchor += p.color(fmt.Sprintf(" (fallback %d)", e.LocatorIndex), "#fbbf24")
		}
	} else if e.Degraded {
		anchor = p.color("◆ centered (target not found)", "#f87171")
	}

	fmt.Fprintf(p.out, "\n%s  %s  %s\n", p.bold(title), p.color(progress, "#a78bfa"), anchor)
	if body != "" {
		rendered, err := p.render(body)
		if err != nil {
			rendered = body + "\n"
		}
		fmt.Fprint(p.out, rendered)
	}
	fmt.Fprintln(p.out, p.rule())
}

func (p *Presenter) tourEnd(_ context.Context, e *domain.TourEvent) {
	status := "ended"
	color := "#a78bfa"
	if e.Outcome != nil {
		switch {
		case e.Outcome.Completed:
			status = fmt.Sprintf("completed (%d steps)", e.Outcome.StepsCompleted)
			color = "#34d399"
		case e.Outcome.Skipped:
			status = fmt.Sprintf("skipped after %d steps", e.Outcome.StepsCompleted)
			color = "#fbbf24"
		}
	}
	fmt.Fprintf(p.out, "\n%s %s\n\n",
		p.color("●", color),
		p.bold(fmt.Sprintf("Tour %s: %s", e.TourName, status)),
	)
}

func cardWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 10 {
		if w > 100 {
			return 100
		}
		return w - 2
	}
	return 78
}

func (p *Presenter) color(s, hex string) string {
	return termenv.String(s).Foreground(p.profile.Color(hex)).String()
}

func (p *Presenter) bold(s string) string {
	return termenv.String(s).Bold().String()
}

func (p *Presenter) rule() string {
	return p.color(strings.Repeat("─", cardWidth()), "#4c566a")
}
