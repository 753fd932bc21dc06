package dsl

import (
	"fmt"
	"time"

	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/domain"
)

// Builder collects tour definitions.
type Builder struct {
	order []string
	tours map[string]*TourBuilder
}

// New creates a new catalog builder.
func New() *Builder {
	return &Builder{
		tours: make(map[string]*TourBuilder),
	}
}

// Tour creates a new tour in the catalog. If the tour already exists,
// it returns the existing builder.
func (b *Builder) Tour(name string) *TourBuilder {
	if tb, ok := b.tours[name]; ok {
		return tb
	}
	tb := &TourBuilder{
		tour: domain.Tour{Name: name},
	}
	b.order = append(b.order, name)
	b.tours[name] = tb
	return tb
}

// Build validates every tour and compiles the set into an in-memory
// catalog source. Tours keep their declaration order.
func (b *Builder) Build() (*memory.Catalog, error) {
	tours := make([]domain.Tour, 0, len(b.order))
	for _, name := range b.order {
		tour, err := b.tours[name].Build()
		if err != nil {
			return nil, err
		}
		tours = append(tours, tour)
	}
	return memory.NewCatalog(tours...), nil
}

// TourBuilder provides a fluent API for configuring one tour.
type TourBuilder struct {
	tour  domain.Tour
	steps []*StepBuilder
}

// Title sets the human-readable tour title.
func (t *TourBuilder) Title(title string) *TourBuilder {
	t.tour.Title = title
	return t
}

// View binds the tour to a view for auto-launch. A view maps to at
// most one tour; the catalog rejects duplicates at load time.
func (t *TourBuilder) View(view string) *TourBuilder {
	t.tour.View = view
	return t
}

// Step appends a step and returns its builder. Steps run in the order
// they are declared.
func (t *TourBuilder) Step(id string) *StepBuilder {
	sb := &StepBuilder{
		step: domain.Step{ID: id},
		tour: t,
	}
	t.steps = append(t.steps, sb)
	return sb
}

// Build validates and returns the underlying domain.Tour.
func (t *TourBuilder) Build() (domain.Tour, error) {
	tour := t.tour
	tour.Steps = make([]domain.Step, len(t.steps))
	for i, sb := range t.steps {
		tour.Steps[i] = sb.step
	}
	if err := tour.Validate(); err != nil {
		return domain.Tour{}, fmt.Errorf("dsl: %w", err)
	}
	return tour, nil
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step domain.Step
	tour *TourBuilder
}

// Target appends fallback locators, tried in order.
func (s *StepBuilder) Target(locators ...string) *StepBuilder {
	s.step.Locators = append(s.step.Locators, locators...)
	return s
}

// Title sets the tooltip title.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.step.Title = title
	return s
}

// Body sets the tooltip body text.
func (s *StepBuilder) Body(body string) *StepBuilder {
	s.step.Body = body
	return s
}

// Side sets the preferred tooltip side. Unset means bottom.
func (s *StepBuilder) Side(side domain.Side) *StepBuilder {
	s.step.Side = side
	return s
}

// WaitForTarget enables the poll-retry loop when the target has not
// rendered yet.
func (s *StepBuilder) WaitForTarget() *StepBuilder {
	s.step.WaitForTarget = true
	return s
}

// Delay postpones the step's first resolution after it becomes current.
func (s *StepBuilder) Delay(d time.Duration) *StepBuilder {
	s.step.AppearDelay = d
	return s
}

// OnAdvance names the host action fired when the user advances past
// this step.
func (s *StepBuilder) OnAdvance(action string) *StepBuilder {
	s.step.OnAdvance = action
	return s
}

// Requires lists step IDs that must have been shown before this step
// can be jumped to.
func (s *StepBuilder) Requires(stepIDs ...string) *StepBuilder {
	s.step.Requires = append(s.step.Requires, stepIDs...)
	return s
}

// Step starts the next step on the owning tour, for uninterrupted
// chaining.
func (s *StepBuilder) Step(id string) *StepBuilder {
	return s.tour.Step(id)
}

// Build returns the owning tour builder's result.
func (s *StepBuilder) Build() (domain.Tour, error) {
	return s.tour.Build()
}
