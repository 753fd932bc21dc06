package domain

import "errors"

// ErrTargetNotFound is returned when every locator of a step fails to
// produce a measurable element within the retry budget. Callers degrade
// the step to a centered placement rather than aborting the tour.
var ErrTargetNotFound = errors.New("target not found")

// ErrBadLocator is returned by surfaces for a locator expression they
// cannot parse. The resolver treats it as "this locator failed" so the
// remaining fallbacks still get a chance.
var ErrBadLocator = errors.New("bad locator expression")

// ErrNoTour is returned when the catalog has no tour for a view.
var ErrNoTour = errors.New("no tour for view")

// ErrNotRunning is returned for step operations without an active tour.
var ErrNotRunning = errors.New("no tour running")

// ErrUnknownStep is returned when a step ID or index does not exist in
// the running tour.
var ErrUnknownStep = errors.New("unknown step")

// ErrRecordNotFound is returned when a store holds no record for a tour.
var ErrRecordNotFound = errors.New("tour record not found")
