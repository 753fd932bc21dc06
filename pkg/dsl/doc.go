/*
Package dsl provides a fluent Go builder for constructing tours
programmatically.

It lets hosts define tours in type-safe Go instead of external YAML or
Loam documents. This is particularly useful for dynamically generated
tours, unit tests, and leveraging IDE autocompletion.

Example usage:

	b := dsl.New()

	b.Tour("onboarding").
		Title("Getting started").
		View("dashboard").
		Step("welcome").
		Target("#menu").
		Title("Welcome!").
		Side(domain.SideBottom).
		Step("search").
		Target("#search", ".search-box").
		Title("Find anything").
		WaitForTarget()

	// The resulting catalog can be used as a ports.CatalogSource.
	source, err := b.Build()
	// ... pass source to docent.New(...)
*/
package dsl
