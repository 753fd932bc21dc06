package loam

// TourMetadata is the front matter of one tour document. It uses
// "mapstructure" tags to match the authoring keys of the step
// descriptor input format (targetSelector, position, waitForElement,
// delay).
type TourMetadata struct {
	Name  string         `json:"name" mapstructure:"name"`
	Title string         `json:"title" mapstructure:"title"`
	View  string         `json:"view" mapstructure:"view"`
	Steps []StepMetadata `json:"steps" mapstructure:"steps"`
}

// StepMetadata is one step entry in a tour document.
type StepMetadata struct {
	ID string `json:"id" mapstructure:"id"`

	// TargetSelector is a single selector string or a list of fallback
	// selectors; normalization happens in the loader.
	TargetSelector any `json:"targetSelector" mapstructure:"targetSelector"`

	Title   string `json:"title" mapstructure:"title"`
	Content string `json:"content" mapstructure:"content"`

	// Position is the preferred tooltip side (top|bottom|left|right|center).
	Position string `json:"position" mapstructure:"position"`

	WaitForElement bool `json:"waitForElement" mapstructure:"waitForElement"`

	// DelayMs is the appear delay in milliseconds.
	DelayMs int `json:"delay" mapstructure:"delay"`

	OnAdvance string   `json:"onAdvance" mapstructure:"onAdvance"`
	Requires  []string `json:"requires" mapstructure:"requires"`
}
