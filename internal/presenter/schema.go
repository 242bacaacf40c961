// Package presenter renders Folio entities for the terminal. Declarative
// YAML schemas describe how an entity's fields are labelled, formatted,
// and grouped; the renderer walks a schema against generic JSON data so
// commands never hand-format individual entities.
package presenter

// EntitySchema describes how one Folio entity is presented.
type EntitySchema struct {
	Entity   string               `yaml:"entity"`
	TypeKey  string               `yaml:"type_key"`
	Headline string               `yaml:"headline"`
	Identity Identity             `yaml:"identity"`
	Fields   map[string]FieldSpec `yaml:"fields"`
	Views    ViewSpecs            `yaml:"views"`
}

// Identity names the entity's label and ID fields.
type Identity struct {
	Label string `yaml:"label"`
	ID    string `yaml:"id"`
}

// FieldSpec describes how a single field is labelled and formatted.
type FieldSpec struct {
	Label  string            `yaml:"label"`
	Format string            `yaml:"format"` // text, date, relative_time, percent, list, boolean
	Labels map[string]string `yaml:"labels"` // boolean value → display label
}

// ViewSpecs declares which fields appear per presentation context.
type ViewSpecs struct {
	List   ListView   `yaml:"list"`
	Detail DetailView `yaml:"detail"`
}

// ListView configures the tabular presentation.
type ListView struct {
	Columns []string `yaml:"columns"`
}

// DetailView configures the single-entity presentation.
type DetailView struct {
	Sections []DetailSection `yaml:"sections"`
}

// DetailSection groups fields under an optional heading.
type DetailSection struct {
	Heading string   `yaml:"heading"`
	Fields  []string `yaml:"fields"`
}
