package plugin

import "encoding/json"

// ErrorKey is the sentinel key that distinguishes an error result from a
// regular facts document.
const ErrorKey = "error"

// Descriptor declares a collector: its unique name and the shape of the
// configuration it accepts. Descriptors are static for the lifetime of the
// plugin process and carry no runtime state.
type Descriptor struct {
	Name         string `json:"name" yaml:"name"`
	ConfigSchema Schema `json:"config_schema" yaml:"config_schema"`
}

// Document is a structured facts result: a mapping from fact category
// (e.g. "cpu", "memory", "timestamp") to an arbitrary structured value.
// The host treats it as opaque, well-formed JSON data.
type Document map[string]any

// IsError reports whether the document is an error result, i.e. carries a
// string message under the sentinel key.
func (d Document) IsError() bool {
	_, ok := d[ErrorKey].(string)
	return ok
}

// ErrorMessage returns the error message carried by an error result, or ""
// for a regular document.
func (d Document) ErrorMessage() string {
	msg, _ := d[ErrorKey].(string)
	return msg
}

// ErrorResult builds a request-level error document. These are normal,
// recoverable outcomes of an invocation and never abort the caller.
func ErrorResult(message string) Document {
	return Document{ErrorKey: message}
}

// Encode serializes the document for the host boundary.
func (d Document) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Category identifies one of the plugin extension surfaces a host may ask
// about. Facts collectors are one category among the siblings a plugin of
// this family can implement.
type Category string

const (
	CategoryFactsCollectors    Category = "facts_collectors"
	CategoryTasks              Category = "tasks"
	CategoryTemplateExtensions Category = "template_extensions"
	CategoryLogSources         Category = "log_sources"
	CategoryLogParsers         Category = "log_parsers"
	CategoryLogFilters         Category = "log_filters"
	CategoryLogOutputs         Category = "log_outputs"
)

// SiblingCategories lists every extension surface other than facts
// collectors. Hosts enumerate these and expect an empty sequence for each
// category the plugin does not declare.
var SiblingCategories = []Category{
	CategoryTasks,
	CategoryTemplateExtensions,
	CategoryLogSources,
	CategoryLogParsers,
	CategoryLogFilters,
	CategoryLogOutputs,
}

// ExtensionDescriptor declares an entry in a sibling extension category.
// This plugin family declares none, but the shape is fixed so other plugin
// authors can match it.
type ExtensionDescriptor struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Capabilities is the static declaration of which extension categories a
// plugin implements. The host supplies the empty-sequence default for every
// category not declared here, so trivial stubs never need restating.
type Capabilities map[Category]bool

// NewCapabilities declares the given categories as implemented.
func NewCapabilities(categories ...Category) Capabilities {
	caps := make(Capabilities, len(categories))
	for _, c := range categories {
		caps[c] = true
	}
	return caps
}

// Declares reports whether the plugin implements the given category.
func (c Capabilities) Declares(category Category) bool {
	return c[category]
}
