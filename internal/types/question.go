// Package types provides type definitions for structured data used throughout the form-autofill system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// FieldType identifies the input modality of a form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldSelect   FieldType = "select"
	FieldUnknown  FieldType = "unknown"
)

// FieldTypePriority is the fixed order in which resolution and filling consult
// field buckets. A question is assumed to expose exactly one dominant modality.
var FieldTypePriority = []FieldType{FieldText, FieldTextarea, FieldRadio, FieldCheckbox, FieldSelect}

// FieldHandle is an opaque reference to a single input field. Only the Surface
// implementation that produced it can interpret it.
type FieldHandle string

// FieldSet holds per-type ordered lists of field handles for one question.
type FieldSet struct {
	Text     []FieldHandle `json:"text,omitempty"`
	Textarea []FieldHandle `json:"textarea,omitempty"`
	Radio    []FieldHandle `json:"radio,omitempty"`
	Checkbox []FieldHandle `json:"checkbox,omitempty"`
	Select   []FieldHandle `json:"select,omitempty"`
}

// Bucket returns the handles for the given field type.
func (fs FieldSet) Bucket(t FieldType) []FieldHandle {
	switch t {
	case FieldText:
		return fs.Text
	case FieldTextarea:
		return fs.Textarea
	case FieldRadio:
		return fs.Radio
	case FieldCheckbox:
		return fs.Checkbox
	case FieldSelect:
		return fs.Select
	default:
		return nil
	}
}

// Primary returns the first populated bucket in priority order.
// ok is false when the set contains no fields at all.
func (fs FieldSet) Primary() (FieldType, []FieldHandle, bool) {
	for _, t := range FieldTypePriority {
		if handles := fs.Bucket(t); len(handles) > 0 {
			return t, handles, true
		}
	}
	return FieldUnknown, nil, false
}

// Empty reports whether the set contains no fields.
func (fs FieldSet) Empty() bool {
	_, _, ok := fs.Primary()
	return !ok
}

// Question is one extracted form question. Text is the cleaned label and is
// the canonical key everywhere downstream.
type Question struct {
	Text          string   `json:"text"`
	Fields        FieldSet `json:"fields"`
	SourcePageURL string   `json:"source_page_url,omitempty"`
}
