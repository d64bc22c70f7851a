// Package forms models the declarative form trees assistants embed in
// structured UI message parts: decoding, validation, and the wire
// encoding of submit/cancel results back into the chat transcript.
package forms

import "encoding/json"

// ElementKind discriminates the renderable element types
type ElementKind string

const (
	KindForm      ElementKind = "form"
	KindTextField ElementKind = "text-field"
	KindTextArea  ElementKind = "text-area"
	KindDateField ElementKind = "date-field"
)

// Element is one node of a form tree. Props is kind-specific and left
// raw until validation decodes it against the kind's prop struct.
type Element struct {
	Kind     ElementKind     `json:"kind"`
	Props    json.RawMessage `json:"props,omitempty"`
	Children []Element       `json:"children,omitempty"`
}

// FormProps configures a form container
type FormProps struct {
	ID          string `json:"id" schema:"required" description:"Form identifier echoed back on submit"`
	Title       string `json:"title,omitempty"`
	SubmitLabel string `json:"submitLabel,omitempty"`
}

// TextFieldProps configures a single-line input
type TextFieldProps struct {
	Name         string `json:"name" schema:"required" description:"Field name used as the data key"`
	Label        string `json:"label,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	Required     bool   `json:"required,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// TextAreaProps configures a multi-line input
type TextAreaProps struct {
	Name         string `json:"name" schema:"required"`
	Label        string `json:"label,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	Required     bool   `json:"required,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
	Rows         int    `json:"rows,omitempty" schema:"min:1,max:20"`
}

// DateFieldProps configures a date input. Min/Max bound the selectable
// range as YYYY-MM-DD.
type DateFieldProps struct {
	Name         string `json:"name" schema:"required"`
	Label        string `json:"label,omitempty"`
	Required     bool   `json:"required,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty" schema:"format:date"`
	Min          string `json:"min,omitempty" schema:"format:date"`
	Max          string `json:"max,omitempty" schema:"format:date"`
}

// Decode parses a raw structured UI payload into an element tree
func Decode(raw []byte) (Element, error) {
	var el Element
	if err := json.Unmarshal(raw, &el); err != nil {
		return Element{}, err
	}
	return el, nil
}
