package forms

import (
	"encoding/json"
	"fmt"

	"github.com/palettelabs/cmdpal/internal/validator"
)

// Validate normalizes an element tree for rendering. Elements with an
// unknown kind or props that fail validation are dropped rather than
// rendered partially; each drop is reported through warn. A dropped
// container drops its subtree with it.
func Validate(el Element, warn func(format string, args ...any)) (Element, bool) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return validate(el, warn)
}

func validate(el Element, warn func(format string, args ...any)) (Element, bool) {
	props, err := decodeProps(el)
	if err != nil {
		warn("forms: dropping %q element: %v", el.Kind, err)
		return Element{}, false
	}
	if err := validator.Validate(props); err != nil {
		warn("forms: dropping %q element: %v", el.Kind, err)
		return Element{}, false
	}

	out := Element{Kind: el.Kind, Props: el.Props}
	for _, child := range el.Children {
		if kept, ok := validate(child, warn); ok {
			out.Children = append(out.Children, kept)
		}
	}
	return out, true
}

func decodeProps(el Element) (any, error) {
	var props any
	switch el.Kind {
	case KindForm:
		props = &FormProps{}
	case KindTextField:
		props = &TextFieldProps{}
	case KindTextArea:
		props = &TextAreaProps{}
	case KindDateField:
		props = &DateFieldProps{}
	default:
		return nil, fmt.Errorf("unknown element kind %q", el.Kind)
	}
	if len(el.Props) > 0 {
		if err := json.Unmarshal(el.Props, props); err != nil {
			return nil, fmt.Errorf("invalid props: %w", err)
		}
	}
	return props, nil
}

// Fields flattens the input elements of a validated tree in document
// order. Renderers use it to build the editable field list.
func Fields(el Element) []Field {
	var out []Field
	collectFields(el, &out)
	return out
}

// Field is a renderable input extracted from a form tree
type Field struct {
	Kind         ElementKind
	Name         string
	Label        string
	Placeholder  string
	Required     bool
	DefaultValue string
	Rows         int
	Min          string
	Max          string
}

// DisplayLabel returns the label, falling back to the field name
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func collectFields(el Element, out *[]Field) {
	switch el.Kind {
	case KindTextField:
		var p TextFieldProps
		if json.Unmarshal(el.Props, &p) == nil {
			*out = append(*out, Field{
				Kind:         KindTextField,
				Name:         p.Name,
				Label:        p.Label,
				Placeholder:  p.Placeholder,
				Required:     p.Required,
				DefaultValue: p.DefaultValue,
			})
		}
	case KindTextArea:
		var p TextAreaProps
		if json.Unmarshal(el.Props, &p) == nil {
			rows := p.Rows
			if rows == 0 {
				rows = 3
			}
			*out = append(*out, Field{
				Kind:         KindTextArea,
				Name:         p.Name,
				Label:        p.Label,
				Placeholder:  p.Placeholder,
				Required:     p.Required,
				DefaultValue: p.DefaultValue,
				Rows:         rows,
			})
		}
	case KindDateField:
		var p DateFieldProps
		if json.Unmarshal(el.Props, &p) == nil {
			*out = append(*out, Field{
				Kind:         KindDateField,
				Name:         p.Name,
				Label:        p.Label,
				Required:     p.Required,
				DefaultValue: p.DefaultValue,
				Min:          p.Min,
				Max:          p.Max,
			})
		}
	}
	for _, child := range el.Children {
		collectFields(child, out)
	}
}

// Meta returns the form container props of a validated tree, or false
// when the root is not a form.
func Meta(el Element) (FormProps, bool) {
	if el.Kind != KindForm {
		return FormProps{}, false
	}
	var p FormProps
	if err := json.Unmarshal(el.Props, &p); err != nil {
		return FormProps{}, false
	}
	return p, true
}
