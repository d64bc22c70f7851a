package forms

import (
	"encoding/json"
	"fmt"

	"github.com/palettelabs/cmdpal/internal/schema"
)

// EncodeSubmit renders a form submission as the tagged text message the
// backend expects: the form id, then the field data as JSON. Map keys
// marshal sorted, so the encoding is deterministic.
func EncodeSubmit(formID string, data map[string]string) string {
	if data == nil {
		data = map[string]string{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("[Form:%s] %s", formID, payload)
}

// EncodeCancel renders a form cancellation marker
func EncodeCancel(formID string) string {
	return fmt.Sprintf("[Form:%s] cancelled", formID)
}

// ElementSchemas returns the JSON schema for each element kind's props.
// Integration guides embed these so a backend knows the exact DSL the
// renderer accepts.
func ElementSchemas() map[ElementKind]map[string]any {
	g := schema.NewGenerator()
	out := make(map[ElementKind]map[string]any, 4)

	for kind, props := range map[ElementKind]any{
		KindForm:      FormProps{},
		KindTextField: TextFieldProps{},
		KindTextArea:  TextAreaProps{},
		KindDateField: DateFieldProps{},
	} {
		if s, err := g.Generate(props); err == nil {
			out[kind] = s
		}
	}
	return out
}
