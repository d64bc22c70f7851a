package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Generator converts Go structs to JSON schemas. Field names come from
// json tags, constraints from `schema` tags (the same rule grammar the
// validator package enforces) and descriptions from `description` tags.
type Generator struct{}

// NewGenerator creates a schema generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate creates a JSON schema from a struct type (or pointer to one)
func (g *Generator) Generate(v any) (map[string]any, error) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, got %s", t.Kind())
	}
	return g.generateObject(t), nil
}

func (g *Generator) generateObject(t reflect.Type) map[string]any {
	properties := make(map[string]any)
	required := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := fieldName(field, jsonTag)
		rules := field.Tag.Get("schema")
		if strings.Contains(rules, "required") || !strings.Contains(jsonTag, "omitempty") {
			required = append(required, name)
		}

		fieldSchema := g.generateFieldSchema(field)
		if desc := field.Tag.Get("description"); desc != "" {
			fieldSchema["description"] = desc
		}
		applyRules(rules, fieldSchema)

		properties[name] = fieldSchema
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (g *Generator) generateFieldSchema(field reflect.StructField) map[string]any {
	schema := make(map[string]any)

	switch field.Type.Kind() {
	case reflect.String:
		schema["type"] = "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		schema["type"] = "integer"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema["type"] = "integer"
		schema["minimum"] = 0
	case reflect.Float32, reflect.Float64:
		schema["type"] = "number"
	case reflect.Bool:
		schema["type"] = "boolean"
	case reflect.Slice:
		schema["type"] = "array"
		if field.Type.Elem().Kind() == reflect.Struct {
			schema["items"] = g.generateObject(field.Type.Elem())
		} else {
			schema["items"] = g.generateFieldSchema(reflect.StructField{Type: field.Type.Elem()})
		}
	case reflect.Map:
		schema["type"] = "object"
		if field.Type.Elem().Kind() != reflect.Interface {
			schema["additionalProperties"] = g.generateFieldSchema(reflect.StructField{Type: field.Type.Elem()})
		}
	case reflect.Struct:
		if field.Type.String() == "time.Time" {
			schema["type"] = "string"
			schema["format"] = "date-time"
		} else {
			return g.generateObject(field.Type)
		}
	case reflect.Ptr:
		return g.generateFieldSchema(reflect.StructField{
			Name: field.Name,
			Type: field.Type.Elem(),
			Tag:  field.Tag,
		})
	default:
		schema["type"] = "string"
	}

	return schema
}

func applyRules(rules string, schema map[string]any) {
	if rules == "" {
		return
	}

	for _, rule := range strings.Split(rules, ",") {
		rule = strings.TrimSpace(rule)
		switch {
		case strings.HasPrefix(rule, "enum:"):
			schema["enum"] = strings.Split(rule[5:], "|")
		case strings.HasPrefix(rule, "min:"):
			var min any
			if err := json.Unmarshal([]byte(rule[4:]), &min); err == nil {
				schema["minimum"] = min
			}
		case strings.HasPrefix(rule, "max:"):
			var max any
			if err := json.Unmarshal([]byte(rule[4:]), &max); err == nil {
				schema["maximum"] = max
			}
		case strings.HasPrefix(rule, "pattern:"):
			schema["pattern"] = rule[8:]
		case strings.HasPrefix(rule, "format:"):
			schema["format"] = rule[7:]
		case strings.HasPrefix(rule, "default:"):
			var def any
			if err := json.Unmarshal([]byte(rule[8:]), &def); err == nil {
				schema["default"] = def
			} else {
				schema["default"] = rule[8:]
			}
		}
	}
}

func fieldName(field reflect.StructField, jsonTag string) string {
	if jsonTag == "" {
		return field.Name
	}
	name := strings.TrimSpace(strings.Split(jsonTag, ",")[0])
	if name == "" {
		return field.Name
	}
	return name
}
