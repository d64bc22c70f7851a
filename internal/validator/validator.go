package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Validator checks struct fields against their `schema` tags. The tag
// is a comma-separated rule list: required, enum:a|b, min:n, max:n,
// pattern:re, format:email|url|uuid|date.
type Validator struct {
	tagName string
}

// New creates a validator reading the default `schema` tag
func New() *Validator {
	return &Validator{tagName: "schema"}
}

// Validate walks the exported fields of a struct (or pointer to one)
// and returns the first rule violation.
func (v *Validator) Validate(s any) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", val.Kind())
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		structField := typ.Field(i)
		if !structField.IsExported() {
			continue
		}
		jsonTag := structField.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		rules := structField.Tag.Get(v.tagName)
		name := fieldName(structField, jsonTag)
		if err := v.validateField(val.Field(i), rules, name); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateField(value reflect.Value, rules, name string) error {
	if rules == "" {
		return nil
	}

	required := strings.Contains(rules, "required")
	if isZero(value) {
		if required {
			return fmt.Errorf("field '%s' is required", name)
		}
		return nil
	}

	for _, rule := range strings.Split(rules, ",") {
		rule = strings.TrimSpace(rule)
		var err error
		switch {
		case strings.HasPrefix(rule, "enum:"):
			err = validateEnum(value, rule[5:], name)
		case strings.HasPrefix(rule, "min:"):
			err = validateMin(value, rule[4:], name)
		case strings.HasPrefix(rule, "max:"):
			err = validateMax(value, rule[4:], name)
		case strings.HasPrefix(rule, "pattern:"):
			err = validatePattern(value, rule[8:], name)
		case strings.HasPrefix(rule, "format:"):
			err = validateFormat(value, rule[7:], name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func validateEnum(value reflect.Value, allowed string, name string) error {
	current := fmt.Sprintf("%v", value.Interface())
	values := strings.Split(allowed, "|")
	for _, v := range values {
		if current == v {
			return nil
		}
	}
	return fmt.Errorf("field '%s' must be one of: %s", name, strings.Join(values, ", "))
}

func validateMin(value reflect.Value, arg, name string) error {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		min, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid min value for field '%s': %s", name, arg)
		}
		if value.Int() < min {
			return fmt.Errorf("field '%s' must be at least %d", name, min)
		}
	case reflect.Float32, reflect.Float64:
		min, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid min value for field '%s': %s", name, arg)
		}
		if value.Float() < min {
			return fmt.Errorf("field '%s' must be at least %f", name, min)
		}
	case reflect.String:
		minLen, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid min length for field '%s': %s", name, arg)
		}
		if len(value.String()) < minLen {
			return fmt.Errorf("field '%s' must be at least %d characters", name, minLen)
		}
	}
	return nil
}

func validateMax(value reflect.Value, arg, name string) error {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		max, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid max value for field '%s': %s", name, arg)
		}
		if value.Int() > max {
			return fmt.Errorf("field '%s' must be at most %d", name, max)
		}
	case reflect.Float32, reflect.Float64:
		max, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid max value for field '%s': %s", name, arg)
		}
		if value.Float() > max {
			return fmt.Errorf("field '%s' must be at most %f", name, max)
		}
	case reflect.String:
		maxLen, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid max length for field '%s': %s", name, arg)
		}
		if len(value.String()) > maxLen {
			return fmt.Errorf("field '%s' must be at most %d characters", name, maxLen)
		}
	}
	return nil
}

func validatePattern(value reflect.Value, pattern, name string) error {
	if value.Kind() != reflect.String {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern for field '%s': %s", name, pattern)
	}
	if !re.MatchString(value.String()) {
		return fmt.Errorf("field '%s' does not match pattern: %s", name, pattern)
	}
	return nil
}

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlRe   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	uuidRe  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func validateFormat(value reflect.Value, format, name string) error {
	if value.Kind() != reflect.String {
		return nil
	}
	str := value.String()

	switch format {
	case "email":
		if !emailRe.MatchString(str) {
			return fmt.Errorf("field '%s' must be a valid email address", name)
		}
	case "url", "uri":
		if !urlRe.MatchString(str) {
			return fmt.Errorf("field '%s' must be a valid URL", name)
		}
	case "uuid":
		if !uuidRe.MatchString(str) {
			return fmt.Errorf("field '%s' must be a valid UUID", name)
		}
	case "date":
		if !dateRe.MatchString(str) {
			return fmt.Errorf("field '%s' must be a YYYY-MM-DD date", name)
		}
	}
	return nil
}

func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
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

// DefaultValidator is the shared instance used by the package-level
// Validate.
var DefaultValidator = New()

// Validate validates a struct using the default validator
func Validate(s any) error {
	return DefaultValidator.Validate(s)
}
