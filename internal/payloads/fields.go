package payloads

import (
	"fmt"
	"strings"

	"simwatch/internal/services"
	"simwatch/internal/services/voiceapi"
)

// FieldTypes lists the generator types the backend accepts.
var FieldTypes = []string{"string", "number", "boolean", "date", "email", "phone"}

// KnownType reports whether typ names a supported generator type.
func KnownType(typ string) bool {
	for _, t := range FieldTypes {
		if typ == t {
			return true
		}
	}
	return false
}

// Normalize trims names, lowercases types, and drops definitions with empty
// names. The returned slice is safe to pass to Validate.
func Normalize(fields []voiceapi.FieldDefinition) []voiceapi.FieldDefinition {
	out := make([]voiceapi.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			continue
		}
		f.Type = strings.ToLower(strings.TrimSpace(f.Type))
		if f.Type == "" {
			f.Type = "string"
		}
		f.Description = strings.TrimSpace(f.Description)
		out = append(out, f)
	}
	return out
}

// Validate checks that at least one named field exists, names are unique,
// and every type is known. Failures carry the validation marker so callers
// can tell a rejected request from a dispatched one.
func Validate(fields []voiceapi.FieldDefinition) error {
	if len(fields) == 0 {
		return services.Wrap(services.ErrValidation, "payloads", "validate fields", "at least one field with a name is required", nil)
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			return services.Wrap(services.ErrValidation, "payloads", "validate fields", fmt.Sprintf("field names must be unique: %q repeats", f.Name), nil)
		}
		seen[f.Name] = struct{}{}
		if !KnownType(f.Type) {
			return services.Wrap(services.ErrValidation, "payloads", "validate fields", fmt.Sprintf("unknown field type %q for %q (supported: %s)", f.Type, f.Name, strings.Join(FieldTypes, ", ")), nil)
		}
	}
	return nil
}

// Parse turns CLI name:type[:description] specs into validated definitions.
func Parse(specs []string) ([]voiceapi.FieldDefinition, error) {
	fields := make([]voiceapi.FieldDefinition, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		field := voiceapi.FieldDefinition{Name: parts[0]}
		if len(parts) > 1 {
			field.Type = parts[1]
		}
		if len(parts) > 2 {
			field.Description = parts[2]
		}
		fields = append(fields, field)
	}
	fields = Normalize(fields)
	if err := Validate(fields); err != nil {
		return nil, err
	}
	return fields, nil
}
