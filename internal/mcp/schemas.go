package mcp

import (
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/schema"
)

// recordInputSchema describes the structured findings accepted by the
// normalizer. Extra properties are allowed since unknown fields are ignored.
func recordInputSchema(reg *schema.Registry) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(reg.Fields()))
	for _, f := range reg.Fields() {
		properties[f.Name] = fieldSchema(f)
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
	}
}

// classifyInputSchema adds the input type discriminator and free text to the
// record schema.
func classifyInputSchema(reg *schema.Registry) *jsonschema.Schema {
	s := recordInputSchema(reg)
	s.Properties["type"] = &jsonschema.Schema{
		Type:        "string",
		Description: "Input kind: free clinical text or structured findings",
		Enum:        []any{string(domain.InputText), string(domain.InputStructured)},
	}
	s.Properties["text"] = &jsonschema.Schema{
		Type:        "string",
		Description: "Free clinical narrative, required when type is text",
	}
	s.Required = []string{"type"}
	return s
}

func emptyInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func fieldSchema(f schema.Field) *jsonschema.Schema {
	description := fmt.Sprintf("ASCOD %s finding", f.Group)
	if f.Group == schema.GroupRisk {
		description = "Vascular risk factor"
	}
	if len(f.Aliases) > 0 {
		description += "; also accepted as " + strings.Join(f.Aliases, ", ")
	}

	switch f.Kind {
	case schema.KindInt:
		s := &jsonschema.Schema{Type: "integer", Description: description}
		if f.Min != nil {
			lo := float64(*f.Min)
			s.Minimum = &lo
		}
		if f.Max != nil {
			hi := float64(*f.Max)
			s.Maximum = &hi
		}
		return s
	case schema.KindEnum:
		values := make([]any, len(f.Values))
		for i, v := range f.Values {
			values[i] = v
		}
		return &jsonschema.Schema{Type: "string", Description: description, Enum: values}
	default:
		return &jsonschema.Schema{Type: "boolean", Description: description}
	}
}
