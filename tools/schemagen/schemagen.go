// Package main generates the JSON schema of the pkglister JSON report from
// the report.Document type.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/pkglister/pkg/report"
)

const (
	draft07  = "http://json-schema.org/draft-07/schema#"
	schemaID = "https://github.com/Sumatoshi-tech/pkglister/report.schema.json"
	title    = "pkglister report"
)

// Schema represents a JSON Schema.
type Schema struct {
	Schema               string             `json:"$schema,omitempty"`
	ID                   string             `json:"$id,omitempty"`
	Title                string             `json:"title,omitempty"`
	Type                 any                `json:"type,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Pattern              string             `json:"pattern,omitempty"`
	MinLength            *int               `json:"minLength,omitempty"`
	Minimum              *int               `json:"minimum,omitempty"`
}

func main() {
	var output string

	flag.StringVar(&output, "o", "report.schema.json", "Output file for the schema")
	flag.Parse()

	data, err := marshalSchema(generateSchema(reflect.TypeFor[report.Document]()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}

	err = os.WriteFile(output, data, 0o644) //nolint:gosec // schema is a public asset.
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", output)
}

func generateSchema(t reflect.Type) *Schema {
	schema := typeToSchema(t)
	schema.Schema = draft07
	schema.ID = schemaID
	schema.Title = title

	return schema
}

func marshalSchema(schema *Schema) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}

// structToSchema describes a struct as a closed object. Fields without
// omitempty are required.
func structToSchema(t reflect.Type) *Schema {
	closed := false
	schema := &Schema{
		Type:                 "object",
		AdditionalProperties: &closed,
		Properties:           make(map[string]*Schema),
	}

	for i := range t.NumField() {
		field := t.Field(i)
		jsonTag := field.Tag.Get("json")

		if jsonTag == "-" || jsonTag == "" {
			continue
		}

		jsonName, opts, _ := strings.Cut(jsonTag, ",")

		fieldSchema := typeToSchema(field.Type)
		applyConstraints(fieldSchema, field.Tag.Get("schema"))
		schema.Properties[jsonName] = fieldSchema

		if opts != "omitempty" {
			schema.Required = append(schema.Required, jsonName)
		}
	}

	return schema
}

func typeToSchema(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Schema{Type: "integer"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Slice:
		return &Schema{
			Type:  "array",
			Items: typeToSchema(t.Elem()),
		}

	case reflect.Struct:
		return structToSchema(t)

	case reflect.Ptr:
		inner := typeToSchema(t.Elem())
		if name, ok := inner.Type.(string); ok {
			inner.Type = []string{name, "null"}
		}

		return inner

	default:
		return &Schema{Type: "object"}
	}
}

// applyConstraints reads a `schema:"minLength=1,minimum=0,pattern=..."` tag.
// The pattern must come last since it may contain commas.
func applyConstraints(schema *Schema, tag string) {
	for tag != "" {
		key, value, _ := strings.Cut(tag, "=")

		if key == "pattern" {
			schema.Pattern = value

			return
		}

		value, tag, _ = strings.Cut(value, ",")

		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}

		switch key {
		case "minLength":
			schema.MinLength = &n
		case "minimum":
			schema.Minimum = &n
		}
	}
}
