package report

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON schema of the JSON report.
//
//go:generate go run ../../tools/schemagen -o report.schema.json
//go:embed report.schema.json
var Schema []byte //nolint:gochecknoglobals // embedded asset.

// ValidationResult lists the schema violations found in a report.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks a JSON report against Schema. A non-nil error means the
// input could not be validated at all, e.g. because it is not JSON.
func Validate(data []byte) (ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(Schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("validate report: %w", err)
	}

	out := ValidationResult{Valid: result.Valid()}

	for _, verr := range result.Errors() {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return out, nil
}
