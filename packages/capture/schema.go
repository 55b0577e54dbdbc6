package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
)

// SchemaError lists the violations of a failed schema validation
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Violations, "; "))
}

// ValidateSchema validates a JSON response body against the JSON schema file
// at schemaPath. Relative paths are resolved against baseDir when set.
func ValidateSchema(resp *http.Response, schemaPath, baseDir string) error {
	if !filepath.IsAbs(schemaPath) && baseDir != "" {
		schemaPath = filepath.Join(baseDir, schemaPath)
	}

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	return ValidateSchemaBytes(resp.Body, schemaData)
}

// ValidateSchemaBytes validates a JSON document against a JSON schema
func ValidateSchemaBytes(document, schema []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &SchemaError{Violations: violations}
}
