package ingestion

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var documentSchemaJSON []byte

var (
	documentSchema     *gojsonschema.Schema
	documentSchemaErr  error
	documentSchemaOnce sync.Once
)

func loadDocumentSchema() (*gojsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		documentSchema, documentSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchemaJSON))
	})
	return documentSchema, documentSchemaErr
}

// validateDocument checks a generically decoded document against the book schema.
func validateDocument(doc any) error {
	schema, err := loadDocumentSchema()
	if err != nil {
		return fmt.Errorf("loading document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
}
