// Package api embeds the OpenAPI description of the HTTP interface.
package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// GetSwagger parses and validates the embedded document.
func GetSwagger(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}

	if err = doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}

	return doc, nil
}

// JSON renders the validated document for /openapi.json.
func JSON(ctx context.Context) ([]byte, error) {
	doc, err := GetSwagger(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
