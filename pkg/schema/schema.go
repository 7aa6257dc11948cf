// Package schema validates flow configurations against the declarative JSON
// schemas published for each orchestration engine.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/keboola/flowkit/pkg/models"
)

//go:embed flow-schema.json
var orchestratorSchema []byte

//go:embed conditional-flow-schema.json
var conditionalSchema []byte

// ErrSchemaViolation is returned when a flow configuration does not conform
// to its engine's schema. The error message lists each violation with its
// field path.
var ErrSchemaViolation = errors.New("flow configuration violates schema")

func schemaDocument(flowType models.FlowType) ([]byte, error) {
	switch flowType {
	case models.FlowTypeOrchestrator:
		return orchestratorSchema, nil
	case models.FlowTypeConditional:
		return conditionalSchema, nil
	default:
		return nil, models.ErrInvalidFlowType
	}
}

// ValidateFlowConfiguration checks the assembled {phases, tasks} document
// against the schema for the given flow type.
func ValidateFlowConfiguration(configuration any, flowType models.FlowType) error {
	doc, err := schemaDocument(flowType)
	if err != nil {
		return err
	}

	schemaLoader := gojsonschema.NewBytesLoader(doc)
	documentLoader := gojsonschema.NewGoLoader(configuration)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			violations = append(violations, violation.String())
		}

		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(violations, "; "))
	}

	return nil
}

// AsMarkdown renders the schema for the given flow type as a fenced JSON
// block, for surfacing to agents that need to author configurations.
func AsMarkdown(flowType models.FlowType) (string, error) {
	doc, err := schemaDocument(flowType)
	if err != nil {
		return "", err
	}

	var pretty map[string]any
	if err := json.Unmarshal(doc, &pretty); err != nil {
		return "", fmt.Errorf("embedded schema is not valid JSON: %w", err)
	}

	rendered, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return "", err
	}

	return "```json\n" + string(rendered) + "\n```", nil
}
