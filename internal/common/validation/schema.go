package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	apperrors "business-research/internal/common/errors"
	"business-research/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput validates a decoded document against a JSON schema.
func ValidateInput(input interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return validate(compiled, gojsonschema.NewGoLoader(input))
}

func validate(schema *gojsonschema.Schema, document gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := schema.Validate(document)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return &ValidationResult{Valid: result.Valid(), Errors: errs}, nil
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// JobValidator checks job variables against the input schemas of an
// activity registry. Schemas are compiled once per task type.
type JobValidator struct {
	registry *registry.ActivityRegistry

	mu       sync.Mutex
	compiled map[string]*gojsonschema.Schema
}

func NewJobValidator(reg *registry.ActivityRegistry) *JobValidator {
	return &JobValidator{
		registry: reg,
		compiled: make(map[string]*gojsonschema.Schema),
	}
}

// Validate returns an error wrapping ErrInvalidInput when variables do not
// satisfy the input schema registered for taskType.
func (v *JobValidator) Validate(taskType string, variables []byte) error {
	schema, err := v.schema(taskType)
	if err != nil {
		return err
	}

	if !json.Valid(variables) {
		return fmt.Errorf("%w: job variables are not valid JSON", apperrors.ErrInvalidInput)
	}

	result, err := validate(schema, gojsonschema.NewBytesLoader(variables))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

func (v *JobValidator) schema(taskType string) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[taskType]; ok {
		return s, nil
	}

	activity, ok := v.registry.Find(taskType)
	if !ok {
		return nil, fmt.Errorf("no activity registered for task type %q", taskType)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(activity.InputSchema))
	if err != nil {
		return nil, fmt.Errorf("invalid input schema for %q: %w", taskType, err)
	}
	v.compiled[taskType] = s
	return s, nil
}
