// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

//go:embed activities.json
var defaultRegistry []byte

var activityIDPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Default returns the registry of job types built into this binary.
func Default() (*ActivityRegistry, error) {
	return Parse(defaultRegistry)
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("invalid activity registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Problems lists every structural issue in the registry. An empty result
// means the registry is usable.
func (r *ActivityRegistry) Problems() []string {
	var problems []string
	seen := make(map[string]bool, len(r.Activities))

	for _, a := range r.Activities {
		if !activityIDPattern.MatchString(a.ID) {
			problems = append(problems, fmt.Sprintf("activity %q: id must be kebab-case", a.ID))
		}
		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %q: taskType is required", a.ID))
		}
		if seen[a.TaskType] {
			problems = append(problems, fmt.Sprintf("activity %q: duplicate taskType %q", a.ID, a.TaskType))
		}
		seen[a.TaskType] = true

		if _, err := a.TimeoutDuration(); err != nil {
			problems = append(problems, fmt.Sprintf("activity %q: invalid timeout %q", a.ID, a.Timeout))
		}
		if len(a.InputSchema) == 0 {
			problems = append(problems, fmt.Sprintf("activity %q: inputSchema is required", a.ID))
		}
	}
	return problems
}

// Update sets one field of the activity with the given id and stamps
// LastUpdated.
func (r *ActivityRegistry) Update(id, field, value string) error {
	var activity *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			activity = &r.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		activity.ImplementationStatus = value
	case "version":
		activity.Version = value
	case "displayName":
		activity.DisplayName = value
	case "description":
		activity.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Save writes the registry as indented JSON, creating parent directories.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
