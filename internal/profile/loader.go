package profile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// ErrUnavailable means no profile file exists. The session then runs in
// depersonalized mode, which is a fully supported state.
var ErrUnavailable = errors.New("user profile unavailable")

// ValidationError reports a single broken profile field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile field %q: %s", e.Field, e.Reason)
}

// Load reads and validates a YAML profile. A missing file is
// ErrUnavailable; structural or field problems are ValidationErrors.
func Load(path string) (*domain.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrUnavailable
		}
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	// A first pass through a generic map pins type errors to the field
	// that caused them, which a struct decode cannot do.
	var loose map[string]any
	if err := yaml.Unmarshal(data, &loose); err != nil {
		return nil, &ValidationError{Field: "profile", Reason: "malformed YAML structure"}
	}
	if err := validate(loose); err != nil {
		return nil, err
	}

	var p domain.UserProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &ValidationError{Field: "profile", Reason: err.Error()}
	}
	return &p, nil
}

func validate(loose map[string]any) error {
	for _, field := range []string{"name", "role"} {
		v, ok := loose[field]
		if !ok || v == nil {
			return &ValidationError{Field: field, Reason: "missing required field"}
		}
		if _, ok := v.(string); !ok {
			return &ValidationError{Field: field, Reason: "must be a string"}
		}
	}

	if prefs, ok := loose["preferences"]; ok && prefs != nil {
		m, ok := prefs.(map[string]any)
		if !ok {
			return &ValidationError{Field: "preferences", Reason: "must be a mapping"}
		}
		for _, field := range []string{"recommendations", "emoji"} {
			if v, ok := m[field]; ok && v != nil {
				if _, ok := v.(bool); !ok {
					return &ValidationError{Field: "preferences." + field, Reason: "must be a boolean"}
				}
			}
		}
	}

	if resp, ok := loose["responsibility"]; ok && resp != nil {
		m, ok := resp.(map[string]any)
		if !ok {
			return &ValidationError{Field: "responsibility", Reason: "must be a mapping"}
		}
		for _, field := range []string{"services", "critical_errors"} {
			if v, ok := m[field]; ok && v != nil {
				list, ok := v.([]any)
				if !ok {
					return &ValidationError{Field: "responsibility." + field, Reason: "must be a list of strings"}
				}
				for _, item := range list {
					if _, ok := item.(string); !ok {
						return &ValidationError{Field: "responsibility." + field, Reason: "must be a list of strings"}
					}
				}
			}
		}
	}

	if wh, ok := loose["working_hours"]; ok && wh != nil {
		m, ok := wh.(map[string]any)
		if !ok {
			return &ValidationError{Field: "working_hours", Reason: "must be a mapping"}
		}
		for _, field := range []string{"start", "end"} {
			v, ok := m[field]
			if !ok || v == nil {
				return &ValidationError{Field: "working_hours." + field, Reason: "missing required field"}
			}
			s, ok := v.(string)
			if !ok {
				return &ValidationError{Field: "working_hours." + field, Reason: "must be an HH:MM string"}
			}
			if _, err := time.Parse("15:04", s); err != nil {
				return &ValidationError{Field: "working_hours." + field, Reason: fmt.Sprintf("%q is not HH:MM", s)}
			}
		}
	}
	return nil
}
