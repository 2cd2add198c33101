package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FolderConfig maps one watched folder to an API endpoint. Values are copied
// into every task, so a loaded FolderConfig is never mutated.
type FolderConfig struct {
	FolderPath   string         `json:"folder_path" yaml:"folder_path" validate:"required"`
	OutputFolder string         `json:"output_folder,omitempty" yaml:"output_folder,omitempty"`
	Recursive    bool           `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	Endpoint     EndpointConfig `json:"endpoint" yaml:"endpoint"`
}

// EndpointConfig is the remote job URL plus the parameters sent with every job.
type EndpointConfig struct {
	URL             string          `json:"url" yaml:"url" validate:"required,url"`
	JobInstructions JobInstructions `json:"job_instructions_json,omitempty" yaml:"job_instructions_json,omitempty"`
	// Payload is the historical name of job_instructions_json
	Payload JobInstructions `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Instructions returns the configured job instructions, preferring
// job_instructions_json over the legacy payload key.
func (e EndpointConfig) Instructions() JobInstructions {
	if len(e.JobInstructions) > 0 {
		return e.JobInstructions.Clone()
	}
	return e.Payload.Clone()
}

// ProcessedFolder returns the subfolder successful sources are moved into
func (fc FolderConfig) ProcessedFolder() string {
	return joinPath(fc.FolderPath, ProcessedSubfolderName)
}

// JobInstructions is an opaque mapping handed to the remote API unchanged.
// Values are one of: nil, bool, string, json.Number, int/float (YAML),
// []any or map[string]any.
type JobInstructions map[string]any

// UnmarshalJSON keeps numbers as json.Number so they are sent back exactly as written
func (ji *JobInstructions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*ji = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("job instructions must be a JSON object: %w", err)
	}
	*ji = m
	return nil
}

// UnmarshalYAML accepts a mapping node or null
func (ji *JobInstructions) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*ji = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("job instructions must be a mapping (line %d)", value.Line)
	}

	var m map[string]any
	if err := value.Decode(&m); err != nil {
		return err
	}
	*ji = m
	return nil
}

// Clone returns a deep copy
func (ji JobInstructions) Clone() JobInstructions {
	if ji == nil {
		return nil
	}
	out := make(JobInstructions, len(ji))
	for k, v := range ji {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return t
	}
}
