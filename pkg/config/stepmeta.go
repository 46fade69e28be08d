package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/piper-oss/fossology-library/pkg/log"
	"github.com/piper-oss/fossology-library/pkg/piperenv"
)

// StepData defines the metadata for a step, like step descriptions, parameters, ...
type StepData struct {
	Metadata StepMetadata `json:"metadata"`
	Spec     StepSpec     `json:"spec"`
}

// StepMetadata defines the metadata for a step, like step descriptions, parameters, ...
type StepMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StepSpec defines the spec details for a step, like step inputs and outputs
type StepSpec struct {
	Inputs  StepInputs  `json:"inputs,omitempty"`
	Outputs StepOutputs `json:"outputs,omitempty"`
}

// StepInputs defines the parameters a step accepts
type StepInputs struct {
	Parameters []StepParameters `json:"params"`
}

// StepParameters defines the parameters for a step
type StepParameters struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	ResourceRef []ResourceReference `json:"resourceRef,omitempty"`
	Scope       []string            `json:"scope"`
	Type        string              `json:"type"`
	Mandatory   bool                `json:"mandatory,omitempty"`
	Default     interface{}         `json:"default,omitempty"`
	Aliases     []Alias             `json:"aliases,omitempty"`
	Secret      bool                `json:"secret,omitempty"`
}

// ResourceReference defines the parameters of a resource reference
type ResourceReference struct {
	Name  string `json:"name"`
	Param string `json:"param,omitempty"`
}

// Alias defines a step input parameter alias
type Alias struct {
	Name       string `json:"name,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// StepResources defines the resources written by a step, e.g. the pipeline environment
type StepResources struct {
	Name       string                   `json:"name"`
	Type       string                   `json:"type,omitempty"`
	Parameters []map[string]interface{} `json:"params,omitempty"`
}

// StepOutputs defines the outputs of a step step, typically one or multiple resources
type StepOutputs struct {
	Resources []StepResources `json:"resources,omitempty"`
}

// ReadPipelineStepData loads step definition in yaml format
func (m *StepData) ReadPipelineStepData(metadata io.ReadCloser) error {
	defer metadata.Close()
	content, err := io.ReadAll(metadata)
	if err != nil {
		return errors.Wrapf(err, "error reading %v", metadata)
	}

	err = yaml.Unmarshal(content, &m)
	if err != nil {
		return NewParseError(fmt.Sprintf("error unmarshalling step metadata: %v", err))
	}
	return nil
}

// GetParameterFilters retrieves all scope dependent parameter filters
func (m *StepData) GetParameterFilters() StepFilters {
	filters := StepFilters{All: []string{"verbose"}, General: []string{"verbose"}, Steps: []string{"verbose"}, Stages: []string{"verbose"}, Parameters: []string{"verbose"}}
	for _, param := range m.Spec.Inputs.Parameters {
		parameterKeys := []string{param.Name}
		for _, alias := range param.Aliases {
			parameterKeys = append(parameterKeys, alias.Name)
		}
		filters.All = append(filters.All, parameterKeys...)
		for _, scope := range param.Scope {
			switch scope {
			case "GENERAL":
				filters.General = append(filters.General, parameterKeys...)
			case "STEPS":
				filters.Steps = append(filters.Steps, parameterKeys...)
			case "STAGES":
				filters.Stages = append(filters.Stages, parameterKeys...)
			case "PARAMETERS":
				filters.Parameters = append(filters.Parameters, parameterKeys...)
			}
		}
	}
	return filters
}

// ResolveAliases moves values configured under an alias to the name of the parameter.
// A value configured under the name itself takes precedence.
func (m *StepData) ResolveAliases(stepConfig *StepConfig) {
	for _, param := range m.Spec.Inputs.Parameters {
		for _, alias := range param.Aliases {
			value, ok := stepConfig.Config[alias.Name]
			if !ok {
				continue
			}
			if alias.Deprecated {
				log.Entry().Warnf("Parameter %v is deprecated, please use %v instead", alias.Name, param.Name)
			}
			if _, exists := stepConfig.Config[param.Name]; !exists {
				stepConfig.Config[param.Name] = value
			}
			delete(stepConfig.Config, alias.Name)
		}
	}
}

// GetResourceParameters retrieves parameters from a named pipeline resource with a defined path
func (m *StepData) GetResourceParameters(path, name string) map[string]interface{} {
	resourceParams := map[string]interface{}{}

	for _, param := range m.Spec.Inputs.Parameters {
		for _, res := range param.ResourceRef {
			if res.Name == name {
				if val := getParameterValue(path, res, param); val != nil {
					resourceParams[param.Name] = val
					break
				}
			}
		}
	}

	return resourceParams
}

// SecretParameters returns the names of all parameters flagged as secret
func (m *StepData) SecretParameters() []string {
	secrets := []string{}
	for _, param := range m.Spec.Inputs.Parameters {
		if param.Secret {
			secrets = append(secrets, param.Name)
		}
	}
	return secrets
}

func getParameterValue(path string, res ResourceReference, param StepParameters) interface{} {
	paramName := res.Param
	if param.Type != "string" {
		paramName += ".json"
	}
	if val := piperenv.GetResourceParameter(path, res.Name, paramName); len(val) > 0 {
		if param.Type != "string" {
			var unmarshalledValue interface{}
			err := json.Unmarshal([]byte(val), &unmarshalledValue)
			if err != nil {
				log.Entry().Debugf("Failed to unmarshal: %v", val)
			}
			return unmarshalledValue
		}
		return val
	}
	return nil
}
