package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/piper-oss/fossology-library/pkg/config/interpolation"
	"github.com/piper-oss/fossology-library/pkg/piperutils"
)

// EnvPrefix is the prefix of environment variables carrying step parameters.
const EnvPrefix = "PIPER_"

// Config defines the structure of the config files
type Config struct {
	General map[string]interface{}            `json:"general"`
	Stages  map[string]map[string]interface{} `json:"stages"`
	Steps   map[string]map[string]interface{} `json:"steps"`
}

// StepConfig defines the structure for merged step configuration
type StepConfig struct {
	Config map[string]interface{}
}

// StepFilters defines the filter parameters for the different sections
type StepFilters struct {
	All        []string
	General    []string
	Stages     []string
	Steps      []string
	Parameters []string
}

// ReadConfig loads config and returns its content
func (c *Config) ReadConfig(configuration io.ReadCloser) error {
	defer configuration.Close()

	content, err := io.ReadAll(configuration)
	if err != nil {
		return errors.Wrapf(err, "error reading %v", configuration)
	}

	err = yaml.Unmarshal(content, &c)
	if err != nil {
		return NewParseError(fmt.Sprintf("error unmarshalling %q: %v", content, err))
	}
	return nil
}

// GetStepConfig provides merged step configuration using defaults, config, if available
func (c *Config) GetStepConfig(flagValues map[string]interface{}, paramJSON string, configuration io.ReadCloser, defaults []io.ReadCloser, filters StepFilters, stageName, stepName string) (StepConfig, error) {
	var stepConfig StepConfig
	var d PipelineDefaults

	if configuration != nil {
		if err := c.ReadConfig(configuration); err != nil {
			switch err.(type) {
			case *ParseError:
				return StepConfig{}, errors.Wrap(err, "failed to parse custom pipeline configuration")
			default:
				//ignoring unavailability of config file since considered optional
			}
		}
	}

	if err := d.ReadPipelineDefaults(defaults); err != nil {
		switch err.(type) {
		case *ParseError:
			return StepConfig{}, errors.Wrap(err, "failed to parse pipeline default configuration")
		default:
			//ignoring unavailability of defaults since considered optional
		}
	}

	// first: read defaults & merge general -> steps (-> general -> steps ...)
	for _, def := range d.Defaults {
		stepConfig.mixIn(def.General, filters.General)
		stepConfig.mixIn(def.Steps[stepName], filters.Steps)
	}

	// second: read config & merge - general -> steps -> stages
	stepConfig.mixIn(c.General, filters.General)
	stepConfig.mixIn(c.Steps[stepName], filters.Steps)
	stepConfig.mixIn(c.Stages[stageName], filters.Stages)

	// third: merge parameters provided via env vars
	stepConfig.mixIn(envValues(filters.All), filters.All)

	// fourth: if parameters are provided in JSON format merge them
	if len(paramJSON) != 0 {
		var params map[string]interface{}
		if err := json.Unmarshal([]byte(paramJSON), &params); err != nil {
			return StepConfig{}, NewParseError(fmt.Sprintf("error unmarshalling parameters %q: %v", paramJSON, err))
		}
		stepConfig.mixIn(params, filters.Parameters)
	}

	// fifth: merge command line flags
	if flagValues != nil {
		stepConfig.mixIn(flagValues, filters.Parameters)
	}

	if err := interpolation.ResolveMap(stepConfig.Config); err != nil {
		return StepConfig{}, errors.Wrap(err, "failed to resolve step configuration")
	}

	return stepConfig, nil
}

// Decode copies the merged configuration into the options struct of a step.
// Keys are matched against the json tags, strings are converted where necessary.
func (s *StepConfig) Decode(options interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		Result:           options,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create configuration decoder")
	}
	if err := decoder.Decode(s.Config); err != nil {
		return errors.Wrap(err, "failed to decode step configuration")
	}
	return nil
}

// GetJSON returns JSON representation of an object
func GetJSON(data interface{}) (string, error) {

	result, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrapf(err, "error marshalling json: %v", err)
	}
	return string(result), nil
}

func envValues(filter []string) map[string]interface{} {
	vals := map[string]interface{}{}
	for _, param := range filter {
		if envVal := os.Getenv(EnvPrefix + param); len(envVal) != 0 {
			vals[param] = envVal
		}
	}
	return vals
}

func (s *StepConfig) mixIn(mergeData map[string]interface{}, filter []string) {

	if s.Config == nil {
		s.Config = map[string]interface{}{}
	}

	s.Config = filterMap(merge(s.Config, mergeData), filter)
}

func filterMap(data map[string]interface{}, filter []string) map[string]interface{} {
	result := map[string]interface{}{}

	if data == nil {
		data = map[string]interface{}{}
	}

	for key, value := range data {
		if len(filter) == 0 || piperutils.ContainsString(filter, key) {
			result[key] = value
		}
	}
	return result
}

func merge(base, overlay map[string]interface{}) map[string]interface{} {

	result := map[string]interface{}{}

	if base == nil {
		base = map[string]interface{}{}
	}

	for key, value := range base {
		result[key] = value
	}

	for key, value := range overlay {
		if val, ok := value.(map[string]interface{}); ok {
			if valBaseKey, ok := base[key].(map[string]interface{}); !ok {
				result[key] = merge(map[string]interface{}{}, val)
			} else {
				result[key] = merge(valBaseKey, val)
			}
		} else {
			result[key] = value
		}
	}
	return result
}
