package config

import (
	"fmt"
	"path/filepath"

	"github.com/piper-oss/fossology-library/pkg/piperenv"
)

// InfluxField is the constant for an Inflx field
const InfluxField = "field"

// InfluxTag is the constant for an Inflx field
const InfluxTag = "tag"

// InfluxMetricContent defines the content of an Inflx metric
type InfluxMetricContent struct {
	Measurement string
	ValType     string
	Name        string
	Value       interface{}
}

// PersistInfluxMetrics writes every metric below <path>/<resourceName>/<measurement>/<valType>s/<name>.
// All metrics are attempted, the number of failed ones is returned with the last error.
func PersistInfluxMetrics(path, resourceName string, metrics []InfluxMetricContent) (int, error) {
	errCount := 0
	var lastErr error
	for _, metric := range metrics {
		err := piperenv.SetResourceParameter(path, resourceName, filepath.Join(metric.Measurement, fmt.Sprintf("%vs", metric.ValType), metric.Name), metric.Value)
		if err != nil {
			errCount++
			lastErr = err
		}
	}
	return errCount, lastErr
}
