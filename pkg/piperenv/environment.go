package piperenv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/piper-oss/fossology-library/pkg/log"
)

// This file contains functions used to read/write pipeline environment data from/to disk.
// The content of a written file is the value. Values other than strings are
// stored as JSON in a file with the additional extension .json.

// SetResourceParameter sets a resource parameter in the environment stored in the file system
func SetResourceParameter(path, resourceName, paramName string, value interface{}) error {
	paramPath := filepath.Join(path, resourceName, paramName)
	if s, ok := value.(string); ok {
		return writeToDisk(paramPath, []byte(s))
	}
	content, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal resource parameter %v", paramName)
	}
	return writeToDisk(paramPath+".json", content)
}

// GetResourceParameter reads a resource parameter from the environment stored in the file system
func GetResourceParameter(path, resourceName, paramName string) string {
	paramPath := filepath.Join(path, resourceName, paramName)
	return readFromDisk(paramPath)
}

// SetParameter sets any parameter in the pipeline environment or another environment stored in the file system
func SetParameter(path, name, value string) error {
	paramPath := filepath.Join(path, name)
	return writeToDisk(paramPath, []byte(value))
}

// GetParameter reads any parameter from the pipeline environment or another environment stored in the file system
func GetParameter(path, name string) string {
	paramPath := filepath.Join(path, name)
	return readFromDisk(paramPath)
}

func writeToDisk(filename string, data []byte) error {

	if _, err := os.Stat(filepath.Dir(filename)); os.IsNotExist(err) {
		log.Entry().Debugf("Creating directory: %v", filepath.Dir(filename))
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %v", filepath.Dir(filename))
		}
	}

	if len(data) > 0 {
		log.Entry().Debugf("Writing file to disk: %v", filename)
		return os.WriteFile(filename, data, 0644)
	}
	return nil
}

func readFromDisk(filename string) string {
	log.Entry().Debugf("Reading file from disk: %v", filename)
	v, err := os.ReadFile(filename)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(v))
}
