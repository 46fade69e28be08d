//go:build unit
// +build unit

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanOptions struct {
	ServerURL        string   `json:"serverUrl,omitempty" validate:"required,url"`
	ReportFormats    []string `json:"reportFormats,omitempty" validate:"dive,oneof=dep5 spdx2 spdx2tv readmeoss unifiedreport"`
	PollMaxAttempts  int      `json:"pollMaxAttempts,omitempty" validate:"min=1"`
	CreateLicenseBom bool     `json:"createLicenseBom,omitempty"`
	BomFileName      string   `json:"bomFileName,omitempty" validate:"required_if=CreateLicenseBom true"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		validation, err := New()
		require.NoError(t, err)
		options := scanOptions{
			ServerURL:       "https://fossology.example/repo",
			ReportFormats:   []string{"spdx2tv", "readmeoss"},
			PollMaxAttempts: 10,
		}
		assert.NoError(t, validation.ValidateStruct(options))
	})

	t.Run("failed case - custom error messages", func(t *testing.T) {
		validation, err := New()
		require.NoError(t, err)
		options := scanOptions{
			ServerURL:        "https://fossology.example/repo",
			ReportFormats:    []string{"spdx2tv", "cyclonedx"},
			PollMaxAttempts:  1,
			CreateLicenseBom: true,
		}
		err = validation.ValidateStruct(options)
		assert.EqualError(t, err, "The reportFormats[1] must use the following values: dep5 spdx2 spdx2tv readmeoss unifiedreport. The bomFileName is required since the CreateLicenseBom is true.")
	})

	t.Run("failed case - default error messages", func(t *testing.T) {
		validation, err := New()
		require.NoError(t, err)
		err = validation.ValidateStruct(scanOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "serverUrl is a required field")
		assert.Contains(t, err.Error(), "pollMaxAttempts must be 1 or greater")

		err = validation.ValidateStruct(scanOptions{ServerURL: "fossology", PollMaxAttempts: 1})
		assert.EqualError(t, err, "serverUrl must be a valid URL.")
	})
}
