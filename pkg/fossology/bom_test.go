//go:build unit
// +build unit

package fossology

import (
	"bytes"
	"encoding/json"
	"testing"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLicenseBOM(t *testing.T) {
	summary := &Summary{ID: 42, UploadName: "project.tar.gz", MainLicense: "MIT", FilesToBeCleared: 1, FilesCleared: 2, ClearingStatus: "Open"}
	findings := []FileLicenses{
		{FilePath: "project/src/main.c", Findings: Findings{Scanner: []string{"GPL-2.0-only", "MIT"}, Conclusion: []string{"MIT"}}},
		{FilePath: "project/LICENSE", Findings: Findings{Scanner: []string{"MIT", "MIT", "No_license_found"}}},
		{FilePath: "project/dual.c", Findings: Findings{Conclusion: []string{"MIT OR Apache-2.0"}}},
		{FilePath: "project/README", Findings: Findings{Scanner: []string{"No_license_found"}}},
	}

	bom := CreateLicenseBOM(summary, findings)

	require.NotNil(t, bom.Metadata)
	assert.Equal(t, "project.tar.gz", bom.Metadata.Component.Name)
	assert.Equal(t, cdx.ComponentTypeApplication, bom.Metadata.Component.Type)
	assert.Equal(t, "pkg:generic/project.tar.gz", bom.Metadata.Component.PackageURL)
	assert.Equal(t, &cdx.Licenses{{License: &cdx.License{Name: "MIT"}}}, bom.Metadata.Component.Licenses)
	assert.Contains(t, *bom.Metadata.Properties, cdx.Property{Name: "fossology:filesToBeCleared", Value: "1"})

	require.NotNil(t, bom.Components)
	components := *bom.Components
	require.Len(t, components, 4)
	assert.Equal(t, "project/src/main.c", components[0].Name)
	assert.Equal(t, cdx.ComponentTypeFile, components[0].Type)
	assert.Equal(t, &cdx.Licenses{{License: &cdx.License{Name: "MIT"}}}, components[0].Licenses)
	assert.Equal(t, &cdx.Licenses{{License: &cdx.License{Name: "MIT"}}}, components[1].Licenses)
	assert.Equal(t, &cdx.Licenses{{Expression: "MIT OR Apache-2.0"}}, components[2].Licenses)
	assert.Nil(t, components[3].Licenses)

	t.Run("write", func(t *testing.T) {
		var buffer bytes.Buffer
		require.NoError(t, WriteLicenseBOM(&buffer, bom))

		var written map[string]interface{}
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &written))
		assert.Equal(t, "CycloneDX", written["bomFormat"])
		assert.Len(t, written["components"], 4)
		assert.Contains(t, buffer.String(), "\n  \"bomFormat\": \"CycloneDX\"")
	})
}

func TestCreateLicenseBOMWithoutSummary(t *testing.T) {
	bom := CreateLicenseBOM(nil, nil)

	assert.Nil(t, bom.Metadata)
	require.NotNil(t, bom.Components)
	assert.Empty(t, *bom.Components)
}
