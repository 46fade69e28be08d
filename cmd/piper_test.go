//go:build unit
// +build unit

package cmd

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piper-oss/fossology-library/pkg/config"
	"github.com/piper-oss/fossology-library/pkg/piperenv"
)

type stepOptions struct {
	ServerURL     string   `json:"serverUrl,omitempty"`
	FilePath      string   `json:"filePath,omitempty"`
	ReportFormats []string `json:"reportFormats,omitempty"`
}

func openFileMock(name string) (io.ReadCloser, error) {
	var r string
	switch name {
	case "testDefaults.yml":
		r = "general:\n  serverUrl: https://fossology.example/repo"
	case "testDefaultsInvalid.yml":
		r = "invalid yaml"
	default:
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(r)), nil
}

func testMetadata() config.StepData {
	return config.StepData{
		Spec: config.StepSpec{
			Inputs: config.StepInputs{
				Parameters: []config.StepParameters{
					{Name: "serverUrl", Scope: []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"}, Type: "string", Aliases: []config.Alias{{Name: "fossologyServerUrl"}}},
					{Name: "filePath", Scope: []string{"PARAMETERS"}, Type: "string", ResourceRef: []config.ResourceReference{{Name: "commonPipelineEnvironment", Param: "mtarFilePath"}}},
					{Name: "reportFormats", Scope: []string{"PARAMETERS"}, Type: "[]string"},
				},
			},
		},
	}
}

func testCommand(options *stepOptions) *cobra.Command {
	testCmd := &cobra.Command{Use: "test", Short: "This is just a test"}
	testCmd.Flags().StringVar(&options.ServerURL, "serverUrl", "", "test usage")
	testCmd.Flags().StringVar(&options.FilePath, "filePath", "", "test usage")
	testCmd.Flags().StringSliceVar(&options.ReportFormats, "reportFormats", []string{"spdx2tv"}, "test usage")
	return testCmd
}

func TestPrepareConfig(t *testing.T) {
	generalConfigBak := GeneralConfig
	defer func() { GeneralConfig = generalConfigBak }()

	GeneralConfig = GeneralConfigOptions{
		CustomConfig:  "not-existing/config.yml",
		DefaultConfig: []string{"testDefaults.yml"},
		EnvRootPath:   t.TempDir(),
	}

	t.Run("using parametersJSON", func(t *testing.T) {
		GeneralConfig.ParametersJSON = `{"serverUrl": "https://json.example/repo", "reportFormats": ["spdx2", "readmeoss"]}`
		defer func() { GeneralConfig.ParametersJSON = "" }()
		testOptions := stepOptions{}
		metadata := testMetadata()

		err := PrepareConfig(testCommand(&testOptions), &metadata, "testStep", &testOptions, openFileMock)

		require.NoError(t, err)
		assert.Equal(t, "https://json.example/repo", testOptions.ServerURL)
		assert.Equal(t, []string{"spdx2", "readmeoss"}, testOptions.ReportFormats)
	})

	t.Run("using defaults", func(t *testing.T) {
		testOptions := stepOptions{}
		testCmd := testCommand(&testOptions)
		metadata := testMetadata()

		err := PrepareConfig(testCmd, &metadata, "testStep", &testOptions, openFileMock)

		require.NoError(t, err)
		assert.Equal(t, "https://fossology.example/repo", testOptions.ServerURL)
		//assert that flag has been marked as changed
		testCmd.Flags().VisitAll(func(pflag *flag.Flag) {
			if pflag.Name == "serverUrl" {
				assert.True(t, pflag.Changed, "flag should be marked as changed")
			}
		})
	})

	t.Run("flags take precedence", func(t *testing.T) {
		testOptions := stepOptions{}
		testCmd := testCommand(&testOptions)
		require.NoError(t, testCmd.Flags().Set("serverUrl", "https://flag.example/repo"))
		metadata := testMetadata()

		err := PrepareConfig(testCmd, &metadata, "testStep", &testOptions, openFileMock)

		require.NoError(t, err)
		assert.Equal(t, "https://flag.example/repo", testOptions.ServerURL)
	})

	t.Run("alias and pipeline environment", func(t *testing.T) {
		GeneralConfig.ParametersJSON = `{"fossologyServerUrl": "https://alias.example/repo"}`
		GeneralConfig.DefaultConfig = nil
		defer func() {
			GeneralConfig.ParametersJSON = ""
			GeneralConfig.DefaultConfig = []string{"testDefaults.yml"}
		}()
		require.NoError(t, piperenv.SetResourceParameter(GeneralConfig.EnvRootPath, "commonPipelineEnvironment", "mtarFilePath", "target/app.mtar"))
		testOptions := stepOptions{}
		metadata := testMetadata()

		err := PrepareConfig(testCommand(&testOptions), &metadata, "testStep", &testOptions, openFileMock)

		require.NoError(t, err)
		assert.Equal(t, "https://alias.example/repo", testOptions.ServerURL)
		assert.Equal(t, "target/app.mtar", testOptions.FilePath)
	})

	t.Run("error case", func(t *testing.T) {
		GeneralConfig.DefaultConfig = []string{"testDefaultsInvalid.yml"}
		defer func() { GeneralConfig.DefaultConfig = []string{"testDefaults.yml"} }()
		testOptions := stepOptions{}
		metadata := testMetadata()

		err := PrepareConfig(testCommand(&testOptions), &metadata, "testStep", &testOptions, openFileMock)

		assert.Contains(t, err.Error(), "retrieving step configuration failed")
	})

	t.Run("missing defaults file", func(t *testing.T) {
		GeneralConfig.DefaultConfig = []string{"missing.yml"}
		defer func() { GeneralConfig.DefaultConfig = []string{"testDefaults.yml"} }()
		testOptions := stepOptions{}
		metadata := testMetadata()

		err := PrepareConfig(testCommand(&testOptions), &metadata, "testStep", &testOptions, openFileMock)

		assert.EqualError(t, err, "config: getting defaults failed: 'missing.yml': file not found")
	})
}

func TestFileExists(t *testing.T) {
	t.Setenv("PIPER_TEST_CONFIG", "general:\n  verbose: true")

	exists, err := fileExists("ENV:PIPER_TEST_CONFIG")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = fileExists("ENV:PIPER_TEST_CONFIG_MISSING")
	assert.NoError(t, err)
	assert.False(t, exists)

	content, err := openPiperFile("ENV:PIPER_TEST_CONFIG")
	require.NoError(t, err)
	data, _ := io.ReadAll(content)
	assert.Equal(t, "general:\n  verbose: true", string(data))
}
