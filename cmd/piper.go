package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/piper-oss/fossology-library/pkg/config"
	"github.com/piper-oss/fossology-library/pkg/log"
	"github.com/piper-oss/fossology-library/pkg/piperutils"
)

// GeneralConfigOptions contains all global configuration options of the fossy binary
type GeneralConfigOptions struct {
	CustomConfig   string
	DefaultConfig  []string // ordered list of default configurations, passed as path to yaml file
	ParametersJSON string
	StageName      string
	EnvRootPath    string
	Verbose        bool
	LogFormat      string
	NoTelemetry    bool
	CorrelationID  string
	SentryDsn      string
}

var rootCmd = &cobra.Command{
	Use:     "fossy",
	Version: piperutils.GetVersion(),
	Short:   "Scans artifacts for licenses with a Fossology server",
	Long: `
The fossy binary uploads artifacts to a Fossology server, runs the license
analysis agents on them and downloads the resulting reports.
It can be used within CI/CD systems as well as directly on a developer's machine.
`,
}

// GeneralConfig contains global configuration flags for the fossy binary
var GeneralConfig GeneralConfigOptions

// Execute is the starting point of the fossy command line tool
func Execute() {
	rootCmd.AddCommand(FossologyExecuteScanCommand())

	addRootFlags(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		log.SetErrorCategory(log.ErrorConfiguration)
		fmt.Println(err)
		os.Exit(1)
	}
}

func addRootFlags(rootCmd *cobra.Command) {
	correlationID := os.Getenv("PIPER_correlationID")
	if len(correlationID) == 0 {
		correlationID = uuid.New().String()
	}

	rootCmd.PersistentFlags().StringVar(&GeneralConfig.CustomConfig, "customConfig", ".pipeline/config.yml", "Path to the pipeline configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&GeneralConfig.DefaultConfig, "defaultConfig", nil, "Default configurations, passed as path to yaml file")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.ParametersJSON, "parametersJSON", os.Getenv("PIPER_parametersJSON"), "Parameters to be considered in JSON format")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.StageName, "stageName", os.Getenv("STAGE_NAME"), "Name of the stage for which configuration should be included")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.EnvRootPath, "envRootPath", ".pipeline", "Root path to the pipeline environment")
	rootCmd.PersistentFlags().BoolVarP(&GeneralConfig.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.LogFormat, "logFormat", "default", "Log format to use. Options: default, plain.")
	rootCmd.PersistentFlags().BoolVar(&GeneralConfig.NoTelemetry, "noTelemetry", false, "Disables error reporting to sentry")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.CorrelationID, "correlationID", correlationID, "ID for unique identification of a pipeline run")
	rootCmd.PersistentFlags().StringVar(&GeneralConfig.SentryDsn, "sentryDsn", os.Getenv("PIPER_sentryDsn"), "Sentry DSN errors are reported to")
}

// initHooks registers the sentry hook if a DSN is configured and telemetry is enabled.
func initHooks() {
	if len(GeneralConfig.SentryDsn) > 0 && !GeneralConfig.NoTelemetry {
		sentryHook := log.NewSentryHook(GeneralConfig.SentryDsn, GeneralConfig.CorrelationID)
		log.RegisterHook(&sentryHook)
	}
}

// PrepareConfig reads the step configuration and copies it into the options of the step.
// Sources with increasing precedence: defaults, config file, env vars, parametersJSON, flags.
// The pipeline environment only provides values no other source sets.
func PrepareConfig(cmd *cobra.Command, metadata *config.StepData, stepName string, options interface{}, openFile func(s string) (io.ReadCloser, error)) error {
	filters := metadata.GetParameterFilters()
	flagValues := config.AvailableFlagValues(cmd, &filters)

	var myConfig config.Config

	var customConfig io.ReadCloser
	if exists, err := fileExists(GeneralConfig.CustomConfig); err == nil && exists {
		customConfig, err = openFile(GeneralConfig.CustomConfig)
		if err != nil {
			return errors.Wrapf(err, "config: open configuration file '%v' failed", GeneralConfig.CustomConfig)
		}
	} else {
		log.Entry().Infof("Project config: NONE ('%v' does not exist)", GeneralConfig.CustomConfig)
	}

	defaultConfig := []io.ReadCloser{}
	for _, f := range GeneralConfig.DefaultConfig {
		fc, err := openFile(f)
		// only create error for non-default values
		if err != nil && f != ".pipeline/defaults.yaml" {
			return errors.Wrapf(err, "config: getting defaults failed: '%v'", f)
		}
		if err == nil {
			defaultConfig = append(defaultConfig, fc)
			log.Entry().Infof("Project defaults: '%v'", f)
		}
	}

	stepConfig, err := myConfig.GetStepConfig(flagValues, GeneralConfig.ParametersJSON, customConfig, defaultConfig, filters, GeneralConfig.StageName, stepName)
	if err != nil {
		return errors.Wrap(err, "retrieving step configuration failed")
	}
	metadata.ResolveAliases(&stepConfig)

	for name, value := range metadata.GetResourceParameters(GeneralConfig.EnvRootPath, "commonPipelineEnvironment") {
		if _, ok := stepConfig.Config[name]; !ok {
			stepConfig.Config[name] = value
		}
	}

	for _, secret := range metadata.SecretParameters() {
		if value, ok := stepConfig.Config[secret].(string); ok {
			log.RegisterSecret(value)
		}
	}

	config.MarkFlagsWithValue(cmd, stepConfig)

	return stepConfig.Decode(options)
}

func openPiperFile(name string) (io.ReadCloser, error) {
	if strings.HasPrefix(name, "ENV:") {
		return io.NopCloser(strings.NewReader(os.Getenv(strings.TrimPrefix(name, "ENV:")))), nil
	}
	return os.Open(name)
}

func fileExists(name string) (bool, error) {
	if strings.HasPrefix(name, "ENV:") {
		return len(os.Getenv(strings.TrimPrefix(name, "ENV:"))) > 0, nil
	}
	return piperutils.Files{}.FileExists(name)
}
