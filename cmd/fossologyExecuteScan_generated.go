package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/piper-oss/fossology-library/pkg/config"
	"github.com/piper-oss/fossology-library/pkg/log"
	"github.com/piper-oss/fossology-library/pkg/piperenv"
)

type fossologyExecuteScanOptions struct {
	ServerURL             string   `json:"serverUrl,omitempty" validate:"required,url"`
	Token                 string   `json:"token,omitempty" validate:"required"`
	FilePath              string   `json:"filePath,omitempty" validate:"required"`
	FileName              string   `json:"fileName,omitempty"`
	FolderName            string   `json:"folderName,omitempty"`
	UploadDescription     string   `json:"uploadDescription,omitempty"`
	ReuseExisting         bool     `json:"reuseExisting,omitempty"`
	Analysis              []string `json:"analysis,omitempty"`
	Decider               []string `json:"decider,omitempty"`
	LicenseAgents         []string `json:"licenseAgents,omitempty"`
	IncludeContainers     bool     `json:"includeContainers,omitempty"`
	ReportFormats         []string `json:"reportFormats,omitempty"`
	ReportDirectory       string   `json:"reportDirectory,omitempty"`
	CreateLicenseBom      bool     `json:"createLicenseBom,omitempty"`
	DeleteUpload          bool     `json:"deleteUpload,omitempty"`
	FailOnUnclearedFiles  bool     `json:"failOnUnclearedFiles,omitempty"`
	PollMaxAttempts       int      `json:"pollMaxAttempts,omitempty" validate:"gte=0"`
	PollIntervalSeconds   int      `json:"pollIntervalSeconds,omitempty" validate:"gte=1"`
	TimeoutMinutes        int      `json:"timeoutMinutes,omitempty" validate:"gte=0"`
	RequestTimeoutSeconds int      `json:"requestTimeoutSeconds,omitempty" validate:"gte=0"`
	MaxRetries            int      `json:"maxRetries,omitempty" validate:"gte=0"`
}

type fossologyExecuteScanCommonPipelineEnvironment struct {
	custom struct {
		fossologyUploadID      int
		fossologyJobID         int
		fossologyReportFiles   []string
		fossologyClearingState string
	}
}

func (p *fossologyExecuteScanCommonPipelineEnvironment) persist(path, resourceName string) {
	content := []struct {
		category string
		name     string
		value    interface{}
	}{
		{category: "custom", name: "fossologyUploadId", value: p.custom.fossologyUploadID},
		{category: "custom", name: "fossologyJobId", value: p.custom.fossologyJobID},
		{category: "custom", name: "fossologyReportFiles", value: p.custom.fossologyReportFiles},
		{category: "custom", name: "fossologyClearingState", value: p.custom.fossologyClearingState},
	}

	errCount := 0
	for _, param := range content {
		err := piperenv.SetResourceParameter(path, resourceName, param.category+"/"+param.name, param.value)
		if err != nil {
			log.Entry().WithError(err).Error("Error persisting piper environment.")
			errCount++
		}
	}
	if errCount > 0 {
		log.Entry().Error("failed to persist Piper environment")
	}
}

type fossologyExecuteScanInflux struct {
	fossology_data struct {
		fields struct {
			filesToBeCleared int
			filesCleared     int
			uniqueLicenses   int
			copyrightCount   int
			reportCount      int
		}
		tags struct {
			folder string
		}
	}
}

func (i *fossologyExecuteScanInflux) persist(path, resourceName string) {
	measurementContent := []config.InfluxMetricContent{
		{ValType: config.InfluxField, Measurement: "fossology_data", Name: "filesToBeCleared", Value: i.fossology_data.fields.filesToBeCleared},
		{ValType: config.InfluxField, Measurement: "fossology_data", Name: "filesCleared", Value: i.fossology_data.fields.filesCleared},
		{ValType: config.InfluxField, Measurement: "fossology_data", Name: "uniqueLicenses", Value: i.fossology_data.fields.uniqueLicenses},
		{ValType: config.InfluxField, Measurement: "fossology_data", Name: "copyrightCount", Value: i.fossology_data.fields.copyrightCount},
		{ValType: config.InfluxField, Measurement: "fossology_data", Name: "reportCount", Value: i.fossology_data.fields.reportCount},
		{ValType: config.InfluxTag, Measurement: "fossology_data", Name: "folder", Value: i.fossology_data.tags.folder},
	}

	if errCount, err := config.PersistInfluxMetrics(path, resourceName, measurementContent); errCount > 0 {
		log.Entry().WithError(err).Error("Error persisting influx environment.")
		os.Exit(1)
	}
}

var myFossologyExecuteScanOptions fossologyExecuteScanOptions

// FossologyExecuteScanCommand Uploads an artifact to Fossology, runs the license analysis and downloads the reports.
func FossologyExecuteScanCommand() *cobra.Command {
	const STEP_NAME = "fossologyExecuteScan"

	metadata := fossologyExecuteScanMetadata()
	var commonPipelineEnvironment fossologyExecuteScanCommonPipelineEnvironment
	var influx fossologyExecuteScanInflux

	var createFossologyExecuteScanCmd = &cobra.Command{
		Use:   STEP_NAME,
		Short: "Uploads an artifact to Fossology, runs the license analysis and downloads the reports.",
		Long: `Uploads an artifact to a Fossology server, runs the configured analysis agents and deciders on it,
waits until the license findings are available and downloads the requested reports.

Reports are written to the report directory as ` + "`" + `fossology_<uploadId>_<format>.<extension>` + "`" + `.
SPDX reports are inspected and their license statistics are logged. Optionally a CycloneDX
license BOM is created from the license findings.

An existing upload with the same file name in the target folder can be reused instead of uploading the artifact again.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetStepName(STEP_NAME)
			log.SetVerbose(GeneralConfig.Verbose)
			log.SetFormatter(GeneralConfig.LogFormat == "plain")

			path, _ := os.Getwd()
			fatalHook := &log.FatalHook{CorrelationID: GeneralConfig.CorrelationID, Path: path}
			log.RegisterHook(fatalHook)

			err := PrepareConfig(cmd, &metadata, STEP_NAME, &myFossologyExecuteScanOptions, openPiperFile)
			if err != nil {
				log.SetErrorCategory(log.ErrorConfiguration)
				return err
			}
			initHooks()
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			handler := func() {
				commonPipelineEnvironment.persist(GeneralConfig.EnvRootPath, "commonPipelineEnvironment")
				influx.persist(GeneralConfig.EnvRootPath, "influx")
			}
			log.DeferExitHandler(handler)
			defer handler()
			fossologyExecuteScan(myFossologyExecuteScanOptions, &commonPipelineEnvironment, &influx)
			log.Entry().Info("SUCCESS")
		},
	}

	addFossologyExecuteScanFlags(createFossologyExecuteScanCmd, &myFossologyExecuteScanOptions)
	return createFossologyExecuteScanCmd
}

func addFossologyExecuteScanFlags(cmd *cobra.Command, stepConfig *fossologyExecuteScanOptions) {
	cmd.Flags().StringVar(&stepConfig.ServerURL, "serverUrl", os.Getenv("PIPER_serverUrl"), "The URL of the Fossology server including the repository path, e.g. https://fossology.example.org/repo")
	cmd.Flags().StringVar(&stepConfig.Token, "token", os.Getenv("PIPER_token"), "The bearer token used to authenticate against the Fossology REST API")
	cmd.Flags().StringVar(&stepConfig.FilePath, "filePath", os.Getenv("PIPER_filePath"), "The path to the artifact to scan")
	cmd.Flags().StringVar(&stepConfig.FileName, "fileName", os.Getenv("PIPER_fileName"), "The name of the upload on the server, defaults to the base name of the file path")
	cmd.Flags().StringVar(&stepConfig.FolderName, "folderName", os.Getenv("PIPER_folderName"), "The folder the upload is placed in, the root folder is used when empty")
	cmd.Flags().StringVar(&stepConfig.UploadDescription, "uploadDescription", `Uploaded by fossology-library`, "The description of the upload")
	cmd.Flags().BoolVar(&stepConfig.ReuseExisting, "reuseExisting", false, "Whether to reuse an upload with the same name in the folder instead of uploading again")
	cmd.Flags().StringSliceVar(&stepConfig.Analysis, "analysis", []string{`nomos`, `monk`, `ojo`, `copyright_email_author`}, "The analysis agents scheduled for the upload")
	cmd.Flags().StringSliceVar(&stepConfig.Decider, "decider", []string{`nomos_monk`}, "The deciders scheduled for the upload")
	cmd.Flags().StringSliceVar(&stepConfig.LicenseAgents, "licenseAgents", []string{`nomos`, `monk`, `ojo`}, "The agents whose license findings are retrieved")
	cmd.Flags().BoolVar(&stepConfig.IncludeContainers, "includeContainers", false, "Whether license findings of containers like archives are included")
	cmd.Flags().StringSliceVar(&stepConfig.ReportFormats, "reportFormats", []string{`spdx2tv`}, "The formats of the reports to download")
	cmd.Flags().StringVar(&stepConfig.ReportDirectory, "reportDirectory", `fossology`, "The directory the reports are written to")
	cmd.Flags().BoolVar(&stepConfig.CreateLicenseBom, "createLicenseBom", false, "Whether to create a CycloneDX BOM from the license findings")
	cmd.Flags().BoolVar(&stepConfig.DeleteUpload, "deleteUpload", false, "Whether to delete the upload from the server after the reports have been downloaded")
	cmd.Flags().BoolVar(&stepConfig.FailOnUnclearedFiles, "failOnUnclearedFiles", false, "Whether to fail the step if files of the upload still need to be cleared")
	cmd.Flags().IntVar(&stepConfig.PollMaxAttempts, "pollMaxAttempts", 100, "The maximum number of requests while waiting for a result, 0 means unlimited")
	cmd.Flags().IntVar(&stepConfig.PollIntervalSeconds, "pollIntervalSeconds", 10, "The waiting time between two job status requests")
	cmd.Flags().IntVar(&stepConfig.TimeoutMinutes, "timeoutMinutes", 60, "The maximum waiting time for a single result, 0 means unlimited")
	cmd.Flags().IntVar(&stepConfig.RequestTimeoutSeconds, "requestTimeoutSeconds", 120, "The timeout of a single http request")
	cmd.Flags().IntVar(&stepConfig.MaxRetries, "maxRetries", 3, "The number of retries after transport failures")

	cmd.MarkFlagRequired("serverUrl")
	cmd.MarkFlagRequired("token")
	cmd.MarkFlagRequired("filePath")
}

// retrieve step metadata
func fossologyExecuteScanMetadata() config.StepData {
	var theMetaData = config.StepData{
		Metadata: config.StepMetadata{
			Name:        "fossologyExecuteScan",
			Description: "Uploads an artifact to Fossology, runs the license analysis and downloads the reports.",
		},
		Spec: config.StepSpec{
			Inputs: config.StepInputs{
				Parameters: []config.StepParameters{
					{
						Name:        "serverUrl",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "string",
						Mandatory:   true,
						Aliases:     []config.Alias{{Name: "fossologyServerUrl"}},
					},
					{
						Name:        "token",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:        "string",
						Mandatory:   true,
						Aliases:     []config.Alias{},
						Secret:      true,
					},
					{
						Name:        "filePath",
						ResourceRef: []config.ResourceReference{{Name: "commonPipelineEnvironment", Param: "mtarFilePath"}},
						Scope:       []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:        "string",
						Mandatory:   true,
						Aliases:     []config.Alias{},
					},
					{
						Name:        "fileName",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:        "string",
						Mandatory:   false,
						Aliases:     []config.Alias{},
					},
					{
						Name:        "folderName",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "string",
						Mandatory:   false,
						Aliases:     []config.Alias{{Name: "fossologyFolder", Deprecated: true}},
					},
					{
						Name:        "uploadDescription",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:        "string",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     `Uploaded by fossology-library`,
					},
					{
						Name:        "reuseExisting",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "bool",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     false,
					},
					{
						Name:        "analysis",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "[]string",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     []string{`nomos`, `monk`, `ojo`, `copyright_email_author`},
					},
					{
						Name:        "decider",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "[]string",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     []string{`nomos_monk`},
					},
					{
						Name:        "licenseAgents",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "[]string",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     []string{`nomos`, `monk`, `ojo`},
					},
					{
						Name:        "includeContainers",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "bool",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     false,
					},
					{
						Name:        "reportFormats",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "[]string",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     []string{`spdx2tv`},
					},
					{
						Name:        "reportDirectory",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:        "string",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     `fossology`,
					},
					{
						Name:        "createLicenseBom",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "bool",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     false,
					},
					{
						Name:        "deleteUpload",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"PARAMETERS", "STAGES", "STEPS"},
						Type:        "bool",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     false,
					},
					{
						Name:        "failOnUnclearedFiles",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "bool",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     false,
					},
					{
						Name:        "pollMaxAttempts",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "int",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     100,
					},
					{
						Name:        "pollIntervalSeconds",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "int",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     10,
					},
					{
						Name:        "timeoutMinutes",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "int",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     60,
					},
					{
						Name:        "requestTimeoutSeconds",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "int",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     120,
					},
					{
						Name:        "maxRetries",
						ResourceRef: []config.ResourceReference{},
						Scope:       []string{"GENERAL", "PARAMETERS", "STAGES", "STEPS"},
						Type:        "int",
						Mandatory:   false,
						Aliases:     []config.Alias{},
						Default:     3,
					},
				},
			},
			Outputs: config.StepOutputs{
				Resources: []config.StepResources{
					{
						Name: "commonPipelineEnvironment",
						Type: "piperEnvironment",
						Parameters: []map[string]interface{}{
							{"name": "custom/fossologyUploadId"},
							{"name": "custom/fossologyJobId"},
							{"name": "custom/fossologyReportFiles", "type": "[]string"},
							{"name": "custom/fossologyClearingState"},
						},
					},
					{
						Name: "influx",
						Type: "influx",
						Parameters: []map[string]interface{}{
							{"name": "fossology_data", "fields": []map[string]string{{"name": "filesToBeCleared"}, {"name": "filesCleared"}, {"name": "uniqueLicenses"}, {"name": "copyrightCount"}, {"name": "reportCount"}}, "tags": []map[string]string{{"name": "folder"}}},
						},
					},
				},
			},
		},
	}
	return theMetaData
}
