package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/piper-oss/fossology-library/pkg/fossology"
	piperhttp "github.com/piper-oss/fossology-library/pkg/http"
	"github.com/piper-oss/fossology-library/pkg/log"
	"github.com/piper-oss/fossology-library/pkg/piperutils"
	"github.com/piper-oss/fossology-library/pkg/validation"
)

const (
	fossologyRootFolderID = 1
	fossologyBomFileName  = "fossology_license_bom.json"
)

type fossologyExecuteScanUtils interface {
	piperutils.FileUtils
	Sleep(d time.Duration)
}

type fossologyExecuteScanUtilsBundle struct {
	piperutils.Files
}

func (fossologyExecuteScanUtilsBundle) Sleep(d time.Duration) {
	time.Sleep(d)
}

func newFossologyExecuteScanUtils() fossologyExecuteScanUtils {
	return &fossologyExecuteScanUtilsBundle{}
}

func fossologyExecuteScan(config fossologyExecuteScanOptions, commonPipelineEnvironment *fossologyExecuteScanCommonPipelineEnvironment, influx *fossologyExecuteScanInflux) {
	utils := newFossologyExecuteScanUtils()
	httpClient := &piperhttp.Client{}

	err := runFossologyExecuteScan(&config, commonPipelineEnvironment, influx, httpClient, utils)
	if err != nil {
		log.Entry().WithError(err).Fatal("Fossology scan failed")
	}
}

func runFossologyExecuteScan(config *fossologyExecuteScanOptions, commonPipelineEnvironment *fossologyExecuteScanCommonPipelineEnvironment, influx *fossologyExecuteScanInflux, httpClient piperhttp.Uploader, utils fossologyExecuteScanUtils) error {
	analysis, deciders, agents, formats, err := validateFossologyOptions(config, utils)
	if err != nil {
		log.SetErrorCategory(log.ErrorConfiguration)
		return err
	}
	log.RegisterSecret(config.Token)

	httpClient.SetOptions(piperhttp.ClientOptions{
		MaxRequestDuration: time.Duration(config.RequestTimeoutSeconds) * time.Second,
		MaxRetries:         config.MaxRetries,
	})
	client := fossology.NewClient(fossology.Options{ServerURL: config.ServerURL, Token: config.Token}, httpClient)
	poller := &fossology.Poller{
		Client:      client,
		MaxAttempts: config.PollMaxAttempts,
		MaxWait:     time.Duration(config.TimeoutMinutes) * time.Minute,
		Interval:    time.Duration(config.PollIntervalSeconds) * time.Second,
		Sleep:       utils.Sleep,
	}

	version, err := client.GetAPIVersion()
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return errors.Wrapf(err, "failed to connect to Fossology server %v", client.ServerURL())
	}
	log.Entry().Infof("Connected to Fossology server %v (API version %v)", client.ServerURL(), version)

	folderID, err := fossologyFolderID(client, config.FolderName)
	if err != nil {
		return err
	}
	influx.fossology_data.tags.folder = config.FolderName

	uploadID, err := fossologyUpload(client, config, folderID)
	if err != nil {
		return err
	}
	commonPipelineEnvironment.custom.fossologyUploadID = uploadID

	jobID, err := client.ScheduleJob(uploadID, folderID, analysis, deciders)
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return errors.Wrapf(err, "failed to schedule analysis of upload %d", uploadID)
	}
	commonPipelineEnvironment.custom.fossologyJobID = jobID
	log.Entry().Infof("Scheduled job %d for upload %d", jobID, uploadID)

	if err := poller.WaitForJob(jobID); err != nil {
		log.SetErrorCategory(log.ErrorService)
		return errors.Wrapf(err, "analysis of upload %d did not finish", uploadID)
	}

	summary, err := poller.WaitForSummary(uploadID)
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return errors.Wrapf(err, "failed to retrieve summary of upload %d", uploadID)
	}
	logFossologySummary(summary)
	commonPipelineEnvironment.custom.fossologyClearingState = summary.ClearingStatus
	influx.fossology_data.fields.filesToBeCleared = summary.FilesToBeCleared
	influx.fossology_data.fields.filesCleared = summary.FilesCleared
	influx.fossology_data.fields.uniqueLicenses = summary.UniqueLicenses
	influx.fossology_data.fields.copyrightCount = summary.CopyrightCount

	findings, err := poller.WaitForLicenses(uploadID, agents, config.IncludeContainers)
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return errors.Wrapf(err, "failed to retrieve license findings of upload %d", uploadID)
	}
	log.Entry().Infof("Retrieved license findings for %d files", len(findings))

	reports := []piperutils.Path{}
	if config.CreateLicenseBom {
		bomPath, err := writeFossologyLicenseBOM(config.ReportDirectory, summary, findings, utils)
		if err != nil {
			return err
		}
		reports = append(reports, piperutils.Path{Name: "Fossology license BOM", Target: bomPath, Scope: "job"})
	}

	reportFiles := []string{}
	for _, format := range formats {
		reportPath, err := downloadFossologyReport(client, poller, uploadID, format, config.ReportDirectory, utils)
		if err != nil {
			return err
		}
		reportFiles = append(reportFiles, reportPath)
		reports = append(reports, piperutils.Path{Name: fmt.Sprintf("Fossology %v report", format), Target: reportPath, Mandatory: true, Scope: "job"})
	}
	commonPipelineEnvironment.custom.fossologyReportFiles = reportFiles
	influx.fossology_data.fields.reportCount = len(reportFiles)

	if err := piperutils.PersistReportsAndLinks("fossologyExecuteScan", GeneralConfig.EnvRootPath, reports, nil); err != nil {
		log.Entry().WithError(err).Warn("Failed to persist report information")
	}

	if config.DeleteUpload {
		if err := client.DeleteUpload(uploadID); err != nil {
			log.Entry().WithError(err).Warnf("Failed to delete upload %d", uploadID)
		} else {
			log.Entry().Infof("Deleted upload %d", uploadID)
		}
	}

	if config.FailOnUnclearedFiles && summary.FilesToBeCleared > 0 {
		log.SetErrorCategory(log.ErrorCompliance)
		return errors.Errorf("%d files of upload %d still need to be cleared", summary.FilesToBeCleared, uploadID)
	}
	return nil
}

func validateFossologyOptions(config *fossologyExecuteScanOptions, utils fossologyExecuteScanUtils) ([]fossology.Analysis, []fossology.Decider, []fossology.Agent, []fossology.ReportFormat, error) {
	validate, err := validation.New()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := validate.ValidateStruct(config); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "invalid step configuration")
	}

	if exists, _ := utils.FileExists(config.FilePath); !exists {
		return nil, nil, nil, nil, errors.Errorf("file %v does not exist", config.FilePath)
	}
	config.FileName = piperutils.StringWithDefault(config.FileName, filepath.Base(config.FilePath))

	analysis, err := fossology.ParseAnalysis(config.Analysis)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	deciders, err := fossology.ParseDeciders(config.Decider)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	agents, err := fossology.ParseAgents(config.LicenseAgents)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	formats := []fossology.ReportFormat{}
	for _, value := range config.ReportFormats {
		format, err := fossology.ParseReportFormat(value)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		formats = append(formats, format)
	}
	return analysis, deciders, agents, formats, nil
}

func fossologyFolderID(client *fossology.Client, folderName string) (int, error) {
	if len(folderName) == 0 {
		return fossologyRootFolderID, nil
	}
	folderID, err := client.GetFolderID(folderName)
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return 0, errors.Wrapf(err, "failed to look up folder %v", folderName)
	}
	if folderID == nil {
		log.SetErrorCategory(log.ErrorConfiguration)
		return 0, errors.Errorf("folder %v does not exist on the Fossology server", folderName)
	}
	return *folderID, nil
}

func fossologyUpload(client *fossology.Client, config *fossologyExecuteScanOptions, folderID int) (int, error) {
	if config.ReuseExisting {
		existing, err := client.GetUploadID(config.FileName, folderID)
		if err != nil {
			log.SetErrorCategory(log.ErrorService)
			return 0, errors.Wrapf(err, "failed to look up upload %v", config.FileName)
		}
		if existing != nil {
			log.Entry().Infof("Reusing upload %d of %v", *existing, config.FileName)
			return *existing, nil
		}
	}

	uploadID, err := client.Upload(config.FilePath, config.FileName, folderID, config.UploadDescription)
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return 0, errors.Wrapf(err, "failed to upload %v", config.FilePath)
	}
	log.Entry().Infof("Uploaded %v as upload %d", config.FileName, uploadID)
	return uploadID, nil
}

func logFossologySummary(summary *fossology.Summary) {
	log.Entry().Infof("Upload %v: main license %v, %d unique licenses, %d copyrights", summary.UploadName, summary.MainLicense, summary.UniqueLicenses, summary.CopyrightCount)
	log.Entry().Infof("Clearing status %v: %d files cleared, %d files to be cleared", summary.ClearingStatus, summary.FilesCleared, summary.FilesToBeCleared)
}

func writeFossologyLicenseBOM(reportDirectory string, summary *fossology.Summary, findings []fossology.FileLicenses, utils fossologyExecuteScanUtils) (string, error) {
	var content bytes.Buffer
	if err := fossology.WriteLicenseBOM(&content, fossology.CreateLicenseBOM(summary, findings)); err != nil {
		return "", err
	}
	bomPath := filepath.Join(reportDirectory, fossologyBomFileName)
	if err := utils.FileWrite(bomPath, content.Bytes(), 0644); err != nil {
		log.SetErrorCategory(log.ErrorInfrastructure)
		return "", errors.Wrap(err, "failed to write license BOM")
	}
	log.Entry().Infof("License BOM written to %v", bomPath)
	return bomPath, nil
}

func downloadFossologyReport(client *fossology.Client, poller *fossology.Poller, uploadID int, format fossology.ReportFormat, reportDirectory string, utils fossologyExecuteScanUtils) (string, error) {
	reportID, err := client.TriggerReportGeneration(uploadID, format)
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return "", errors.Wrapf(err, "failed to trigger %v report of upload %d", format, uploadID)
	}
	content, err := poller.WaitForReport(reportID)
	if err != nil {
		log.SetErrorCategory(log.ErrorService)
		return "", errors.Wrapf(err, "failed to download %v report %d", format, reportID)
	}

	reportPath := filepath.Join(reportDirectory, fmt.Sprintf("fossology_%d_%v.%v", uploadID, format, format.FileExtension()))
	if err := utils.FileWrite(reportPath, content, 0644); err != nil {
		log.SetErrorCategory(log.ErrorInfrastructure)
		return "", errors.Wrapf(err, "failed to write %v report", format)
	}
	log.Entry().Infof("%v report written to %v", format, reportPath)

	if format == fossology.ReportFormatSPDX2 || format == fossology.ReportFormatSPDX2TV {
		report, err := fossology.InspectSPDXReport(format, content)
		if err != nil {
			log.Entry().WithError(err).Warnf("Failed to inspect %v report", format)
			return reportPath, nil
		}
		licenses := []string{}
		for _, id := range report.LicenseIDs() {
			licenses = append(licenses, fmt.Sprintf("%v (%d)", id, report.Licenses[id]))
		}
		log.Entry().Infof("SPDX document %v: %d packages, %d files, licenses: %v", report.DocumentName, len(report.Packages), report.FileCount, strings.Join(licenses, ", "))
	}
	return reportPath, nil
}
