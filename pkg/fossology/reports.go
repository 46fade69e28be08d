package fossology

import (
	"fmt"
	"net/http"
	"strconv"
)

// TriggerReportGeneration requests a report of the given format for an upload
// and returns the id of the report.
func (c *Client) TriggerReportGeneration(uploadID int, format ReportFormat) (int, error) {
	if !contains(availableReportFormats, format) {
		return 0, &InvalidParameterError{Violations: []ParameterViolation{{Name: "report format", Values: []string{string(format)}}}}
	}

	header := http.Header{}
	header.Set("uploadId", strconv.Itoa(uploadID))
	header.Set("reportFormat", string(format))

	response, err := c.apiGet("/report", header, nil, false)
	if err != nil {
		return 0, err
	}
	if response.statusCode != http.StatusCreated {
		return 0, response.serverError()
	}
	return idFromMessage(response)
}

// DownloadReport returns the content of a report. While the report is being
// rendered, no content but a RetryAfter is returned.
func (c *Client) DownloadReport(reportID int) ([]byte, *RetryAfter, error) {
	response, err := c.apiGet(fmt.Sprintf("/report/%d", reportID), nil, nil, true)
	if err != nil {
		return nil, nil, err
	}
	switch response.statusCode {
	case http.StatusOK:
		return response.body, nil, nil
	case http.StatusServiceUnavailable:
		c.logger.Info("Report not yet ready")
		return nil, retryAfter(response), nil
	default:
		return nil, nil, response.serverError()
	}
}
