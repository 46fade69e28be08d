package fossology

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultUploadDescription is used for uploads without a description.
const DefaultUploadDescription = "Uploaded by fossology-library"

// Folder is a folder on the Fossology server
type Folder struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parent      *int   `json:"parent,omitempty"`
}

// Upload is an archive registered with the Fossology server
type Upload struct {
	ID          int    `json:"id"`
	FolderID    int    `json:"folderid"`
	FolderName  string `json:"foldername,omitempty"`
	Description string `json:"description,omitempty"`
	UploadName  string `json:"uploadname"`
	UploadDate  string `json:"uploaddate,omitempty"`
}

// Summary holds the license and clearing statistics of an upload
type Summary struct {
	ID                      int    `json:"id"`
	UploadName              string `json:"uploadName"`
	MainLicense             string `json:"mainLicense"`
	UniqueLicenses          int    `json:"uniqueLicenses"`
	TotalLicenses           int    `json:"totalLicenses"`
	UniqueConcludedLicenses int    `json:"uniqueConcludedLicenses"`
	TotalConcludedLicenses  int    `json:"totalConcludedLicenses"`
	FilesToBeCleared        int    `json:"filesToBeCleared"`
	FilesCleared            int    `json:"filesCleared"`
	ClearingStatus          string `json:"clearingStatus"`
	CopyrightCount          int    `json:"copyrightCount"`
}

// FileLicenses holds the license findings of a single file
type FileLicenses struct {
	FilePath string   `json:"filePath"`
	Findings Findings `json:"findings"`
}

// Findings lists the licenses found by the scanners and the concluded licenses
type Findings struct {
	Scanner    []string `json:"scanner"`
	Conclusion []string `json:"conclusion"`
}

// GetFolderID returns the id of the first folder with the given name or nil
// if there is none.
func (c *Client) GetFolderID(name string) (*int, error) {
	response, err := c.apiGet("/folders", nil, nil, false)
	if err != nil {
		return nil, err
	}
	if response.statusCode != http.StatusOK {
		c.logger.Error("Failed to get folder list")
		return nil, response.serverError()
	}

	folders := []Folder{}
	if err := response.decode(&folders); err != nil {
		return nil, errors.Wrap(err, "failed to read folder list")
	}
	for _, folder := range folders {
		if folder.Name == name {
			id := folder.ID
			c.logger.Debugf("Found folder %v with ID = %d", name, id)
			return &id, nil
		}
	}
	return nil, nil
}

// GetUploadID returns the id of the first upload with the given file name in
// the given folder or nil if there is none. Pages are scanned in increasing
// order until a match is found or X-Total-Pages is reached.
func (c *Client) GetUploadID(fileName string, folderID int) (*int, error) {
	for page := 1; ; page++ {
		header := http.Header{}
		header.Set("folderId", strconv.Itoa(folderID))
		header.Set("page", strconv.Itoa(page))

		response, err := c.apiGet("/uploads", header, nil, false)
		if err != nil {
			return nil, err
		}
		if response.statusCode != http.StatusOK {
			c.logger.Error("Failed to get upload list")
			return nil, response.serverError()
		}

		uploads := []Upload{}
		if err := response.decode(&uploads); err != nil {
			return nil, errors.Wrapf(err, "failed to read upload list page %d", page)
		}
		for _, upload := range uploads {
			if upload.UploadName == fileName {
				id := upload.ID
				c.logger.Debugf("Found upload %v with ID = %d", fileName, id)
				return &id, nil
			}
		}

		if page >= totalPages(response.header) {
			return nil, nil
		}
	}
}

// totalPages assumes a single page when the header is missing or malformed.
func totalPages(header http.Header) int {
	pages, err := strconv.Atoi(strings.TrimSpace(header.Get("X-Total-Pages")))
	if err != nil || pages < 1 {
		return 1
	}
	return pages
}

// Upload uploads the file at filePath as fileName into the given folder and
// returns the id of the new upload.
func (c *Client) Upload(filePath, fileName string, folderID int, description string) (int, error) {
	if len(description) == 0 {
		description = DefaultUploadDescription
	}
	header := http.Header{}
	header.Set("folderId", strconv.Itoa(folderID))
	header.Set("uploadDescription", description)
	header.Set("public", "public")

	response, err := c.apiUpload("/uploads", header, filePath, fileName)
	if err != nil {
		return 0, err
	}
	if response.statusCode != http.StatusCreated {
		serverError := response.serverError()
		c.logger.Warnf("Upload failed with message: %v", serverError.Message)
		return 0, serverError
	}
	return idFromMessage(response)
}

// DeleteUpload deletes an upload. The server accepts the deletion with 202,
// every other status code is returned as *ServerError.
func (c *Client) DeleteUpload(uploadID int) error {
	response, err := c.apiDelete(fmt.Sprintf("/uploads/%d", uploadID), nil)
	if err != nil {
		return err
	}
	if response.statusCode != http.StatusAccepted {
		return response.serverError()
	}
	return nil
}

// UploadSummary returns the summary of an upload. While the server is still
// computing it, no summary but a RetryAfter is returned.
func (c *Client) UploadSummary(uploadID int) (*Summary, *RetryAfter, error) {
	response, err := c.apiGet(fmt.Sprintf("/uploads/%d/summary", uploadID), nil, nil, false)
	if err != nil {
		return nil, nil, err
	}
	switch response.statusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable:
		c.logger.Info("Upload summary not yet available")
		return nil, retryAfter(response), nil
	default:
		return nil, nil, response.serverError()
	}

	summary := &Summary{}
	if err := response.decode(summary); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read summary of upload %d", uploadID)
	}
	return summary, nil, nil
}

// UploadLicenses returns the license findings of the given agents for an
// upload. Unknown agents are rejected before a request is sent.
func (c *Client) UploadLicenses(uploadID int, agents []Agent, includeContainers bool) ([]FileLicenses, *RetryAfter, error) {
	if invalid := invalidValues(agents, availableAgents); len(invalid) > 0 {
		return nil, nil, &InvalidParameterError{Violations: []ParameterViolation{{Name: "agents for license findings", Values: invalid}}}
	}

	names := make([]string, 0, len(agents))
	for _, agent := range agents {
		names = append(names, string(agent))
	}
	params := url.Values{}
	params.Set("agent", strings.Join(names, ","))
	params.Set("containers", strconv.FormatBool(includeContainers))

	response, err := c.apiGet(fmt.Sprintf("/uploads/%d/licenses", uploadID), nil, params, false)
	if err != nil {
		return nil, nil, err
	}
	switch response.statusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable:
		c.logger.Info("Upload licenses not yet available")
		return nil, retryAfter(response), nil
	default:
		return nil, nil, response.serverError()
	}

	licenses := []FileLicenses{}
	if err := response.decode(&licenses); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read licenses of upload %d", uploadID)
	}
	return licenses, nil, nil
}

// idFromMessage parses the id of a created resource from the message field.
// The message is either the id itself or a URL ending with the id.
func idFromMessage(response *apiResponse) (int, error) {
	message := response.message()
	segments := strings.Split(strings.TrimSpace(message), "/")
	id, err := strconv.Atoi(segments[len(segments)-1])
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read id from message '%v'", message)
	}
	return id, nil
}
