package fossology

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	piperhttp "github.com/piper-oss/fossology-library/pkg/http"
	"github.com/piper-oss/fossology-library/pkg/log"
)

const apiBasePath = "/api/v1"

// Options configures a Client.
type Options struct {
	ServerURL string
	Token     string
	// Logger receives the client's log output. Defaults to the library logger.
	Logger *logrus.Entry
}

// Client is a stateless façade for the Fossology REST API v1. It only holds
// the server URL, the bearer token and its collaborators and is safe for
// concurrent use.
type Client struct {
	serverURL  string
	token      string
	httpClient piperhttp.Uploader
	logger     *logrus.Entry
}

// NewClient creates a new Fossology client
func NewClient(options Options, httpClient piperhttp.Uploader) *Client {
	logger := options.Logger
	if logger == nil {
		logger = log.Entry().WithField("package", "fossology-library/pkg/fossology")
	}
	return &Client{
		serverURL:  strings.TrimSuffix(options.ServerURL, "/"),
		token:      options.Token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ServerURL returns the URL of the Fossology server.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// apiResponse is the normalized result of every request primitive.
// content is nil when the body could not be decoded as JSON.
type apiResponse struct {
	statusCode int
	header     http.Header
	body       []byte
	content    json.RawMessage
}

func (r *apiResponse) decode(v interface{}) error {
	if r.content == nil {
		return errors.Errorf("response with status %v has no decodable body", r.statusCode)
	}
	if err := json.Unmarshal(r.content, v); err != nil {
		return errors.Wrapf(err, "failed to parse response with status %v", r.statusCode)
	}
	return nil
}

// message returns the server's "message" field, or "" if there is none.
// Binary responses carry JSON error documents as well.
func (r *apiResponse) message() string {
	content := r.content
	if content == nil && json.Valid(r.body) {
		content = r.body
	}
	if content == nil {
		return ""
	}
	var info struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(content, &info); err != nil || len(info.Message) == 0 || string(info.Message) == "null" {
		return ""
	}
	var message string
	if err := json.Unmarshal(info.Message, &message); err == nil {
		return message
	}
	// numbers are returned verbatim
	return string(info.Message)
}

func (r *apiResponse) serverError() *ServerError {
	return &ServerError{StatusCode: r.statusCode, Message: r.message()}
}

func (c *Client) apiGet(path string, header http.Header, params url.Values, binary bool) (*apiResponse, error) {
	return c.call(http.MethodGet, path, header, params, nil, binary)
}

func (c *Client) apiPost(path string, header http.Header, body io.Reader) (*apiResponse, error) {
	return c.call(http.MethodPost, path, header, nil, body, false)
}

func (c *Client) apiDelete(path string, header http.Header) (*apiResponse, error) {
	return c.call(http.MethodDelete, path, header, nil, nil, false)
}

func (c *Client) call(method, path string, header http.Header, params url.Values, body io.Reader, binary bool) (*apiResponse, error) {
	apiURL := c.apiURL(path, params)
	response, err := c.httpClient.SendRequest(method, apiURL, body, c.authorize(header), nil)
	return c.normalize(method, path, response, err, binary)
}

func (c *Client) apiUpload(path string, header http.Header, filePath, fileName string) (*apiResponse, error) {
	response, err := c.httpClient.Upload(piperhttp.UploadRequestData{
		Method:          http.MethodPost,
		URL:             c.apiURL(path, nil),
		File:            filePath,
		FileName:        fileName,
		FileFieldName:   "fileInput",
		FileContentType: "application/octet-stream",
		Header:          c.authorize(header),
	})
	return c.normalize(http.MethodPost, path, response, err, false)
}

func (c *Client) apiURL(path string, params url.Values) string {
	apiURL := c.serverURL + apiBasePath + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}
	return apiURL
}

func (c *Client) authorize(header http.Header) http.Header {
	allHeaders := http.Header{}
	for name, values := range header {
		allHeaders[name] = append([]string{}, values...)
	}
	allHeaders.Set("Authorization", "Bearer "+c.token)
	return allHeaders
}

// normalize turns the transport result into an apiResponse. The http client
// reports non-2xx codes as errors as well, those are not errors at this layer.
func (c *Client) normalize(method, path string, response *http.Response, err error, binary bool) (*apiResponse, error) {
	if response == nil || response.StatusCode == 0 {
		if err == nil {
			err = errors.New("no response received")
		}
		return nil, errors.Wrapf(err, "%v request to %v failed", method, path)
	}
	result := &apiResponse{statusCode: response.StatusCode, header: response.Header}
	if result.header == nil {
		result.header = http.Header{}
	}
	if response.Body != nil {
		defer response.Body.Close()
		result.body, err = io.ReadAll(response.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "reading response of %v %v failed", method, path)
		}
	}

	if !binary && len(result.body) > 0 {
		if json.Valid(result.body) {
			result.content = result.body
		} else {
			c.logger.Warnf("Failed to decode JSON response of %v %v", method, path)
		}
	}

	c.logger.Debugf("%v %v -> %d", method, path, result.statusCode)
	return result, nil
}

// GetAPIVersion returns the version of the server's REST API.
func (c *Client) GetAPIVersion() (string, error) {
	response, err := c.apiGet("/version", nil, nil, false)
	if err != nil {
		return "", err
	}
	if response.statusCode != http.StatusOK {
		return "", response.serverError()
	}
	var version struct {
		Version string `json:"version"`
	}
	if err := response.decode(&version); err != nil {
		return "", errors.Wrap(err, "failed to retrieve API version")
	}
	return version.Version, nil
}
