package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/piper-oss/fossology-library/pkg/log"
)

const (
	defaultRequestDuration  = 10 * time.Second
	defaultTransportTimeout = 3 * time.Minute
)

// Client defines an http client object
type Client struct {
	maxRequestDuration time.Duration
	transportTimeout   time.Duration
	maxRetries         int
	username           string
	password           string
	logger             *logrus.Entry
	transport          http.RoundTripper
}

// ClientOptions defines the options to be set on the client
type ClientOptions struct {
	// MaxRequestDuration limits a complete round trip including reading the body.
	MaxRequestDuration time.Duration
	// TransportTimeout limits connection establishment and TLS handshake.
	TransportTimeout time.Duration
	// MaxRetries is the number of retries after a transport failure. Responses
	// are never retried, regardless of their status code.
	MaxRetries int
	Username   string
	Password   string
	Logger     *logrus.Entry
	// Transport replaces the default transport, e.g. for tests.
	Transport http.RoundTripper
}

// Sender provides an interface to the piper http client for uid/pwd authenticated requests
type Sender interface {
	SendRequest(method, url string, body io.Reader, header http.Header, cookies []*http.Cookie) (*http.Response, error)
	SetOptions(options ClientOptions)
}

// Uploader provides an interface to the piper http client for multipart file uploads
type Uploader interface {
	Sender
	Upload(data UploadRequestData) (*http.Response, error)
}

// UploadRequestData encapsulates the parameters of a multipart upload
type UploadRequestData struct {
	Method          string
	URL             string
	File            string
	FileName        string
	FileFieldName   string
	FileContentType string
	FormFields      map[string]string
	Header          http.Header
	Cookies         []*http.Cookie
}

// SetOptions sets options used for the http client
func (c *Client) SetOptions(options ClientOptions) {
	c.maxRequestDuration = options.MaxRequestDuration
	c.transportTimeout = options.TransportTimeout
	c.maxRetries = options.MaxRetries
	c.username = options.Username
	c.password = options.Password
	c.transport = options.Transport
	c.logger = options.Logger
	c.applyDefaults()
}

// SendRequest sends an http request with a defined method
//
// On error, any Response can be ignored and the Response.Body does not need to be closed.
// A response with a non-2xx status code is returned together with an error.
func (c *Client) SendRequest(method, url string, body io.Reader, header http.Header, cookies []*http.Cookie) (*http.Response, error) {
	request, err := c.createRequest(method, url, body, header, cookies)
	if err != nil {
		return &http.Response{}, errors.Wrapf(err, "error creating %v request to %v", method, url)
	}

	return c.send(request)
}

// Upload uploads a file's content as multipart/form-data
func (c *Client) Upload(data UploadRequestData) (*http.Response, error) {
	bodyBuffer := &bytes.Buffer{}
	bodyWriter := multipart.NewWriter(bodyBuffer)

	for key, value := range data.FormFields {
		if err := bodyWriter.WriteField(key, value); err != nil {
			return &http.Response{}, errors.Wrapf(err, "error writing form field %v", key)
		}
	}

	fileName := data.FileName
	if len(fileName) == 0 {
		fileName = filepath.Base(data.File)
	}
	contentType := data.FileContentType
	if len(contentType) == 0 {
		contentType = "application/octet-stream"
	}

	partHeader := make(map[string][]string)
	partHeader["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, data.FileFieldName, fileName)}
	partHeader["Content-Type"] = []string{contentType}
	fileWriter, err := bodyWriter.CreatePart(partHeader)
	if err != nil {
		return &http.Response{}, errors.Wrapf(err, "error creating form file %v for field %v", data.File, data.FileFieldName)
	}

	file, err := os.Open(data.File)
	if err != nil {
		return &http.Response{}, errors.Wrapf(err, "unable to locate file %v", data.File)
	}
	defer file.Close()

	if _, err = io.Copy(fileWriter, file); err != nil {
		return &http.Response{}, errors.Wrapf(err, "unable to copy file content of %v into request body", data.File)
	}
	if err = bodyWriter.Close(); err != nil {
		return &http.Response{}, errors.Wrap(err, "error closing multipart body")
	}

	request, err := c.createRequest(data.Method, data.URL, bodyBuffer, data.Header, data.Cookies)
	if err != nil {
		return &http.Response{}, errors.Wrapf(err, "error creating %v request to %v", data.Method, data.URL)
	}
	request.Header.Set("Content-Type", bodyWriter.FormDataContentType())

	return c.send(request)
}

func (c *Client) createRequest(method, url string, body io.Reader, header http.Header, cookies []*http.Cookie) (*retryablehttp.Request, error) {
	var rawBody interface{}
	if body != nil {
		rawBody = body
	}
	request, err := retryablehttp.NewRequest(method, url, rawBody)
	if err != nil {
		return nil, err
	}
	c.log().Debugf("New %v request to %v", method, url)

	for name, headers := range header {
		for _, h := range headers {
			request.Header.Add(name, h)
		}
	}

	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}

	if len(c.username) > 0 && len(c.password) > 0 {
		request.SetBasicAuth(c.username, c.password)
		c.log().Debug("Using Basic Authentication ****/****")
	}
	return request, nil
}

func (c *Client) send(request *retryablehttp.Request) (*http.Response, error) {
	url := request.URL.String()

	response, err := c.retryClient().Do(request)
	if err != nil {
		return response, errors.Wrapf(err, "error opening %v", url)
	}

	// 2xx codes do not create an error
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return response, nil
	}

	switch response.StatusCode {
	case http.StatusUnauthorized:
		c.log().WithField("HTTP Error", "401 (Unauthorized)").Error("Credentials invalid, please check your user credentials!")
	case http.StatusForbidden:
		c.log().WithField("HTTP Error", "403 (Forbidden)").Error("Permission issue, please check your user permissions!")
	case http.StatusNotFound:
		c.log().WithField("HTTP Error", "404 (Not Found)").Error("Requested resource could not be found")
	case http.StatusInternalServerError:
		c.log().WithField("HTTP Error", "500 (Internal Server Error)").Error("Unknown error occurred.")
	}

	return response, fmt.Errorf("request to %v returned with HTTP Code %v", url, response.StatusCode)
}

func (c *Client) retryClient() *retryablehttp.Client {
	transport := c.transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: c.timeoutOrDefault(c.transportTimeout, defaultTransportTimeout),
			}).DialContext,
			TLSHandshakeTimeout: c.timeoutOrDefault(c.transportTimeout, defaultTransportTimeout),
		}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{
		Timeout:   c.timeoutOrDefault(c.maxRequestDuration, defaultRequestDuration),
		Transport: transport,
	}
	retryClient.RetryMax = c.maxRetries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = debugLogger{c.log()}
	retryClient.CheckRetry = transportErrorsOnly
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return retryClient
}

// transportErrorsOnly retries connection level failures only. Status codes
// like 503 carry meaning for the caller and are handed back untouched.
func transportErrorsOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return err != nil, nil
}

type debugLogger struct {
	logger *logrus.Entry
}

func (l debugLogger) Printf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// applyDefaults is only called from SetOptions. Requests read the client
// without modifying it, so one client can serve concurrent requests.
func (c *Client) applyDefaults() {
	if c.maxRequestDuration == 0 {
		c.maxRequestDuration = defaultRequestDuration
	}
	if c.transportTimeout == 0 {
		c.transportTimeout = defaultTransportTimeout
	}
	if c.logger == nil {
		c.logger = log.Entry().WithField("package", "fossology-library/pkg/http")
	}
}

func (c *Client) timeoutOrDefault(value, defaultValue time.Duration) time.Duration {
	if value == 0 {
		return defaultValue
	}
	return value
}

func (c *Client) log() *logrus.Entry {
	if c.logger == nil {
		return log.Entry().WithField("package", "fossology-library/pkg/http")
	}
	return c.logger
}
