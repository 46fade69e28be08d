//go:build !release
// +build !release

package mock

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	piperhttp "github.com/piper-oss/fossology-library/pkg/http"
)

// HttpResponse is a scripted answer of the HttpClientMock
type HttpResponse struct {
	StatusCode int
	Body       string
	Header     http.Header
	Err        error
}

// HttpRequest is a request recorded by the HttpClientMock
type HttpRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// HttpClientMock mock struct. It answers requests with the responses
// registered per "METHOD url", the last response of a url is repeated.
type HttpClientMock struct {
	ClientOptions []piperhttp.ClientOptions // set by mock
	Requests      []HttpRequest             // set by mock
	FileUploads   map[string]string         // set by mock, file -> url
	responses     map[string][]HttpResponse
}

// On registers responses for a request
func (c *HttpClientMock) On(method, url string, responses ...HttpResponse) *HttpClientMock {
	if c.responses == nil {
		c.responses = map[string][]HttpResponse{}
	}
	key := method + " " + url
	c.responses[key] = append(c.responses[key], responses...)
	return c
}

// RequestCount returns how often a url has been requested with the given method
func (c *HttpClientMock) RequestCount(method, url string) int {
	count := 0
	for _, r := range c.Requests {
		if r.Method == method && r.URL == url {
			count++
		}
	}
	return count
}

// SendRequest mock
func (c *HttpClientMock) SendRequest(method string, url string, r io.Reader, header http.Header, cookies []*http.Cookie) (*http.Response, error) {
	request := HttpRequest{Method: method, URL: url, Header: header}
	if r != nil {
		content, _ := io.ReadAll(r)
		request.Body = string(content)
	}
	c.Requests = append(c.Requests, request)
	return c.respond(method + " " + url)
}

// SetOptions mock
func (c *HttpClientMock) SetOptions(options piperhttp.ClientOptions) {
	c.ClientOptions = append(c.ClientOptions, options)
}

// Upload mock
func (c *HttpClientMock) Upload(data piperhttp.UploadRequestData) (*http.Response, error) {
	if c.FileUploads == nil {
		c.FileUploads = map[string]string{}
	}
	c.FileUploads[data.File] = data.URL
	c.Requests = append(c.Requests, HttpRequest{Method: data.Method, URL: data.URL, Header: data.Header})
	return c.respond(data.Method + " " + data.URL)
}

func (c *HttpClientMock) respond(key string) (*http.Response, error) {
	queue := c.responses[key]
	if len(queue) == 0 {
		return nil, fmt.Errorf("error opening %v: connection refused", key)
	}
	r := queue[0]
	if len(queue) > 1 {
		c.responses[key] = queue[1:]
	}
	if r.Err != nil {
		return nil, r.Err
	}
	header := r.Header
	if header == nil {
		header = http.Header{}
	}
	response := &http.Response{
		StatusCode: r.StatusCode,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(r.Body))),
	}
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		return response, fmt.Errorf("request to %v returned with HTTP Code %v", key, r.StatusCode)
	}
	return response, nil
}
