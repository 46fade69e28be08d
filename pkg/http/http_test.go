//go:build unit
// +build unit

package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest(t *testing.T) {
	var passedHeaders = map[string][]string{}
	passedCookies := []*http.Cookie{}
	var passedUsername string
	var passedPassword string
	// Start a local HTTP server
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		passedHeaders = map[string][]string{}
		if req.Header != nil {
			for name, headers := range req.Header {
				passedHeaders[name] = headers
			}
		}
		passedCookies = req.Cookies()
		passedUsername, passedPassword, _ = req.BasicAuth()

		rw.Write([]byte("OK"))
	}))
	// Close the server when test finishes
	defer server.Close()

	tt := []struct {
		client   Client
		method   string
		header   http.Header
		cookies  []*http.Cookie
		expected string
	}{
		{client: Client{}, method: "GET", expected: "OK"},
		{client: Client{}, method: "GET", header: map[string][]string{"Testheader": {"Test1", "Test2"}}, expected: "OK"},
		{client: Client{}, cookies: []*http.Cookie{{Name: "TestCookie1", Value: "TestValue1"}, {Name: "TestCookie2", Value: "TestValue2"}}, method: "GET", expected: "OK"},
		{client: Client{username: "TestUser", password: "TestPwd"}, method: "GET", expected: "OK"},
	}

	for key, test := range tt {
		t.Run(fmt.Sprintf("Row %v", key+1), func(t *testing.T) {
			response, err := test.client.SendRequest("GET", server.URL, nil, test.header, test.cookies)
			assert.NoError(t, err, "Error occurred but none expected")
			content, err := io.ReadAll(response.Body)
			assert.NoError(t, err)
			assert.Equal(t, test.expected, string(content), "Returned content incorrect")
			response.Body.Close()

			for k, h := range test.header {
				assert.Containsf(t, passedHeaders, k, "Header %v not contained", k)
				assert.Equalf(t, h, passedHeaders[k], "Header %v contains different value", k)
			}

			if len(test.cookies) > 0 {
				assert.Equal(t, test.cookies, passedCookies, "Passed cookies not correct")
			}

			if len(test.client.username) > 0 {
				assert.Equal(t, test.client.username, passedUsername)
			}

			if len(test.client.password) > 0 {
				assert.Equal(t, test.client.password, passedPassword)
			}
		})
	}
}

func TestSendRequestStatusCodes(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://fossology.example/api/v1/report/17",
		func(req *http.Request) (*http.Response, error) {
			response := httpmock.NewStringResponse(http.StatusServiceUnavailable, `{"code":503,"message":"report not ready"}`)
			response.Header = http.Header{"Retry-After": {"5"}}
			return response, nil
		})
	transport.RegisterResponder(http.MethodGet, "https://fossology.example/api/v1/version",
		httpmock.NewStringResponder(http.StatusOK, `{"version":"1.4.3"}`))

	client := Client{}
	client.SetOptions(ClientOptions{Transport: transport, MaxRetries: 3})

	t.Run("503 is handed back without retry", func(t *testing.T) {
		response, err := client.SendRequest(http.MethodGet, "https://fossology.example/api/v1/report/17", nil, nil, nil)

		assert.EqualError(t, err, "request to https://fossology.example/api/v1/report/17 returned with HTTP Code 503")
		require.NotNil(t, response)
		assert.Equal(t, http.StatusServiceUnavailable, response.StatusCode)
		assert.Equal(t, "5", response.Header.Get("Retry-After"))
		assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://fossology.example/api/v1/report/17"])
	})

	t.Run("success", func(t *testing.T) {
		response, err := client.SendRequest(http.MethodGet, "https://fossology.example/api/v1/version", nil, nil, nil)

		assert.NoError(t, err)
		content, _ := io.ReadAll(response.Body)
		assert.JSONEq(t, `{"version":"1.4.3"}`, string(content))
	})
}

func TestSendRequestTransportRetries(t *testing.T) {
	transport := httpmock.NewMockTransport()
	calls := 0
	transport.RegisterResponder(http.MethodGet, "https://fossology.example/api/v1/folders",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("connection reset by peer")
			}
			return httpmock.NewStringResponse(http.StatusOK, `[]`), nil
		})

	client := Client{}
	client.SetOptions(ClientOptions{Transport: transport, MaxRetries: 2})

	response, err := client.SendRequest(http.MethodGet, "https://fossology.example/api/v1/folders", nil, nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, 3, calls)

	t.Run("retries exhausted", func(t *testing.T) {
		failing := httpmock.NewMockTransport()
		failing.RegisterResponder(http.MethodGet, "https://fossology.example/api/v1/folders",
			httpmock.NewErrorResponder(errors.New("connection refused")))
		client := Client{}
		client.SetOptions(ClientOptions{Transport: failing, MaxRetries: 1})

		_, err := client.SendRequest(http.MethodGet, "https://fossology.example/api/v1/folders", nil, nil, nil)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error opening https://fossology.example/api/v1/folders")
		assert.Equal(t, 2, failing.GetTotalCallCount())
	})
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "sources.tar.gz")
	require.NoError(t, os.WriteFile(filePath, []byte("archive content"), 0644))

	var passedHeader http.Header
	var passedFileName, passedContentType, passedContent, passedField string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		passedHeader = req.Header
		_, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		reader := multipart.NewReader(req.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			content, _ := io.ReadAll(part)
			if part.FormName() == "fileInput" {
				passedFileName = part.FileName()
				passedContentType = part.Header.Get("Content-Type")
				passedContent = string(content)
			} else {
				passedField = part.FormName() + "=" + string(content)
			}
		}
		rw.WriteHeader(http.StatusCreated)
		rw.Write([]byte(`{"code":201,"message":"42"}`))
	}))
	defer server.Close()

	client := Client{}
	response, err := client.Upload(UploadRequestData{
		Method:        http.MethodPost,
		URL:           server.URL,
		File:          filePath,
		FileName:      "project-1.0.tar.gz",
		FileFieldName: "fileInput",
		FormFields:    map[string]string{"scanOptions": "none"},
		Header:        http.Header{"folderId": {"7"}},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, response.StatusCode)
	assert.Equal(t, "project-1.0.tar.gz", passedFileName)
	assert.Equal(t, "application/octet-stream", passedContentType)
	assert.Equal(t, "archive content", passedContent)
	assert.Equal(t, "scanOptions=none", passedField)
	assert.Equal(t, "7", passedHeader.Get("folderId"))

	t.Run("missing file", func(t *testing.T) {
		_, err := client.Upload(UploadRequestData{
			Method:        http.MethodPost,
			URL:           server.URL,
			File:          filepath.Join(dir, "missing.tar.gz"),
			FileFieldName: "fileInput",
		})
		assert.Contains(t, fmt.Sprint(err), "unable to locate file")
	})
}

func TestSetOptions(t *testing.T) {
	c := Client{}
	opts := ClientOptions{MaxRequestDuration: 10, TransportTimeout: 20, MaxRetries: 3, Username: "TestUser", Password: "TestPassword"}
	c.SetOptions(opts)

	assert.Equal(t, opts.MaxRequestDuration, c.maxRequestDuration)
	assert.Equal(t, opts.TransportTimeout, c.transportTimeout)
	assert.Equal(t, opts.MaxRetries, c.maxRetries)
	assert.Equal(t, opts.Username, c.username)
	assert.Equal(t, opts.Password, c.password)
	assert.NotNil(t, c.logger)
}

func TestApplyDefaults(t *testing.T) {
	tt := []struct {
		client            Client
		expectedDuration  time.Duration
		expectedTransport time.Duration
	}{
		{client: Client{}, expectedDuration: 10 * time.Second, expectedTransport: 3 * time.Minute},
		{client: Client{maxRequestDuration: 10, transportTimeout: 20}, expectedDuration: 10, expectedTransport: 20},
	}

	for k, v := range tt {
		v.client.applyDefaults()
		assert.Equal(t, v.expectedDuration, v.client.maxRequestDuration, fmt.Sprintf("Run %v failed", k))
		assert.Equal(t, v.expectedTransport, v.client.transportTimeout, fmt.Sprintf("Run %v failed", k))
	}
}

func TestSendRequestConcurrently(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Write([]byte(`{"version":"1.4.3"}`))
	}))
	defer server.Close()

	// no SetOptions: defaults must be resolved without writing to the client
	client := &Client{}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			response, err := client.SendRequest(http.MethodGet, server.URL, nil, nil, nil)
			if err == nil {
				response.Body.Close()
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Nil(t, client.logger)
	assert.Equal(t, time.Duration(0), client.maxRequestDuration)
}
