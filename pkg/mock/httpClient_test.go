//go:build unit
// +build unit

package mock

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	piperhttp "github.com/piper-oss/fossology-library/pkg/http"
)

var _ piperhttp.Uploader = &HttpClientMock{}

func TestHttpClientMock(t *testing.T) {
	t.Parallel()

	t.Run("scripted responses", func(t *testing.T) {
		client := &HttpClientMock{}
		client.On(http.MethodGet, "https://fossology.example/api/v1/jobs/17",
			HttpResponse{StatusCode: 200, Body: `{"status":"Processing"}`},
			HttpResponse{StatusCode: 200, Body: `{"status":"Completed"}`})

		for _, expected := range []string{`{"status":"Processing"}`, `{"status":"Completed"}`, `{"status":"Completed"}`} {
			response, err := client.SendRequest(http.MethodGet, "https://fossology.example/api/v1/jobs/17", nil, nil, nil)
			require.NoError(t, err)
			body, _ := io.ReadAll(response.Body)
			assert.Equal(t, expected, string(body))
		}
		assert.Equal(t, 3, client.RequestCount(http.MethodGet, "https://fossology.example/api/v1/jobs/17"))
	})

	t.Run("error status", func(t *testing.T) {
		client := &HttpClientMock{}
		client.On(http.MethodDelete, "https://fossology.example/api/v1/uploads/42", HttpResponse{StatusCode: 404, Body: `{"message":"not found"}`})

		response, err := client.SendRequest(http.MethodDelete, "https://fossology.example/api/v1/uploads/42", strings.NewReader("x"), nil, nil)
		assert.EqualError(t, err, "request to DELETE https://fossology.example/api/v1/uploads/42 returned with HTTP Code 404")
		assert.Equal(t, 404, response.StatusCode)
		assert.Equal(t, "x", client.Requests[0].Body)
	})

	t.Run("unknown request", func(t *testing.T) {
		client := &HttpClientMock{}
		_, err := client.SendRequest(http.MethodGet, "https://fossology.example/api/v1/version", nil, nil, nil)
		assert.EqualError(t, err, "error opening GET https://fossology.example/api/v1/version: connection refused")
	})

	t.Run("upload and options", func(t *testing.T) {
		client := &HttpClientMock{}
		client.On(http.MethodPost, "https://fossology.example/api/v1/uploads", HttpResponse{StatusCode: 201, Body: `{"message":42}`})
		client.SetOptions(piperhttp.ClientOptions{MaxRetries: 3})

		response, err := client.Upload(piperhttp.UploadRequestData{Method: http.MethodPost, URL: "https://fossology.example/api/v1/uploads", File: "app.zip"})
		require.NoError(t, err)
		assert.Equal(t, 201, response.StatusCode)
		assert.Equal(t, map[string]string{"app.zip": "https://fossology.example/api/v1/uploads"}, client.FileUploads)
		assert.Equal(t, 3, client.ClientOptions[0].MaxRetries)
	})
}
