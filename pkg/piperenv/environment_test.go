//go:build unit
// +build unit

package piperenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetResourceParameter(t *testing.T) {
	type args struct {
		resourceName string
		paramName    string
		value        interface{}
	}
	tests := []struct {
		name string
		want string
		args args
	}{
		{name: "string", want: "https://fossology.example/repo", args: args{resourceName: "fossology", paramName: "serverUrl", value: "https://fossology.example/repo"}},
		{name: "boolean", want: "true", args: args{resourceName: "fossology", paramName: "reused", value: true}},
		{name: "integer", want: "42", args: args{resourceName: "fossology", paramName: "uploadId", value: 42}},
		{name: "string list", want: `["spdx2tv","readmeoss"]`, args: args{resourceName: "fossology", paramName: "reportFormats", value: []string{"spdx2tv", "readmeoss"}}},
		{name: "integer list", want: "[17,18]", args: args{resourceName: "fossology", paramName: "reportIds", value: []int{17, 18}}},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			// init
			dir := t.TempDir()
			targetFile := filepath.Join(dir, testCase.args.resourceName, testCase.args.paramName)
			// test
			err := SetResourceParameter(dir, testCase.args.resourceName, testCase.args.paramName, testCase.args.value)
			// assert
			assert.NoError(t, err)
			if _, ok := testCase.args.value.(string); !ok {
				targetFile += ".json"
			}
			assert.FileExists(t, targetFile)
			v, err := os.ReadFile(targetFile)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, string(v))
		})
	}

	t.Run("value cannot be marshalled", func(t *testing.T) {
		err := SetResourceParameter(t.TempDir(), "fossology", "broken", make(chan int))
		assert.EqualError(t, err, "failed to marshal resource parameter broken: json: unsupported type: chan int")
	})
}

func TestGetResourceParameter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SetResourceParameter(dir, "fossology", "uploadId", "42"))

	assert.Equal(t, "42", GetResourceParameter(dir, "fossology", "uploadId"))
	assert.Equal(t, "", GetResourceParameter(dir, "fossology", "jobId"))
}

func TestSetParameter(t *testing.T) {
	dir := t.TempDir()

	err := SetParameter(dir, "custom/fossologyReportDirectory", "fossology\n")

	assert.NoError(t, err, "Error occurred but none expected")
	assert.Equal(t, "fossology", GetParameter(dir, "custom/fossologyReportDirectory"))
}

func TestReadFromDisk(t *testing.T) {
	assert.Equal(t, "", GetParameter(t.TempDir(), "testParamNotExistingYet"))
}
