//go:build unit
// +build unit

package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMap(t *testing.T) {
	t.Parallel()

	t.Run("lookup works", func(t *testing.T) {
		testMap := map[string]interface{}{
			"folderName":        "piper",
			"uploadId":          42,
			"uploadDescription": "$(folderName) upload $(uploadId)",
			"reportFormats":     []interface{}{"spdx2tv"},
		}

		err := ResolveMap(testMap)

		require.NoError(t, err)
		assert.Equal(t, "piper upload 42", testMap["uploadDescription"])
		assert.Equal(t, []interface{}{"spdx2tv"}, testMap["reportFormats"])
	})

	t.Run("unknown property resolves to empty string", func(t *testing.T) {
		testMap := map[string]interface{}{
			"folderName":        "piper",
			"uploadDescription": "$(folderName)/$(missing)",
		}

		err := ResolveMap(testMap)

		require.NoError(t, err)
		assert.Equal(t, "piper/", testMap["uploadDescription"])
	})

	t.Run("resolve loops are aborted", func(t *testing.T) {
		testMap := map[string]interface{}{
			"folderName": "$(fileName)",
			"fileName":   "$(folderName)",
		}

		err := ResolveMap(testMap)

		assert.Contains(t, err.Error(), "property could not be resolved with a depth of 10")
	})
}
