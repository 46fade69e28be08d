package interpolation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const maxLookupDepth = 10

var lookupRegex = regexp.MustCompile(`\$\(([a-zA-Z0-9\.]*)\)`)

// ResolveMap replaces references like $(folderName) inside the string values of config
// with the value of the referenced key. Unknown references resolve to an empty string.
func ResolveMap(config map[string]interface{}) error {
	for key, value := range config {
		str, ok := value.(string)
		if !ok {
			continue
		}
		resolved, err := ResolveString(str, config)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve parameter %v", key)
		}
		config[key] = resolved
	}
	return nil
}

// ResolveString replaces all references inside str with values from lookupMap.
// References are resolved recursively up to a fixed depth.
func ResolveString(str string, lookupMap map[string]interface{}) (string, error) {
	return resolveString(str, lookupMap, 0)
}

func resolveString(str string, lookupMap map[string]interface{}, n int) (string, error) {
	matches := lookupRegex.FindAllStringSubmatch(str, -1)
	if len(matches) == 0 {
		return str, nil
	}
	if n == maxLookupDepth {
		return "", errors.Errorf("property could not be resolved with a depth of %d, '%v' is still left to resolve", n, str)
	}
	for _, match := range matches {
		property := match[1]
		replacement := ""
		if value, ok := lookupMap[property]; ok && value != nil {
			replacement = fmt.Sprint(value)
		}
		str = strings.ReplaceAll(str, fmt.Sprintf("$(%s)", property), replacement)
	}
	return resolveString(str, lookupMap, n+1)
}
