package piperutils

// StringWithDefault returns defaultValue if input is empty.
func StringWithDefault(input, defaultValue string) string {
	if input == "" {
		return defaultValue
	}
	return input
}
