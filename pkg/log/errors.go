package log

// ErrorCategory defines the category of a pipeline error
type ErrorCategory int

const (
	ErrorUndefined ErrorCategory = iota
	ErrorCompliance
	ErrorConfiguration
	ErrorInfrastructure
	ErrorService
)

var errorCategory ErrorCategory = ErrorUndefined

func (e ErrorCategory) String() string {
	return [...]string{
		"undefined",
		"compliance",
		"configuration",
		"infrastructure",
		"service",
	}[e]
}

// SetErrorCategory sets the error category
// This can be used later by calling log.GetErrorCategory()
func SetErrorCategory(category ErrorCategory) {
	errorCategory = category
}

// GetErrorCategory retrieves the error category which is currently known to the execution of a step
func GetErrorCategory() ErrorCategory {
	return errorCategory
}
