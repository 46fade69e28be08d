package fossology

// Agent is a scanner whose license findings can be requested for an upload.
type Agent string

// Agents available for license findings
const (
	AgentNomos        Agent = "nomos"
	AgentMonk         Agent = "monk"
	AgentNinka        Agent = "ninka"
	AgentOjo          Agent = "ojo"
	AgentReportImport Agent = "reportImport"
	AgentReso         Agent = "reso"
)

var availableAgents = []Agent{AgentNomos, AgentMonk, AgentNinka, AgentOjo, AgentReportImport, AgentReso}

// Analysis is an analysis which can be requested when scheduling a job.
type Analysis string

// Analyses available for jobs
const (
	AnalysisBucket               Analysis = "bucket"
	AnalysisCopyrightEmailAuthor Analysis = "copyright_email_author"
	AnalysisEcc                  Analysis = "ecc"
	AnalysisKeyword              Analysis = "keyword"
	AnalysisMime                 Analysis = "mime"
	AnalysisMonk                 Analysis = "monk"
	AnalysisNomos                Analysis = "nomos"
	AnalysisOjo                  Analysis = "ojo"
	AnalysisPackage              Analysis = "package"
	AnalysisReso                 Analysis = "reso"
)

var availableAnalysis = []Analysis{
	AnalysisBucket, AnalysisCopyrightEmailAuthor, AnalysisEcc, AnalysisKeyword, AnalysisMime,
	AnalysisMonk, AnalysisNomos, AnalysisOjo, AnalysisPackage, AnalysisReso,
}

// Decider reconciles conflicting agent findings after a job ran.
type Decider string

// Deciders available for jobs
const (
	DeciderNomosMonk  Decider = "nomos_monk"
	DeciderBulkReused Decider = "bulk_reused"
	DeciderNewScanner Decider = "new_scanner"
	DeciderOjo        Decider = "ojo_decider"
)

var availableDeciders = []Decider{DeciderNomosMonk, DeciderBulkReused, DeciderNewScanner, DeciderOjo}

// ReportFormat is the format of a generated report.
type ReportFormat string

// Report formats supported by the server
const (
	ReportFormatDep5          ReportFormat = "dep5"
	ReportFormatSPDX2         ReportFormat = "spdx2"
	ReportFormatSPDX2TV       ReportFormat = "spdx2tv"
	ReportFormatReadmeOSS     ReportFormat = "readmeoss"
	ReportFormatUnifiedReport ReportFormat = "unifiedreport"
)

var availableReportFormats = []ReportFormat{
	ReportFormatDep5, ReportFormatSPDX2, ReportFormatSPDX2TV, ReportFormatReadmeOSS, ReportFormatUnifiedReport,
}

// FileExtension returns the extension used when a report of this format is stored.
func (f ReportFormat) FileExtension() string {
	switch f {
	case ReportFormatSPDX2:
		return "rdf"
	case ReportFormatSPDX2TV:
		return "spdx"
	case ReportFormatReadmeOSS:
		return "txt"
	case ReportFormatUnifiedReport:
		return "docx"
	default:
		return "txt"
	}
}

// ParseAgents converts untyped input into agents. All unknown values are reported at once.
func ParseAgents(values []string) ([]Agent, error) {
	agents, invalid := parse(values, availableAgents)
	if len(invalid) > 0 {
		return nil, &InvalidParameterError{Violations: []ParameterViolation{{Name: "agents for license findings", Values: invalid}}}
	}
	return agents, nil
}

// ParseAnalysis converts untyped input into analyses.
func ParseAnalysis(values []string) ([]Analysis, error) {
	analysis, invalid := parse(values, availableAnalysis)
	if len(invalid) > 0 {
		return nil, &InvalidParameterError{Violations: []ParameterViolation{{Name: "analysis for job", Values: invalid}}}
	}
	return analysis, nil
}

// ParseDeciders converts untyped input into deciders.
func ParseDeciders(values []string) ([]Decider, error) {
	deciders, invalid := parse(values, availableDeciders)
	if len(invalid) > 0 {
		return nil, &InvalidParameterError{Violations: []ParameterViolation{{Name: "decider for job", Values: invalid}}}
	}
	return deciders, nil
}

// ParseReportFormat converts untyped input into a report format.
func ParseReportFormat(value string) (ReportFormat, error) {
	formats, invalid := parse([]string{value}, availableReportFormats)
	if len(invalid) > 0 {
		return "", &InvalidParameterError{Violations: []ParameterViolation{{Name: "report format", Values: invalid}}}
	}
	return formats[0], nil
}

func parse[T ~string](values []string, available []T) ([]T, []string) {
	result := []T{}
	invalid := []string{}
	for _, value := range values {
		if contains(available, T(value)) {
			result = append(result, T(value))
		} else {
			invalid = append(invalid, value)
		}
	}
	return result, invalid
}

// invalidValues returns the values not contained in available, keeping their order.
func invalidValues[T ~string](values []T, available []T) []string {
	invalid := []string{}
	for _, value := range values {
		if !contains(available, value) {
			invalid = append(invalid, string(value))
		}
	}
	return invalid
}

func contains[T comparable](list []T, value T) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
