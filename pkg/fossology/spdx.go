package fossology

import (
	"bytes"
	"sort"
	"strings"

	"github.com/package-url/packageurl-go"
	"github.com/pkg/errors"
	"github.com/spdx/tools-golang/rdf"
	"github.com/spdx/tools-golang/spdx"
	"github.com/spdx/tools-golang/tagvalue"
)

const noAssertion = "NOASSERTION"

// SPDXPackage is a package listed in an SPDX report
type SPDXPackage struct {
	Name             string
	Version          string
	LicenseConcluded string
	LicenseDeclared  string
	PackageURL       string
}

// SPDXReport contains the statistics of a downloaded SPDX report
type SPDXReport struct {
	DocumentName string
	Packages     []SPDXPackage
	FileCount    int
	// Licenses counts the files per concluded license, files without
	// conclusion are counted as NOASSERTION.
	Licenses map[string]int
}

// LicenseIDs returns the concluded licenses in alphabetical order.
func (r *SPDXReport) LicenseIDs() []string {
	ids := make([]string, 0, len(r.Licenses))
	for id := range r.Licenses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InspectSPDXReport parses a report in one of the SPDX formats.
func InspectSPDXReport(format ReportFormat, content []byte) (*SPDXReport, error) {
	var doc *spdx.Document
	var err error
	switch format {
	case ReportFormatSPDX2TV:
		doc, err = tagvalue.Read(bytes.NewReader(content))
	case ReportFormatSPDX2:
		doc, err = rdf.Read(bytes.NewReader(content))
	default:
		return nil, errors.Errorf("report format %v is not an SPDX format", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %v report", format)
	}
	if doc == nil {
		return nil, errors.Errorf("%v report contains no document", format)
	}

	report := &SPDXReport{DocumentName: doc.DocumentName, Licenses: map[string]int{}}
	for _, pkg := range doc.Packages {
		if pkg == nil {
			continue
		}
		report.Packages = append(report.Packages, SPDXPackage{
			Name:             pkg.PackageName,
			Version:          pkg.PackageVersion,
			LicenseConcluded: pkg.PackageLicenseConcluded,
			LicenseDeclared:  pkg.PackageLicenseDeclared,
			PackageURL:       packageURL(pkg),
		})
	}
	files := append([]*spdx.File{}, doc.Files...)
	for _, pkg := range doc.Packages {
		if pkg != nil {
			files = append(files, pkg.Files...)
		}
	}
	seen := map[string]bool{}
	for _, file := range files {
		if file == nil || seen[string(file.FileSPDXIdentifier)] {
			continue
		}
		seen[string(file.FileSPDXIdentifier)] = true
		report.FileCount++
		license := strings.TrimSpace(file.LicenseConcluded)
		if len(license) == 0 {
			license = noAssertion
		}
		report.Licenses[license]++
	}
	return report, nil
}

// packageURL returns the purl reference of a package or a generic purl
// created from name and version.
func packageURL(pkg *spdx.Package) string {
	for _, ref := range pkg.PackageExternalReferences {
		if ref == nil {
			continue
		}
		if ref.RefType == "purl" || ref.RefType == "http://spdx.org/rdf/references/purl" {
			if purl, err := packageurl.FromString(ref.Locator); err == nil {
				return purl.ToString()
			}
		}
	}
	return genericPackageURL(pkg.PackageName, pkg.PackageVersion)
}

func genericPackageURL(name, version string) string {
	if len(name) == 0 {
		return ""
	}
	return packageurl.NewPackageURL("generic", "", name, version, nil, "").ToString()
}
