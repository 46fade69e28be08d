package fossology

import (
	"io"
	"sort"
	"strconv"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/pkg/errors"
)

// findings which do not name a license
var noLicense = map[string]bool{
	"":                 true,
	noAssertion:        true,
	"No_license_found": true,
	"Void":             true,
}

// CreateLicenseBOM converts the license findings of an upload into a
// CycloneDX BOM with one file component per scanned file. Concluded licenses
// take precedence over scanner findings.
func CreateLicenseBOM(summary *Summary, findings []FileLicenses) *cdx.BOM {
	bom := cdx.NewBOM()

	if summary != nil {
		bom.Metadata = &cdx.Metadata{
			Component: &cdx.Component{
				BOMRef:     "upload-" + strconv.Itoa(summary.ID),
				Type:       cdx.ComponentTypeApplication,
				Name:       summary.UploadName,
				PackageURL: genericPackageURL(summary.UploadName, ""),
				Licenses:   licenseChoices([]string{summary.MainLicense}),
			},
			Properties: &[]cdx.Property{
				{Name: "fossology:clearingStatus", Value: summary.ClearingStatus},
				{Name: "fossology:filesToBeCleared", Value: strconv.Itoa(summary.FilesToBeCleared)},
				{Name: "fossology:filesCleared", Value: strconv.Itoa(summary.FilesCleared)},
				{Name: "fossology:uniqueLicenses", Value: strconv.Itoa(summary.UniqueLicenses)},
				{Name: "fossology:copyrightCount", Value: strconv.Itoa(summary.CopyrightCount)},
			},
		}
	}

	components := []cdx.Component{}
	for _, file := range findings {
		licenses := file.Findings.Conclusion
		if len(knownLicenses(licenses)) == 0 {
			licenses = file.Findings.Scanner
		}
		components = append(components, cdx.Component{
			BOMRef:   "file:" + file.FilePath,
			Type:     cdx.ComponentTypeFile,
			Name:     file.FilePath,
			Licenses: licenseChoices(licenses),
		})
	}
	bom.Components = &components
	return bom
}

// WriteLicenseBOM writes the BOM as JSON.
func WriteLicenseBOM(w io.Writer, bom *cdx.BOM) error {
	encoder := cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON)
	encoder.SetPretty(true)
	if err := encoder.Encode(bom); err != nil {
		return errors.Wrap(err, "failed to encode license BOM")
	}
	return nil
}

func knownLicenses(licenses []string) []string {
	known := []string{}
	seen := map[string]bool{}
	for _, license := range licenses {
		license = strings.TrimSpace(license)
		if noLicense[license] || seen[license] {
			continue
		}
		seen[license] = true
		known = append(known, license)
	}
	sort.Strings(known)
	return known
}

func licenseChoices(licenses []string) *cdx.Licenses {
	known := knownLicenses(licenses)
	if len(known) == 0 {
		return nil
	}
	choices := cdx.Licenses{}
	for _, license := range known {
		if strings.Contains(license, " OR ") || strings.Contains(license, " AND ") {
			choices = append(choices, cdx.LicenseChoice{Expression: license})
			continue
		}
		choices = append(choices, cdx.LicenseChoice{License: &cdx.License{Name: license}})
	}
	return &choices
}
