package piperutils

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/piper-oss/fossology-library/pkg/log"
	"github.com/piper-oss/fossology-library/pkg/piperenv"
)

// Path - struct to serialize paths and some metadata back to the invoker
type Path struct {
	Name      string `json:"name"`
	Target    string `json:"target"`
	Mandatory bool   `json:"mandatory"`
	Scope     string `json:"scope"`
}

// PersistReportsAndLinks stores the report paths and links in JSON format in the workspace for processing outside
func PersistReportsAndLinks(stepName, workspace string, reports, links []Path) error {
	if reports == nil {
		reports = []Path{}
	}
	if links == nil {
		links = []Path{}
	}

	reportList, err := json.Marshal(&reports)
	if err != nil {
		return errors.Wrap(err, "failed to marshall reports.json data for archiving")
	}
	if err := piperenv.SetParameter(workspace, fmt.Sprintf("%v_reports.json", stepName), string(reportList)); err != nil {
		return errors.Wrap(err, "failed to persist reports.json")
	}

	linkList, err := json.Marshal(&links)
	if err != nil {
		log.Entry().Errorln("Failed to marshall links.json data for archiving")
		return nil
	}
	if err := piperenv.SetParameter(workspace, fmt.Sprintf("%v_links.json", stepName), string(linkList)); err != nil {
		log.Entry().WithError(err).Error("Failed to persist links.json")
	}
	return nil
}
