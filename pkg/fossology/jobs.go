package fossology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// JobStatus is the state of a job as reported by the server
type JobStatus string

// Job states with a defined meaning, all other states are in progress
const (
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusFailed     JobStatus = "Failed"
	JobStatusQueued     JobStatus = "Queued"
	JobStatusProcessing JobStatus = "Processing"
)

// Job is an asynchronous unit of work running agents and deciders on an upload
type Job struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UploadID  int       `json:"uploadId"`
	Status    JobStatus `json:"status"`
	ETA       int       `json:"eta"`
	QueueDate string    `json:"queueDate"`
}

type jobConfiguration struct {
	Analysis map[Analysis]bool `json:"analysis"`
	Decider  map[Decider]bool  `json:"decider"`
}

// ScheduleJob schedules the given analyses and deciders for an upload and
// returns the id of the new job. Both lists are validated completely before
// a request is sent.
func (c *Client) ScheduleJob(uploadID, folderID int, analysis []Analysis, decider []Decider) (int, error) {
	violations := []ParameterViolation{}
	if invalid := invalidValues(analysis, availableAnalysis); len(invalid) > 0 {
		violations = append(violations, ParameterViolation{Name: "analysis for job", Values: invalid})
	}
	if invalid := invalidValues(decider, availableDeciders); len(invalid) > 0 {
		violations = append(violations, ParameterViolation{Name: "decider for job", Values: invalid})
	}
	if len(violations) > 0 {
		return 0, &InvalidParameterError{Violations: violations}
	}

	conf := jobConfiguration{Analysis: map[Analysis]bool{}, Decider: map[Decider]bool{}}
	for _, a := range analysis {
		conf.Analysis[a] = true
	}
	for _, d := range decider {
		conf.Decider[d] = true
	}
	payload, err := json.Marshal(conf)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create job configuration")
	}

	header := http.Header{}
	header.Set("folderId", strconv.Itoa(folderID))
	header.Set("uploadId", strconv.Itoa(uploadID))
	header.Set("Content-Type", "application/json")

	response, err := c.apiPost("/jobs", header, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	if response.statusCode != http.StatusCreated {
		return 0, response.serverError()
	}
	return idFromMessage(response)
}

// GetJob returns the job with the given id.
func (c *Client) GetJob(jobID int) (*Job, error) {
	response, err := c.apiGet(fmt.Sprintf("/jobs/%d", jobID), nil, nil, false)
	if err != nil {
		return nil, err
	}
	if response.statusCode != http.StatusOK {
		return nil, response.serverError()
	}
	job := &Job{}
	if err := response.decode(job); err != nil {
		return nil, errors.Wrapf(err, "failed to read job %d", jobID)
	}
	return job, nil
}

// JobCompleted reports whether a job finished successfully. A failed job is
// reported as *JobFailureError, every other state means the job is still running.
func (c *Client) JobCompleted(jobID int) (bool, error) {
	job, err := c.GetJob(jobID)
	if err != nil {
		return false, err
	}
	c.logger.Debugf("Job %d status: %v", jobID, job.Status)
	switch job.Status {
	case JobStatusCompleted:
		return true, nil
	case JobStatusFailed:
		return false, &JobFailureError{JobID: jobID}
	default:
		return false, nil
	}
}
