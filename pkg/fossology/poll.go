package fossology

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrPollingTimeout is returned by the Poller when a result did not become
// available within the configured bounds.
var ErrPollingTimeout = errors.New("polling timed out")

// Poller waits for asynchronous results of a Client. The Client itself never
// waits; Poller sleeps for the time the server asks for and gives up after
// MaxAttempts requests or MaxWait accumulated waiting time.
type Poller struct {
	Client *Client
	// MaxAttempts limits the number of requests, 0 means unlimited.
	MaxAttempts int
	// MaxWait limits the accumulated waiting time, 0 means unlimited.
	MaxWait time.Duration
	// Interval is the waiting time between two job status requests.
	// Zero or negative values fall back to DefaultPollInterval.
	Interval time.Duration
	Logger   *logrus.Entry
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultPollInterval is the waiting time between two job status requests
// when the Poller has no Interval.
const DefaultPollInterval = defaultRetryAfterSeconds * time.Second

type pollState struct {
	poller   *Poller
	what     string
	attempts int
	waited   time.Duration
}

func (p *Poller) start(what string) *pollState {
	return &pollState{poller: p, what: what}
}

// next is called after an unsuccessful attempt and waits for the given
// duration unless a bound has been reached.
func (s *pollState) next(wait time.Duration) error {
	p := s.poller
	s.attempts++
	if p.MaxAttempts > 0 && s.attempts >= p.MaxAttempts {
		return errors.Wrapf(ErrPollingTimeout, "%v not available after %d attempts", s.what, s.attempts)
	}
	if p.MaxWait > 0 && s.waited+wait > p.MaxWait {
		return errors.Wrapf(ErrPollingTimeout, "%v not available within %v", s.what, p.MaxWait)
	}
	p.logger().Debugf("%v not yet available, waiting %v", s.what, wait)
	p.sleep(wait)
	s.waited += wait
	return nil
}

func (p *Poller) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (p *Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultPollInterval
	}
	return p.Interval
}

func (p *Poller) logger() *logrus.Entry {
	if p.Logger != nil {
		return p.Logger
	}
	return p.Client.logger
}

// WaitForJob polls the job status until the job completed or failed.
func (p *Poller) WaitForJob(jobID int) error {
	state := p.start("job")
	for {
		completed, err := p.Client.JobCompleted(jobID)
		if err != nil {
			return err
		}
		if completed {
			return nil
		}
		if err := state.next(p.interval()); err != nil {
			return err
		}
	}
}

// WaitForSummary polls the summary of an upload until it is available.
func (p *Poller) WaitForSummary(uploadID int) (*Summary, error) {
	state := p.start("upload summary")
	for {
		summary, retry, err := p.Client.UploadSummary(uploadID)
		if err != nil {
			return nil, err
		}
		if retry == nil {
			return summary, nil
		}
		if err := state.next(retry.Duration()); err != nil {
			return nil, err
		}
	}
}

// WaitForLicenses polls the license findings of an upload until they are available.
func (p *Poller) WaitForLicenses(uploadID int, agents []Agent, includeContainers bool) ([]FileLicenses, error) {
	state := p.start("license findings")
	for {
		licenses, retry, err := p.Client.UploadLicenses(uploadID, agents, includeContainers)
		if err != nil {
			return nil, err
		}
		if retry == nil {
			return licenses, nil
		}
		if err := state.next(retry.Duration()); err != nil {
			return nil, err
		}
	}
}

// WaitForReport polls a report until its content is available.
func (p *Poller) WaitForReport(reportID int) ([]byte, error) {
	state := p.start("report")
	for {
		content, retry, err := p.Client.DownloadReport(reportID)
		if err != nil {
			return nil, err
		}
		if retry == nil {
			return content, nil
		}
		if err := state.next(retry.Duration()); err != nil {
			return nil, err
		}
	}
}
