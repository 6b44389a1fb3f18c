package tower

import "fmt"

var jobFields = withBase(
	field{name: "status", kind: kindString},
	field{name: "failed", kind: kindBool},
	field{name: "job_template", kind: kindInt},
	field{name: "extra_vars", kind: kindString},
	field{name: "limit", kind: kindString},
	field{name: "launch_type", kind: kindString},
	field{name: "started", kind: kindString},
	field{name: "finished", kind: kindString},
	field{name: "job_explanation", kind: kindString},
)

const (
	jobName      = "job"
	jobsEndpoint = "jobs/"
)

// JobKind describes jobs.
var JobKind = Kind[*Job]{
	Name:     jobName,
	Endpoint: jobsEndpoint,
	Build:    NewJob,
}

// Job statuses reported by the server.
const (
	JobNew        = "new"
	JobPending    = "pending"
	JobWaiting    = "waiting"
	JobRunning    = "running"
	JobSuccessful = "successful"
	JobFailed     = "failed"
	JobError      = "error"
	JobCanceled   = "canceled"
)

// Job is one run of a job template.
type Job struct {
	Resource
}

// NewJob wraps raw as a job.
func NewJob(api *API, raw RawPayload) (*Job, error) {
	res, err := newResource(api, jobName, jobsEndpoint, raw, jobFields)
	if err != nil {
		return nil, err
	}
	return &Job{Resource: res}, nil
}

func (j *Job) Status() string { return stringField(j.raw, "status") }
func (j *Job) Failed() bool { return boolField(j.raw, "failed") }
func (j *Job) JobTemplateID() int { return intField(j.raw, "job_template") }
func (j *Job) Limit() string { return stringField(j.raw, "limit") }
func (j *Job) Started() string { return stringField(j.raw, "started") }
func (j *Job) Finished() string { return stringField(j.raw, "finished") }

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	switch j.Status() {
	case JobSuccessful, JobFailed, JobError, JobCanceled:
		return true
	}
	return false
}

// Stdout fetches the plain-text job output.
func (j *Job) Stdout() (string, error) {
	link, ok := j.Related().Link("stdout")
	if !ok {
		link = fmt.Sprintf("%s%d/stdout/", jobsEndpoint, j.ID())
	}
	resp, err := j.api.Get(link + "?format=txt")
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}
