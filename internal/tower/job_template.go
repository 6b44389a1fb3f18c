package tower

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

var jobTemplateFields = withBase(
	field{name: "extra_vars", kind: kindString},
	field{name: "limit", kind: kindString},
	field{name: "playbook", kind: kindString},
	field{name: "job_type", kind: kindString},
	field{name: "project", kind: kindInt},
	field{name: "inventory", kind: kindInt},
	field{name: "survey_enabled", kind: kindBool},
	field{name: "ask_variables_on_launch", kind: kindBool},
	field{name: "ask_limit_on_launch", kind: kindBool},
)

const (
	jobTemplateName      = "job_template"
	jobTemplatesEndpoint = "job_templates/"
)

// JobTemplateKind describes job templates.
var JobTemplateKind = Kind[*JobTemplate]{
	Name:     jobTemplateName,
	Endpoint: jobTemplatesEndpoint,
	Build:    NewJobTemplate,
}

// JobTemplate is a launchable playbook definition.
type JobTemplate struct {
	Resource
}

// NewJobTemplate wraps raw as a job template.
func NewJobTemplate(api *API, raw RawPayload) (*JobTemplate, error) {
	res, err := newResource(api, jobTemplateName, jobTemplatesEndpoint, raw, jobTemplateFields)
	if err != nil {
		return nil, err
	}
	return &JobTemplate{Resource: res}, nil
}

func (jt *JobTemplate) Limit() string { return stringField(jt.raw, "limit") }
func (jt *JobTemplate) Playbook() string { return stringField(jt.raw, "playbook") }
func (jt *JobTemplate) JobType() string { return stringField(jt.raw, "job_type") }
func (jt *JobTemplate) ProjectID() int { return intField(jt.raw, "project") }
func (jt *JobTemplate) InventoryID() int { return intField(jt.raw, "inventory") }
func (jt *JobTemplate) SurveyEnabled() bool { return boolField(jt.raw, "survey_enabled") }

// SurveySpec fetches the survey spec body. ok is false, and no request is
// made, when the template has no survey_spec link.
func (jt *JobTemplate) SurveySpec() (spec string, ok bool, err error) {
	link, ok := jt.Related().Link("survey_spec")
	if !ok {
		return "", false, nil
	}
	resp, err := jt.api.Get(link)
	if err != nil {
		return "", false, err
	}
	return resp.Body, true, nil
}

// SurveySpecHash fetches and parses the survey spec. Every call fetches
// again. A template without a survey yields an empty map.
func (jt *JobTemplate) SurveySpecHash() (map[string]interface{}, error) {
	spec, ok, err := jt.SurveySpec()
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]interface{}{}, nil
	}
	return parseVars(spec, "survey_spec")
}

// LaunchParams are the fields of a launch request. A key may carry a leading
// ":" and is then treated exactly like the bare key.
type LaunchParams map[string]interface{}

// Launch starts a job from the template and returns it.
//
// On a version 2+ server a non-empty "limit" is not sent with the launch:
// the template's limit is PATCHed to it before the launch and PATCHed back to
// empty afterwards, whether or not the launch succeeded. Older servers get the
// limit in the launch body.
func (jt *JobTemplate) Launch(params LaunchParams) (*Job, error) {
	body, err := normalizeLaunchParams(params)
	if err != nil {
		return nil, err
	}

	var jobID int
	launch := func() error {
		var err error
		jobID, err = jt.postLaunch(body)
		return err
	}

	if jt.api.modernLaunch() {
		limit, _ := body["limit"].(string)
		delete(body, "limit")
		if limit != "" {
			err = jt.withTemporaryChanges(limit, launch)
		} else {
			err = launch()
		}
	} else {
		err = launch()
	}
	if err != nil {
		return nil, err
	}

	jt.api.logger.Info("job template launched",
		slog.Int("job_template", jt.ID()),
		slog.Int("job", jobID),
	)
	return jt.api.Jobs().Where(url.Values{"id": {strconv.Itoa(jobID)}}).Find(jobID)
}

// withTemporaryChanges sets the template's limit, runs fn, and always
// clears the limit again. If setting fails fn does not run.
func (jt *JobTemplate) withTemporaryChanges(limit string, fn func() error) (err error) {
	if _, err := jt.api.Patch(jt.path(), limitBody(limit)); err != nil {
		return err
	}
	defer func() {
		_, revertErr := jt.api.Patch(jt.path(), limitBody(""))
		if revertErr == nil {
			return
		}
		if err != nil {
			jt.api.logger.Warn("clearing temporary limit failed",
				slog.Int("job_template", jt.ID()),
				slog.String("error", revertErr.Error()),
			)
			return
		}
		err = revertErr
	}()
	return fn()
}

func limitBody(limit string) []byte {
	data, _ := json.Marshal(map[string]string{"limit": limit})
	return data
}

func (jt *JobTemplate) launchPath() string {
	if link, ok := jt.Related().Link("launch"); ok {
		return link
	}
	return fmt.Sprintf("%s%d/launch/", jobTemplatesEndpoint, jt.ID())
}

// postLaunch issues the launch POST and returns the new job id.
func (jt *JobTemplate) postLaunch(body map[string]interface{}) (int, error) {
	resp, err := jt.api.Post(jt.launchPath(), body)
	if err != nil {
		return 0, err
	}
	raw, err := decodePayload(resp.Body, "launch response")
	if err != nil {
		return 0, err
	}
	if id, ok := toInt(raw["job"]); ok {
		return id, nil
	}
	if id, ok := toInt(raw["id"]); ok {
		return id, nil
	}
	return 0, &ParseError{What: "launch response has no job id"}
}

// normalizeLaunchParams returns a canonical string-keyed copy of params with
// extra_vars as JSON text.
func normalizeLaunchParams(params LaunchParams) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		key := strings.TrimPrefix(strings.TrimSpace(k), ":")
		if _, dup := out[key]; dup {
			return nil, &ParseError{What: fmt.Sprintf("launch parameter %q given more than once", key)}
		}
		out[key] = v
	}

	switch v := out["extra_vars"].(type) {
	case nil:
		delete(out, "extra_vars")
	case string:
		if _, err := parseVars(v, "extra_vars"); err != nil {
			return nil, err
		}
	case []byte:
		if _, err := parseVars(string(v), "extra_vars"); err != nil {
			return nil, err
		}
		out["extra_vars"] = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &ParseError{What: "extra_vars", Cause: err}
		}
		out["extra_vars"] = string(data)
	}

	switch v := out["limit"].(type) {
	case nil:
		delete(out, "limit")
	case string:
	default:
		return nil, &TypeMismatchError{Kind: "launch", Field: "limit", Want: "string", Got: jsonType(v)}
	}
	return out, nil
}

// Validate checks the parameters the way Launch will, without any request.
func (p LaunchParams) Validate() error {
	_, err := normalizeLaunchParams(p)
	return err
}
