package tower

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/rflorenc/tower-client/internal/transport"
)

type call struct {
	Method string
	Path   string
	Body   string
}

type reply struct {
	body string
	err  error
}

func ok(body string) reply { return reply{body: body} }
func fail(err error) reply { return reply{err: err} }
func status(code int) reply { return reply{err: &transport.HTTPError{StatusCode: code, Body: http.StatusText(code)}} }

// fakeTransport answers from a per-route queue; the last reply of a route
// repeats. Unrouted requests get a 404.
type fakeTransport struct {
	calls  []call
	routes map[string][]reply
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{routes: map[string][]reply{}}
}

func (f *fakeTransport) on(method, path string, replies ...reply) *fakeTransport {
	f.routes[method+" "+path] = append(f.routes[method+" "+path], replies...)
	return f
}

func (f *fakeTransport) Get(path string) (*transport.Response, error) {
	return f.do(http.MethodGet, path, nil)
}

func (f *fakeTransport) Post(path string, body interface{}) (*transport.Response, error) {
	return f.do(http.MethodPost, path, body)
}

func (f *fakeTransport) Patch(path string, body interface{}, _ ...transport.RequestOption) (*transport.Response, error) {
	return f.do(http.MethodPatch, path, body)
}

func (f *fakeTransport) Delete(path string) error {
	_, err := f.do(http.MethodDelete, path, nil)
	return err
}

func (f *fakeTransport) do(method, path string, body interface{}) (*transport.Response, error) {
	f.calls = append(f.calls, call{Method: method, Path: path, Body: encode(body)})
	key := method + " " + path
	q := f.routes[key]
	if len(q) == 0 {
		return nil, &transport.HTTPError{Method: method, Path: path, StatusCode: http.StatusNotFound}
	}
	r := q[0]
	if len(q) > 1 {
		f.routes[key] = q[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &transport.Response{StatusCode: http.StatusOK, Body: r.body}, nil
}

func (f *fakeTransport) methods() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func encode(body interface{}) string {
	switch b := body.(type) {
	case nil:
		return ""
	case []byte:
		return string(b)
	case string:
		return b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			panic(err)
		}
		return string(data)
	}
}

func newTestAPI(f *fakeTransport, version string) *API {
	return NewAPI(f, Config{Version: version}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func rawFromJSON(t *testing.T, body string) RawPayload {
	t.Helper()
	raw, err := decodePayload(body, "fixture")
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return raw
}

const jobTemplateJSON = `{
	"id": 10,
	"type": "job_template",
	"url": "/api/v2/job_templates/10/",
	"name": "Deploy web tier",
	"description": "Rolls out the web servers",
	"related": {
		"launch": "/api/v2/job_templates/10/launch/",
		"survey_spec": "/api/v2/job_templates/10/survey_spec/"
	},
	"extra_vars": "{\"option\":\"lots of options\"}",
	"limit": "",
	"playbook": "site.yml",
	"job_type": "run",
	"project": 4,
	"inventory": 2,
	"survey_enabled": true
}`

func jobTemplateWith(t *testing.T, overrides map[string]interface{}) RawPayload {
	t.Helper()
	raw := rawFromJSON(t, jobTemplateJSON)
	for k, v := range overrides {
		raw[k] = v
	}
	return raw
}

func jobsPage(ids ...int) string {
	results := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		results[i] = map[string]interface{}{
			"id":           id,
			"type":         "job",
			"url":          fmt.Sprintf("/api/v2/jobs/%d/", id),
			"status":       "pending",
			"job_template": 10,
		}
	}
	data, _ := json.Marshal(map[string]interface{}{
		"count":   len(ids),
		"next":    nil,
		"results": results,
	})
	return string(data)
}
