package tower

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Related maps link names ("survey_spec", "launch", "stdout", ...) to URLs.
type Related map[string]interface{}

// Link returns the URL for name, if present and non-empty.
func (r Related) Link(name string) (string, bool) {
	s, ok := r[name].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Resource is the common part of every typed resource. It wraps one payload
// and never issues requests from its accessors.
type Resource struct {
	api      *API
	kind     string
	endpoint string
	fields   []field
	raw      RawPayload
	id       int
}

func newResource(api *API, kind, endpoint string, raw RawPayload, fields []field) (Resource, error) {
	if err := validate(kind, raw, fields); err != nil {
		return Resource{}, err
	}
	id, _ := toInt(raw["id"])
	return Resource{
		api:      api,
		kind:     kind,
		endpoint: endpoint,
		fields:   fields,
		raw:      raw,
		id:       id,
	}, nil
}

// ID returns the numeric identifier.
func (r *Resource) ID() int { return r.id }

// Kind returns the resource kind, e.g. "job_template".
func (r *Resource) Kind() string { return r.kind }

// Name returns the "name" field.
func (r *Resource) Name() string { return stringField(r.raw, "name") }

// Description returns the "description" field.
func (r *Resource) Description() string { return stringField(r.raw, "description") }

// URL returns the "url" field, the resource's own API path.
func (r *Resource) URL() string { return stringField(r.raw, "url") }

// Related returns the related links. The result is never nil.
func (r *Resource) Related() Related {
	if m, ok := r.raw["related"].(map[string]interface{}); ok {
		return Related(m)
	}
	return Related{}
}

// ExtraVars returns the raw "extra_vars" text.
func (r *Resource) ExtraVars() string { return stringField(r.raw, "extra_vars") }

// ExtraVarsHash parses ExtraVars. Empty or null extra_vars yield an empty map.
func (r *Resource) ExtraVarsHash() (map[string]interface{}, error) {
	return parseVars(r.ExtraVars(), "extra_vars")
}

// Raw returns the wrapped payload. Callers must not modify it.
func (r *Resource) Raw() RawPayload { return r.raw }

// IntAttr returns an integer field, 0 when absent.
func (r *Resource) IntAttr(name string) int { return intField(r.raw, name) }

// StringAttr returns a string field, "" when absent.
func (r *Resource) StringAttr(name string) string { return stringField(r.raw, name) }

// BoolAttr returns a bool field, false when absent.
func (r *Resource) BoolAttr(name string) bool { return boolField(r.raw, name) }

// MarshalJSON renders the wrapped payload.
func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

// path is the resource's own endpoint.
func (r *Resource) path() string {
	if u := r.URL(); u != "" {
		return u
	}
	return fmt.Sprintf("%s%d/", r.endpoint, r.id)
}

// Refresh re-reads the resource from the server.
func (r *Resource) Refresh() error {
	resp, err := r.api.Get(r.path())
	if err != nil {
		return err
	}
	return r.replace(resp.Body)
}

// Update PATCHes attrs onto the resource and takes the server's answer as the
// new payload. An empty answer merges attrs locally.
func (r *Resource) Update(attrs map[string]interface{}) error {
	resp, err := r.api.Patch(r.path(), attrs)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp.Body) == "" {
		merged := make(RawPayload, len(r.raw)+len(attrs))
		for k, v := range r.raw {
			merged[k] = v
		}
		for k, v := range attrs {
			merged[k] = v
		}
		if err := validate(r.kind, merged, r.fields); err != nil {
			return err
		}
		r.raw = merged
		return nil
	}
	return r.replace(resp.Body)
}

// Destroy deletes the resource on the server.
func (r *Resource) Destroy() error {
	return r.api.Delete(r.path())
}

func (r *Resource) replace(body string) error {
	raw, err := decodePayload(body, r.kind)
	if err != nil {
		return err
	}
	if err := validate(r.kind, raw, r.fields); err != nil {
		return err
	}
	r.raw = raw
	r.id, _ = toInt(raw["id"])
	return nil
}

// parseVars decodes extra_vars style text: JSON, or YAML when the text opens
// with a document marker. Empty text and null decode to an empty map.
func parseVars(text, what string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(text)
	out := map[string]interface{}{}
	if trimmed == "" {
		return out, nil
	}
	if strings.HasPrefix(trimmed, "---") {
		if err := yaml.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil, &ParseError{What: what, Cause: err}
		}
		if out == nil {
			out = map[string]interface{}{}
		}
		return out, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, &ParseError{What: what, Cause: err}
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}
