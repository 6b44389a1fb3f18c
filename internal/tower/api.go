// Package tower maps AWX / Ansible Tower REST payloads onto typed resources.
//
// An *API wraps a Transport together with the server configuration that was
// read once at connect time. Resources and collections carry the *API they
// were built from; nothing in this package holds global state.
package tower

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rflorenc/tower-client/internal/transport"
)

// DefaultAPIPrefix is used when discovery cannot detect one.
const DefaultAPIPrefix = "/api/v2/"

// Transport is the part of the HTTP client the resource model needs.
// *transport.Client implements it.
type Transport interface {
	Get(path string) (*transport.Response, error)
	Post(path string, body interface{}) (*transport.Response, error)
	Patch(path string, body interface{}, opts ...transport.RequestOption) (*transport.Response, error)
	Delete(path string) error
}

var _ Transport = (*transport.Client)(nil)

// Config is the server configuration returned by the config endpoint.
type Config struct {
	Version string
	Raw     RawPayload
}

// ParseConfig decodes a config endpoint body.
func ParseConfig(body string) (Config, error) {
	raw, err := decodePayload(body, "config response")
	if err != nil {
		return Config{}, err
	}
	return Config{Version: stringField(raw, "version"), Raw: raw}, nil
}

// API is a handle on one Tower server.
type API struct {
	transport Transport
	config    Config
	prefix    string
	logger    *slog.Logger
}

// APIOption configures an API.
type APIOption func(*API)

// WithPrefix sets the API prefix relative paths are resolved against.
func WithPrefix(prefix string) APIOption {
	return func(a *API) {
		if prefix == "" {
			return
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		a.prefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) APIOption {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPI builds a handle from a transport and an already fetched config.
func NewAPI(t Transport, cfg Config, opts ...APIOption) *API {
	a := &API{
		transport: t,
		config:    cfg,
		prefix:    DefaultAPIPrefix,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the configuration the handle was built with.
func (a *API) Config() Config { return a.config }

// Version returns the server version string, e.g. "3.8.6".
func (a *API) Version() string { return a.config.Version }

// Prefix returns the API prefix, e.g. "/api/v2/".
func (a *API) Prefix() string { return a.prefix }

// Logger returns the handle's logger.
func (a *API) Logger() *slog.Logger { return a.logger }

// modernLaunch reports whether launch should bracket a limit override with
// PATCH requests. An unknown version is treated as current.
func (a *API) modernLaunch() bool {
	return VersionAtLeast(a.config.Version, "2")
}

// Path resolves a relative path against the API prefix. Rooted paths and
// absolute URLs are returned unchanged.
func (a *API) Path(p string) string {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return a.prefix + p
}

// Get issues a GET through the transport.
func (a *API) Get(path string) (*transport.Response, error) {
	return a.transport.Get(a.Path(path))
}

// Post issues a POST through the transport.
func (a *API) Post(path string, body interface{}) (*transport.Response, error) {
	return a.transport.Post(a.Path(path), body)
}

// Patch issues a PATCH through the transport.
func (a *API) Patch(path string, body interface{}, opts ...transport.RequestOption) (*transport.Response, error) {
	return a.transport.Patch(a.Path(path), body, opts...)
}

// Delete issues a DELETE through the transport.
func (a *API) Delete(path string) error {
	return a.transport.Delete(a.Path(path))
}

// JobTemplates returns the job templates collection.
func (a *API) JobTemplates() *Collection[*JobTemplate] {
	return NewURLCollection(a, JobTemplateKind, JobTemplateKind.Endpoint)
}

// Projects returns the projects collection.
func (a *API) Projects() *Collection[*Project] {
	return NewURLCollection(a, ProjectKind, ProjectKind.Endpoint)
}

// Jobs returns the jobs collection.
func (a *API) Jobs() *Collection[*Job] {
	return NewURLCollection(a, JobKind, JobKind.Endpoint)
}

// JobTemplate fetches a single job template by id.
func (a *API) JobTemplate(id int) (*JobTemplate, error) {
	return fetchOne(a, JobTemplateKind, id)
}

// Project fetches a single project by id.
func (a *API) Project(id int) (*Project, error) {
	return fetchOne(a, ProjectKind, id)
}

// Job fetches a single job by id.
func (a *API) Job(id int) (*Job, error) {
	return fetchOne(a, JobKind, id)
}

// fetchOne GETs <endpoint><id>/ directly. A 404 becomes a NotFoundError.
func fetchOne[T Instance](a *API, kind Kind[T], id int) (T, error) {
	var zero T
	resp, err := a.Get(fmt.Sprintf("%s%d/", kind.Endpoint, id))
	if err != nil {
		if isHTTPNotFound(err) {
			return zero, &NotFoundError{Kind: kind.Name, ID: id}
		}
		return zero, err
	}
	raw, err := decodePayload(resp.Body, kind.Name)
	if err != nil {
		return zero, err
	}
	return kind.Build(a, raw)
}
