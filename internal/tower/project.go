package tower

var projectFields = withBase(
	field{name: "organization", kind: kindInt},
	field{name: "scm_type", kind: kindString},
	field{name: "scm_url", kind: kindString},
	field{name: "scm_branch", kind: kindString},
	field{name: "scm_revision", kind: kindString},
	field{name: "local_path", kind: kindString},
	field{name: "status", kind: kindString},
)

const (
	projectName      = "project"
	projectsEndpoint = "projects/"
)

// ProjectKind describes projects.
var ProjectKind = Kind[*Project]{
	Name:     projectName,
	Endpoint: projectsEndpoint,
	Build:    NewProject,
}

// Project is a source of playbooks.
type Project struct {
	Resource
}

// NewProject wraps raw as a project.
func NewProject(api *API, raw RawPayload) (*Project, error) {
	res, err := newResource(api, projectName, projectsEndpoint, raw, projectFields)
	if err != nil {
		return nil, err
	}
	return &Project{Resource: res}, nil
}

func (p *Project) Organization() int { return intField(p.raw, "organization") }
func (p *Project) ScmType() string { return stringField(p.raw, "scm_type") }
func (p *Project) ScmURL() string { return stringField(p.raw, "scm_url") }
func (p *Project) ScmBranch() string { return stringField(p.raw, "scm_branch") }
func (p *Project) ScmRevision() string { return stringField(p.raw, "scm_revision") }
func (p *Project) Status() string { return stringField(p.raw, "status") }
