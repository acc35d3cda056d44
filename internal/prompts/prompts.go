// Package prompts loads and renders the generation prompt templates.
package prompts

import (
	_ "embed"
	"os"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Template is one system/user prompt pair with an optional assistant prefill.
type Template struct {
	System  string `yaml:"system"`
	User    string `yaml:"user"`
	Prefill string `yaml:"prefill"`
}

// Set holds every prompt the pipeline renders.
type Set struct {
	Sequence      Template `yaml:"sequence"`
	Questionnaire Template `yaml:"questionnaire"`

	seqSystem, seqUser *template.Template
	qSystem, qUser     *template.Template
}

// SequenceData is the context for one contact's email sequence.
type SequenceData struct {
	FirstName   string
	LastName    string
	Headline    string
	Title       string
	Company     string
	Industry    string
	Summary     string
	Description string
	Skills      []string
	Positions   []model.Position
	Jobs        []model.Job
	Posts       []model.Post
}

// QuestionnaireData is the context for one company's questionnaire.
type QuestionnaireData struct {
	ICPMaxEmployees int
	Company         model.Company
	Jobs            []model.Job
	Contacts        []model.Contact
	Posts           []model.Post
	Questions       []string
}

// Rendered is a ready-to-send prompt.
type Rendered struct {
	System  string
	User    string
	Prefill string
}

// Default returns the embedded prompt set.
func Default() (*Set, error) {
	return parse(defaultPrompts)
}

// Load reads a prompt file from path. An empty path returns the embedded
// set. Templates missing from the file keep their embedded value.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "prompts: read %s", path)
	}
	base, err := Default()
	if err != nil {
		return nil, err
	}
	override, err := decode(data)
	if err != nil {
		return nil, err
	}
	merge(&base.Sequence, override.Sequence)
	merge(&base.Questionnaire, override.Questionnaire)
	if err := base.compile(); err != nil {
		return nil, err
	}
	return base, nil
}

func merge(dst *Template, src Template) {
	if src.System != "" {
		dst.System = src.System
	}
	if src.User != "" {
		dst.User = src.User
	}
	if src.Prefill != "" {
		dst.Prefill = src.Prefill
	}
}

func decode(data []byte) (*Set, error) {
	// The file has a top-level "prompts" key.
	var wrapper struct {
		Prompts Set `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "prompts: parse")
	}
	return &wrapper.Prompts, nil
}

func parse(data []byte) (*Set, error) {
	s, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return s, nil
}

var funcs = template.FuncMap{"join": strings.Join}

func (s *Set) compile() error {
	var err error
	if s.seqSystem, err = compileOne("sequence.system", s.Sequence.System); err != nil {
		return err
	}
	if s.seqUser, err = compileOne("sequence.user", s.Sequence.User); err != nil {
		return err
	}
	if s.qSystem, err = compileOne("questionnaire.system", s.Questionnaire.System); err != nil {
		return err
	}
	s.qUser, err = compileOne("questionnaire.user", s.Questionnaire.User)
	return err
}

func compileOne(name, text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, eris.Errorf("prompts: %s is empty", name)
	}
	t, err := template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, eris.Wrapf(err, "prompts: compile %s", name)
	}
	return t, nil
}

// RenderSequence renders the email sequence prompt for one contact.
func (s *Set) RenderSequence(d SequenceData) (Rendered, error) {
	return render(s.seqSystem, s.seqUser, s.Sequence.Prefill, d)
}

// RenderQuestionnaire renders the questionnaire prompt for one company.
func (s *Set) RenderQuestionnaire(d QuestionnaireData) (Rendered, error) {
	if len(d.Questions) == 0 {
		d.Questions = make([]string, len(model.Questions))
		for i, q := range model.Questions {
			d.Questions[i] = q.Text
		}
	}
	return render(s.qSystem, s.qUser, s.Questionnaire.Prefill, d)
}

func render(system, user *template.Template, prefill string, data any) (Rendered, error) {
	var sys, usr strings.Builder
	if err := system.Execute(&sys, data); err != nil {
		return Rendered{}, eris.Wrapf(err, "prompts: render %s", system.Name())
	}
	if err := user.Execute(&usr, data); err != nil {
		return Rendered{}, eris.Wrapf(err, "prompts: render %s", user.Name())
	}
	return Rendered{
		System:  strings.TrimSpace(sys.String()),
		User:    strings.TrimSpace(usr.String()),
		Prefill: strings.TrimSpace(prefill),
	}, nil
}
