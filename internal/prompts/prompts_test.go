package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	assert.Contains(t, s.Sequence.System, "<emails>")
	assert.NotEmpty(t, s.Sequence.Prefill)
	assert.Equal(t, "[", s.Questionnaire.Prefill)
}

func TestRenderSequence(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	r, err := s.RenderSequence(SequenceData{
		FirstName: "Jane",
		LastName:  "Doe",
		Title:     "VP Engineering",
		Company:   "Acme",
		Skills:    []string{"Go", "Kubernetes"},
		Positions: []model.Position{{Title: "VP Engineering", CompanyName: "Acme"}},
		Jobs:      []model.Job{{Title: "Backend Engineer", Location: "Berlin"}},
		Posts:     []model.Post{{Text: "We are scaling our platform team"}},
	})
	require.NoError(t, err)

	assert.Contains(t, r.System, "Jane")
	assert.Contains(t, r.User, "Name: Jane Doe")
	assert.Contains(t, r.User, "Skills: Go, Kubernetes")
	assert.Contains(t, r.User, "- VP Engineering at Acme")
	assert.Contains(t, r.User, "- Backend Engineer, Berlin")
	assert.Contains(t, r.User, "- We are scaling our platform team")
	assert.NotEmpty(t, r.Prefill)
}

func TestRenderQuestionnaire_DefaultQuestions(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	r, err := s.RenderQuestionnaire(QuestionnaireData{
		ICPMaxEmployees: 200,
		Company:         model.Company{Name: "Acme", StaffCountRange: "51-200"},
		Contacts:        []model.Contact{{FirstName: "Jane", LastName: "Doe", Title: "CTO"}},
	})
	require.NoError(t, err)

	assert.Contains(t, r.User, "up to 200 employees")
	assert.Contains(t, r.User, "Employees: 51-200")
	assert.Contains(t, r.User, "- Jane Doe: CTO.")
	for _, q := range model.Questions {
		assert.Contains(t, r.User, q.Text)
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Sequence.User)
}

func TestLoad_OverridesPartially(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	content := `
prompts:
  sequence:
    system: "Custom system for {{.FirstName}}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	r, err := s.RenderSequence(SequenceData{FirstName: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, "Custom system for Sam", r.System)
	assert.Contains(t, r.User, "Name: Sam")

	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def.Questionnaire.User, s.Questionnaire.User)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompts: read")

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("prompts: [unclosed"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompts: parse")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("prompts:\n  sequence:\n    user: \"{{.Oops\"\n"), 0o644))
	_, err = Load(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompts: compile sequence.user")
}
