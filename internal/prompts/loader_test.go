package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(CoverLetterFile, "default")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.JobText}}")
	assert.Contains(t, prompt, "{{.ResumeText}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(CoverLetterFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	template := "Hello {{.Name}}, welcome to {{.Company}}!"
	data := map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	}

	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", Format(template, data))
}

func TestFormat_EmptyData(t *testing.T) {
	assert.Equal(t, "Hello {{.Name}}", Format("Hello {{.Name}}", map[string]string{}))
}

func TestFormat_ValuesAreNotExpanded(t *testing.T) {
	template := "Job: {{.JobText}}\nResume: {{.ResumeText}}"
	data := map[string]string{
		"JobText":    "mentions {{.ResumeText}} literally",
		"ResumeText": "Jane",
	}

	assert.Equal(t, "Job: mentions {{.ResumeText}} literally\nResume: Jane", Format(template, data))
}

func TestRender_MissingValue(t *testing.T) {
	ClearCache()

	_, err := Render(CoverLetterFile, "default", map[string]string{"JobText": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{.ResumeText}}")
}

func TestCoverLetter_AllTemplates(t *testing.T) {
	ClearCache()

	for _, templateType := range []string{"default", "concise", "enthusiastic"} {
		t.Run(templateType, func(t *testing.T) {
			prompt, err := CoverLetter(templateType, "Senior Go Engineer at Acme", "Jane Doe, 8 years of Go")
			require.NoError(t, err)
			assert.Contains(t, prompt, "Senior Go Engineer at Acme")
			assert.Contains(t, prompt, "Jane Doe, 8 years of Go")
			assert.Contains(t, prompt, "Dear")
			assert.NotContains(t, prompt, "{{.")
		})
	}
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(CoverLetterFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"concise", "default", "enthusiastic", MetadataContextKey}, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	prompt1, err := Get(CoverLetterFile, "concise")
	require.NoError(t, err)

	prompt2, err := Get(CoverLetterFile, "concise")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
