package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("generation.json", "system")
	require.NoError(t, err)
	assert.Contains(t, prompt, "BRAND VOICE GUIDE")
	assert.Contains(t, prompt, `"complianceNotes"`)
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("generation.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
	assert.NotPanics(t, func() {
		assert.NotEmpty(t, MustGet("generation.json", "user"))
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
	template := "Hello {{.Name}}"
	assert.Equal(t, template, Format(template, map[string]string{}))
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	template := "{{.A}} and {{.B}}"
	data := map[string]string{
		"A": "literal {{.B}}",
		"B": "bee",
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, "literal {{.B}} and bee", Format(template, data))
	}
}

func TestCaching(t *testing.T) {
	ClearCache()

	prompt1, err := Get("generation.json", "user")
	require.NoError(t, err)

	prompt2, err := Get("generation.json", "user")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
