package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"}
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEmbeddedSchemas_ValidJSON(t *testing.T) {
	for _, name := range []string{Variants, Export} {
		t.Run(name, func(t *testing.T) {
			content, err := Load(name)
			require.NoError(t, err)

			var v interface{}
			assert.NoError(t, json.Unmarshal([]byte(content), &v))
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("missing.schema.json")
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidate_Variants(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantError bool
	}{
		{
			name:      "complete variant",
			json:      `{"variants":[{"label":"A","headline":"H","body":"B","cta":"Buy","hashtags":["x"],"complianceNotes":"none"}]}`,
			wantError: false,
		},
		{
			name:      "empty hashtags allowed",
			json:      `{"variants":[{"label":"A","headline":"H","body":"B","cta":"Buy","hashtags":[],"complianceNotes":""}]}`,
			wantError: false,
		},
		{
			name:      "missing variants key",
			json:      `{"items":[]}`,
			wantError: true,
		},
		{
			name:      "empty variants",
			json:      `{"variants":[]}`,
			wantError: true,
		},
		{
			name:      "missing cta",
			json:      `{"variants":[{"label":"A","headline":"H","body":"B","hashtags":[],"complianceNotes":""}]}`,
			wantError: true,
		},
		{
			name:      "hashtags not a list",
			json:      `{"variants":[{"label":"A","headline":"H","body":"B","cta":"Buy","hashtags":"#x","complianceNotes":""}]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Variants, tt.json)
			if tt.wantError {
				require.Error(t, err)
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Export(t *testing.T) {
	valid := `{
		"generatedAt": "2026-03-01T10:00:00Z",
		"product": {
			"id": "p3", "name": "EcoClean All-Purpose Spray", "category": "Household", "brand": "EcoClean Home",
			"features": ["Plant-based"], "benefits": ["Safe around kids"], "usage": "Spray and wipe",
			"target_audience": "Families", "price_point": "$6.99", "usp": "Plant-powered clean"
		},
		"results": [{
			"channel_id": "sms",
			"channel_name": "SMS/WhatsApp",
			"variants": [{
				"label": "A", "headline": "H", "body": "B", "cta": "Buy",
				"hashtags": [], "compliance_notes": "",
				"issues": [{"rule": "No absolute safety claims", "severity": "critical", "matched_terms": ["100% safe"]}],
				"verdict": "Needs Review"
			}]
		}]
	}`
	assert.NoError(t, Validate(Export, valid))

	badVerdict := `{"generatedAt": "2026-03-01T10:00:00Z",
		"product": {"id": "p3", "name": "X", "category": "Household", "brand": "Y"}, "results": [{
		"channel_id": "sms", "channel_name": "SMS", "variants": [{
			"label": "A", "headline": "H", "body": "B", "cta": "Buy", "hashtags": [],
			"compliance_notes": "", "issues": [], "verdict": "Fine"}]}]}`
	assert.Error(t, Validate(Export, badVerdict))

	nameOnly := `{"generatedAt": "2026-03-01T10:00:00Z", "product": "EcoClean All-Purpose Spray", "results": []}`
	assert.Error(t, Validate(Export, nameOnly))

	missingBrand := `{"generatedAt": "2026-03-01T10:00:00Z",
		"product": {"id": "p3", "name": "X", "category": "Household"}, "results": []}`
	err := Validate(Export, missingBrand)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brand")
}

func TestValidateJSON_Files(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", personSchema)

	t.Run("valid", func(t *testing.T) {
		jsonPath := writeFile(t, dir, "valid.json", `{"name": "test"}`)
		assert.NoError(t, ValidateJSON(schemaPath, jsonPath))
	})

	t.Run("missing field", func(t *testing.T) {
		jsonPath := writeFile(t, dir, "invalid.json", `{"age": 30}`)
		err := ValidateJSON(schemaPath, jsonPath)
		require.Error(t, err)

		validationErr, ok := err.(*ValidationError)
		require.True(t, ok, "error should be ValidationError type")
		assert.Greater(t, len(validationErr.Errors), 0)
	})

	t.Run("schema not found", func(t *testing.T) {
		jsonPath := writeFile(t, dir, "other.json", `{"name": "test"}`)
		err := ValidateJSON(filepath.Join(dir, "nope.json"), jsonPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("document not found", func(t *testing.T) {
		err := ValidateJSON(schemaPath, filepath.Join(dir, "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestValidateJSONString_Valid(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"name": "test"}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"age": 30}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
}

func TestValidate_FileAndStringAgree(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", personSchema)
	document := `{"name": 7}`
	jsonPath := writeFile(t, dir, "doc.json", document)

	fromFile := ValidateJSON(schemaPath, jsonPath)
	fromString := ValidateJSONString(personSchema, document)

	var fileErr, stringErr *ValidationError
	require.ErrorAs(t, fromFile, &fileErr)
	require.ErrorAs(t, fromString, &stringErr)
	assert.Equal(t, stringErr.Errors, fileErr.Errors)
	assert.Equal(t, "name", fileErr.Errors[0].Field)
}

func TestValidateJSONString_RootField(t *testing.T) {
	err := ValidateJSONString(personSchema, `[]`)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidateJSONString_UnloadableSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "(string schema)", loadErr.Path)
}
