package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/models"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Code Review", "Code Review"},
		{"  what/is:this?  ", "whatisthis"},
		{"snake_case-and-dash", "snake_case-and-dash"},
		{"émoji 🚀 title", "moji  title"},
		{"???", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "SanitizeName(%q)", tt.in)
	}
}

func TestValidatePrompt(t *testing.T) {
	ok := &models.Prompt{Name: "Greeting", FolderID: models.NoFolder}
	assert.NoError(t, Struct(ok))

	bad := &models.Prompt{FolderID: -5}
	result := Validate(bad)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Name", result.Errors[0].Field)
	assert.Equal(t, "REQUIRED", result.Errors[0].Code)
	assert.Equal(t, "FolderID", result.Errors[1].Field)

	appErr := result.ToAppError()
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "Name is required", appErr.Message)
	assert.Contains(t, appErr.Details, "FolderID: FolderID must be at least -1")
}

func TestValidateFolderName(t *testing.T) {
	assert.NoError(t, Struct(&models.Folder{Name: "Work"}))

	err := Struct(&models.Folder{Name: "///"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestPlaceholderTag(t *testing.T) {
	type input struct {
		Name string `validate:"placeholder"`
	}
	assert.NoError(t, Struct(input{Name: "topic"}))
	assert.Error(t, Struct(input{Name: "a|b"}))
	assert.Error(t, Struct(input{Name: "   "}))
}

func TestParseVars(t *testing.T) {
	vars, err := ParseVars([]string{"name=Ada", " topic =a=b", "empty=", "name=Grace"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"name":  "Grace",
		"topic": "a=b",
		"empty": "",
	}, vars)

	_, err = ParseVars([]string{"novalue"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))

	_, err = ParseVars([]string{"bad|name=x"})
	assert.Error(t, err)

	_, err = ParseVars([]string{"=x"})
	assert.Error(t, err)
}
