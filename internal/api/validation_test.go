package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorRejectsBlankText(t *testing.T) {
	v := NewValidator()

	for _, text := range []string{"", "   ", "\n\t"} {
		errs := v.Struct(&CreatePostRequest{Text: text})
		require.Len(t, errs, 1, "text %q", text)
		assert.Equal(t, "Text is required", errs[0].Msg)
		assert.Equal(t, "text", errs[0].Param)
		assert.Equal(t, "body", errs[0].Location)
	}

	assert.Nil(t, v.Struct(&CreatePostRequest{Text: "hello"}))
}

func TestValidatorRegistration(t *testing.T) {
	v := NewValidator()

	errs := v.Struct(RegisterUserRequest{Name: "", Email: "not-an-email", Password: "123"})
	require.Len(t, errs, 3)

	params := map[string]string{}
	for _, e := range errs {
		params[e.Param] = e.Msg
	}
	assert.Equal(t, "Name is required", params["name"])
	assert.Equal(t, "Please include a valid email", params["email"])
	assert.Equal(t, "Please enter a password with 6 or more characters", params["password"])

	assert.Nil(t, v.Struct(RegisterUserRequest{Name: "Ada", Email: "ada@example.com", Password: "123456"}))
}

func TestValidatorProfileRequiresStatusAndSkills(t *testing.T) {
	v := NewValidator()

	errs := v.Struct(&ProfileRequest{Company: "ACME"})
	require.Len(t, errs, 2)
	assert.Equal(t, "status", errs[0].Param)
	assert.Equal(t, "skills", errs[1].Param)
}
