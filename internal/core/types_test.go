package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateHandleTrimsWhitespace(t *testing.T) {
	handle, err := ValidateHandle("  octocat  ")
	require.NoError(t, err)
	require.Equal(t, "octocat", handle)
}

func TestValidateHandleAllowsPermittedCharacters(t *testing.T) {
	handle, err := ValidateHandle("dev_user.name-2")
	require.NoError(t, err)
	require.Equal(t, "dev_user.name-2", handle)
}

func TestValidateHandleRejectsEmpty(t *testing.T) {
	_, err := ValidateHandle("   ")
	require.Error(t, err)
}

func TestValidateHandleRejectsIllegalCharacters(t *testing.T) {
	for _, handle := range []string{"user name", "user@site", "user!", "héllo"} {
		_, err := ValidateHandle(handle)
		require.Error(t, err, "handle %q should be rejected", handle)
	}
}

func TestValidateHandleLengthBoundary(t *testing.T) {
	atLimit := strings.Repeat("a", 64)
	handle, err := ValidateHandle(atLimit)
	require.NoError(t, err)
	require.Equal(t, atLimit, handle)

	_, err = ValidateHandle(strings.Repeat("a", 65))
	require.Error(t, err)
}

func TestProfileURLSubstitutesHandle(t *testing.T) {
	def := PlatformDefinition{ProfileURLTemplate: "https://example.com/{handle}"}
	require.Equal(t, "https://example.com/octocat", def.ProfileURL("octocat"))
}
