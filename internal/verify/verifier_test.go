package verify

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/graphide-orchestrator/tests/helpers"
)

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier()

	tests := []struct {
		name          string
		original      string
		patched       string
		language      string
		wantValid     bool
		wantSupported bool
		wantUnchanged bool
	}{
		{
			name:          "valid_c_patch",
			original:      helpers.VulnerableC,
			patched:       helpers.PatchedC,
			language:      "c",
			wantValid:     true,
			wantSupported: true,
		},
		{
			name:          "broken_c_patch",
			original:      helpers.VulnerableC,
			patched:       helpers.BrokenC,
			language:      "C",
			wantValid:     false,
			wantSupported: true,
		},
		{
			name:          "cpp_alias",
			original:      "",
			patched:       "int main() { std::string s; return 0; }",
			language:      "c++",
			wantValid:     true,
			wantSupported: true,
		},
		{
			name:          "python_syntax_error",
			patched:       "def f(:\n    return 1\n",
			language:      "py",
			wantValid:     false,
			wantSupported: true,
		},
		{
			name:          "unchanged_patch",
			original:      helpers.PatchedC,
			patched:       helpers.PatchedC + "\n",
			language:      "c",
			wantValid:     true,
			wantSupported: true,
			wantUnchanged: true,
		},
		{
			name:          "unsupported_language_passes",
			patched:       "fn main() {",
			language:      "rust",
			wantValid:     true,
			wantSupported: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Verify(context.Background(), tt.original, tt.patched, tt.language)
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, res.Valid, "errors: %v", res.Errors)
			assert.Equal(t, tt.wantSupported, res.Supported)
			assert.Equal(t, tt.wantUnchanged, res.Unchanged)
			assert.NotNil(t, res.Errors)
			if !tt.wantValid {
				assert.NotEmpty(t, res.Errors)
			}
		})
	}
}

func TestVerifier_EmptyPatch(t *testing.T) {
	res, err := NewVerifier().Verify(context.Background(), helpers.VulnerableC, "   ", "c")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"patched code is empty"}, res.Errors)
}

func TestShorten(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "short_text_kept", in: "int x;", want: "int x;"},
		{name: "ascii_cut", in: strings.Repeat("a", 45), want: strings.Repeat("a", 40) + "..."},
		{name: "multibyte_not_split", in: strings.Repeat("é", 41), want: strings.Repeat("é", 40) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shorten(tt.in, snippetRunes)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
