package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONLike(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]interface{}
	}{
		{
			name: "plain object",
			in:   `{"query": "cpg.method.name(\"main\")"}`,
			want: map[string]interface{}{"query": `cpg.method.name("main")`},
		},
		{
			name: "json fence",
			in:   "```json\n{\"cwe\": \"CWE-787\", \"score\": 9.8}\n```",
			want: map[string]interface{}{"cwe": "CWE-787", "score": 9.8},
		},
		{
			name: "bare fence with whitespace",
			in:   "  ```\n{\"ok\": true}\n```  ",
			want: map[string]interface{}{"ok": true},
		},
		{
			name: "prose around object",
			in:   "Here is the patch you asked for:\n{\"patched\": \"strncpy(buf, src, sizeof buf);\"}\nLet me know.",
			want: map[string]interface{}{"patched": "strncpy(buf, src, sizeof buf);"},
		},
		{
			name: "nested braces",
			in:   `result: {"nodes": [{"id": 1}, {"id": 2}], "edges": {}} done`,
			want: map[string]interface{}{
				"nodes": []interface{}{map[string]interface{}{"id": 1.0}, map[string]interface{}{"id": 2.0}},
				"edges": map[string]interface{}{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONLike(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseJSONLike() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseJSONLike_Failures(t *testing.T) {
	long := "no json here " + strings.Repeat("x", 200)

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"prose only", long},
		{"unbalanced", "{\"a\": 1"},
		{"array", "[1, 2, 3]"},
		{"null", "null"},
		{"reversed braces", "} nothing {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONLike(tt.in)
			assert.Nil(t, got)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.LessOrEqual(t, len([]rune(perr.Preview)), previewLen)
			assert.True(t, strings.HasPrefix(tt.in, perr.Preview))
			assert.Contains(t, err.Error(), "failed to parse JSON")
		})
	}
}

func TestParseJSONLike_FenceRoundTrip(t *testing.T) {
	objects := []map[string]interface{}{
		{},
		{"a": "b"},
		{"list": []interface{}{"x", 1.5, false, nil}, "nested": map[string]interface{}{"k": "v"}},
		{"code": "int main() { return 0; }"},
	}

	for _, obj := range objects {
		raw, err := json.Marshal(obj)
		require.NoError(t, err)

		for _, wrapped := range []string{
			string(raw),
			"```json\n" + string(raw) + "\n```",
			"```\n" + string(raw) + "\n```",
		} {
			got, err := ParseJSONLike(wrapped)
			require.NoError(t, err)
			if diff := cmp.Diff(obj, got); diff != "" {
				t.Errorf("round trip mismatch for %q (-want +got):\n%s", wrapped, diff)
			}

			// Parsing the re-serialized result yields the same object again.
			again, err := json.Marshal(got)
			require.NoError(t, err)
			second, err := ParseJSONLike(string(again))
			require.NoError(t, err)
			assert.Equal(t, got, second)
		}
	}
}
