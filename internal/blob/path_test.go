package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeComponent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple id", input: "job_abc123"},
		{name: "hyphenated", input: "tenant-a"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot dot", input: "..", wantErr: true},
		{name: "embedded traversal", input: "a..b", wantErr: true},
		{name: "slash", input: "a/b", wantErr: true},
		{name: "backslash", input: `a\b`, wantErr: true},
		{name: "space", input: "a b", wantErr: true},
		{name: "dot not allowed in components", input: "a.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeComponent(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, got)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "plain", input: "photo.png", expected: "photo.png"},
		{name: "mixed characters", input: "a-valid_file.v2.png", expected: "a-valid_file.v2.png"},
		{name: "directory prefix stripped", input: "some/dir/photo.png", expected: "photo.png"},
		{name: "windows prefix stripped", input: `C:\uploads\photo.png`, expected: "photo.png"},
		{name: "traversal reduces to base name", input: "../../etc/passwd", expected: "passwd"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dot dot", input: "..", wantErr: true},
		{name: "trailing slash", input: "dir/", wantErr: true},
		{name: "illegal characters", input: "pho to.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRawAndOutputPath(t *testing.T) {
	raw, err := RawPath("tenant_a", "job_1", "item_1", "photo.png")
	require.NoError(t, err)
	assert.Equal(t, "tenant_a/jobs/job_1/items/item_1/raw/photo.png", raw)

	out, err := OutputPath("tenant_a", "job_1", "item_1", "out_1.png")
	require.NoError(t, err)
	assert.Equal(t, "tenant_a/jobs/job_1/items/item_1/outputs/out_1.png", out)

	_, err = RawPath("../evil", "job_1", "item_1", "photo.png")
	assert.Error(t, err)

	_, err = OutputPath("tenant_a", "job_1", "item_1", "")
	assert.Error(t, err)
}
