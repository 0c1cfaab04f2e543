package assets

import (
	"testing"

	"notehub-engine/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestRewrite(t *testing.T) {
	known := []entity.Asset{
		{RelativePath: "./assets/diagram.png", PreviewURL: "blob:http://localhost:1420/5f1c"},
		{RelativePath: "./assets/scan page.jpg", PreviewURL: ""},
	}

	tests := []struct {
		name      string
		content   string
		want      string
		wantCount int
	}{
		{
			name:      "no assets referenced",
			content:   "plain text",
			want:      "plain text",
			wantCount: 0,
		},
		{
			name:      "exact preview url",
			content:   "![d](blob:http://localhost:1420/5f1c)",
			want:      "![d](./assets/diagram.png)",
			wantCount: 1,
		},
		{
			name:      "asset protocol matched by file name",
			content:   `<img src="asset://localhost/home/u/vault/assets/scan%20page.jpg?v=2">`,
			want:      `<img src="./assets/scan page.jpg">`,
			wantCount: 1,
		},
		{
			name:      "unknown ephemeral url left alone",
			content:   "![x](https://asset.localhost/tmp/other.png)",
			want:      "![x](https://asset.localhost/tmp/other.png)",
			wantCount: 0,
		},
		{
			name:      "stable paths untouched",
			content:   "![d](./assets/diagram.png) and ![d](blob:http://localhost:1420/5f1c)",
			want:      "![d](./assets/diagram.png) and ![d](./assets/diagram.png)",
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := Rewrite(tt.content, known)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestRewrite_NoKnownAssets(t *testing.T) {
	content := "![d](blob:http://localhost:1420/5f1c)"
	got, n := Rewrite(content, nil)
	assert.Equal(t, content, got)
	assert.Zero(t, n)
}

func TestEphemeralURLDetection(t *testing.T) {
	assert.True(t, isEphemeral("blob:http://localhost/abc"))
	assert.True(t, isEphemeral("http://asset.localhost/x.png"))
	assert.False(t, isEphemeral("./assets/x.png"))
	assert.False(t, isEphemeral("https://example.com/x.png"))
	assert.True(t, isEphemeral("see ![a](blob:http://localhost/abc) here"))
}
