package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/coinlens/coinlens/internal/estimate"
)

func newOutputCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addOutputFlags(c)
	require.NoError(t, c.ParseFlags(args))
	var buf bytes.Buffer
	c.SetOut(&buf)
	return c, &buf
}

func TestResolveOutputFormat(t *testing.T) {
	c, _ := newOutputCmd(t, "-o", "json")
	format, err := resolveOutputFormat(c)
	require.NoError(t, err)
	require.Equal(t, "json", string(format))

	c, _ = newOutputCmd(t, "--output", "yaml")
	_, err = resolveOutputFormat(c)
	require.Error(t, err)
}

func TestWriteOutputStdoutAndFile(t *testing.T) {
	c, buf := newOutputCmd(t)
	require.NoError(t, writeOutput(c, "hello\n\n"))
	require.Equal(t, "hello\n", buf.String())

	path := filepath.Join(t.TempDir(), "nested", "out.md")
	c, buf = newOutputCmd(t, "--out", path)
	require.NoError(t, writeOutput(c, "## report"))
	require.Empty(t, buf.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "## report\n", string(data))
}

func TestCoinsCommandRendersCatalog(t *testing.T) {
	c, buf := newOutputCmd(t, "-o", "markdown")
	require.NoError(t, coinsCmd.RunE(c, nil))
	require.Contains(t, buf.String(), "| Dollar | Eisenhower Dollar, Peace Dollar")
}

func TestLoadPhotoPreparesJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 210, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "coin.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	uri, err := loadPhoto(path, 100, 0)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}

func TestLoadPhotoRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some text, not a coin"), 0o600))

	_, err := loadPhoto(path, 100, 0)
	var verr *estimate.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "image", verr.Violations[0].Field)
	require.Equal(t, "mime_type", verr.Violations[0].Constraint)

	_, err = loadPhoto(filepath.Join(t.TempDir(), "missing.png"), 100, 0)
	require.Error(t, err)
}

func TestLoadPhotoNamesFailedConstraint(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	truncated := filepath.Join(dir, "truncated.png")
	require.NoError(t, os.WriteFile(truncated, append([]byte("\x89PNG\r\n\x1a\n"), 0, 0, 0), 0o600))

	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	big := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(big, buf.Bytes(), 0o600))

	cases := []struct {
		path       string
		maxPixels  int
		constraint string
	}{
		{empty, 0, "non_empty"},
		{truncated, 0, "decode"},
		{big, 1000, "max_pixels"},
	}
	for _, tc := range cases {
		_, err := loadPhoto(tc.path, 100, tc.maxPixels)
		var verr *estimate.ValidationError
		require.ErrorAs(t, err, &verr, tc.path)
		require.Equal(t, tc.constraint, verr.Violations[0].Constraint, tc.path)
	}
}

func TestBuildInitConfigUsesDefaults(t *testing.T) {
	rendered := buildInitConfig()
	require.Contains(t, rendered, "ai_provider: gemini")
	require.Contains(t, rendered, "coin-estimate: gemini")
	require.Contains(t, rendered, "max_image_pixels: 40000000")
	require.NotContains(t, rendered, "api_key: \"sk")
}

func TestFormatFileSize(t *testing.T) {
	require.Equal(t, "512 bytes", formatFileSize(512))
	require.Equal(t, "8.0 MB", formatFileSize(8<<20))
}
