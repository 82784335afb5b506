package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	prompts, err := LoadDefaults()
	require.NoError(t, err)
	require.Len(t, prompts, 2)

	reg, err := NewRegistry(prompts)
	require.NoError(t, err)

	attrs, err := reg.Get("coin-estimate-attributes")
	require.NoError(t, err)
	require.NotEmpty(t, attrs.Config.SystemTemplate)
	require.False(t, attrs.Config.Input.AcceptsImages)
	require.Equal(t, "object", attrs.Config.ResponseSchema["type"])

	image, err := reg.Get("coin-estimate-image")
	require.NoError(t, err)
	require.True(t, image.Config.Input.AcceptsImages)
	require.Equal(t, 1, image.Config.Input.MaxImages)
	require.Contains(t, image.Config.Input.RequiredVariables, "image_mime")
}

func TestDefaultPromptsRender(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	p, err := reg.Get("coin-estimate-attributes")
	require.NoError(t, err)

	system, user, err := p.Render(map[string]string{"coin_type": "Lincoln Penny", "mint_year": "1909", "condition": "Very Fine"})
	require.NoError(t, err)
	require.Contains(t, system, "numismatist")
	require.Contains(t, user, "Coin type: Lincoln Penny")
	require.Contains(t, user, "Mint year: 1909")
	require.Contains(t, user, "Condition: Very Fine")
	require.NotContains(t, user, "{{")

	_, user, err = p.Render(map[string]string{"coin_type": "Lincoln Penny", "mint_year": "1909"})
	require.NoError(t, err)
	require.Contains(t, user, "Condition: not stated")
}

func TestLoadRejectsInvalidFrontmatter(t *testing.T) {
	_, err := Load("bad.md", []byte("---\nslug: Bad Slug\n---\nbody"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "validate prompt")

	_, err = Load("empty.md", []byte("   "))
	require.Error(t, err)

	_, err = Load("nosys.md", []byte("---\nslug: ok\n---\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing system_template")
}

func TestLoadRegistryOverridesBySlug(t *testing.T) {
	dir := t.TempDir()
	override := "---\nslug: coin-estimate-attributes\nuser_template: \"{{coin_type}}\"\n---\nCustom appraiser.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attrs.md"), []byte(override), 0o600))
	extra := "---\nslug: coin-grading\n---\nGrade the coin.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grading.md"), []byte(extra), 0o600))

	reg, err := LoadRegistry(dir)
	require.NoError(t, err)
	require.Len(t, reg.List(), 3)

	p, err := reg.Get("coin-estimate-attributes")
	require.NoError(t, err)
	require.Equal(t, "Custom appraiser.", p.Config.SystemTemplate)

	_, err = reg.Get("coin-estimate-image")
	require.NoError(t, err)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	p := &Prompt{Config: Config{Slug: "a", SystemTemplate: "x"}}
	_, err := NewRegistry([]*Prompt{p, p})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestRegistrySlugsAndRequire(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	require.Equal(t, []string{"coin-estimate-attributes", "coin-estimate-image"}, Slugs(reg))
	require.NoError(t, Require(reg, "coin-estimate-attributes", "coin-estimate-image"))

	only, err := NewRegistry([]*Prompt{{Config: Config{Slug: "coin-estimate-attributes", SystemTemplate: "x"}}})
	require.NoError(t, err)
	err = Require(only, "coin-estimate-attributes", "coin-estimate-image")
	require.Error(t, err)
	require.Contains(t, err.Error(), "coin-estimate-image")
	require.NotContains(t, err.Error(), "coin-estimate-attributes")

	require.Error(t, Require(nil, "coin-estimate-image"))
	require.Nil(t, Slugs(nil))
}
