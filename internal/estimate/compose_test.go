package estimate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinlens/coinlens/internal/ailink/content"
	"github.com/coinlens/coinlens/internal/ailink/prompt"
)

func TestComposeAttributeRequestUsesAttributesTemplate(t *testing.T) {
	c := NewComposer(testPrompts(t))

	p, err := c.Compose(AttributeRequest{Attributes: Attributes{CoinType: "Lincoln Penny", MintYear: 1909, Condition: ConditionFine}})
	require.NoError(t, err)
	require.Equal(t, AttributesPromptSlug, p.Slug)
	require.Empty(t, p.Images)
	require.Contains(t, p.System, "numismatist")
	require.Contains(t, p.User, "Coin type: Lincoln Penny")
	require.Contains(t, p.User, "Mint year: 1909")
	require.Contains(t, p.User, "Condition: Fine")
	require.NotEmpty(t, p.ResponseSchema)
	require.NotNil(t, p.Temperature)
	require.InDelta(t, 0.2, *p.Temperature, 1e-9)
}

func TestComposeWithoutConditionAsksForRanges(t *testing.T) {
	p, err := NewComposer(testPrompts(t)).Compose(AttributeRequest{Attributes: Attributes{CoinType: "Morgan Dollar", MintYear: 1921}})
	require.NoError(t, err)
	require.Contains(t, p.User, "not stated")
	require.NotContains(t, p.User, "{{")
}

func TestComposeImageRequestUsesImageTemplate(t *testing.T) {
	uri, err := ParseImage(pngDataURI, 0)
	require.NoError(t, err)

	p, err := NewComposer(testPrompts(t)).Compose(ImageRequest{
		Attributes: Attributes{CoinType: "Lincoln Penny", MintYear: 1909},
		Image:      uri,
	})
	require.NoError(t, err)
	require.Equal(t, ImagePromptSlug, p.Slug)
	require.Len(t, p.Images, 1)
	require.Equal(t, content.ContentType("image/png"), p.Images[0].Type)
	require.Equal(t, uri.Data, p.Images[0].Data)
	require.Equal(t, pngDataURI, p.Images[0].DataURL)
	require.Contains(t, p.User, "Lincoln Penny")
	require.Contains(t, p.User, "mint mark")
	require.Contains(t, p.System, "mint mark")
	require.NotContains(t, p.User, "{{")
}

func TestComposeImageRequestAsksToVerifyGrade(t *testing.T) {
	uri, err := ParseImage(pngDataURI, 0)
	require.NoError(t, err)

	p, err := NewComposer(testPrompts(t)).Compose(ImageRequest{
		Attributes: Attributes{CoinType: "Lincoln Penny", MintYear: 1909, Condition: ConditionFine},
		Image:      uri,
	})
	require.NoError(t, err)
	require.Contains(t, p.User, "The owner grades it as: Fine. Check that grade against the photo.")
	require.NotContains(t, p.User, "Estimate the grade")
}

func TestComposeRejectsUnsupportedImageType(t *testing.T) {
	_, err := NewComposer(testPrompts(t)).Compose(ImageRequest{
		Attributes: Attributes{CoinType: "Lincoln Penny", MintYear: 1909},
		Image:      DataURI{MIMEType: "image/bmp", Data: []byte("BM")},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "mime_type", verr.Violations[0].Constraint)
}

func TestComposeMissingTemplate(t *testing.T) {
	reg, err := prompt.NewRegistry(nil)
	require.NoError(t, err)

	_, err = NewComposer(reg).Compose(AttributeRequest{Attributes: Attributes{CoinType: "x", MintYear: 1999}})
	require.Error(t, err)
	require.Contains(t, err.Error(), AttributesPromptSlug)
}
