package encode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBase64RoundTrip(t *testing.T) {
	original := []byte("hello")
	encoded := EncodeBase64String(original)
	decoded, err := DecodeBase64String(encoded)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestDataURLRoundTrip(t *testing.T) {
	raw := EncodeDataURL("image/png", []byte{0x89, 'P', 'N', 'G'})
	require.Equal(t, "data:image/png;base64,iVBORw==", raw)

	parsed, err := ParseDataURL(raw)
	require.NoError(t, err)
	require.Equal(t, "image/png", parsed.MIMEType)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, parsed.Data)
	require.Equal(t, raw, parsed.String())
}

func TestParseDataURLNormalizesMediaType(t *testing.T) {
	parsed, err := ParseDataURL("DATA:Image/JPEG;name=coin.jpg;base64,aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", parsed.MIMEType)
	require.Equal(t, []byte("hello"), parsed.Data)
}

func TestParseDataURLFailures(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrNotDataURL},
		{"plain url", "https://example.com/coin.png", ErrNotDataURL},
		{"no comma", "data:image/png;base64", ErrMissingPayload},
		{"no mime", "data:;base64,aGVsbG8=", ErrMissingMIME},
		{"bad mime", "data:png;base64,aGVsbG8=", ErrInvalidMIME},
		{"not base64 encoded", "data:image/png,hello", ErrNotBase64},
		{"empty payload", "data:image/png;base64,", ErrMissingPayload},
		{"garbage payload", "data:image/png;base64,@@@", ErrInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDataURL(tc.input)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)

			var dErr *DataURLError
			require.True(t, errors.As(err, &dErr))
		})
	}
}
