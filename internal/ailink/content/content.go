package content

import "strings"

// ContentType represents supported content types using IANA media types.
type ContentType string

const (
	ContentTypeText ContentType = "text/plain"
	ContentTypeJSON ContentType = "application/json"
)

// ImageType returns the content type for an image media type (e.g. "image/jpeg").
func ImageType(mimeType string) ContentType {
	return ContentType(strings.ToLower(strings.TrimSpace(mimeType)))
}

// IsImage reports whether the content type is an image media type.
func (t ContentType) IsImage() bool {
	return strings.HasPrefix(string(t), "image/")
}

// ContentBlock represents a single piece of content.
type ContentBlock struct {
	Type    ContentType `json:"type"`
	Text    string      `json:"text,omitempty"`
	Data    []byte      `json:"data,omitempty"`
	DataURL string      `json:"data_url,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text builds a text block.
func Text(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// Image builds an image block carrying both raw bytes and the data URL form.
// Drivers pick whichever representation their provider accepts.
func Image(mimeType string, data []byte, dataURL string) ContentBlock {
	return ContentBlock{Type: ImageType(mimeType), Data: data, DataURL: dataURL}
}
