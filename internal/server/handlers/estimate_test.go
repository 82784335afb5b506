package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coinlens/coinlens/internal/ailink"
	"github.com/coinlens/coinlens/internal/ailink/prompt"
	apperrors "github.com/coinlens/coinlens/internal/errors"
	"github.com/coinlens/coinlens/internal/estimate"
)

const validAnswer = `{"variants":[{"description":"1909 VDB","estimatedValue":"$10 - $25","imageUrl":"https://example.com/vdb.jpg","composition":"95% Copper","weight":"3.11 g","diameter":"19.05 mm","history":"VDB initials removed."}],"confidence":"High"}`

type stubEstimator struct {
	mu    sync.Mutex
	calls []ailink.CompletionRequest
	text  string
	err   error
}

func (s *stubEstimator) Complete(_ context.Context, req ailink.CompletionRequest) (*ailink.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &ailink.CompletionResponse{Text: s.text}, nil
}

func (s *stubEstimator) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestHandler(t *testing.T, est estimate.Estimator, maxBody int64) *EstimateHandler {
	t.Helper()
	prompts, err := prompt.DefaultRegistry()
	require.NoError(t, err)
	svc, err := estimate.NewService(estimate.Options{
		Config:    estimate.DefaultConfig(),
		Estimator: est,
		Prompts:   prompts,
		Clock:     func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return NewEstimateHandler(svc, maxBody)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAttributesReturnsResult(t *testing.T) {
	est := &stubEstimator{text: validAnswer}
	h := newTestHandler(t, est, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates/attributes", strings.NewReader(`{"coinType":"Lincoln Penny","mintYear":"1909"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Attributes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result estimate.EstimationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Variants, 1)
	require.Equal(t, "High", result.Confidence)
	require.Equal(t, 1, est.count())
}

func TestAttributesValidationFailure(t *testing.T) {
	est := &stubEstimator{text: validAnswer}
	h := newTestHandler(t, est, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates/attributes", strings.NewReader(`{"coinType":"Lincoln Penny","mintYear":"abcd"}`))
	rec := httptest.NewRecorder()
	h.Attributes(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, apperrors.CodeValidationFailed, body.Error.Code)
	require.Contains(t, body.Error.Details, "violations")
	require.Equal(t, 0, est.count())
}

func TestAttributesProviderFailure(t *testing.T) {
	est := &stubEstimator{err: errors.New("upstream exploded with key sk-abc")}
	h := newTestHandler(t, est, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates/attributes", strings.NewReader(`{"coinType":"Peace Dollar","mintYear":1922}`))
	rec := httptest.NewRecorder()
	h.Attributes(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, apperrors.CodeEstimationUnavailable, body.Error.Code)
	require.Equal(t, "estimation unavailable", body.Error.Message)
	require.NotContains(t, rec.Body.String(), "sk-abc")
}

func TestAttributesBadBodies(t *testing.T) {
	h := newTestHandler(t, &stubEstimator{text: validAnswer}, 64)

	cases := []struct {
		name        string
		contentType string
		body        string
		status      int
	}{
		{"empty", "application/json", "", http.StatusBadRequest},
		{"malformed", "application/json", "{", http.StatusBadRequest},
		{"wrong type", "text/plain", "hello", http.StatusUnsupportedMediaType},
		{"too large", "application/json", `{"coinType":"` + strings.Repeat("x", 200) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/estimates/attributes", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rec := httptest.NewRecorder()
			h.Attributes(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestImageJSONDataURI(t *testing.T) {
	est := &stubEstimator{text: validAnswer}
	h := newTestHandler(t, est, 0)

	body := `{"coinType":"Lincoln Penny","mintYear":"1909","image":"data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="}`
	req := httptest.NewRequest(http.MethodPost, "/v1/estimates/image", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.Image(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, est.count())
	require.Equal(t, estimate.ImagePromptSlug, est.calls[0].PromptSlug)
	require.Len(t, est.calls[0].Images, 1)
}

func multipartBody(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "coin.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 184, G: 115, B: 51, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageMultipartPhoto(t *testing.T) {
	est := &stubEstimator{text: validAnswer}
	h := newTestHandler(t, est, 0)

	body, contentType := multipartBody(t, map[string]string{
		"coinType":  "Lincoln Penny",
		"mintYear":  "1909",
		"condition": "Fine",
	}, pngBytes(t, 2048, 1024))

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Image(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, est.count())
	images := est.calls[0].Images
	require.Len(t, images, 1)
	require.Equal(t, "image/jpeg", string(images[0].Type))
	require.True(t, strings.HasPrefix(images[0].DataURL, "data:image/jpeg;base64,"))
	require.Contains(t, est.calls[0].User, "Fine")
}

func TestImageMultipartRejectsBadPhotos(t *testing.T) {
	cases := []struct {
		name  string
		photo []byte
	}{
		{"missing", nil},
		{"not an image", []byte("%PDF-1.7 this is a document")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est := &stubEstimator{text: validAnswer}
			h := newTestHandler(t, est, 0)

			body, contentType := multipartBody(t, map[string]string{"coinType": "Lincoln Penny", "mintYear": "1909"}, tc.photo)
			req := httptest.NewRequest(http.MethodPost, "/v1/estimates/image", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.Image(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, apperrors.CodeValidationFailed, decodeError(t, rec).Error.Code)
			require.Equal(t, 0, est.count())
		})
	}
}

func TestImageMultipartRejectsOversizedPhoto(t *testing.T) {
	est := &stubEstimator{text: validAnswer}
	prompts, err := prompt.DefaultRegistry()
	require.NoError(t, err)
	cfg := estimate.DefaultConfig()
	cfg.MaxImagePixels = 10_000
	svc, err := estimate.NewService(estimate.Options{Config: cfg, Estimator: est, Prompts: prompts})
	require.NoError(t, err)
	h := NewEstimateHandler(svc, 0)

	body, contentType := multipartBody(t, map[string]string{"coinType": "Morgan Dollar", "mintYear": "1921"}, pngBytes(t, 200, 200))
	req := httptest.NewRequest(http.MethodPost, "/v1/estimates/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Image(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Equal(t, apperrors.CodeValidationFailed, resp.Error.Code)
	violations, ok := resp.Error.Details["violations"].([]interface{})
	require.True(t, ok)
	require.Len(t, violations, 1)
	violation := violations[0].(map[string]interface{})
	require.Equal(t, "photo", violation["field"])
	require.Equal(t, "max_pixels", violation["constraint"])
	require.Equal(t, 0, est.count())
}

func TestCoinsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	CoinsHandler(rec, httptest.NewRequest(http.MethodGet, "/v1/coins", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CoinsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Denominations, 6)
	require.Len(t, resp.Conditions, 5)
	require.Equal(t, "Penny", resp.Denominations[0].Name)
}
