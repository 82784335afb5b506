package estimate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coinlens/coinlens/internal/ailink"
	"github.com/coinlens/coinlens/internal/ailink/prompt"
)

const lincolnResult = `{
  "variants": [
    {
      "description": "1909 VDB Lincoln Penny (Philadelphia)",
      "estimatedValue": "$10 - $25",
      "imageUrl": "https://upload.wikimedia.org/wikipedia/commons/1909-vdb.jpg",
      "composition": "95% Copper, 5% Tin and Zinc",
      "weight": "3.11 g",
      "diameter": "19.05 mm",
      "history": "The designer's initials VDB were removed days after release."
    },
    {
      "description": "1909-S VDB Lincoln Penny",
      "estimatedValue": "$700 - $1,500",
      "imageUrl": "https://www.pcgs.com/coinfacts/coin/1909-s-vdb-1c/2426",
      "composition": "95% Copper, 5% Tin and Zinc",
      "weight": "3.11 g",
      "diameter": "19.05 mm",
      "history": "Only 484,000 were struck at San Francisco."
    }
  ],
  "confidence": "High"
}`

var fixedNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeEstimator records calls and replays a canned answer.
type fakeEstimator struct {
	mu    sync.Mutex
	calls []ailink.CompletionRequest
	text  string
	err   error
	// block waits for ctx cancellation before answering.
	block bool
}

func (f *fakeEstimator) Complete(ctx context.Context, req ailink.CompletionRequest) (*ailink.CompletionResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ailink.CompletionResponse{Text: f.text, ProviderID: "fake", Driver: "fake", Model: "fake-model"}, nil
}

func (f *fakeEstimator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEstimator) lastCall() ailink.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func testValidator(t *testing.T, opts ...ValidatorOption) *Validator {
	t.Helper()
	v, err := NewValidator(append([]ValidatorOption{WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)
	return v
}

func testPrompts(t *testing.T) prompt.Registry {
	t.Helper()
	reg, err := prompt.DefaultRegistry()
	require.NoError(t, err)
	return reg
}

func testService(t *testing.T, est Estimator, cfg Config) *Service {
	t.Helper()
	svc, err := NewService(Options{
		Config:          cfg,
		Estimator:       est,
		Prompts:         testPrompts(t),
		Clock:           fixedClock,
		RawCaptureLimit: 64,
	})
	require.NoError(t, err)
	return svc
}

// pngDataURI is a 1x1 transparent PNG.
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="
