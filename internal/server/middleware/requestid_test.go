package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestIDHeaderHandling(t *testing.T) {
	tests := []struct {
		name     string
		inbound  string
		wantKeep bool
	}{
		{name: "absent", inbound: "", wantKeep: false},
		{name: "uuid", inbound: "0f8fad5b-d9cb-469f-a165-70867728950e", wantKeep: true},
		{name: "trace style", inbound: "edge-01:req.42_a", wantKeep: true},
		{name: "newline injection", inbound: "abc\nX-Admin: 1", wantKeep: false},
		{name: "spaces", inbound: "coin lens", wantKeep: false},
		{name: "too long", inbound: strings.Repeat("a", maxRequestIDLen+1), wantKeep: false},
		{name: "at limit", inbound: strings.Repeat("a", maxRequestIDLen), wantKeep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/v1/estimates/attributes", nil)
			if tt.inbound != "" {
				req.Header[RequestIDHeader] = []string{tt.inbound}
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			require.Equal(t, seen, got)
			if tt.wantKeep {
				require.Equal(t, tt.inbound, got)
				return
			}
			_, err := uuid.Parse(got)
			require.NoError(t, err)
		})
	}
}
