package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-api-key", WithBaseURL(srv.URL))
	return srv, c
}

func TestScrape(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    bool
		wantAPIErr bool
		wantStatus int
	}{
		{
			name: "happy path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/scrape", r.URL.Path)
				assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req ScrapeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://acme.example", req.URL)

				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(ScrapeResponse{
					Success: true,
					Data:    PageData{URL: req.URL, Markdown: "# About", Title: "About"},
				})
			},
		},
		{
			name: "auth error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 401,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal server error"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, tt.handler)
			resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://acme.example"})

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantAPIErr {
					var apiErr *APIError
					require.ErrorAs(t, err, &apiErr)
					assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Equal(t, "About", resp.Data.Title)
		})
	}
}

func TestExtract(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)

		var req ExtractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"https://acme.example/*"}, req.URLs)
		assert.Equal(t, "https://acme.example/leadership", req.PriorityURL)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(ExtractResponse{
			Success: true,
			Data: ExtractData{
				Leadership: []LeadershipRecord{
					{Name: "Jane Doe", Title: "CEO", Organization: "Acme Corp"},
					{Name: "John Roe", Title: "CFO", Organization: "Acme Corp"},
				},
			},
		})
	})

	resp, err := c.Extract(context.Background(), ExtractRequest{
		URLs:        []string{"https://acme.example/*"},
		Prompt:      "extract leadership",
		PriorityURL: "https://acme.example/leadership",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Leadership, 2)
	assert.Equal(t, "Jane Doe", resp.Data.Leadership[0].Name)
}

func TestExtract_ContextCancellation(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(ExtractResponse{Success: true})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Extract(ctx, ExtractRequest{URLs: []string{"https://acme.example"}})
	require.Error(t, err)
}
