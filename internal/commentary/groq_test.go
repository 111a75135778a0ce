package commentary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

func testCandidate() *models.Candidate {
	key := models.RaceKey{Date: "20260901", Venue: 12, Race: 7}
	return &models.Candidate{
		Key:        key,
		Combo:      "1-2",
		Confidence: 0.55,
		BestBoat:   1,
		Record:     models.NewRaceRecord(key),
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(&config.CommentaryConfig{
		Enabled: true,
		BaseURL: baseURL,
		Model:   "llama-3.3-70b-versatile",
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "llama-3.3-70b-versatile" {
			t.Errorf("model = %q", req.Model)
		}

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: " 本命1号艇が盤石。 "}},
			},
		})
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).Generate(context.Background(), testCandidate())
	if got != "本命1号艇が盤石。" {
		t.Errorf("Generate = %q, want trimmed model output", got)
	}
}

func TestGenerate_FailuresFallBackToPlaceholder(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}},
		{"empty content", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "  "}}]}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if got := newTestClient(srv.URL).Generate(context.Background(), testCandidate()); got != Placeholder {
				t.Errorf("Generate = %q, want placeholder", got)
			}
		})
	}
}

func TestGenerate_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	if got := newTestClient(srv.URL).Generate(context.Background(), testCandidate()); got != Placeholder {
		t.Errorf("Generate = %q, want placeholder", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	cand := testCandidate()
	cand.Record.Wind = 3.4

	prompt := buildPrompt(cand)
	for _, want := range []string{"住之江", "7R", "1-2", "3.4m", "1号艇"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %s", want, prompt)
		}
	}
}
