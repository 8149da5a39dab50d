package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatLLM_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != DefaultLLMModel || req.Temperature != 0.7 || req.MaxTokens != 2000 {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "write" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  # Report  "}}]}`))
	}))
	defer srv.Close()

	llm := NewChatLLM(LLMConfig{BaseURL: srv.URL + "/v1/", APIKey: "gsk-test"})

	got, err := llm.Complete(context.Background(), "write")
	if err != nil {
		t.Fatalf("Complete() err = %v", err)
	}
	if got != "# Report" {
		t.Fatalf("Complete() = %q", got)
	}
}

func TestChatLLM_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	}))
	defer failing.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()

	cases := map[string]*ChatLLM{
		"no key":     NewChatLLM(LLMConfig{BaseURL: failing.URL}),
		"bad status": NewChatLLM(LLMConfig{BaseURL: failing.URL, APIKey: "k"}),
		"no choices": NewChatLLM(LLMConfig{BaseURL: empty.URL, APIKey: "k"}),
	}

	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := llm.Complete(context.Background(), "x")
			if !errors.Is(err, ErrLLM) {
				t.Fatalf("Complete() err = %v, want ErrLLM", err)
			}
		})
	}
}
