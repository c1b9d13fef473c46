package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

func testPair() (domain.LostItem, domain.FoundItem) {
	lost := domain.LostItem{
		Item: domain.Item{
			ID:          "lost-1",
			Title:       "Black iPhone 14 Pro",
			Description: "black iphone with blue case, lost in library",
			Category:    domain.CategoryElectronics,
			Location:    "Library Building A",
		},
		DateLost: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	}
	found := domain.FoundItem{
		Item: domain.Item{
			ID:          "found-1",
			Title:       "iPhone found",
			Description: "black phone, blue case, found near library",
			Category:    domain.CategoryElectronics,
			Location:    "Library Building A",
		},
		DateFound: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
	return lost, found
}

func modelServer(t *testing.T, handler func(payload generateRequest) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		status, body := handler(payload)
		if status >= 300 {
			http.Error(w, body, status)
			return
		}
		response, _ := json.Marshal(map[string]any{"response": body})
		_, _ = w.Write(response)
	}))
}

func TestPairMatcherParsesFencedResponse(t *testing.T) {
	var prompt string
	server := modelServer(t, func(payload generateRequest) (int, string) {
		prompt = payload.Prompt
		return http.StatusOK, "```json\n{\"matchScore\": 104.6, \"similarities\": [\"same model\"], \"productDetails\": {\"brand\": \"Apple\"}}\n```"
	})
	defer server.Close()

	lost, found := testPair()
	result, err := NewPairMatcher(New(server.URL, "llama3", "secret")).Score(context.Background(), lost, found)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.Score != 100 {
		t.Fatalf("expected clamped score 100, got %d", result.Score)
	}
	if result.Confidence != domain.ConfidenceMedium {
		t.Fatalf("expected default medium confidence, got %s", result.Confidence)
	}
	if result.Differences == nil || len(result.Differences) != 0 {
		t.Fatalf("expected empty differences, got %v", result.Differences)
	}
	if result.ProductDetails.Brand != "Apple" || result.Source != domain.SourceAI {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(prompt, "Black iPhone 14 Pro") || !strings.Contains(prompt, "2025-03-05") {
		t.Fatalf("prompt does not embed both items: %s", prompt)
	}
}

func TestPairMatcherFallsBackToTextOnImageFailure(t *testing.T) {
	var withImages, textOnly int
	server := modelServer(t, func(payload generateRequest) (int, string) {
		if len(payload.Images) > 0 {
			withImages++
			if payload.Images[0] != "AAAA" {
				t.Errorf("expected data URL prefix stripped, got %q", payload.Images[0])
			}
			return http.StatusBadRequest, "image too large"
		}
		textOnly++
		return http.StatusOK, `{"matchScore": 72, "confidence": "high"}`
	})
	defer server.Close()

	lost, found := testPair()
	lost.Image = "data:image/jpeg;base64,AAAA"
	found.Image = "BBBB"
	result, err := NewPairMatcher(New(server.URL, "llava", "secret")).Score(context.Background(), lost, found)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if withImages != 1 || textOnly != 1 {
		t.Fatalf("expected image call then text call, got %d/%d", withImages, textOnly)
	}
	if result.Score != 72 || result.Confidence != domain.ConfidenceHigh {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPairMatcherRejectsMissingScore(t *testing.T) {
	server := modelServer(t, func(generateRequest) (int, string) {
		return http.StatusOK, `{"similarities": ["color"]}`
	})
	defer server.Close()

	lost, found := testPair()
	_, err := NewPairMatcher(New(server.URL, "llama3", "secret")).Score(context.Background(), lost, found)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected malformed answer to be marked temporary, got %v", err)
	}
}

func TestPairMatcherIncludesHTTPBodyInError(t *testing.T) {
	server := modelServer(t, func(generateRequest) (int, string) {
		return http.StatusBadGateway, "model unavailable"
	})
	defer server.Close()

	lost, found := testPair()
	_, err := NewPairMatcher(New(server.URL, "llama3", "secret")).Score(context.Background(), lost, found)
	if err == nil || !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected HTTPStatusError, got %T", err)
	}
}

func TestParseMatchAnalysis(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "plain", raw: `{"matchScore": 64}`, want: 64},
		{name: "prose around json", raw: "Here is my analysis: {\"matchScore\": 12.4} hope it helps", want: 12},
		{name: "negative clamps", raw: `{"matchScore": -3}`, want: 0},
		{name: "string score", raw: `{"matchScore": "85"}`, wantErr: true},
		{name: "no json", raw: "I cannot tell", wantErr: true},
		{name: "broken json", raw: `{"matchScore": 5,}`, wantErr: true},
	}
	for _, tc := range cases {
		result, err := parseMatchAnalysis(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("%s: expected malformed response, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if result.Score != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, result.Score)
		}
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "deadline", err: context.DeadlineExceeded, retryable: true, record: true},
		{name: "cancelled", err: context.Canceled, retryable: false, record: false},
		{name: "malformed", err: ErrMalformedResponse, retryable: true, record: false},
		{name: "503", err: &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, retryable: true, record: true},
		{name: "401", err: &HTTPStatusError{StatusCode: http.StatusUnauthorized}, retryable: false, record: true},
		{name: "400", err: &HTTPStatusError{StatusCode: http.StatusBadRequest}, retryable: false, record: false},
	}
	for _, tc := range cases {
		class := ClassifyError(tc.err)
		if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
			t.Fatalf("%s: unexpected classification %+v", tc.name, class)
		}
	}
}

func TestHasCredential(t *testing.T) {
	if New("http://model", "llama3", " ").HasCredential() {
		t.Fatalf("blank key must not count as a credential")
	}
	if !New("http://model", "llama3", "secret").HasCredential() {
		t.Fatalf("expected credential")
	}
}
