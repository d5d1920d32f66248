package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/llm"
	"github.com/use-agent/revscan/models"
)

// fakeLLM returns an LLM client backed by a test server that always
// answers with the given completion content.
func fakeLLM(t *testing.T, completion string) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": completion}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return llm.NewClient(srv.Client(), config.LLMConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
	})
}

func TestSmartScrapeLinksFiltersSameDomain(t *testing.T) {
	completion := `{"links": [
		{"url": "https://www.grand.example/offers", "text": "Offers", "confidence": "high"},
		{"url": "https://be.synxis.com/?hotel=123", "text": "Book Now", "confidence": "medium"}
	]}`
	client := fakeLLM(t, completion)

	links := SmartScrapeLinks(context.Background(), client, "https://www.grand.example", "# Grand Hotel\n[Book Now](https://be.synxis.com/?hotel=123)")
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1: %+v", len(links), links)
	}
	if links[0].Href != "https://be.synxis.com/?hotel=123" {
		t.Errorf("Href = %q", links[0].Href)
	}
	if links[0].DetectionMethod != models.MethodSmartLLM {
		t.Errorf("DetectionMethod = %q", links[0].DetectionMethod)
	}
}

func TestSmartScrapeLinksOrdersByConfidence(t *testing.T) {
	completion := `{"links": [
		{"url": "https://reservations.travelclick.com/12345", "text": "Reserve", "confidence": "low"},
		{"url": "https://be.synxis.com/?hotel=9", "text": "Book Now", "confidence": "high"}
	]}`
	client := fakeLLM(t, completion)

	links := SmartScrapeLinks(context.Background(), client, "https://grand.example", "content")
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0].Href != "https://be.synxis.com/?hotel=9" {
		t.Errorf("high-confidence link not first: %+v", links)
	}
}

func TestSmartScrapeLinksSkipsWithoutContent(t *testing.T) {
	client := fakeLLM(t, `{"links": []}`)
	if links := SmartScrapeLinks(context.Background(), client, "https://grand.example", ""); links != nil {
		t.Errorf("expected nil for empty markdown, got %+v", links)
	}
}

func TestSmartScrapeLinksHandlesFencedJSON(t *testing.T) {
	completion := "```json\n{\"links\": [{\"url\": \"https://be.synxis.com/?hotel=7\", \"text\": \"Book\", \"confidence\": \"high\"}]}\n```"
	client := fakeLLM(t, completion)

	links := SmartScrapeLinks(context.Background(), client, "https://grand.example", "content")
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
}
