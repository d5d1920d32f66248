package browser

import (
	"testing"

	"github.com/go-rod/rod"
)

func TestContextCloseCancelsEventFeed(t *testing.T) {
	c := newContext(rod.New())

	select {
	case <-c.ctx.Done():
		t.Fatal("context done before Close")
	default:
	}

	c.Close()

	select {
	case <-c.ctx.Done():
	default:
		t.Fatal("Close did not cancel the event feed context")
	}
}

func TestToHeadersMap(t *testing.T) {
	m := toHeadersMap(map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	if got := m["Accept-Language"].Str(); got != "en-US,en;q=0.9" {
		t.Errorf("Accept-Language = %q", got)
	}
}
