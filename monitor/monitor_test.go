package monitor

import (
	"reflect"
	"testing"

	"github.com/use-agent/revscan/models"
)

func TestPixelDetected(t *testing.T) {
	tests := []struct {
		name string
		urls []string
		want bool
	}{
		{
			name: "capture endpoint",
			urls: []string{"https://capture.duettoresearch.com/v1/events"},
			want: true,
		},
		{
			name: "pixel path",
			urls: []string{"https://cdn.duettoresearch.com/pixel?h=abc"},
			want: true,
		},
		{
			name: "case insensitive",
			urls: []string{"https://CAPTURE.DUETTORESEARCH.COM/x"},
			want: true,
		},
		{
			name: "vendor domain without pixel path",
			urls: []string{"https://www.duettoresearch.com/about"},
			want: false,
		},
		{
			name: "unrelated traffic",
			urls: []string{"https://example.com/", "https://cdn.example.com/app.js"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			for _, u := range tt.urls {
				m.Record(models.CapturedRequest{URL: u, Method: "GET"})
			}
			if got := m.PixelDetected(); got != tt.want {
				t.Errorf("PixelDetected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGameChangerInTraffic(t *testing.T) {
	m := New()
	m.Record(models.CapturedRequest{URL: "https://gc.duettoresearch.com/engine.js"})
	if !m.GameChangerInTraffic() {
		t.Error("expected booking engine signature in traffic")
	}

	m2 := New()
	m2.Record(models.CapturedRequest{URL: "https://capture.duettoresearch.com/v1"})
	if m2.GameChangerInTraffic() {
		t.Error("pixel endpoint should not count as booking engine traffic")
	}
}

func TestCapturedDomains(t *testing.T) {
	m := New()
	for _, u := range []string{
		"https://b.example.com/x",
		"https://a.example.com/y",
		"https://b.example.com/z",
		"not a url",
	} {
		m.Record(models.CapturedRequest{URL: u})
	}
	got := m.CapturedDomains()
	want := []string{"a.example.com", "b.example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CapturedDomains() = %v, want %v", got, want)
	}
}

func TestPixelRequests(t *testing.T) {
	m := New()
	m.Record(models.CapturedRequest{URL: "https://example.com/"})
	m.Record(models.CapturedRequest{URL: "https://capture.duettoresearch.com/v1/events", Method: "POST"})
	got := m.PixelRequests()
	if len(got) != 1 || got[0].Method != "POST" {
		t.Fatalf("PixelRequests() = %v, want one POST capture", got)
	}
}
