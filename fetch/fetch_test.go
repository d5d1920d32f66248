package fetch

import (
	"strings"
	"testing"
)

func TestNeedsBrowser(t *testing.T) {
	longText := strings.Repeat("The hotel offers rooms with a sea view. ", 20)

	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "spa shell with empty root",
			body: `<html><body><div id="root"></div>` + longText + `</body></html>`,
			want: true,
		},
		{
			name: "nearly empty body",
			body: `<html><body><div>Loading...</div></body></html>`,
			want: true,
		},
		{
			name: "noscript warning",
			body: `<html><body><noscript>Please enable JavaScript to continue</noscript>` + longText + `</body></html>`,
			want: true,
		},
		{
			name: "server rendered page",
			body: `<html><body><h1>Grand Hotel</h1><p>` + longText + `</p><a href="/book">Book Now</a></body></html>`,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsBrowser([]byte(tt.body)); got != tt.want {
				t.Errorf("NeedsBrowser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	body := `<html><head><title> Grand Hotel Berlin </title></head><body></body></html>`
	if got := ExtractTitle([]byte(body)); got != "Grand Hotel Berlin" {
		t.Errorf("ExtractTitle() = %q", got)
	}
	if got := ExtractTitle([]byte("<html><body>no title</body></html>")); got != "" {
		t.Errorf("ExtractTitle() on missing title = %q, want empty", got)
	}
}

func TestVisibleTextSkipsScripts(t *testing.T) {
	body := `<html><body><p>Welcome</p><script>var hidden = "secret";</script><style>p{color:red}</style><p>Guests</p></body></html>`
	text := VisibleText([]byte(body))
	if !strings.Contains(text, "Welcome") || !strings.Contains(text, "Guests") {
		t.Errorf("VisibleText() missing body text: %q", text)
	}
	if strings.Contains(text, "secret") || strings.Contains(text, "color") {
		t.Errorf("VisibleText() leaked script/style content: %q", text)
	}
}
