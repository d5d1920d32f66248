package llm

import "testing"

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"url": "x"}`, `{"url": "x"}`},
		{"json fence", "```json\n{\"url\": \"x\"}\n```", `{"url": "x"}`},
		{"bare fence", "```\n{\"url\": \"x\"}\n```", `{"url": "x"}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripJSONFences(tt.in); got != tt.want {
				t.Errorf("StripJSONFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
