package engine

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "hello", "hello"},
		{"json fence", "```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"bare fence", "```\ntext\n```", "text"},
		{"whitespace", "  answer  ", "answer"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.raw); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"selected_ids": [1, 2]}`,
			want: `{"selected_ids": [1, 2]}`,
		},
		{
			name: "surrounded by prose",
			raw:  `Here you go: {"selected_ids": [3]} hope that helps`,
			want: `{"selected_ids": [3]}`,
		},
		{
			name: "nested objects",
			raw:  `{"a": {"b": 1}, "c": 2} trailing`,
			want: `{"a": {"b": 1}, "c": 2}`,
		},
		{
			name: "brace inside string",
			raw:  `{"note": "use } carefully", "id": 1}`,
			want: `{"note": "use } carefully", "id": 1}`,
		},
		{
			name: "escaped quote inside string",
			raw:  `{"note": "say \"hi\"", "id": 1}`,
			want: `{"note": "say \"hi\"", "id": 1}`,
		},
		{
			name: "unbalanced",
			raw:  `{"selected_ids": [1`,
			want: "",
		},
		{
			name: "no object",
			raw:  "just text",
			want: "",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstJSONObject(tt.raw); got != tt.want {
				t.Errorf("FirstJSONObject(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
