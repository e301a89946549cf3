package cmd

import (
	"reflect"
	"testing"
	"unicode/utf8"
)

func TestParseKeyValues(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: nil},
		{name: "pairs", pairs: []string{"complexity=high", "circuit=transfer"}, want: map[string]any{
			"complexity": "high",
			"circuit":    "transfer",
		}},
		{name: "value with equals", pairs: []string{"expr=a=b"}, want: map[string]any{"expr": "a=b"}},
		{name: "empty value", pairs: []string{"note="}, want: map[string]any{"note": ""}},
		{name: "missing separator", pairs: []string{"complexity"}, wantErr: true},
		{name: "empty key", pairs: []string{"=high"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeyValues(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseKeyValues() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseKeyValues() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this message is too long", 10, "this me..."},
		{"abcdef", 2, "ab"},
		{"Beweis für Überweisung erzeugt", 12, "Beweis fü..."},
		{"größe", 5, "größe"},
		{"日本語のメッセージ", 5, "日本..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.maxLen)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tt.in, tt.maxLen, got)
		}
	}
}
