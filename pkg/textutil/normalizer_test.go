package textutil

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "lowercases and strips punctuation",
			input: "Let's Migrate, NOW!",
			want:  "let s migrate now",
		},
		{
			name:  "collapses whitespace",
			input: "too   many\t\tspaces\n\nhere",
			want:  "too many spaces here",
		},
		{
			name:  "expands abbreviations",
			input: "the db in prod",
			want:  "the database in production",
		},
		{
			name:  "only punctuation",
			input: "?!... ---",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "filters stop words",
			input: "we should migrate the database to postgres",
			want:  []string{"migrate", "database", "postgres"},
		},
		{
			name:  "frequency ranks ahead of position",
			input: "deploy pipeline broke, pipeline timeout again, pipeline",
			want:  []string{"pipeline", "deploy", "broke", "timeout", "again"},
		},
		{
			name:  "stop words only",
			input: "so what if it is",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractKeywordsCap(t *testing.T) {
	input := "alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima"
	got := ExtractKeywords(input)
	if len(got) != MaxKeywords {
		t.Errorf("keyword count = %d, want %d", len(got), MaxKeywords)
	}
}
