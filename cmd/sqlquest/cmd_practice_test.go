package main

import (
	"strings"
	"testing"
)

func TestReadQuery(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"single argument", []string{"SELECT * FROM artists"}, "", "SELECT * FROM artists"},
		{"unquoted words", []string{"SELECT", "*", "FROM", "artists"}, "", "SELECT * FROM artists"},
		{"stdin", []string{"-"}, "SELECT 1;\nSELECT 2;\n", "SELECT 1;\nSELECT 2;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readQuery(tt.args, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("readQuery() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopicList(t *testing.T) {
	got := topicList()
	if !strings.HasPrefix(got, "select, aggregate") || !strings.HasSuffix(got, "advanced") {
		t.Errorf("topicList() = %q", got)
	}
}

func TestBadgeName(t *testing.T) {
	if got := badgeName("first_query"); !strings.HasPrefix(got, "First Steps") {
		t.Errorf("badgeName(first_query) = %q", got)
	}
	if got := badgeName("unknown"); got != "unknown" {
		t.Errorf("badgeName(unknown) = %q, want id", got)
	}
}
