package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plots.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}

const sampleCSV = `Release Year,Title,Origin/Ethnicity,Plot
1901,Kansas Saloon Smashers,American,"A bartender is working at a saloon, serving drinks to customers."
1902,Empty One,American,
1903,"Jack and the Beanstalk",British,"The earliest known adaptation.
It spans two lines."
1904,Blank Plot,American,"   "
1905,The Hidden Girl,French,"A beautiful girl is forced into hiding from the authorities."
`

func TestCSVLoader_Load(t *testing.T) {
	l := NewCSVLoader(newTestLogger())

	docs, err := l.Load(context.Background(), writeCSV(t, sampleCSV), 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}

	want := "Title: Kansas Saloon Smashers\nPlot: A bartender is working at a saloon, serving drinks to customers."
	if docs[0].Content != want {
		t.Errorf("unexpected content:\n got %q\nwant %q", docs[0].Content, want)
	}
	if docs[1].Content != "Title: Jack and the Beanstalk\nPlot: The earliest known adaptation.\nIt spans two lines." {
		t.Errorf("multi-line plot not preserved: %q", docs[1].Content)
	}
	if docs[2].Title != "The Hidden Girl" {
		t.Errorf("expected The Hidden Girl, got %s", docs[2].Title)
	}
	for _, d := range docs {
		if strings.TrimSpace(d.Plot) == "" {
			t.Errorf("document %s has empty plot", d.ID)
		}
		if d.Title == "Empty One" || d.Title == "Blank Plot" {
			t.Errorf("expected %s to be dropped", d.Title)
		}
	}
}

func TestCSVLoader_RowLimit(t *testing.T) {
	l := NewCSVLoader(newTestLogger())
	path := writeCSV(t, sampleCSV)

	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{name: "first row only", limit: 1, expected: 1},
		{name: "limit counts dropped rows", limit: 2, expected: 1},
		{name: "limit before last row", limit: 4, expected: 2},
		{name: "limit above size", limit: 300, expected: 3},
		{name: "no limit", limit: 0, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := l.Load(context.Background(), path, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(docs) != tt.expected {
				t.Errorf("expected %d documents, got %d", tt.expected, len(docs))
			}
			if tt.limit > 0 && len(docs) > tt.limit {
				t.Errorf("got %d documents for limit %d", len(docs), tt.limit)
			}
		})
	}
}

func TestCSVLoader_Errors(t *testing.T) {
	l := NewCSVLoader(newTestLogger())

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
		},
		{
			name: "empty file",
			path: func(t *testing.T) string { return writeCSV(t, "") },
		},
		{
			name: "no plot column",
			path: func(t *testing.T) string { return writeCSV(t, "Title,Year\nA,1900\n") },
		},
		{
			name: "no title column",
			path: func(t *testing.T) string { return writeCSV(t, "Name,Plot\nA,Something happens\n") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.Load(context.Background(), tt.path(t), 300); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFormatDocument(t *testing.T) {
	got := FormatDocument("Heidi", "A girl lives in the Alps.")
	if got != "Title: Heidi\nPlot: A girl lives in the Alps." {
		t.Errorf("unexpected document: %q", got)
	}
}
