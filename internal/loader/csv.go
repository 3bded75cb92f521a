package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"movierag/internal/domain"
)

const (
	titleColumn = "Title"
	plotColumn  = "Plot"
)

// CSVLoader reads movie rows from a CSV file with Title and Plot columns.
type CSVLoader struct {
	logger *zerolog.Logger
}

func NewCSVLoader(logger *zerolog.Logger) *CSVLoader {
	return &CSVLoader{logger: logger}
}

// Load reads the first rowLimit data rows of path and returns one document per row
// with a non-empty plot. A rowLimit <= 0 reads the whole file.
func (l *CSVLoader) Load(ctx context.Context, path string, rowLimit int) ([]domain.Document, error) {
	l.logger.Info().Str("path", path).Int("rows", rowLimit).Msg("Loading and preprocessing rows")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	docs, err := l.read(ctx, f, rowLimit)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	l.logger.Info().Int("documents", len(docs)).Msg("Loaded documents")
	return docs, nil
}

func (l *CSVLoader) read(ctx context.Context, r io.Reader, rowLimit int) ([]domain.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	titleIdx, plotIdx := -1, -1
	for i, name := range header {
		switch strings.TrimPrefix(name, "\ufeff") {
		case titleColumn:
			titleIdx = i
		case plotColumn:
			plotIdx = i
		}
	}
	if titleIdx < 0 {
		return nil, fmt.Errorf("missing %q column", titleColumn)
	}
	if plotIdx < 0 {
		return nil, fmt.Errorf("missing %q column", plotColumn)
	}

	var docs []domain.Document
	skipped := 0
	for row := 0; rowLimit <= 0 || row < rowLimit; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}

		plot := field(record, plotIdx)
		// Whitespace-only plots carry no text and are dropped with the empty ones.
		if strings.TrimSpace(plot) == "" {
			skipped++
			continue
		}
		title := field(record, titleIdx)
		docs = append(docs, domain.Document{
			ID:      "row_" + strconv.Itoa(row),
			Title:   title,
			Plot:    plot,
			Content: FormatDocument(title, plot),
		})
	}
	if skipped > 0 {
		l.logger.Debug().Int("skipped", skipped).Msg("Dropped rows without plot")
	}
	return docs, nil
}

// FormatDocument renders a row into the text that gets chunked and embedded.
func FormatDocument(title, plot string) string {
	return "Title: " + title + "\nPlot: " + plot
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
