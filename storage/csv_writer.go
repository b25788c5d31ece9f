package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"checkeasy-report/models"
)

// Row kinds of the CSV export.
const (
	RowRoom      = "room"
	RowHighlight = "highlight"
)

// CSVWriter exports a mapped report as one row per room followed by one row
// per highlight. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"rapport_id", "kind", "room_id", "room", "note", "tasks_resolved", "tasks_total",
		"problems", "photos_exit", "signalements", "severity", "text",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends the rows of one report.
func (c *CSVWriter) Write(r *models.MappedRapport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := r.Rapport.ID
	for _, p := range r.Pieces {
		exitPhotos := 0
		if p.CheckSortie != nil {
			exitPhotos = len(p.CheckSortie.PhotosSortie)
		}
		row := []string{
			id,
			RowRoom,
			p.ID,
			p.Nom,
			strconv.FormatFloat(p.Note, 'f', -1, 64),
			strconv.Itoa(p.ResolvedTaskCount),
			strconv.Itoa(len(p.TachesValidees)),
			strconv.Itoa(len(p.Problemes)),
			strconv.Itoa(exitPhotos),
			strconv.Itoa(p.RawData.TotalSignalements),
			"",
			p.Resume,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write room row: %w", err)
		}
	}

	for _, h := range r.RemarquesGenerales.Highlights {
		row := []string{
			id, RowHighlight, "", h.PieceName, "", "", "", "", "", "",
			string(h.Severite),
			models.FirstNonBlank(h.Text, h.Titre),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write highlight row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
