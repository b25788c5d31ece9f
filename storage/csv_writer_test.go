package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"checkeasy-report/models"
)

func TestCSVWriterRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rapport.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	report := &models.MappedRapport{
		Rapport: models.AppRapport{ID: "r1"},
		Pieces: []models.PieceView{{
			ID:                "p1",
			Nom:               "Salon",
			Note:              4.5,
			ResolvedTaskCount: 1,
			TachesValidees:    []models.TacheValidee{{Nom: "a"}, {Nom: "b"}},
			CheckSortie:       &models.CheckSortie{PhotosSortie: []models.PhotoSortie{{URL: "u"}}},
		}},
		RemarquesGenerales: models.RemarquesView{
			Highlights: []models.Highlight{{Titre: "Tache", Severite: models.SeverityHigh, PieceName: "Salon"}},
		},
	}
	if err := w.Write(report); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}
	room := rows[1]
	if room[1] != RowRoom || room[4] != "4.5" || room[5] != "1" || room[6] != "2" || room[8] != "1" {
		t.Errorf("room row: got %v", room)
	}
	hl := rows[2]
	if hl[1] != RowHighlight || hl[10] != "elevee" || hl[11] != "Tache" {
		t.Errorf("highlight row: got %v", hl)
	}
}
