package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"checkeasy-report/models"
	"checkeasy-report/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(m *models.MappedRapport) *models.InsightReport {
	report := &models.InsightReport{
		ProblemsBySeverity: make(map[models.Severity]int),
	}
	if m == nil {
		return report
	}

	report.ReportID = m.Rapport.ID
	report.Logement = m.Synthese.Logement
	report.Statut = m.Rapport.Statut
	report.Moment = m.Rapport.EtatLieuxMoment
	report.NoteGenerale = m.Synthese.NoteGenerale
	report.ScoreConfiance = m.Rapport.ScoreConfiance
	report.TotalRooms = len(m.Pieces)
	report.Sources = m.Sources

	var rooms []models.RoomInsight
	var totalNote float64
	for _, p := range m.Pieces {
		room := models.RoomInsight{
			Name:          p.Nom,
			Note:          p.Note,
			TasksResolved: p.ResolvedTaskCount,
			TasksTotal:    len(p.TachesValidees),
		}
		if p.CheckSortie != nil {
			room.ExitPhotos = len(p.CheckSortie.PhotosSortie)
		}
		for _, prob := range p.Problemes {
			if prob.EstFaux {
				report.FalsePositives++
				continue
			}
			room.Problems++
			report.ProblemsBySeverity[prob.Severite]++
		}
		for _, sig := range p.RawData.Signalements {
			if sig.Status != models.SignalementResolved {
				report.OpenSignalements++
			}
		}

		totalNote += p.Note
		report.TasksResolved += room.TasksResolved
		report.TasksTotal += room.TasksTotal
		rooms = append(rooms, room)
	}
	if len(rooms) > 0 {
		report.AverageRoomNote = round2(totalNote / float64(len(rooms)))
	}

	for _, c := range m.CheckFinal {
		if !c.Completed {
			report.CheckFinalFailed++
		}
	}

	// Worst 5 rooms: lowest note first, most problems on ties
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Note != rooms[j].Note {
			return rooms[i].Note < rooms[j].Note
		}
		return rooms[i].Problems > rooms[j].Problems
	})
	if len(rooms) > 5 {
		report.WorstRooms = rooms[:5]
	} else {
		report.WorstRooms = rooms
	}

	s.logger.Debug("[insights] %s: %d rooms, %d problems", report.ReportID, report.TotalRooms, len(report.ProblemsBySeverity))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📋 RAPPORT %s\033[0m\n", r.ReportID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Logement          : \033[1m%s\033[0m\n", truncate(r.Logement, 34))
	fmt.Fprintf(w, "  Statut / moment   : %s / %s\n", r.Statut, r.Moment)
	fmt.Fprintf(w, "  Note générale     : \033[1;32m%.1f/5\033[0m (confiance %d%%)\n", r.NoteGenerale, r.ScoreConfiance)
	fmt.Fprintf(w, "  Sources           : ai=%s session=%s signalements=%s\n",
		r.Sources.AI, r.Sources.Session, r.Sources.Signalements)
	fmt.Fprintln(w)

	// Tasks and issues
	fmt.Fprintf(w, "\033[1;33m  Tasks & Issues\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Rooms             : \033[1m%d\033[0m (average %.2f/5)\n", r.TotalRooms, r.AverageRoomNote)
	fmt.Fprintf(w, "  Tasks resolved    : \033[1m%d/%d\033[0m\n", r.TasksResolved, r.TasksTotal)
	fmt.Fprintf(w, "  Problems          : \033[1;31m%d high\033[0m, %d medium, %d low (%d false positives)\n",
		r.ProblemsBySeverity[models.SeverityHigh], r.ProblemsBySeverity[models.SeverityMedium],
		r.ProblemsBySeverity[models.SeverityLow], r.FalsePositives)
	fmt.Fprintf(w, "  Open signalements : %d\n", r.OpenSignalements)
	fmt.Fprintf(w, "  Check final       : %d unanswered or negative\n", r.CheckFinalFailed)
	fmt.Fprintln(w)

	// ── WORST 5 ROOMS ────────────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Rooms Needing Attention\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.WorstRooms) == 0 {
		fmt.Fprintf(w, "  No rooms found\n")
	} else {
		for i, room := range r.WorstRooms {
			bar := strings.Repeat("█", room.Problems)
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-28s \033[1;32m%.1f ★\033[0m %s (%d)\n",
				i+1, truncate(room.Name, 26), room.Note, bar, room.Problems)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
