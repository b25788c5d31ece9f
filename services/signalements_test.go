package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"checkeasy-report/models"
)

func sampleBubble() []models.BubbleSignalement {
	return []models.BubbleSignalement{
		{
			ID:              "b1",
			PieceRef:        "p1",
			TypeText:        "Casse",
			Statut:          models.SignalementToProcess,
			Description:     "Vitre cassée",
			NomSignaleur:    "Martin",
			PrenomSignaleur: "Léa",
			CreatedDate:     1764152520000,
			ModifiedDate:    1764152520000,
			Photo:           "https://img/vitre.jpg",
		},
		{
			ID:                    "b2",
			PieceRef:              "p2",
			Statut:                models.SignalementResolved,
			Description:           "Ampoule grillée",
			CreatedDate:           1764152520000,
			CommentaireTraitement: "Remplacée",
		},
	}
}

func TestMergeSignalementsMatchesByDescription(t *testing.T) {
	base := []BaseSignalement{
		{ID: "s1", Description: "Vitre cassée", PhotoBase64: "iVBOR", Timestamp: "2025-11-26T10:22:00Z"},
		{ID: "s2", Description: "Tache au sol"},
	}
	merged := MergeSignalements(base, sampleBubble())
	if len(merged) != 3 {
		t.Fatalf("merged len: got %d, want 3", len(merged))
	}

	m := merged[0]
	if m.SignalementID != "b1" || m.RoomID != "p1" || m.Titre != "Casse" {
		t.Errorf("matched record should carry backend identity, got %+v", m)
	}
	if m.ImgURL != "https://img/vitre.jpg" || m.ImgBase64 != "iVBOR" {
		t.Errorf("photo fields: got url=%q base64=%q", m.ImgURL, m.ImgBase64)
	}
	if !m.Priorite || m.Severity != models.SeverityHigh {
		t.Errorf("to-process report should be high priority, got priorite=%v severity=%s", m.Priorite, m.Severity)
	}
	if m.Timestamp != "2025-11-26T10:22:00Z" {
		t.Errorf("matched record keeps the local timestamp, got %q", m.Timestamp)
	}
	if m.Signaleur == nil || m.Signaleur.Prenom != "Léa" {
		t.Errorf("signaleur: got %+v", m.Signaleur)
	}

	if merged[1].Titre != "Signalement" || merged[1].Status != models.SignalementToProcess {
		t.Errorf("unmatched local: got %+v", merged[1])
	}

	extra := merged[2]
	if extra.SignalementID != "b2" || extra.Comment != "Remplacée" {
		t.Errorf("unmatched backend record: got %+v", extra)
	}
	if extra.Timestamp != extra.CreatedAt || extra.CreatedAt != "2025-11-26T10:22:00Z" {
		t.Errorf("backend-only timestamp: got %q / %q", extra.Timestamp, extra.CreatedAt)
	}
	if extra.Severity != models.SeverityLow {
		t.Errorf("resolved report severity: got %s", extra.Severity)
	}
}

func TestMergeSignalementsFirstBackendMatchWins(t *testing.T) {
	bubble := []models.BubbleSignalement{
		{ID: "first", Description: "Odeur"},
		{ID: "second", Description: "Odeur"},
	}
	merged := MergeSignalements([]BaseSignalement{{Description: "Odeur"}}, bubble)
	if len(merged) != 2 {
		t.Fatalf("merged len: got %d, want 2", len(merged))
	}
	if merged[0].SignalementID != "first" || merged[1].SignalementID != "second" {
		t.Errorf("order: got %s, %s", merged[0].SignalementID, merged[1].SignalementID)
	}
}

func TestMergeSignalementsSameDescriptionMergedOnce(t *testing.T) {
	base := []BaseSignalement{
		{ID: "s1", Description: "Vitre cassée"},
		{ID: "s2", Description: "Vitre cassée"},
	}
	merged := MergeSignalements(base, sampleBubble()[:1])
	if len(merged) != 1 {
		t.Fatalf("merged len: got %d, want 1", len(merged))
	}
	if merged[0].SignalementID != "b1" || merged[0].RoomID != "p1" {
		t.Errorf("got id=%q room=%q, want b1/p1", merged[0].SignalementID, merged[0].RoomID)
	}
}

func TestMergeSignalementsAlreadyMergedIsUnchanged(t *testing.T) {
	merged := MergeSignalements([]BaseSignalement{
		{ID: "s1", Description: "Vitre cassée"},
		{ID: "s2", Description: "Tache au sol", Timestamp: "2025-11-26T09:00:00Z"},
	}, sampleBubble())

	again := MergeSignalements(FromMerged(merged), nil)
	if diff := cmp.Diff(merged, again); diff != "" {
		t.Errorf("re-merging changed the list (-want +got):\n%s", diff)
	}
}

func TestSeverityFromStatus(t *testing.T) {
	tests := map[string]models.Severity{
		models.SignalementToProcess:  models.SeverityHigh,
		models.SignalementInProgress: models.SeverityMedium,
		models.SignalementResolved:   models.SeverityLow,
		"Archivé":                    models.SeverityMedium,
	}
	for status, want := range tests {
		if got := SeverityFromStatus(status); got != want {
			t.Errorf("SeverityFromStatus(%q) = %s; want %s", status, got, want)
		}
	}
}

func TestGroupConsignesFiltersJourney(t *testing.T) {
	notes := []models.BubbleConsigneIA{
		{ID: "c1", Piece: "p1", ParcourRef: "j1"},
		{ID: "c2", Piece: "p1", REF: "j2"},
		{ID: "c3", Piece: "", ParcourRef: "j1"},
		{ID: "c4", Piece: "p2", REF: "j1"},
	}
	got := GroupConsignes(notes, "j1")
	if len(got["p1"]) != 1 || got["p1"][0].ID != "c1" {
		t.Errorf("p1 notes: got %+v", got["p1"])
	}
	if len(got["p2"]) != 1 {
		t.Errorf("p2 notes: got %+v", got["p2"])
	}
	if all := GroupConsignes(notes, ""); len(all["p1"]) != 2 {
		t.Errorf("without journey filter p1 should keep 2 notes, got %d", len(all["p1"]))
	}
}

func TestGroupByRoomSkipsUnassigned(t *testing.T) {
	got := GroupByRoom([]models.Signalement{{RoomID: "p1"}, {RoomID: ""}, {RoomID: "p1"}})
	if len(got) != 1 || len(got["p1"]) != 2 {
		t.Errorf("GroupByRoom: got %+v", got)
	}
}
