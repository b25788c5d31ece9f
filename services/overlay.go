package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"checkeasy-report/models"
)

var (
	ErrUnknownAction = errors.New("unknown action type")
	ErrMissingPiece  = errors.New("action requires a piece id")
)

// roomOverlay holds the local annotations of one room.
type roomOverlay struct {
	falsePositives  map[string]bool
	addedConsignes  []models.BubbleConsigneIA
	updatedConsigne map[string]string
	deletedConsigne map[string]bool
	addedReports    []models.Signalement
	reference       string
	deletedPhotos   map[string]bool
}

func newRoomOverlay() *roomOverlay {
	return &roomOverlay{
		falsePositives:  make(map[string]bool),
		updatedConsigne: make(map[string]string),
		deletedConsigne: make(map[string]bool),
		deletedPhotos:   make(map[string]bool),
	}
}

// Overlay is the set of annotations made on one report since its last load.
// It is applied on top of the mapped view and never touches the fused report.
type Overlay struct {
	rooms        map[string]*roomOverlay
	statusByID   map[string]string
	appliedCount int
}

func newOverlay() *Overlay {
	return &Overlay{rooms: make(map[string]*roomOverlay), statusByID: make(map[string]string)}
}

func (o *Overlay) room(id string) *roomOverlay {
	r, ok := o.rooms[id]
	if !ok {
		r = newRoomOverlay()
		o.rooms[id] = r
	}
	return r
}

// OverlayStore keeps one overlay per report.
type OverlayStore struct {
	mu       sync.Mutex
	overlays map[string]*Overlay
	now      func() time.Time
	newID    func() string
}

func NewOverlayStore() *OverlayStore {
	return &OverlayStore{
		overlays: make(map[string]*Overlay),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Apply records an action in the report's overlay. It returns the local id
// given to created notes and reports, or "" for other actions.
func (s *OverlayStore) Apply(reportID string, a models.Action) (string, error) {
	if !a.ActionType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, a.ActionType)
	}
	d := a.Data
	if d.PieceID == "" && a.ActionType != models.ActionUpdateSignalementStatus {
		return "", fmt.Errorf("%s: %w", a.ActionType, ErrMissingPiece)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.overlays[reportID]
	if !ok {
		o = newOverlay()
		s.overlays[reportID] = o
	}
	o.appliedCount++

	var id string
	switch a.ActionType {
	case models.ActionMarkFalsePositive:
		o.room(d.PieceID).falsePositives[d.Probleme] = true

	case models.ActionCreateConsigneIA:
		id = s.newID()
		now := s.now().UnixMilli()
		r := o.room(d.PieceID)
		r.addedConsignes = append(r.addedConsignes, models.BubbleConsigneIA{
			ID:           id,
			Commentaire:  d.Consigne,
			CreatedDate:  now,
			ModifiedDate: now,
			Piece:        d.PieceID,
			Type:         d.Type,
			Probleme:     d.Probleme,
		})

	case models.ActionUpdateConsigneIA:
		o.room(d.PieceID).updatedConsigne[d.ConsigneID] = d.Consigne

	case models.ActionDeleteConsigneIA:
		o.room(d.PieceID).deletedConsigne[d.ConsigneID] = true

	case models.ActionCreateSignalement:
		id = s.newID()
		ts := s.now().UTC().Format(time.RFC3339)
		r := o.room(d.PieceID)
		r.addedReports = append(r.addedReports, models.Signalement{
			SignalementID:   id,
			EtapeID:         d.EtapeID,
			RoomID:          d.PieceID,
			Titre:           d.Commentaire,
			Commentaire:     d.Commentaire,
			Description:     d.Commentaire,
			ImgURL:          d.PhotoURL,
			ImgBase64:       d.PhotoBase64,
			FlowType:        "checkout",
			Origine:         "app",
			Status:          models.SignalementToProcess,
			CreatedAt:       ts,
			UpdatedAt:       ts,
			Timestamp:       ts,
			Severity:        SeverityFromStatus(models.SignalementToProcess),
			SignalementType: models.SignalementDirect,
		})

	case models.ActionUpdateSignalementStatus:
		o.statusByID[d.SignalementID] = d.Statut

	case models.ActionSelectPhotoReference:
		o.room(d.PieceID).reference = models.FirstNonBlank(d.PhotoURL, d.PhotoID)

	case models.ActionDeletePhoto:
		o.room(d.PieceID).deletedPhotos[models.FirstNonBlank(d.PhotoURL, d.PhotoID)] = true
	}
	return id, nil
}

// Reset discards the report's overlay.
func (s *OverlayStore) Reset(reportID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overlays, reportID)
}

// Pending returns how many actions were applied since the last reset.
func (s *OverlayStore) Pending(reportID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.overlays[reportID]; ok {
		return o.appliedCount
	}
	return 0
}

// Render returns a copy of mapped with the report's overlay applied. mapped
// itself is left untouched.
func (s *OverlayStore) Render(reportID string, mapped *models.MappedRapport) *models.MappedRapport {
	out := *mapped

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overlays[reportID]
	if !ok {
		return &out
	}

	out.Pieces = make([]models.PieceView, len(mapped.Pieces))
	hidden := make(map[string]map[string]bool)
	var added []models.UserReportView
	for i, p := range mapped.Pieces {
		r, ok := o.rooms[p.ID]
		if !ok {
			out.Pieces[i] = renderStatuses(p, o.statusByID)
			continue
		}
		out.Pieces[i] = renderPiece(p, r, o.statusByID)
		if len(r.falsePositives) > 0 {
			hidden[p.Nom] = r.falsePositives
		}
		for _, sig := range r.addedReports {
			added = append(added, models.UserReportView{
				Text:                sig.Description,
				Status:              models.ReportNotVerifiable,
				Room:                p.ID,
				RoomName:            p.Nom,
				SignalementID:       sig.SignalementID,
				ImgURL:              sig.ImgURL,
				CreatedAt:           sig.CreatedAt,
				UpdatedAt:           sig.UpdatedAt,
				OSSignalementStatut: sig.Status,
			})
		}
	}

	rem := mapped.RemarquesGenerales
	rem.Highlights = make([]models.Highlight, 0, len(mapped.RemarquesGenerales.Highlights))
	for _, h := range mapped.RemarquesGenerales.Highlights {
		if hidden[h.PieceName][h.Titre] {
			continue
		}
		rem.Highlights = append(rem.Highlights, h)
	}
	rem.UserReports = make([]models.UserReportView, 0, len(mapped.RemarquesGenerales.UserReports)+len(added))
	for _, u := range mapped.RemarquesGenerales.UserReports {
		if st, ok := o.statusByID[u.SignalementID]; ok && u.SignalementID != "" {
			u.OSSignalementStatut = st
		}
		rem.UserReports = append(rem.UserReports, u)
	}
	rem.UserReports = append(rem.UserReports, added...)
	out.RemarquesGenerales = rem
	out.RawGlobalData.TotalSignalements += len(added)
	out.Rapport.Signalements += len(added)
	return &out
}

func renderPiece(p models.PieceView, r *roomOverlay, statuses map[string]string) models.PieceView {
	p.Problemes = append(make([]models.Probleme, 0, len(p.Problemes)), p.Problemes...)
	for i := range p.Problemes {
		if r.falsePositives[p.Problemes[i].Titre] {
			p.Problemes[i].EstFaux = true
		}
	}

	notes := make([]models.BubbleConsigneIA, 0, len(p.ConsignesIABubble)+len(r.addedConsignes))
	for _, n := range append(append([]models.BubbleConsigneIA(nil), p.ConsignesIABubble...), r.addedConsignes...) {
		if r.deletedConsigne[n.ID] {
			continue
		}
		if text, ok := r.updatedConsigne[n.ID]; ok {
			n.Commentaire = text
		}
		notes = append(notes, n)
	}
	p.ConsignesIABubble = notes

	if r.reference != "" {
		refs := []string{r.reference}
		for _, u := range p.PhotosReference {
			if u != r.reference {
				refs = append(refs, u)
			}
		}
		p.PhotosReference = refs
	}

	if len(r.deletedPhotos) > 0 {
		p.PhotosReference = withoutPhotos(p.PhotosReference, r.deletedPhotos)
		if p.CheckEntree != nil {
			ce := *p.CheckEntree
			ce.PhotosEntree = withoutPhotos(ce.PhotosEntree, r.deletedPhotos)
			p.CheckEntree = &ce
		}
		if p.CheckSortie != nil {
			cs := *p.CheckSortie
			cs.PhotosSortie = make([]models.PhotoSortie, 0, len(p.CheckSortie.PhotosSortie))
			for _, ph := range p.CheckSortie.PhotosSortie {
				if !r.deletedPhotos[ph.URL] {
					cs.PhotosSortie = append(cs.PhotosSortie, ph)
				}
			}
			p.CheckSortie = &cs
		}
	}

	p.ResolvedTaskCount = resolvedTaskCount(p.TachesValidees, p.Problemes)

	p = renderStatuses(p, statuses)
	if len(r.addedReports) > 0 {
		raw := p.RawData
		raw.Signalements = append(append([]models.Signalement(nil), raw.Signalements...), r.addedReports...)
		raw.SignalementsUtilisateur = append(append([]models.Signalement(nil), raw.SignalementsUtilisateur...), r.addedReports...)
		raw.TotalSignalements = len(raw.Signalements)
		p.RawData = raw
	}
	return p
}

// renderStatuses applies status changes to the room's raw reports.
func renderStatuses(p models.PieceView, statuses map[string]string) models.PieceView {
	if len(statuses) == 0 {
		return p
	}
	raw := p.RawData
	raw.Signalements = withStatuses(raw.Signalements, statuses)
	raw.SignalementsUtilisateur = withStatuses(raw.SignalementsUtilisateur, statuses)
	raw.SignalementsIA = withStatuses(raw.SignalementsIA, statuses)
	p.RawData = raw
	return p
}

func withStatuses(sigs []models.Signalement, statuses map[string]string) []models.Signalement {
	out := make([]models.Signalement, len(sigs))
	for i, s := range sigs {
		if st, ok := statuses[s.SignalementID]; ok {
			s.Status = st
		}
		out[i] = s
	}
	return out
}

func withoutPhotos(urls []string, deleted map[string]bool) []string {
	if urls == nil {
		return nil
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !deleted[u] {
			out = append(out, u)
		}
	}
	return out
}

// Reports returns the ids of reports with a pending overlay, sorted.
func (s *OverlayStore) Reports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.overlays))
	for id := range s.overlays {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
