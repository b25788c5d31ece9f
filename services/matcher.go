package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"checkeasy-report/models"
)

const (
	stepProblemPrefix = "[ÉTAPE]"
	minMatchScore     = 2
)

var (
	emojiRegexp   = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]`)
	nonWordRegexp = regexp.MustCompile(`[^\w\sàâäéèêëïîôùûüÿæœç-]`)
)

// relatedTerms maps an object mentioned in a finding to task keywords that
// usually cover it.
var relatedTerms = map[string][]string{
	"lit":          {"lit", "draps", "couette", "oreiller", "plaid", "coussin", "chambre"},
	"oreiller":     {"lit", "oreiller", "coussin", "chambre"},
	"plaid":        {"lit", "plaid", "couette", "canapé", "chambre"},
	"coussin":      {"lit", "coussin", "canapé", "chambre", "salon"},
	"lampe":        {"lampe", "chevet", "table", "chambre"},
	"chevet":       {"chevet", "table", "lampe", "chambre"},
	"armoire":      {"armoire", "placard", "rangement", "chambre"},
	"chaise":       {"chaise", "bureau", "table", "chambre", "salon"},
	"télécommande": {"télé", "television", "télécommande", "salon", "chambre"},
	"serviette":    {"serviette", "linge", "bain", "salle", "lavabo"},
	"capsule":      {"café", "capsule", "machine", "nespresso", "cuisine"},
	"café":         {"café", "capsule", "machine", "nespresso", "cuisine"},
	"machine":      {"machine", "café", "capsule", "lave", "cuisine"},
	"bouilloire":   {"bouilloire", "détartrage", "cuisine"},
	"frigo":        {"frigo", "réfrigérateur", "cuisine"},
	"four":         {"four", "cuisine"},
	"bol":          {"bol", "vaisselle", "étagère", "cuisine"},
	"cadre":        {"cadre", "photo", "étagère", "décoration"},
	"lavabo":       {"lavabo", "robinet", "salle", "bain"},
	"douche":       {"douche", "paroi", "barre", "salle", "bain"},
	"baignoire":    {"baignoire", "bain", "salle"},
	"toilette":     {"toilette", "wc", "cuvette", "abattant"},
	"miroir":       {"miroir", "salle", "bain", "entrée"},
	"canapé":       {"canapé", "salon", "coussin", "plaid"},
	"table":        {"table", "basse", "manger", "salon", "cuisine"},
}

// stepProblemTerms is consulted for "[ÉTAPE]" findings that scored nothing.
// Checked in this order.
var stepProblemTerms = []struct {
	keyword string
	terms   []string
}{
	{"plaid", []string{"lit", "plaid", "coussin", "couette"}},
	{"coussin", []string{"lit", "coussin", "plaid", "canapé"}},
	{"capsule", []string{"café", "capsule", "machine"}},
	{"serviette", []string{"serviette", "linge", "lavabo", "sèche"}},
	{"draps", []string{"lit", "draps", "refaire"}},
}

var stopWords = toSet(
	"photo", "non", "conforme", "zone", "différente", "entre", "visible", "malgré",
	"consigne", "après", "intervention", "alors", "doivent", "être", "disponibles",
	"rapport", "etat", "état", "initial", "manquante", "manquant", "manquants",
	"étape", "sortie", "entrée", "référence", "vérifie", "vérifier", "permet",
	"permettant", "éléments", "sans", "avec", "pour", "dans", "sur", "sous",
	"plus", "moins", "trop", "peu", "bien", "mal", "bon", "mauvais",
	"photos", "invalides", "montrent", "fixé", "près", "tuyaux", "clairement",
	"pièce", "logement", "identifier", "ajouté", "ajoutée", "absente", "absent",
	"présent", "présente", "initialement", "déplacé", "déplacée",
)

// StepLookup returns the image-bearing step of a room with the given etape
// id.
type StepLookup func(etapeID string) (models.Etape, bool)

// MatchProblemPhoto picks the photo that best illustrates a finding. It tries
// the linked task, then the linked step, then keyword overlap with task names
// and comments, then fixed keyword groups for step findings, then the first
// exit photo. It returns "" when nothing fits. step may be nil.
func MatchProblemPhoto(p models.Probleme, tasks []models.TacheValidee, step StepLookup, exitPhotos []models.PhotoSortie) string {
	if p.EtapeID != "" {
		for _, t := range tasks {
			if t.EtapeID == p.EtapeID && t.PhotoURL != "" {
				return t.PhotoURL
			}
		}
		if step != nil {
			if e, ok := step(p.EtapeID); ok {
				if src := e.Photo(); src != "" {
					return src
				}
			}
		}
	}

	if keywords := extractKeywords(p.Titre + " " + p.Description); len(keywords) > 0 {
		best, bestScore := "", 0
		for _, t := range tasks {
			if t.PhotoURL == "" {
				continue
			}
			score := keywordScore(keywords, t.Nom)
			if t.Commentaire != "" {
				score += 2 * commonKeywords(keywords, extractKeywords(t.Commentaire))
			}
			if score > bestScore {
				best, bestScore = t.PhotoURL, score
			}
		}
		if bestScore >= minMatchScore {
			return best
		}
	}

	if strings.HasPrefix(p.Description, stepProblemPrefix) {
		desc := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(p.Description, stepProblemPrefix)))
		for _, group := range stepProblemTerms {
			if !strings.Contains(desc, group.keyword) {
				continue
			}
			for _, t := range tasks {
				if t.PhotoURL != "" && containsAny(strings.ToLower(t.Nom), group.terms) {
					return t.PhotoURL
				}
			}
		}
	}

	for _, photo := range exitPhotos {
		if photo.URL != "" {
			return photo.URL
		}
	}
	return ""
}

func extractKeywords(text string) []string {
	text = strings.ToLower(text)
	text = emojiRegexp.ReplaceAllString(text, " ")
	text = nonWordRegexp.ReplaceAllString(text, " ")

	var keywords []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if _, skip := stopWords[w]; skip {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// keywordScore rates a task name against finding keywords: +3 per keyword
// contained in the name, otherwise +2 when a related term is; +1 when a
// keyword and a name word share a prefix.
func keywordScore(keywords []string, taskName string) int {
	name := normaliseText(emojiRegexp.ReplaceAllString(strings.ToLower(taskName), " "))
	words := strings.Fields(name)

	score := 0
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			score += 3
			continue
		}
		if containsAny(name, relatedTerms[kw]) {
			score += 2
		}
		for _, w := range words {
			if strings.HasPrefix(w, kw) || strings.HasPrefix(kw, w) {
				score++
				break
			}
		}
	}
	return score
}

func commonKeywords(a, b []string) int {
	set := toSet(b...)
	n := 0
	for _, w := range a {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
