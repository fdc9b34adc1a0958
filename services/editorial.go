package services

import (
	"regexp"
	"strings"
	"time"

	"vox-backend/models"
)

var slugStrip = regexp.MustCompile(`[^\w-]+`)

// DeriveSlug leitet den URL-Slug deterministisch aus dem Titel ab:
// Kleinbuchstaben, Leerzeichen zu Bindestrichen, Sonderzeichen entfernt.
func DeriveSlug(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "-")
	return slugStrip.ReplaceAllString(s, "")
}

// expectedTransitions ist der redaktionell vorgesehene Statusgraph. Er ist
// bewusst nur advisory: wer Update-Rechte auf dem Artikel hat, darf jeden
// Statuswert setzen; Abweichungen werden geloggt, nicht blockiert.
var expectedTransitions = map[string][]string{
	models.StatusDraft:              {models.StatusReadyForReview},
	models.StatusReadyForReview:     {models.StatusUnderReview},
	models.StatusUnderReview:        {models.StatusChangesRequested, models.StatusApproved, models.StatusRejected},
	models.StatusChangesRequested:   {models.StatusReadyForReview},
	models.StatusApproved:           {models.StatusReadyForPublishing},
	models.StatusReadyForPublishing: {models.StatusPublished},
	models.StatusPublished:          {},
	models.StatusRejected:           {},
}

// ValidStatus meldet, ob der Wert einer der acht Workflow-Status ist.
func ValidStatus(status string) bool {
	_, ok := expectedTransitions[status]
	return ok
}

// TransitionExpected meldet, ob der Übergang dem vorgesehenen Graphen folgt.
// Ein unveränderter Status gilt als erwartbar.
func TransitionExpected(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range expectedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TerminalStatus meldet, ob aus dem Status kein weiterer Übergang vorgesehen ist.
func TerminalStatus(status string) bool {
	next, ok := expectedTransitions[status]
	return ok && len(next) == 0
}

// ApplyStatus setzt den Status und stempelt die Datumsfelder beim jeweils
// ersten Eintritt: submitted_date bei ready_for_review, published_date bei
// published. Einmal gesetzte Stempel werden nie überschrieben.
func ApplyStatus(a *models.Article, status string, now time.Time) {
	a.Status = status
	if status == models.StatusReadyForReview && a.SubmittedDate == nil {
		t := now
		a.SubmittedDate = &t
	}
	if status == models.StatusPublished && a.PublishedDate == nil {
		t := now
		a.PublishedDate = &t
	}
}
