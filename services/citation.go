package services

import (
	"fmt"
	"strings"

	"vox-backend/models"
)

// FormatCitation baut die Literaturangabe eines Artikels für die
// Publikationsansicht. Fehlende Angaben werden ausgelassen, die Angabe bleibt
// dann entsprechend kürzer.
//
//	Sarah Chen and Michael Rodriguez (2025). Neural Networks in Swarm
//	Robotics. VOX Undergraduate Research, 2(1), 14-29.
//	https://doi.org/10.1000/xyz123
func FormatCitation(a models.Article) string {
	var parts []string

	authors := FormatAuthors(models.UserRefs(a.Authors))
	if authors != "" {
		if a.PublishedDate != nil {
			authors = fmt.Sprintf("%s (%d)", authors, a.PublishedDate.Year())
		}
		parts = append(parts, authors)
	}

	if a.Title != "" {
		parts = append(parts, a.Title)
	}

	if a.Journal != nil && a.Journal.Name != "" {
		venue := a.Journal.Name
		if a.Volume != "" {
			venue += ", " + a.Volume
			if a.Issue != "" {
				venue += "(" + a.Issue + ")"
			}
		}
		if a.PagesStart != "" {
			pages := a.PagesStart
			if a.PagesEnd != "" {
				pages += "-" + a.PagesEnd
			}
			venue += ", " + pages
		}
		parts = append(parts, venue)
	}

	citation := strings.Join(parts, ". ")
	if citation != "" {
		citation += "."
	}
	if a.DOI != "" {
		if citation != "" {
			citation += " "
		}
		citation += "https://doi.org/" + a.DOI
	}
	return citation
}
