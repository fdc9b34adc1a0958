package services

import (
	"sort"
	"strings"

	"vox-backend/models"
)

// Bucket-Namen für Artikel ohne Band- bzw. Heftangabe.
const (
	VolumeUncategorized = "Uncategorized"
	IssueNone           = "No Issue"
)

// FormatAuthors baut die Anzeige-Zeile der Autorenliste. Unaufgelöste
// Referenzen und Personen ohne Namen werden übersprungen.
//
//	[]            -> ""
//	[A]           -> "A"
//	[A B]         -> "A and B"
//	[A B C]       -> "A, B, and C"
func FormatAuthors(authors []models.UserRef) string {
	var names []string
	for _, ref := range authors {
		if !ref.Resolved() {
			continue
		}
		name := strings.TrimSpace(ref.User.FullName())
		if name == "" {
			continue
		}
		names = append(names, name)
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

// IssueGroup fasst die Artikel eines Hefts zusammen.
type IssueGroup struct {
	Issue    string           `json:"issue"`
	Articles []models.Article `json:"articles"`
}

// VolumeGroup fasst die Hefte eines Bands zusammen.
type VolumeGroup struct {
	Volume string       `json:"volume"`
	Issues []IssueGroup `json:"issues"`
}

// GroupByVolumeIssue gruppiert eine geordnete Artikelfolge nach Band und Heft.
// Fehlender Band landet unter "Uncategorized", fehlendes Heft unter "No Issue".
// Band- und Heftschlüssel werden absteigend lexikographisch sortiert; die
// Artikelreihenfolge innerhalb eines Hefts bleibt erhalten.
func GroupByVolumeIssue(articles []models.Article) []VolumeGroup {
	byVolume := make(map[string]map[string][]models.Article)
	for _, a := range articles {
		vol := a.Volume
		if vol == "" {
			vol = VolumeUncategorized
		}
		iss := a.Issue
		if iss == "" {
			iss = IssueNone
		}
		if byVolume[vol] == nil {
			byVolume[vol] = make(map[string][]models.Article)
		}
		byVolume[vol][iss] = append(byVolume[vol][iss], a)
	}

	volumes := make([]string, 0, len(byVolume))
	for vol := range byVolume {
		volumes = append(volumes, vol)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(volumes)))

	groups := make([]VolumeGroup, 0, len(volumes))
	for _, vol := range volumes {
		issues := make([]string, 0, len(byVolume[vol]))
		for iss := range byVolume[vol] {
			issues = append(issues, iss)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(issues)))

		vg := VolumeGroup{Volume: vol}
		for _, iss := range issues {
			vg.Issues = append(vg.Issues, IssueGroup{Issue: iss, Articles: byVolume[vol][iss]})
		}
		groups = append(groups, vg)
	}
	return groups
}

// LabRoster liefert die Mitgliederliste eines Labs: PIs und Studenten
// vereinigt, jeweils nur bereits aufgelöste Datensätze. Eine falsche
// Rollenzuordnung wird toleriert, sie wird beim Lesen nicht erneut geprüft.
func LabRoster(lab models.Lab) []models.User {
	roster := make([]models.User, 0, len(lab.PrincipalInvestigators)+len(lab.Students))
	seen := make(map[uint]bool)
	for _, ref := range models.UserRefs(lab.PrincipalInvestigators) {
		if !ref.Resolved() || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		roster = append(roster, *ref.User)
	}
	for _, ref := range models.UserRefs(lab.Students) {
		if !ref.Resolved() || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		roster = append(roster, *ref.User)
	}
	return roster
}
