package services

import (
	"testing"

	"vox-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(id uint, first, last string) models.UserRef {
	return models.UserRefOf(models.User{ID: id, FirstName: first, LastName: last})
}

func TestFormatAuthors(t *testing.T) {
	a := ref(1, "Sarah", "Chen")
	b := ref(2, "Michael", "Rodriguez")
	c := ref(3, "Emily", "Watson")

	assert.Equal(t, "", FormatAuthors(nil))
	assert.Equal(t, "", FormatAuthors([]models.UserRef{}))
	assert.Equal(t, "Sarah Chen", FormatAuthors([]models.UserRef{a}))
	assert.Equal(t, "Sarah Chen and Michael Rodriguez", FormatAuthors([]models.UserRef{a, b}))
	assert.Equal(t, "Sarah Chen, Michael Rodriguez, and Emily Watson", FormatAuthors([]models.UserRef{a, b, c}))
}

func TestFormatAuthorsSkipsUnresolved(t *testing.T) {
	a := ref(1, "Sarah", "Chen")
	unresolved := models.UserRefID(42)
	nameless := models.UserRefOf(models.User{ID: 5})

	assert.Equal(t, "Sarah Chen", FormatAuthors([]models.UserRef{unresolved, a, nameless}))
	assert.Equal(t, "", FormatAuthors([]models.UserRef{unresolved, nameless}))
}

func TestGroupByVolumeIssue(t *testing.T) {
	articles := []models.Article{
		{Title: "v2i1-a", Volume: "2", Issue: "1"},
		{Title: "v1i2", Volume: "1", Issue: "2"},
		{Title: "v2i1-b", Volume: "2", Issue: "1"},
		{Title: "v1i1", Volume: "1", Issue: "1"},
		{Title: "v2i2", Volume: "2", Issue: "2"},
	}

	groups := GroupByVolumeIssue(articles)
	require.Len(t, groups, 2)

	// Bände absteigend.
	assert.Equal(t, "2", groups[0].Volume)
	assert.Equal(t, "1", groups[1].Volume)

	// Hefte innerhalb eines Bands absteigend.
	require.Len(t, groups[0].Issues, 2)
	assert.Equal(t, "2", groups[0].Issues[0].Issue)
	assert.Equal(t, "1", groups[0].Issues[1].Issue)

	// Eingabereihenfolge innerhalb eines Hefts bleibt erhalten.
	i1 := groups[0].Issues[1]
	require.Len(t, i1.Articles, 2)
	assert.Equal(t, "v2i1-a", i1.Articles[0].Title)
	assert.Equal(t, "v2i1-b", i1.Articles[1].Title)
}

func TestGroupByVolumeIssueBuckets(t *testing.T) {
	articles := []models.Article{
		{Title: "no-volume", Issue: "1"},
		{Title: "no-issue", Volume: "1"},
		{Title: "nothing"},
	}

	groups := GroupByVolumeIssue(articles)
	require.Len(t, groups, 2)

	// "Uncategorized" > "1" lexikographisch, steht also vorn.
	assert.Equal(t, VolumeUncategorized, groups[0].Volume)
	assert.Equal(t, "1", groups[1].Volume)

	require.Len(t, groups[0].Issues, 2)
	assert.Equal(t, IssueNone, groups[0].Issues[0].Issue)
	assert.Equal(t, "1", groups[0].Issues[1].Issue)
	assert.Equal(t, "nothing", groups[0].Issues[0].Articles[0].Title)

	require.Len(t, groups[1].Issues, 1)
	assert.Equal(t, IssueNone, groups[1].Issues[0].Issue)
	assert.Equal(t, "no-issue", groups[1].Issues[0].Articles[0].Title)
}

func TestGroupByVolumeIssueEmpty(t *testing.T) {
	assert.Empty(t, GroupByVolumeIssue(nil))
}

func TestLabRoster(t *testing.T) {
	pi1 := models.User{ID: 1, FirstName: "Sarah", LastName: "Chen", Type: models.RolePI}
	pi2 := models.User{ID: 2, FirstName: "Michael", LastName: "Rodriguez", Type: models.RolePI}
	s1 := models.User{ID: 3, FirstName: "James", LastName: "Park", Type: models.RoleStudent}

	lab := models.Lab{
		PrincipalInvestigators: []models.User{pi1, pi2},
		Students:               []models.User{s1},
	}
	roster := LabRoster(lab)
	require.Len(t, roster, 3)
	assert.Equal(t, uint(1), roster[0].ID)
	assert.Equal(t, uint(3), roster[2].ID)
}

func TestLabRosterDeduplicatesAndToleratesRoleMismatch(t *testing.T) {
	// Dieselbe Person in beiden Listen und ein Student im PI-Slot: die
	// Mitgliederliste dedupliziert, prüft die Rolle aber nicht erneut.
	person := models.User{ID: 1, FirstName: "James", LastName: "Park", Type: models.RoleStudent}
	lab := models.Lab{
		PrincipalInvestigators: []models.User{person},
		Students:               []models.User{person},
	}
	roster := LabRoster(lab)
	require.Len(t, roster, 1)
	assert.Equal(t, models.RoleStudent, roster[0].Type)
}
