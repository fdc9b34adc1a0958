package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"vox-backend/config"
	"vox-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Media{},
		&models.User{},
		&models.Lab{},
		&models.Journal{},
		&models.Article{},
		&models.Review{},
		&models.ChangeRequest{},
		&models.SupplementaryMaterial{},
	))
	return db
}

func setupTestRouter(t *testing.T, db *gorm.DB, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	router := gin.New()
	router.Use(actorMiddleware(db))
	setupUserRoutes(router, db, cfg, log)
	setupLabRoutes(router, db, log)
	setupJournalRoutes(router, db, log)
	setupArticleRoutes(router, db, log)
	return router
}

func createTestUser(t *testing.T, db *gorm.DB, role, email string) *models.User {
	t.Helper()
	user := models.User{
		Type:      role,
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		APIToken:  uuid.NewString(),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-API-KEY", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBootstrapCreatesFirstAdminOnce(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{AllowInitialAdminCreation: true})

	payload := gin.H{
		"first_name": "Initial",
		"last_name":  "Admin",
		"email":      "admin@example.com",
		"password":   "s3cret-password",
	}

	w := doJSON(router, http.MethodPost, "/users/bootstrap", "", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		User     models.User `json:"user"`
		APIToken string      `json:"api_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.RoleAdmin, resp.User.Type)
	assert.NotEmpty(t, resp.APIToken)

	// Sobald ein Admin existiert, ist der Endpunkt gesperrt.
	payload["email"] = "second@example.com"
	w = doJSON(router, http.MethodPost, "/users/bootstrap", "", payload)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBootstrapDisabledByDefault(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})

	w := doJSON(router, http.MethodPost, "/users/bootstrap", "", gin.H{
		"first_name": "Initial",
		"last_name":  "Admin",
		"email":      "admin@example.com",
		"password":   "s3cret-password",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserCreateRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	admin := createTestUser(t, db, models.RoleAdmin, "admin@example.com")
	student := createTestUser(t, db, models.RoleStudent, "student@example.com")

	payload := gin.H{
		"first_name": "Neue",
		"last_name":  "Person",
		"email":      "new@example.com",
		"password":   "s3cret-password",
	}

	w := doJSON(router, http.MethodPost, "/users/", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/users/", student.APIToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPost, "/users/", admin.APIToken, payload)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUserUpdateRoleImmutableForNonAdmins(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	admin := createTestUser(t, db, models.RoleAdmin, "admin@example.com")
	student := createTestUser(t, db, models.RoleStudent, "student@example.com")
	other := createTestUser(t, db, models.RoleStudent, "other@example.com")

	// Profilfelder am eigenen Datensatz sind erlaubt.
	w := doJSON(router, http.MethodPatch, "/users/"+itoa(student.ID), student.APIToken, gin.H{"bio": "Neu"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Fremde Datensätze nicht.
	w = doJSON(router, http.MethodPatch, "/users/"+itoa(other.ID), student.APIToken, gin.H{"bio": "Neu"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Die eigene Rolle ebenfalls nicht.
	w = doJSON(router, http.MethodPatch, "/users/"+itoa(student.ID), student.APIToken, gin.H{"type": models.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins dürfen Rollen ändern.
	w = doJSON(router, http.MethodPatch, "/users/"+itoa(student.ID), admin.APIToken, gin.H{"type": models.RolePI})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.User
	require.NoError(t, db.First(&updated, student.ID).Error)
	assert.Equal(t, models.RolePI, updated.Type)
}

func TestUserDetailIncludesPublications(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	pi := createTestUser(t, db, models.RolePI, "pi@example.com")
	student := createTestUser(t, db, models.RoleStudent, "student@example.com")

	published := models.Article{
		Title:                 "Publiziert",
		Slug:                  "publiziert",
		Authors:               []models.User{{ID: pi.ID}},
		CorrespondingAuthorID: pi.ID,
		Status:                models.StatusPublished,
		Reviews:               []models.Review{{Decision: models.DecisionApprove}},
	}
	draft := models.Article{
		Title:                 "Entwurf",
		Slug:                  "entwurf",
		Authors:               []models.User{{ID: pi.ID}},
		CorrespondingAuthorID: pi.ID,
		Status:                models.StatusDraft,
	}
	require.NoError(t, db.Create(&published).Error)
	require.NoError(t, db.Create(&draft).Error)

	w := doJSON(router, http.MethodGet, "/users/"+itoa(pi.ID), student.APIToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		User         models.User      `json:"user"`
		Publications []models.Article `json:"publications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pi.ID, resp.User.ID)

	// Nur der publizierte Artikel erscheint, und ohne Gutachten.
	require.Len(t, resp.Publications, 1)
	assert.Equal(t, "Publiziert", resp.Publications[0].Title)
	assert.Empty(t, resp.Publications[0].Reviews)
}

func TestArticleCreateDerivesSlugAndStamps(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	student := createTestUser(t, db, models.RoleStudent, "student@example.com")

	w := doJSON(router, http.MethodPost, "/articles/", student.APIToken, gin.H{
		"title":                   "My Great Title!",
		"author_ids":              []uint{student.ID},
		"corresponding_author_id": student.ID,
		"status":                  models.StatusReadyForReview,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var article models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &article))
	assert.Equal(t, "my-great-title", article.Slug)
	assert.Equal(t, models.StatusReadyForReview, article.Status)
	assert.NotNil(t, article.SubmittedDate)
	assert.Nil(t, article.PublishedDate)
}

func TestArticleStatusUpdateStampsPublishedDate(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	student := createTestUser(t, db, models.RoleStudent, "student@example.com")

	article := models.Article{
		Title:                 "Unterwegs zur Publikation",
		Slug:                  "unterwegs-zur-publikation",
		Authors:               []models.User{{ID: student.ID}},
		CorrespondingAuthorID: student.ID,
		Status:                models.StatusReadyForPublishing,
	}
	require.NoError(t, db.Create(&article).Error)

	w := doJSON(router, http.MethodPut, "/articles/"+itoa(article.ID), student.APIToken, gin.H{
		"status": models.StatusPublished,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Article
	require.NoError(t, db.First(&stored, article.ID).Error)
	assert.Equal(t, models.StatusPublished, stored.Status)
	require.NotNil(t, stored.PublishedDate)
	firstPublished := *stored.PublishedDate

	// Erneutes Publizieren nach Rücksprung überschreibt den Stempel nicht.
	w = doJSON(router, http.MethodPut, "/articles/"+itoa(article.ID), student.APIToken, gin.H{
		"status": models.StatusDraft,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodPut, "/articles/"+itoa(article.ID), student.APIToken, gin.H{
		"status": models.StatusPublished,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&stored, article.ID).Error)
	require.NotNil(t, stored.PublishedDate)
	assert.True(t, stored.PublishedDate.Equal(firstPublished))
}

func TestArticleAuthorReplaceReflectedInResponse(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	first := createTestUser(t, db, models.RolePI, "first@example.com")
	second := createTestUser(t, db, models.RoleStudent, "second@example.com")

	article := models.Article{
		Title:                 "Autorenliste",
		Slug:                  "autorenliste",
		Authors:               []models.User{{ID: first.ID}},
		CorrespondingAuthorID: first.ID,
		Status:                models.StatusDraft,
	}
	require.NoError(t, db.Create(&article).Error)

	w := doJSON(router, http.MethodPut, "/articles/"+itoa(article.ID), first.APIToken, gin.H{
		"author_ids": []uint{second.ID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Die Antwort enthält bereits die ersetzte Autorenliste.
	var updated models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Len(t, updated.Authors, 1)
	assert.Equal(t, second.ID, updated.Authors[0].ID)
}

func TestArticleReviewsHiddenFromNonAdmins(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	admin := createTestUser(t, db, models.RoleAdmin, "admin@example.com")
	student := createTestUser(t, db, models.RoleStudent, "student@example.com")

	article := models.Article{
		Title:                 "Mit Gutachten",
		Slug:                  "mit-gutachten",
		Authors:               []models.User{{ID: student.ID}},
		CorrespondingAuthorID: student.ID,
		Status:                models.StatusUnderReview,
		Reviews: []models.Review{
			{Decision: models.DecisionRequestChanges, Comments: "Methodik unklar", ConfidentialNotes: "nur intern"},
		},
		AssignedReviewers: []models.User{{ID: admin.ID}},
	}
	require.NoError(t, db.Create(&article).Error)

	w := doJSON(router, http.MethodGet, "/articles/mit-gutachten", student.APIToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var asStudent models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asStudent))
	assert.Empty(t, asStudent.Reviews)
	assert.Empty(t, asStudent.AssignedReviewers)
	assert.Equal(t, "Mit Gutachten", asStudent.Title)

	w = doJSON(router, http.MethodGet, "/articles/mit-gutachten", admin.APIToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var asAdmin models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asAdmin))
	require.Len(t, asAdmin.Reviews, 1)
	assert.Equal(t, "Methodik unklar", asAdmin.Reviews[0].Comments)
	require.Len(t, asAdmin.AssignedReviewers, 1)
}

func TestReviewEndpointsAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	admin := createTestUser(t, db, models.RoleAdmin, "admin@example.com")
	pi := createTestUser(t, db, models.RolePI, "pi@example.com")

	article := models.Article{
		Title:                 "Zu begutachten",
		Slug:                  "zu-begutachten",
		Authors:               []models.User{{ID: pi.ID}},
		CorrespondingAuthorID: pi.ID,
		Status:                models.StatusUnderReview,
	}
	require.NoError(t, db.Create(&article).Error)

	review := gin.H{"decision": models.DecisionApprove, "comments": "Solide Arbeit"}

	w := doJSON(router, http.MethodPost, "/articles/"+itoa(article.ID)+"/reviews", pi.APIToken, review)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPost, "/articles/"+itoa(article.ID)+"/reviews", "", review)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/articles/"+itoa(article.ID)+"/reviews", admin.APIToken, review)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Ein Review ändert den Artikelstatus nicht.
	var stored models.Article
	require.NoError(t, db.First(&stored, article.ID).Error)
	assert.Equal(t, models.StatusUnderReview, stored.Status)

	w = doJSON(router, http.MethodPut, "/articles/"+itoa(article.ID)+"/assigned-reviewers", pi.APIToken, gin.H{
		"reviewer_ids": []uint{admin.ID},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPut, "/articles/"+itoa(article.ID)+"/assigned-reviewers", admin.APIToken, gin.H{
		"reviewer_ids": []uint{admin.ID},
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestChangeRequestLifecycle(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	pi := createTestUser(t, db, models.RolePI, "pi@example.com")

	article := models.Article{
		Title:                 "Mit Auflagen",
		Slug:                  "mit-auflagen",
		Authors:               []models.User{{ID: pi.ID}},
		CorrespondingAuthorID: pi.ID,
		Status:                models.StatusChangesRequested,
	}
	require.NoError(t, db.Create(&article).Error)

	w := doJSON(router, http.MethodPost, "/articles/"+itoa(article.ID)+"/change-requests", pi.APIToken, gin.H{
		"changes": "Abbildung 3 fehlt die Legende",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cr models.ChangeRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	assert.False(t, cr.Resolved)
	require.NotNil(t, cr.RequestedByID)
	assert.Equal(t, pi.ID, *cr.RequestedByID)

	w = doJSON(router, http.MethodPost, "/articles/"+itoa(article.ID)+"/change-requests/"+itoa(cr.ID)+"/resolve", pi.APIToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.ChangeRequest
	require.NoError(t, db.First(&stored, cr.ID).Error)
	assert.True(t, stored.Resolved)
	assert.NotNil(t, stored.ResolvedDate)
}

func TestPublishedListingIsPublic(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	pi := createTestUser(t, db, models.RolePI, "pi@example.com")

	published := models.Article{
		Title:                 "Sichtbar",
		Slug:                  "sichtbar",
		Authors:               []models.User{{ID: pi.ID}},
		CorrespondingAuthorID: pi.ID,
		Status:                models.StatusPublished,
	}
	draft := models.Article{
		Title:                 "Unsichtbar",
		Slug:                  "unsichtbar",
		Authors:               []models.User{{ID: pi.ID}},
		CorrespondingAuthorID: pi.ID,
		Status:                models.StatusDraft,
	}
	require.NoError(t, db.Create(&published).Error)
	require.NoError(t, db.Create(&draft).Error)

	// Ohne Authentifizierung erreichbar; nur publizierte Artikel erscheinen.
	w := doJSON(router, http.MethodGet, "/articles/published", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var entries []struct {
		Title      string `json:"title"`
		AuthorLine string `json:"author_line"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Sichtbar", entries[0].Title)
	assert.Equal(t, "Test User", entries[0].AuthorLine)

	// Die allgemeine Artikelliste bleibt dagegen gesperrt.
	w = doJSON(router, http.MethodGet, "/articles/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLabAndJournalWriteAccessAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	admin := createTestUser(t, db, models.RoleAdmin, "admin@example.com")
	student := createTestUser(t, db, models.RoleStudent, "student@example.com")

	lab := gin.H{"name": "Quantum Computing Lab", "institution": "MIT"}
	w := doJSON(router, http.MethodPost, "/labs/", student.APIToken, lab)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPost, "/labs/", admin.APIToken, lab)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Lab
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "quantum-computing-lab", created.Slug)

	// Lesen ist für jedermann frei.
	w = doJSON(router, http.MethodGet, "/labs/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	journal := gin.H{"name": "VOX Undergraduate Research"}
	w = doJSON(router, http.MethodPost, "/journals/", student.APIToken, journal)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPost, "/journals/", admin.APIToken, journal)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(router, http.MethodGet, "/journals/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJournalDetailGroupsPublishedArticles(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(t, db, &config.Config{})
	pi := createTestUser(t, db, models.RolePI, "pi@example.com")

	journal := models.Journal{Name: "VOX", Slug: "vox"}
	require.NoError(t, db.Create(&journal).Error)

	for _, a := range []models.Article{
		{Title: "A1", Slug: "a1", Volume: "2", Issue: "1", Status: models.StatusPublished},
		{Title: "A2", Slug: "a2", Volume: "1", Issue: "1", Status: models.StatusPublished},
		{Title: "A3", Slug: "a3", Volume: "2", Issue: "1", Status: models.StatusDraft},
	} {
		a.JournalID = &journal.ID
		a.Authors = []models.User{{ID: pi.ID}}
		a.CorrespondingAuthorID = pi.ID
		require.NoError(t, db.Create(&a).Error)
	}

	w := doJSON(router, http.MethodGet, "/journals/vox", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Journal models.Journal `json:"journal"`
		Volumes []struct {
			Volume string `json:"volume"`
			Issues []struct {
				Issue    string           `json:"issue"`
				Articles []models.Article `json:"articles"`
			} `json:"issues"`
		} `json:"volumes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Volumes, 2)
	assert.Equal(t, "2", resp.Volumes[0].Volume)
	assert.Equal(t, "1", resp.Volumes[1].Volume)
	// Der Draft-Artikel taucht nicht auf.
	require.Len(t, resp.Volumes[0].Issues[0].Articles, 1)
	assert.Equal(t, "A1", resp.Volumes[0].Issues[0].Articles[0].Title)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
