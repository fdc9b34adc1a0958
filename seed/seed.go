// Package seed befüllt die Datenbank einmalig mit Demo-Daten: Media, User,
// Labs, Journal und Artikel, in Abhängigkeitsreihenfolge. Der Lauf ist nicht
// idempotent: Zielcollections werden vorher geleert, und der erste Fehler
// bricht den gesamten Lauf ohne Rollback ab.
package seed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"vox-backend/config"
	"vox-backend/models"
	"vox-backend/services"
	"vox-backend/storage"
)

// Passwort aller Demo-Accounts.
const demoPassword = "password"

// httpClient wird für das Laden der Demo-Bilder verwendet.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// Seeder kapselt die Abhängigkeiten des Seed-Laufs.
type Seeder struct {
	DB       *gorm.DB
	S3Client *s3.Client
	Config   *config.Config
	Logger   *zap.Logger
}

// New erstellt einen Seeder.
func New(db *gorm.DB, s3Client *s3.Client, cfg *config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{DB: db, S3Client: s3Client, Config: cfg, Logger: logger}
}

// Run führt den kompletten Seed-Lauf aus. Phasen mit Datenabhängigkeit laufen
// sequenziell, unabhängige Creates innerhalb einer Phase parallel.
func (s *Seeder) Run(ctx context.Context) error {
	s.Logger.Info("Seeding database...")

	if err := s.clearCollections(ctx); err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}

	media, err := s.seedMedia(ctx)
	if err != nil {
		return fmt.Errorf("seeding media: %w", err)
	}

	admin, err := s.createUser(ctx, models.User{
		Type:      models.RoleAdmin,
		FirstName: "Demo",
		LastName:  "Admin",
		Email:     "demo-admin@example.com",
	})
	if err != nil {
		return fmt.Errorf("creating demo admin: %w", err)
	}

	users, err := s.seedUsers(ctx, media)
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	var piIDs, studentIDs []uint
	for _, u := range users {
		switch u.Type {
		case models.RolePI:
			piIDs = append(piIDs, u.ID)
		case models.RoleStudent:
			studentIDs = append(studentIDs, u.ID)
		}
	}

	labs, err := s.seedLabs(ctx, piIDs, studentIDs)
	if err != nil {
		return fmt.Errorf("seeding labs: %w", err)
	}

	if err := s.patchAffiliations(ctx, piIDs, studentIDs, labs); err != nil {
		return fmt.Errorf("patching affiliations: %w", err)
	}

	journal, err := s.seedJournal(ctx, admin.ID)
	if err != nil {
		return fmt.Errorf("seeding journal: %w", err)
	}

	if err := s.seedArticles(ctx, piIDs, studentIDs, labs, journal.ID); err != nil {
		return fmt.Errorf("seeding articles: %w", err)
	}

	s.Logger.Info("Seeded database successfully")
	return nil
}

// clearCollections leert alle Zielcollections samt Join-Tabellen.
func (s *Seeder) clearCollections(ctx context.Context) error {
	s.Logger.Info("Clearing collections...")

	joinTables := []string{
		"article_authors",
		"article_assigned_reviewers",
		"journal_editors",
		"lab_principal_investigators",
		"lab_students",
		"user_affiliations",
	}
	for _, table := range joinTables {
		if err := s.DB.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}

	db := s.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.Review{},
		&models.ChangeRequest{},
		&models.SupplementaryMaterial{},
		&models.Article{},
		&models.Journal{},
		&models.Lab{},
		&models.User{},
		&models.Media{},
	} {
		if err := db.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedMedia lädt die Demo-Bilder parallel herunter, speichert sie in S3 und
// legt die Media-Datensätze an.
func (s *Seeder) seedMedia(ctx context.Context) ([]models.Media, error) {
	s.Logger.Info("Seeding media...")

	media := make([]models.Media, len(demoImageURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range demoImageURLs {
		g.Go(func() error {
			data, err := fetchFileByURL(gctx, url)
			if err != nil {
				return err
			}

			name := url[strings.LastIndex(url, "/")+1:]
			key := "seed/" + name
			contentType := "image/" + name[strings.LastIndex(name, ".")+1:]
			link, err := storage.UploadFile(gctx, s.S3Client, s.Config.MediaS3Bucket, key, contentType, data, s.Config)
			if err != nil {
				return err
			}

			m := models.Media{
				Filename: name,
				MimeType: contentType,
				Size:     int64(len(data)),
				S3Key:    key,
				URL:      link,
			}
			if err := s.DB.WithContext(gctx).Create(&m).Error; err != nil {
				return err
			}
			media[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return media, nil
}

// createUser legt einen User mit gehashtem Demo-Passwort und API-Token an.
func (s *Seeder) createUser(ctx context.Context, u models.User) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = string(hash)
	u.APIToken = uuid.NewString()
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// seedUsers legt die Forscher parallel an. Affiliation bleibt zunächst leer,
// weil die Labs erst danach existieren.
func (s *Seeder) seedUsers(ctx context.Context, media []models.Media) ([]models.User, error) {
	s.Logger.Info("Creating researchers...")

	data := demoUsers()
	users := make([]models.User, len(data))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range data {
		g.Go(func() error {
			u.Email = fmt.Sprintf("%s.%s@example.com",
				strings.ToLower(u.FirstName), strings.ToLower(u.LastName))
			if len(media) > 0 {
				u.ProfileImageID = &media[i%len(media)].ID
			}
			created, err := s.createUser(gctx, u)
			if err != nil {
				return err
			}
			users[i] = *created
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

// seedLabs legt die Labs parallel an; die Mitglieds-Referenzen zeigen auf die
// bereits erzeugten User.
func (s *Seeder) seedLabs(ctx context.Context, piIDs, studentIDs []uint) ([]models.Lab, error) {
	s.Logger.Info("Creating labs...")

	data := demoLabs(piIDs, studentIDs)
	labs := make([]models.Lab, len(data))
	g, gctx := errgroup.WithContext(ctx)
	for i, lab := range data {
		g.Go(func() error {
			if lab.Slug == "" {
				lab.Slug = services.DeriveSlug(lab.Name)
			}
			if err := s.DB.WithContext(gctx).Create(&lab).Error; err != nil {
				return err
			}
			labs[i] = lab
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return labs, nil
}

// patchAffiliations setzt die Lab-Zugehörigkeit der User nachträglich. Zwei
// Durchläufe sind nötig, weil Labs User-IDs brauchen und User.Affiliation
// Lab-IDs: der Zyklus wird hier aufgebrochen.
func (s *Seeder) patchAffiliations(ctx context.Context, piIDs, studentIDs []uint, labs []models.Lab) error {
	s.Logger.Info("Updating user affiliations...")

	assign := map[uint]uint{} // userID -> labID
	for i, piID := range piIDs {
		if i < len(labs) {
			assign[piID] = labs[i].ID
		}
	}
	for i, studentID := range studentIDs {
		if i/2 < len(labs) {
			assign[studentID] = labs[i/2].ID
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for userID, labID := range assign {
		g.Go(func() error {
			user := models.User{ID: userID}
			return s.DB.WithContext(gctx).
				Model(&user).
				Association("Affiliation").
				Replace(&models.Lab{ID: labID})
		})
	}
	return g.Wait()
}

// seedJournal legt das Journal mit den Admin-Herausgebern an.
func (s *Seeder) seedJournal(ctx context.Context, adminID uint) (*models.Journal, error) {
	s.Logger.Info("Creating journal...")

	journal := demoJournal([]uint{adminID})
	if journal.Slug == "" {
		journal.Slug = services.DeriveSlug(journal.Name)
	}
	if err := s.DB.WithContext(ctx).Create(&journal).Error; err != nil {
		return nil, err
	}
	return &journal, nil
}

// seedArticles legt die Artikel parallel an. Slug-Ableitung und
// Status-Stempel laufen über dieselben Workflow-Funktionen wie die API.
func (s *Seeder) seedArticles(ctx context.Context, piIDs, studentIDs []uint, labs []models.Lab, journalID uint) error {
	s.Logger.Info("Creating articles...")

	labIDs := make([]uint, len(labs))
	for i, lab := range labs {
		labIDs[i] = lab.ID
	}

	data := demoArticles(articleSeedRefs{
		PIs:      piIDs,
		Students: studentIDs,
		Labs:     labIDs,
		Journal:  journalID,
	})

	now := time.Now().UTC()
	g, gctx := errgroup.WithContext(ctx)
	for _, article := range data {
		g.Go(func() error {
			if article.Slug == "" {
				article.Slug = services.DeriveSlug(article.Title)
			}
			// Publizierte Demo-Artikel erhalten ihre Stempel wie beim
			// regulären Statuswechsel.
			if article.Status == models.StatusPublished {
				services.ApplyStatus(&article, models.StatusReadyForReview, now)
				services.ApplyStatus(&article, models.StatusPublished, now)
			}
			return s.DB.WithContext(gctx).Create(&article).Error
		})
	}
	return g.Wait()
}

// fetchFileByURL lädt eine Datei über HTTP; jeder Fehlschlag ist fatal für den
// gesamten Seed-Lauf.
func fetchFileByURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch file from %s, status: %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
