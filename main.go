package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"vox-backend/access"
	"vox-backend/config"
	"vox-backend/models"
	"vox-backend/providers"
	"vox-backend/providers/europepmc"
	"vox-backend/services"
	"vox-backend/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	articlesCreatedCounter   prometheus.Counter
	articlesPublishedCounter prometheus.Counter
	articleStatusGauge       *prometheus.GaugeVec
)

func init() {
	articlesCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_created_total",
			Help: "Total number of articles created.",
		},
	)
	articlesPublishedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_published_total",
			Help: "Total number of articles published for the first time.",
		},
	)
	articleStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "articles_by_status",
			Help: "Current number of articles per editorial status.",
		},
		[]string{"status"},
	)
	prometheus.MustRegister(articlesCreatedCounter, articlesPublishedCounter, articleStatusGauge)
}

// actorMiddleware löst den Akteur über den API-Token-Header auf. Anonyme
// Anfragen passieren die Middleware; die Autorisierung entscheidet pro Route.
func actorMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-API-KEY")
		if token == "" {
			c.Next()
			return
		}
		var user models.User
		if err := db.Where("api_token = ?", token).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Set("actor", &user)
		c.Next()
	}
}

// actorFrom liefert den authentifizierten Akteur oder nil.
func actorFrom(c *gin.Context) *models.User {
	if v, ok := c.Get("actor"); ok {
		return v.(*models.User)
	}
	return nil
}

// authorize wertet die Zugriffsrichtlinie aus und schreibt bei Ablehnung die
// Fehlerantwort. Gibt true zurück, wenn die Operation erlaubt ist.
func authorize(c *gin.Context, op access.Operation, kind access.ResourceKind, res any, env access.Env) bool {
	actor := actorFrom(c)
	if access.Decide(actor, op, kind, res, env) {
		return true
	}
	if actor == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	} else {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
	return false
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to content database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(
		&models.Media{},
		&models.User{},
		&models.Lab{},
		&models.Journal{},
		&models.Article{},
		&models.Review{},
		&models.ChangeRequest{},
		&models.SupplementaryMaterial{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	if cfg.AllowInitialAdminCreation {
		logging.Warn("ALLOW_INITIAL_ADMIN_CREATION is enabled. Disable this in production once the first admin exists.")
	}

	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	router := gin.Default()
	router.Use(actorMiddleware(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "vox-backend"})
	})

	setupUserRoutes(router, db, cfg, logging)
	setupLabRoutes(router, db, logging)
	setupJournalRoutes(router, db, logging)
	setupArticleRoutes(router, db, logging)
	setupReferenceRoutes(router, db, europepmc.NewResolver(logging), logging)
	setupMediaRoutes(router, db, s3Client, cfg, logging)

	// Status-Metriken periodisch aktualisieren.
	refreshStatusMetrics(db, logging)
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.MetricsCronSchedule, func() {
		refreshStatusMetrics(db, logging)
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// refreshStatusMetrics zählt Artikel pro Status und setzt die Gauge. Nicht
// belegte Status werden explizit auf 0 gesetzt.
func refreshStatusMetrics(db *gorm.DB, log *zap.Logger) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := db.Model(&models.Article{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&counts).Error; err != nil {
		log.Error("Failed to refresh article status metrics", zap.Error(err))
		return
	}

	byStatus := map[string]int64{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	for _, status := range []string{
		models.StatusDraft,
		models.StatusReadyForReview,
		models.StatusUnderReview,
		models.StatusChangesRequested,
		models.StatusApproved,
		models.StatusReadyForPublishing,
		models.StatusPublished,
		models.StatusRejected,
	} {
		articleStatusGauge.WithLabelValues(status).Set(float64(byStatus[status]))
	}
}

// adminExists meldet, ob mindestens ein Admin-Account existiert.
func adminExists(db *gorm.DB) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).Where("type = ?", models.RoleAdmin).Count(&count).Error
	return count > 0, err
}

func setupUserRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/users")

	type userPayload struct {
		Type      string `json:"type"`
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`

		Title             string   `json:"title"`
		Bio               string   `json:"bio"`
		ResearchInterests []string `json:"research_interests"`
		Website           string   `json:"website"`
		ORCID             string   `json:"orcid"`
		GoogleScholar     string   `json:"google_scholar"`
	}

	buildUser := func(req userPayload) (*models.User, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user := models.User{
			Type:          req.Type,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Email:         req.Email,
			PasswordHash:  string(hash),
			APIToken:      uuid.NewString(),
			Title:         req.Title,
			Bio:           req.Bio,
			Website:       req.Website,
			ORCID:         req.ORCID,
			GoogleScholar: req.GoogleScholar,
		}
		if user.Type == "" {
			user.Type = models.RoleStudent
		}
		return &user, nil
	}

	validRole := func(role string) bool {
		return role == models.RoleAdmin || role == models.RolePI || role == models.RoleStudent
	}

	// Bootstrap: legt den allerersten Admin an. Nur erreichbar, wenn der
	// Schalter aktiv ist UND noch kein Admin existiert; danach ist der
	// Endpunkt dauerhaft gesperrt.
	rg.POST("/bootstrap", func(c *gin.Context) {
		exists, err := adminExists(db)
		if err != nil {
			log.Error("Failed to count admins for bootstrap", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		env := access.Env{AllowInitialAdmin: cfg.AllowInitialAdminCreation, AdminExists: exists}
		if !access.Decide(actorFrom(c), access.OpCreate, access.KindUser, nil, env) {
			c.JSON(http.StatusForbidden, gin.H{"error": "initial admin creation is not available"})
			return
		}

		var req userPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		user, err := buildUser(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
		user.Type = models.RoleAdmin

		if err := db.Create(user).Error; err != nil {
			log.Error("Failed to create initial admin", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
		log.Info("Initial admin created", zap.String("email", user.Email))
		// Der API-Token wird genau einmal zurückgegeben.
		c.JSON(http.StatusCreated, gin.H{"user": user, "api_token": user.APIToken})
	})

	// Regulärer Create-Pfad: ausschließlich Admins. Die Bootstrap-Ausnahme
	// lebt bewusst nur im separaten Endpunkt oben.
	rg.POST("/", func(c *gin.Context) {
		if !authorize(c, access.OpCreate, access.KindUser, nil, access.Env{}) {
			return
		}
		var req userPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Type != "" && !validRole(req.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		user, err := buildUser(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
		if err := db.Create(user).Error; err != nil {
			log.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user, "api_token": user.APIToken})
	})

	rg.GET("/", func(c *gin.Context) {
		if !authorize(c, access.OpRead, access.KindUser, nil, access.Env{}) {
			return
		}
		var users []models.User
		if err := db.Preload("Affiliation").Find(&users).Error; err != nil {
			log.Error("Database query for users failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, users)
	})

	// Profilseite: Person samt ihrer publizierten Artikel, neueste zuerst.
	rg.GET("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpRead, access.KindUser, nil, access.Env{}) {
			return
		}
		var user models.User
		if err := db.Preload("Affiliation").Preload("ProfileImage").First(&user, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var publications []models.Article
		if err := db.Preload("Authors").
			Joins("JOIN article_authors ON article_authors.article_id = articles.id").
			Where("articles.status = ?", models.StatusPublished).
			Where("article_authors.user_id = ?", user.ID).
			Order("published_date desc").
			Limit(20).
			Find(&publications).Error; err != nil {
			log.Error("Database query for user publications failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticles(actorFrom(c), publications)

		c.JSON(http.StatusOK, gin.H{
			"user":         user,
			"publications": publications,
		})
	})

	rg.PATCH("/:id", func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if !authorize(c, access.OpUpdate, access.KindUser, &user, access.Env{}) {
			return
		}

		var payload struct {
			Type          *string `json:"type"`
			FirstName     *string `json:"first_name"`
			LastName      *string `json:"last_name"`
			Title         *string `json:"title"`
			Bio           *string `json:"bio"`
			Website       *string `json:"website"`
			ORCID         *string `json:"orcid"`
			GoogleScholar *string `json:"google_scholar"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		updates := map[string]interface{}{}
		if payload.Type != nil {
			// Die Rolle ist unveränderlich, außer für Admins.
			if !actorFrom(c).IsAdmin() {
				c.JSON(http.StatusForbidden, gin.H{"error": "only admins may change roles"})
				return
			}
			if !validRole(*payload.Type) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
				return
			}
			updates["type"] = *payload.Type
		}
		if payload.FirstName != nil {
			updates["first_name"] = *payload.FirstName
		}
		if payload.LastName != nil {
			updates["last_name"] = *payload.LastName
		}
		if payload.Title != nil {
			updates["title"] = *payload.Title
		}
		if payload.Bio != nil {
			updates["bio"] = *payload.Bio
		}
		if payload.Website != nil {
			updates["website"] = *payload.Website
		}
		if payload.ORCID != nil {
			updates["orcid"] = *payload.ORCID
		}
		if payload.GoogleScholar != nil {
			updates["google_scholar"] = *payload.GoogleScholar
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		if err := db.Model(&user).Updates(updates).Error; err != nil {
			log.Error("Failed to update user", zap.Uint("id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}
		c.JSON(http.StatusOK, user)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpDelete, access.KindUser, nil, access.Env{}) {
			return
		}
		res := db.Delete(&models.User{}, c.Param("id"))
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}

func setupLabRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/labs")

	// memberPublications lädt die publizierten Artikel, an denen Mitglieder
	// des Labs als Autoren beteiligt sind, neueste zuerst.
	memberPublications := func(memberIDs []uint, limit int) ([]models.Article, error) {
		if len(memberIDs) == 0 {
			return nil, nil
		}
		var publications []models.Article
		err := db.Preload("Authors").
			Joins("JOIN article_authors ON article_authors.article_id = articles.id").
			Where("articles.status = ?", models.StatusPublished).
			Where("article_authors.user_id IN ?", memberIDs).
			Group("articles.id").
			Order("published_date desc").
			Limit(limit).
			Find(&publications).Error
		return publications, err
	}

	rosterIDs := func(lab models.Lab) []uint {
		roster := services.LabRoster(lab)
		ids := make([]uint, 0, len(roster))
		for _, member := range roster {
			ids = append(ids, member.ID)
		}
		return ids
	}

	rg.POST("/", func(c *gin.Context) {
		if !authorize(c, access.OpCreate, access.KindLab, nil, access.Env{}) {
			return
		}
		var lab models.Lab
		if err := c.ShouldBindJSON(&lab); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if lab.Name == "" || lab.Institution == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and institution are required"})
			return
		}
		if lab.Slug == "" {
			lab.Slug = services.DeriveSlug(lab.Name)
		}
		if err := db.Create(&lab).Error; err != nil {
			log.Error("Failed to create lab", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create lab"})
			return
		}
		c.JSON(http.StatusCreated, lab)
	})

	rg.GET("/", func(c *gin.Context) {
		var labs []models.Lab
		if err := db.Preload("PrincipalInvestigators").Preload("Students").Find(&labs).Error; err != nil {
			log.Error("Database query for labs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, labs)
	})

	// Detailseite: Lab samt Mitgliederliste und Publikationen der Mitglieder.
	rg.GET("/:slug", func(c *gin.Context) {
		var lab models.Lab
		if err := db.Preload("PrincipalInvestigators").Preload("Students").Preload("LabImage").
			Where("slug = ?", c.Param("slug")).First(&lab).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "lab not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		roster := services.LabRoster(lab)
		publications, err := memberPublications(rosterIDs(lab), 10)
		if err != nil {
			log.Error("Database query for lab publications failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticles(actorFrom(c), publications)

		c.JSON(http.StatusOK, gin.H{
			"lab":          lab,
			"members":      roster,
			"publications": publications,
		})
	})

	// Vollständige Publikationsliste eines Labs.
	rg.GET("/:slug/publications", func(c *gin.Context) {
		var lab models.Lab
		if err := db.Preload("PrincipalInvestigators").Preload("Students").
			Where("slug = ?", c.Param("slug")).First(&lab).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "lab not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		publications, err := memberPublications(rosterIDs(lab), 100)
		if err != nil {
			log.Error("Database query for lab publications failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticles(actorFrom(c), publications)
		c.JSON(http.StatusOK, publications)
	})

	rg.PUT("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpUpdate, access.KindLab, nil, access.Env{}) {
			return
		}
		var lab models.Lab
		if err := db.First(&lab, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "lab not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		// Nur die gesendeten Felder binden, um Überschreiben zu verhindern.
		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		delete(updateData, "id")

		if err := db.Model(&lab).Updates(updateData).Error; err != nil {
			log.Error("Failed to update lab", zap.Uint("id", lab.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lab"})
			return
		}
		c.JSON(http.StatusOK, lab)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpDelete, access.KindLab, nil, access.Env{}) {
			return
		}
		res := db.Delete(&models.Lab{}, c.Param("id"))
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "lab not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}

func setupJournalRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/journals")

	rg.POST("/", func(c *gin.Context) {
		if !authorize(c, access.OpCreate, access.KindJournal, nil, access.Env{}) {
			return
		}
		var journal models.Journal
		if err := c.ShouldBindJSON(&journal); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if journal.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		if journal.Slug == "" {
			journal.Slug = services.DeriveSlug(journal.Name)
		}
		if err := db.Create(&journal).Error; err != nil {
			log.Error("Failed to create journal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create journal"})
			return
		}
		c.JSON(http.StatusCreated, journal)
	})

	rg.GET("/", func(c *gin.Context) {
		var journals []models.Journal
		if err := db.Preload("Editors").Find(&journals).Error; err != nil {
			log.Error("Database query for journals failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, journals)
	})

	// Detailseite: Journal samt publizierter Artikel, gruppiert nach Band
	// und Heft in absteigender Reihenfolge.
	rg.GET("/:slug", func(c *gin.Context) {
		var journal models.Journal
		if err := db.Preload("Editors").Preload("CoverImage").
			Where("slug = ?", c.Param("slug")).First(&journal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var articles []models.Article
		if err := db.Preload("Authors").
			Where("journal_id = ? AND status = ?", journal.ID, models.StatusPublished).
			Order("published_date desc").
			Limit(50).
			Find(&articles).Error; err != nil {
			log.Error("Database query for journal articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticles(actorFrom(c), articles)

		c.JSON(http.StatusOK, gin.H{
			"journal": journal,
			"volumes": services.GroupByVolumeIssue(articles),
		})
	})

	rg.PUT("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpUpdate, access.KindJournal, nil, access.Env{}) {
			return
		}
		var journal models.Journal
		if err := db.First(&journal, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		delete(updateData, "id")

		if err := db.Model(&journal).Updates(updateData).Error; err != nil {
			log.Error("Failed to update journal", zap.Uint("id", journal.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update journal"})
			return
		}
		c.JSON(http.StatusOK, journal)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpDelete, access.KindJournal, nil, access.Env{}) {
			return
		}
		res := db.Delete(&models.Journal{}, c.Param("id"))
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}

func setupArticleRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/articles")

	toUserRefs := func(ids []uint) []models.User {
		users := make([]models.User, 0, len(ids))
		for _, id := range ids {
			users = append(users, models.User{ID: id})
		}
		return users
	}

	rg.POST("/", func(c *gin.Context) {
		if !authorize(c, access.OpCreate, access.KindArticle, nil, access.Env{}) {
			return
		}

		var req struct {
			Title                 string   `json:"title" binding:"required"`
			Slug                  string   `json:"slug"`
			AuthorIDs             []uint   `json:"author_ids" binding:"required"`
			CorrespondingAuthorID uint     `json:"corresponding_author_id" binding:"required"`
			LabID                 *uint    `json:"lab_id"`
			JournalID             *uint    `json:"journal_id"`
			Abstract              string   `json:"abstract"`
			Content               string   `json:"content"`
			Keywords              []string `json:"keywords"`
			DOI                   string   `json:"doi"`
			Volume                string   `json:"volume"`
			Issue                 string   `json:"issue"`
			PagesStart            string   `json:"pages_start"`
			PagesEnd              string   `json:"pages_end"`
			Citations             string   `json:"citations"`
			Status                string   `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if len(req.AuthorIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one author is required"})
			return
		}
		if req.Status == "" {
			req.Status = models.StatusDraft
		}
		if !services.ValidStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		article := models.Article{
			Title:                 req.Title,
			Slug:                  req.Slug,
			Authors:               toUserRefs(req.AuthorIDs),
			CorrespondingAuthorID: req.CorrespondingAuthorID,
			LabID:                 req.LabID,
			JournalID:             req.JournalID,
			Abstract:              req.Abstract,
			Content:               req.Content,
			DOI:                   req.DOI,
			Volume:                req.Volume,
			Issue:                 req.Issue,
			PagesStart:            req.PagesStart,
			PagesEnd:              req.PagesEnd,
			Citations:             req.Citations,
		}
		if len(req.Keywords) > 0 {
			article.Keywords = keywordsJSON(req.Keywords)
		}
		if article.Slug == "" {
			article.Slug = services.DeriveSlug(article.Title)
		}
		// Stempel greifen auch, wenn direkt in einem späteren Status angelegt wird.
		services.ApplyStatus(&article, req.Status, time.Now().UTC())

		if err := db.Create(&article).Error; err != nil {
			log.Error("Failed to create article", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create article"})
			return
		}
		articlesCreatedCounter.Inc()
		if article.Status == models.StatusPublished {
			articlesPublishedCounter.Inc()
		}

		access.RedactArticle(actorFrom(c), &article)
		c.JSON(http.StatusCreated, article)
	})

	// Öffentliche Ansicht: publizierte Artikel, neueste zuerst.
	rg.GET("/published", func(c *gin.Context) {
		var articles []models.Article
		if err := db.Preload("Authors").Preload("Journal").
			Where("status = ?", models.StatusPublished).
			Order("published_date desc").
			Find(&articles).Error; err != nil {
			log.Error("Database query for published articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticles(actorFrom(c), articles)

		type listEntry struct {
			models.Article
			AuthorLine string `json:"author_line"`
			Citation   string `json:"citation"`
		}
		entries := make([]listEntry, 0, len(articles))
		for _, a := range articles {
			entries = append(entries, listEntry{
				Article:    a,
				AuthorLine: services.FormatAuthors(models.UserRefs(a.Authors)),
				Citation:   services.FormatCitation(a),
			})
		}
		c.JSON(http.StatusOK, entries)
	})

	rg.GET("/", func(c *gin.Context) {
		if !authorize(c, access.OpRead, access.KindArticle, nil, access.Env{}) {
			return
		}
		var articles []models.Article
		if err := db.Preload("Authors").Find(&articles).Error; err != nil {
			log.Error("Database query for articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticles(actorFrom(c), articles)
		c.JSON(http.StatusOK, articles)
	})

	// Body-gesteuerter Endpunkt für komplexe Abfragen.
	rg.POST("/query", func(c *gin.Context) {
		if !authorize(c, access.OpRead, access.KindArticle, nil, access.Env{}) {
			return
		}

		type articleQuery struct {
			Status    string `json:"status"`
			JournalID *uint  `json:"journal_id"`
			LabID     *uint  `json:"lab_id"`
			Volume    string `json:"volume"`
			Issue     string `json:"issue"`
			Limit     int    `json:"limit"`
		}
		var req articleQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		query := db.Model(&models.Article{}).Preload("Authors")
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.JournalID != nil {
			query = query.Where("journal_id = ?", *req.JournalID)
		}
		if req.LabID != nil {
			query = query.Where("lab_id = ?", *req.LabID)
		}
		if req.Volume != "" {
			query = query.Where("volume = ?", req.Volume)
		}
		if req.Issue != "" {
			query = query.Where("issue = ?", req.Issue)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var articles []models.Article
		if err := query.Order("created_at desc").Find(&articles).Error; err != nil {
			log.Error("Database query for articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticles(actorFrom(c), articles)
		c.JSON(http.StatusOK, articles)
	})

	rg.GET("/:slug", func(c *gin.Context) {
		if !authorize(c, access.OpRead, access.KindArticle, nil, access.Env{}) {
			return
		}
		var article models.Article
		if err := db.Preload("Authors").Preload("CorrespondingAuthor").
			Preload("Lab").Preload("Journal").
			Preload("Reviews").Preload("Reviews.Reviewer").
			Preload("ChangeRequests").Preload("ChangeRequests.RequestedBy").
			Preload("AssignedReviewers").
			Preload("SupplementaryMaterials").Preload("SupplementaryMaterials.Media").
			Preload("PDFVersion").
			Where("slug = ?", c.Param("slug")).First(&article).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		access.RedactArticle(actorFrom(c), &article)
		c.JSON(http.StatusOK, article)
	})

	rg.PUT("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpUpdate, access.KindArticle, nil, access.Env{}) {
			return
		}
		var article models.Article
		if err := db.First(&article, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var payload struct {
			Title      *string   `json:"title"`
			Abstract   *string   `json:"abstract"`
			Content    *string   `json:"content"`
			Keywords   *[]string `json:"keywords"`
			DOI        *string   `json:"doi"`
			Volume     *string   `json:"volume"`
			Issue      *string   `json:"issue"`
			PagesStart *string   `json:"pages_start"`
			PagesEnd   *string   `json:"pages_end"`
			Citations  *string   `json:"citations"`
			Status     *string   `json:"status"`
			AuthorIDs  *[]uint   `json:"author_ids"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		updates := map[string]interface{}{}
		if payload.Title != nil {
			updates["title"] = *payload.Title
		}
		if payload.Abstract != nil {
			updates["abstract"] = *payload.Abstract
		}
		if payload.Content != nil {
			updates["content"] = *payload.Content
		}
		if payload.Keywords != nil {
			updates["keywords"] = keywordsJSON(*payload.Keywords)
		}
		if payload.DOI != nil {
			updates["doi"] = *payload.DOI
		}
		if payload.Volume != nil {
			updates["volume"] = *payload.Volume
		}
		if payload.Issue != nil {
			updates["issue"] = *payload.Issue
		}
		if payload.PagesStart != nil {
			updates["pages_start"] = *payload.PagesStart
		}
		if payload.PagesEnd != nil {
			updates["pages_end"] = *payload.PagesEnd
		}
		if payload.Citations != nil {
			updates["citations"] = *payload.Citations
		}

		firstPublish := false
		if payload.Status != nil {
			if !services.ValidStatus(*payload.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			if !services.TransitionExpected(article.Status, *payload.Status) {
				// Advisory: nicht vorgesehene Sprünge werden erlaubt, aber geloggt.
				log.Warn("Unexpected status transition",
					zap.Uint("article_id", article.ID),
					zap.String("from", article.Status),
					zap.String("to", *payload.Status))
			}
			firstPublish = *payload.Status == models.StatusPublished && article.PublishedDate == nil
			services.ApplyStatus(&article, *payload.Status, time.Now().UTC())
			updates["status"] = article.Status
			updates["submitted_date"] = article.SubmittedDate
			updates["published_date"] = article.PublishedDate
		}

		if len(updates) == 0 && payload.AuthorIDs == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		if payload.AuthorIDs != nil {
			if len(*payload.AuthorIDs) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "at least one author is required"})
				return
			}
			authors := toUserRefs(*payload.AuthorIDs)
			if err := db.Model(&article).Association("Authors").Replace(authors); err != nil {
				log.Error("Failed to update article authors", zap.Uint("id", article.ID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update article"})
				return
			}
		}

		if len(updates) > 0 {
			if err := db.Model(&article).Updates(updates).Error; err != nil {
				log.Error("Failed to update article", zap.Uint("id", article.ID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update article"})
				return
			}
		}
		if firstPublish {
			articlesPublishedCounter.Inc()
		}

		// Gespeicherten Stand zurückgeben, inklusive ersetzter Autorenliste.
		if err := db.Preload("Authors").First(&article, article.ID).Error; err != nil {
			log.Error("Failed to reload article", zap.Uint("id", article.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		access.RedactArticle(actorFrom(c), &article)
		c.JSON(http.StatusOK, article)
	})

	// Zugewiesene Gutachter: eigene Feld-Regel, nur Admins.
	rg.PUT("/:id/assigned-reviewers", func(c *gin.Context) {
		actor := actorFrom(c)
		if !access.DecideField(actor, access.OpUpdate, access.KindArticle, access.FieldAssignedReviewers, access.Env{}) {
			status := http.StatusForbidden
			if actor == nil {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"error": "forbidden"})
			return
		}
		var article models.Article
		if err := db.First(&article, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var req struct {
			ReviewerIDs []uint `json:"reviewer_ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := db.Model(&article).Association("AssignedReviewers").Replace(toUserRefs(req.ReviewerIDs)); err != nil {
			log.Error("Failed to assign reviewers", zap.Uint("id", article.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign reviewers"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "reviewers assigned"})
	})

	// Reviews: Feld-Regel, nur Admins. Das Anlegen eines Reviews ändert den
	// Artikelstatus nicht.
	rg.POST("/:id/reviews", func(c *gin.Context) {
		actor := actorFrom(c)
		if !access.DecideField(actor, access.OpUpdate, access.KindArticle, access.FieldReviews, access.Env{}) {
			status := http.StatusForbidden
			if actor == nil {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"error": "forbidden"})
			return
		}
		var article models.Article
		if err := db.First(&article, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var req struct {
			ReviewerID        *uint  `json:"reviewer_id"`
			Decision          string `json:"decision" binding:"required"`
			Comments          string `json:"comments"`
			ConfidentialNotes string `json:"confidential_notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		switch req.Decision {
		case models.DecisionApprove, models.DecisionRequestChanges, models.DecisionReject:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid decision"})
			return
		}

		now := time.Now().UTC()
		review := models.Review{
			ArticleID:         article.ID,
			ReviewerID:        req.ReviewerID,
			ReviewDate:        &now,
			Decision:          req.Decision,
			Comments:          req.Comments,
			ConfidentialNotes: req.ConfidentialNotes,
		}
		if err := db.Create(&review).Error; err != nil {
			log.Error("Failed to create review", zap.Uint("article_id", article.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create review"})
			return
		}
		c.JSON(http.StatusCreated, review)
	})

	// Änderungsanforderungen. Das Anlegen löst keinen Statuswechsel aus.
	rg.POST("/:id/change-requests", func(c *gin.Context) {
		if !authorize(c, access.OpUpdate, access.KindArticle, nil, access.Env{}) {
			return
		}
		var article models.Article
		if err := db.First(&article, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var req struct {
			Changes string `json:"changes" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		now := time.Now().UTC()
		cr := models.ChangeRequest{
			ArticleID:   article.ID,
			RequestDate: &now,
			Changes:     req.Changes,
		}
		if actor := actorFrom(c); actor != nil {
			cr.RequestedByID = &actor.ID
		}
		if err := db.Create(&cr).Error; err != nil {
			log.Error("Failed to create change request", zap.Uint("article_id", article.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create change request"})
			return
		}
		c.JSON(http.StatusCreated, cr)
	})

	rg.POST("/:id/change-requests/:crID/resolve", func(c *gin.Context) {
		if !authorize(c, access.OpUpdate, access.KindArticle, nil, access.Env{}) {
			return
		}
		var cr models.ChangeRequest
		if err := db.Where("id = ? AND article_id = ?", c.Param("crID"), c.Param("id")).
			First(&cr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "change request not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"resolved": true}
		if cr.ResolvedDate == nil {
			updates["resolved_date"] = &now
		}
		if err := db.Model(&cr).Updates(updates).Error; err != nil {
			log.Error("Failed to resolve change request", zap.Uint("id", cr.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve change request"})
			return
		}
		c.JSON(http.StatusOK, cr)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		if !authorize(c, access.OpDelete, access.KindArticle, nil, access.Env{}) {
			return
		}
		res := db.Delete(&models.Article{}, c.Param("id"))
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}

// setupReferenceRoutes bindet den externen DOI-Resolver an. Die Metadaten
// werden nur angezeigt, nie automatisch in den Artikel übernommen; der
// Abgleich bleibt eine redaktionelle Entscheidung.
func setupReferenceRoutes(router *gin.Engine, db *gorm.DB, resolver providers.Resolver, log *zap.Logger) {
	router.GET("/articles/:slug/doi-metadata", func(c *gin.Context) {
		if !authorize(c, access.OpRead, access.KindArticle, nil, access.Env{}) {
			return
		}
		var article models.Article
		if err := db.Where("slug = ?", c.Param("slug")).First(&article).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if article.DOI == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "article has no DOI"})
			return
		}

		ref, err := resolver.Resolve(c.Request.Context(), article.DOI)
		if err != nil {
			if errors.Is(err, providers.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "DOI not found in registry"})
				return
			}
			log.Error("DOI lookup failed",
				zap.String("resolver", resolver.Name()),
				zap.String("doi", article.DOI),
				zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "DOI lookup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"resolver": resolver.Name(), "reference": ref})
	})
}

func setupMediaRoutes(router *gin.Engine, db *gorm.DB, s3Client *s3.Client, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/media")

	rg.POST("/", func(c *gin.Context) {
		if !authorize(c, access.OpCreate, access.KindMedia, nil, access.Env{}) {
			return
		}
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "'file' form field is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
			return
		}

		key := "uploads/" + uuid.NewString() + "-" + fileHeader.Filename
		contentType := fileHeader.Header.Get("Content-Type")
		link, err := storage.UploadFile(c.Request.Context(), s3Client, cfg.MediaS3Bucket, key, contentType, data, cfg)
		if err != nil {
			log.Error("S3 upload failed", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}

		media := models.Media{
			Filename: fileHeader.Filename,
			MimeType: contentType,
			Size:     int64(len(data)),
			S3Key:    key,
			URL:      link,
			Alt:      c.PostForm("alt"),
		}
		if err := db.Create(&media).Error; err != nil {
			log.Error("Failed to create media record", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save media"})
			return
		}
		c.JSON(http.StatusCreated, media)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var media models.Media
		if err := db.First(&media, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, media)
	})
}

// keywordsJSON serialisiert eine Stichwortliste als JSON-Spalte.
func keywordsJSON(keywords []string) datatypes.JSON {
	b, _ := json.Marshal(keywords)
	return datatypes.JSON(b)
}
