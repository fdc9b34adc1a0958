package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// Bootstrap: erlaubt das Anlegen des allerersten Admin-Accounts ohne
	// Authentifizierung, solange noch kein Admin existiert. Muss in Produktion
	// deaktiviert bleiben.
	AllowInitialAdminCreation bool `envconfig:"ALLOW_INITIAL_ADMIN_CREATION" default:"false"`

	// Zeitplan für die periodische Aktualisierung der Status-Metriken.
	MetricsCronSchedule string `envconfig:"METRICS_CRON_SCHEDULE" default:"*/5 * * * *"`

	MediaS3Key    string `envconfig:"MEDIA_S3_KEY" required:"true"`
	MediaS3Secret string `envconfig:"MEDIA_S3_SECRET" required:"true"`
	MediaS3URL    string `envconfig:"MEDIA_S3_URL" required:"true"`
	MediaS3Region string `envconfig:"MEDIA_S3_REGION" required:"true"`
	MediaS3Bucket string `envconfig:"MEDIA_S3_BUCKET" required:"true"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
