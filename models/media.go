package models

import "time"

// Media repräsentiert eine hochgeladene Datei (Bilder, PDFs). Die Datei selbst
// liegt in S3, hier stehen nur die Metadaten und der öffentliche Link.
type Media struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Filename string `json:"filename" gorm:"not null"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size"`

	S3Key string `json:"s3_key,omitempty" gorm:"uniqueIndex"`
	URL   string `json:"url,omitempty"`

	Alt string `json:"alt,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Media) TableName() string {
	return "media"
}
