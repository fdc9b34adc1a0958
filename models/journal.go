package models

import "time"

// Journal repräsentiert eine Publikationsreihe. Artikel referenzieren das
// Journal, nicht umgekehrt.
type Journal struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `json:"name" gorm:"not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`

	Description string `json:"description,omitempty" gorm:"type:text"`
	ISSN        string `json:"issn,omitempty" gorm:"column:issn"`

	Scope                string `json:"scope,omitempty" gorm:"type:text"`
	SubmissionGuidelines string `json:"submission_guidelines,omitempty" gorm:"type:text"`

	// monthly, quarterly, biannually, annually
	Frequency  string `json:"frequency,omitempty"`
	OpenAccess bool   `json:"open_access" gorm:"default:true"`

	// Herausgeber sind ausschließlich Admins (Filter bei der Dateneingabe).
	Editors []User `json:"editors,omitempty" gorm:"many2many:journal_editors;"`

	CoverImageID *uint  `json:"cover_image_id,omitempty"`
	CoverImage   *Media `json:"cover_image,omitempty" gorm:"foreignKey:CoverImageID"`
}

// TableName gibt explizit den Tabellennamen an.
func (Journal) TableName() string {
	return "journals"
}
