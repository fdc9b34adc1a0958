package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rollen, die ein User tragen kann. Die Rolle steuert sämtliche
// Autorisierungsentscheidungen (siehe access-Paket).
const (
	RoleAdmin   = "admin"
	RolePI      = "pi"
	RoleStudent = "student"
)

// User repräsentiert eine Person: Forscher, PI oder Redaktions-Admin.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Rolle: admin, pi oder student. Nur ein Admin darf sie ändern.
	Type string `json:"type" gorm:"index;not null;default:'student'"`

	FirstName string `json:"first_name" gorm:"not null"`
	LastName  string `json:"last_name" gorm:"not null"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`

	// Auth-Daten werden nie serialisiert.
	PasswordHash string `json:"-" gorm:"not null;default:''"`
	APIToken     string `json:"-" gorm:"uniqueIndex"`

	Title             string         `json:"title,omitempty"`
	Bio               string         `json:"bio,omitempty" gorm:"type:text"`
	ResearchInterests datatypes.JSON `json:"research_interests,omitempty" gorm:"type:jsonb"`
	Website           string         `json:"website,omitempty"`
	ORCID             string         `json:"orcid,omitempty" gorm:"column:orcid"`
	GoogleScholar     string         `json:"google_scholar,omitempty"`

	ProfileImageID *uint  `json:"profile_image_id,omitempty"`
	ProfileImage   *Media `json:"profile_image,omitempty" gorm:"foreignKey:ProfileImageID"`

	// Labs, denen die Person angehört. Wird beim Seeding in einem zweiten
	// Durchlauf gesetzt, weil Labs erst nach den Usern existieren.
	Affiliation []Lab `json:"affiliation,omitempty" gorm:"many2many:user_affiliations;"`
}

// TableName gibt explizit den Tabellennamen an.
func (User) TableName() string {
	return "users"
}

// FullName liefert den Anzeigenamen ("Vorname Nachname").
func (u User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return ""
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin meldet, ob die Person Redaktionsrechte hat.
func (u *User) IsAdmin() bool {
	return u != nil && u.Type == RoleAdmin
}
