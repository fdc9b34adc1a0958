package models

import (
	"time"

	"gorm.io/datatypes"
)

// Lab repräsentiert eine Forschungsgruppe an einer Institution.
type Lab struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `json:"name" gorm:"not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`

	Institution string `json:"institution" gorm:"not null"`
	Department  string `json:"department,omitempty"`

	Description   string         `json:"description,omitempty" gorm:"type:text"`
	ResearchAreas datatypes.JSON `json:"research_areas,omitempty" gorm:"type:jsonb"`

	// Mitglieder. Die Rollenzuordnung (pi vs. student) wird bei der Dateneingabe
	// gefiltert, aber beim Lesen nicht erneut validiert.
	PrincipalInvestigators []User `json:"principal_investigators,omitempty" gorm:"many2many:lab_principal_investigators;"`
	Students               []User `json:"students,omitempty" gorm:"many2many:lab_students;"`

	// Standort
	Building string `json:"building,omitempty"`
	Room     string `json:"room,omitempty"`
	Address  string `json:"address,omitempty"`

	ContactEmail string     `json:"contact_email,omitempty"`
	Website      string     `json:"website,omitempty"`
	Established  *time.Time `json:"established,omitempty"`

	LabImageID *uint  `json:"lab_image_id,omitempty"`
	LabImage   *Media `json:"lab_image,omitempty" gorm:"foreignKey:LabImageID"`
}

// TableName gibt explizit den Tabellennamen an.
func (Lab) TableName() string {
	return "labs"
}
