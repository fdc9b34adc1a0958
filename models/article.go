package models

import (
	"time"

	"gorm.io/datatypes"
)

// Redaktioneller Status eines Artikels. Übergänge sind nicht hart erzwungen;
// verbindlich sind nur die Zeitstempel beim ersten Eintritt in
// ready_for_review bzw. published (siehe services.ApplyStatus).
const (
	StatusDraft              = "draft"
	StatusReadyForReview     = "ready_for_review"
	StatusUnderReview        = "under_review"
	StatusChangesRequested   = "changes_requested"
	StatusApproved           = "approved"
	StatusReadyForPublishing = "ready_for_publishing"
	StatusPublished          = "published"
	StatusRejected           = "rejected"
)

// Gutachter-Entscheidungen.
const (
	DecisionApprove        = "approve"
	DecisionRequestChanges = "request_changes"
	DecisionReject         = "reject"
)

// Article ist die zentrale Entität: ein eingereichter bzw. publizierter
// Fachartikel mitsamt Review-Historie.
type Article struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title string `json:"title" gorm:"not null"`
	// Global eindeutig; wird aus dem Titel abgeleitet, wenn leer.
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`

	// Mindestens ein Autor ist Pflicht.
	Authors               []User `json:"authors,omitempty" gorm:"many2many:article_authors;"`
	CorrespondingAuthorID uint   `json:"corresponding_author_id"`
	CorrespondingAuthor   *User  `json:"corresponding_author,omitempty" gorm:"foreignKey:CorrespondingAuthorID"`

	LabID     *uint    `json:"lab_id,omitempty"`
	Lab       *Lab     `json:"lab,omitempty" gorm:"foreignKey:LabID"`
	JournalID *uint    `json:"journal_id,omitempty"`
	Journal   *Journal `json:"journal,omitempty" gorm:"foreignKey:JournalID"`

	Abstract string         `json:"abstract,omitempty" gorm:"type:text"`
	Content  string         `json:"content,omitempty" gorm:"type:text"`
	Keywords datatypes.JSON `json:"keywords,omitempty" gorm:"type:jsonb"`

	DOI        string `json:"doi,omitempty" gorm:"column:doi;index"`
	Volume     string `json:"volume,omitempty" gorm:"index"`
	Issue      string `json:"issue,omitempty"`
	PagesStart string `json:"pages_start,omitempty"`
	PagesEnd   string `json:"pages_end,omitempty"`
	Citations  string `json:"citations,omitempty" gorm:"type:text"`

	Status string `json:"status" gorm:"index;not null;default:'draft'"`

	// Monoton: einmal gesetzt, werden diese Stempel nie überschrieben.
	SubmittedDate *time.Time `json:"submitted_date,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty" gorm:"index"`

	// Nur für Admins sichtbar; wird für alle anderen Akteure vor der
	// Serialisierung entfernt (access.RedactArticle).
	Reviews           []Review `json:"reviews,omitempty" gorm:"foreignKey:ArticleID"`
	AssignedReviewers []User   `json:"assigned_reviewers,omitempty" gorm:"many2many:article_assigned_reviewers;"`

	ChangeRequests []ChangeRequest `json:"change_requests,omitempty" gorm:"foreignKey:ArticleID"`

	SupplementaryMaterials []SupplementaryMaterial `json:"supplementary_materials,omitempty" gorm:"foreignKey:ArticleID"`
	PDFVersionID           *uint                   `json:"pdf_version_id,omitempty"`
	PDFVersion             *Media                  `json:"pdf_version,omitempty" gorm:"foreignKey:PDFVersionID"`
}

// TableName gibt explizit den Tabellennamen an.
func (Article) TableName() string {
	return "articles"
}

// Review ist das Gutachten eines Reviewers zu einem Artikel. Das Anlegen eines
// Reviews ändert den Artikelstatus nicht.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ArticleID uint `json:"article_id" gorm:"index;not null"`

	ReviewerID *uint      `json:"reviewer_id,omitempty"`
	Reviewer   *User      `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
	ReviewDate *time.Time `json:"review_date,omitempty"`

	// approve, request_changes oder reject
	Decision string `json:"decision,omitempty"`

	Comments          string `json:"comments,omitempty" gorm:"type:text"`
	ConfidentialNotes string `json:"confidential_notes,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (Review) TableName() string {
	return "reviews"
}

// ChangeRequest ist eine Änderungsanforderung an die Autoren. Auflösung
// (resolved + resolved_date) erfolgt als separates Update.
type ChangeRequest struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ArticleID uint `json:"article_id" gorm:"index;not null"`

	RequestedByID *uint      `json:"requested_by_id,omitempty"`
	RequestedBy   *User      `json:"requested_by,omitempty" gorm:"foreignKey:RequestedByID"`
	RequestDate   *time.Time `json:"request_date,omitempty"`

	Changes string `json:"changes,omitempty" gorm:"type:text"`

	Resolved     bool       `json:"resolved" gorm:"default:false"`
	ResolvedDate *time.Time `json:"resolved_date,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (ChangeRequest) TableName() string {
	return "change_requests"
}

// SupplementaryMaterial ist eine Zusatzdatei zu einem Artikel.
type SupplementaryMaterial struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ArticleID uint `json:"article_id" gorm:"index;not null"`

	MediaID     *uint  `json:"media_id,omitempty"`
	Media       *Media `json:"media,omitempty" gorm:"foreignKey:MediaID"`
	Description string `json:"description,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (SupplementaryMaterial) TableName() string {
	return "supplementary_materials"
}
