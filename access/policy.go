// Package access bündelt sämtliche Autorisierungsentscheidungen in einer
// deklarativen Regeltabelle mit einer zentralen Auswertungsfunktion. Die
// Entscheidung ist eine reine Funktion über (Akteur, Operation, Ressource) und
// wird bei jedem Zugriff neu ausgewertet, nie gecacht.
package access

import "vox-backend/models"

// Operation ist die angefragte CRUD-Operation.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ResourceKind benennt die Zielressource einer Operation.
type ResourceKind string

const (
	KindUser    ResourceKind = "users"
	KindLab     ResourceKind = "labs"
	KindJournal ResourceKind = "journals"
	KindArticle ResourceKind = "articles"
	KindMedia   ResourceKind = "media"
)

// Feldnamen mit eigener Sichtbarkeitsregel auf Artikeln.
const (
	FieldReviews           = "reviews"
	FieldAssignedReviewers = "assignedReviewers"
)

// Env trägt die Umgebungs-Eingaben der Bootstrap-Regel, damit Decide frei von
// Seiteneffekten bleibt: der Aufrufer ermittelt beide Werte pro Anfrage neu.
type Env struct {
	// ALLOW_INITIAL_ADMIN_CREATION
	AllowInitialAdmin bool
	// true, sobald mindestens ein Admin-User existiert
	AdminExists bool
}

// rule entscheidet für einen konkreten Akteur und Ressourcen-Schnappschuss.
type rule func(actor *models.User, res any, env Env) bool

func anyone(*models.User, any, Env) bool { return true }

func authenticated(actor *models.User, _ any, _ Env) bool { return actor != nil }

func adminOnly(actor *models.User, _ any, _ Env) bool { return actor.IsAdmin() }

// adminOrSelf: Admins dürfen jeden User-Datensatz ändern, alle anderen nur
// ihren eigenen.
func adminOrSelf(actor *models.User, res any, _ Env) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor == nil {
		return false
	}
	target, ok := res.(*models.User)
	if !ok || target == nil {
		return false
	}
	return target.ID == actor.ID
}

// userCreate: regulär nur Admins. Die Bootstrap-Ausnahme (erster Admin bei
// leerem Admin-Bestand und explizit aktiviertem Schalter) läuft über den
// separaten Bootstrap-Endpunkt, wertet aber dieselbe Regel aus.
func userCreate(actor *models.User, _ any, env Env) bool {
	if env.AllowInitialAdmin && !env.AdminExists {
		return true
	}
	return actor.IsAdmin()
}

// collectionRules ist die Richtlinien-Matrix aus Rolle × Ressource × Operation.
var collectionRules = map[ResourceKind]map[Operation]rule{
	KindJournal: {
		OpCreate: adminOnly,
		OpRead:   anyone,
		OpUpdate: adminOnly,
		OpDelete: adminOnly,
	},
	KindLab: {
		OpCreate: adminOnly,
		OpRead:   anyone,
		OpUpdate: adminOnly,
		OpDelete: adminOnly,
	},
	KindArticle: {
		OpCreate: authenticated,
		OpRead:   authenticated,
		OpUpdate: authenticated,
		OpDelete: adminOnly,
	},
	KindUser: {
		OpCreate: userCreate,
		OpRead:   authenticated,
		OpUpdate: adminOrSelf,
		OpDelete: adminOnly,
	},
	KindMedia: {
		OpCreate: authenticated,
		OpRead:   anyone,
		OpUpdate: adminOnly,
		OpDelete: adminOnly,
	},
}

// fieldRules deckt Felder ab, die strenger geschützt sind als ihr Datensatz.
var fieldRules = map[ResourceKind]map[string]map[Operation]rule{
	KindArticle: {
		FieldReviews: {
			OpRead:   adminOnly,
			OpUpdate: adminOnly,
		},
		FieldAssignedReviewers: {
			OpRead:   adminOnly,
			OpUpdate: adminOnly,
		},
	},
}

// Decide wertet die Richtlinien-Matrix aus: allow (true) oder deny (false).
// res darf nil sein, wenn die Regel keinen Ressourcen-Schnappschuss braucht.
func Decide(actor *models.User, op Operation, kind ResourceKind, res any, env Env) bool {
	ops, ok := collectionRules[kind]
	if !ok {
		return false
	}
	r, ok := ops[op]
	if !ok {
		return false
	}
	return r(actor, res, env)
}

// DecideField wertet die Feld-Regeln aus. Felder ohne eigene Regel erben die
// Entscheidung des Datensatzes.
func DecideField(actor *models.User, op Operation, kind ResourceKind, field string, env Env) bool {
	fields, ok := fieldRules[kind]
	if !ok {
		return Decide(actor, op, kind, nil, env)
	}
	ops, ok := fields[field]
	if !ok {
		return Decide(actor, op, kind, nil, env)
	}
	r, ok := ops[op]
	if !ok {
		return false
	}
	return r(actor, nil, env)
}

// RedactArticle entfernt Felder, die der Akteur nicht lesen darf. Verweigerte
// Felder werden stillschweigend weggelassen statt einen Fehler auszulösen.
func RedactArticle(actor *models.User, a *models.Article) {
	if a == nil {
		return
	}
	if !DecideField(actor, OpRead, KindArticle, FieldReviews, Env{}) {
		a.Reviews = nil
	}
	if !DecideField(actor, OpRead, KindArticle, FieldAssignedReviewers, Env{}) {
		a.AssignedReviewers = nil
	}
}

// RedactArticles wendet RedactArticle auf eine Ergebnisliste an.
func RedactArticles(actor *models.User, articles []models.Article) {
	for i := range articles {
		RedactArticle(actor, &articles[i])
	}
}
