package providers

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound wird gemeldet, wenn die Registratur den DOI nicht kennt.
var ErrNotFound = errors.New("doi not found")

// Reference sind die bei einer externen Registratur hinterlegten Metadaten zu
// einem DOI, normalisiert über alle Resolver hinweg.
type Reference struct {
	DOI        string     `json:"doi"`
	Title      string     `json:"title"`
	AuthorLine string     `json:"author_line"`
	Journal    string     `json:"journal,omitempty"`
	Published  *time.Time `json:"published,omitempty"`
	Abstract   string     `json:"abstract,omitempty"`
	PublicURL  string     `json:"public_url,omitempty"`
	OpenAccess bool       `json:"open_access"`
}

// Resolver ist das Interface, das jeder Metadaten-Resolver (z.B. Europe PMC)
// implementieren muss.
type Resolver interface {
	// Resolve schlägt einen DOI nach und gibt die registrierten Metadaten zurück.
	Resolve(ctx context.Context, doi string) (*Reference, error)

	// Name gibt den eindeutigen Namen des Resolvers zurück (z.B. "europepmc").
	Name() string
}
