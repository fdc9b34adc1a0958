package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vox-backend/providers"

	"go.uber.org/zap"
)

const baseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Resolver implementiert das providers.Resolver-Interface für Europe PMC.
type Resolver struct {
	Logger *zap.Logger
}

// NewResolver erstellt einen neuen Europe PMC Resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{Logger: logger}
}

// Name gibt den Namen des Resolvers zurück.
func (r *Resolver) Name() string {
	return "europepmc"
}

// Resolve schlägt einen DOI auf Europe PMC nach.
func (r *Resolver) Resolve(ctx context.Context, doi string) (*providers.Reference, error) {
	log := r.Logger.With(zap.String("doi", doi))
	log.Info("Schlage DOI auf Europe PMC nach.")

	query := fmt.Sprintf("DOI:%q", doi)
	searchURL := fmt.Sprintf("%s?query=%s&format=json&resultType=core", baseURL, url.QueryEscape(query))
	log.Debug("Rufe Europe PMC API auf", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("europepmc: unexpected status %d", resp.StatusCode)
	}

	var searchResponse SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return nil, err
	}
	if len(searchResponse.ResultList.Result) == 0 {
		log.Info("DOI auf Europe PMC nicht gefunden.")
		return nil, providers.ErrNotFound
	}

	ref := mapArticleToReference(&searchResponse.ResultList.Result[0])
	log.Info("DOI aufgelöst", zap.String("title", ref.Title))
	return ref, nil
}

// mapArticleToReference konvertiert ein Europe PMC Article-Objekt in eine
// normalisierte Referenz.
func mapArticleToReference(article *Article) *providers.Reference {
	ref := &providers.Reference{
		DOI:        article.DOI,
		Title:      article.Title,
		AuthorLine: article.AuthorString,
		Journal:    article.JournalTitle,
		Abstract:   article.AbstractText,
		Published:  parseEuroDate(article.FirstPublicationDate),
		OpenAccess: article.IsOpenAccess == "Y",
	}
	if article.PMID != "" {
		ref.PublicURL = fmt.Sprintf("https://europepmc.org/article/MED/%s", article.PMID)
	}
	return ref
}
