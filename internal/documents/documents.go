// Package documents manages the tracked document collection and checks documents for
// external modification.
package documents

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/sheets"
	"github.com/wolfeidau/sheetclock/internal/store"
)

var (
	ErrInvalidDocument = apperr.Validation("Invalid Google Sheet URL or ID", "sheetUrl")
	ErrNoAccess        = apperr.New(apperr.ErrAccess, "Unable to access this Google Sheet")

	urlPattern = regexp.MustCompile(`spreadsheets/d/([a-zA-Z0-9-_]+)`)
	idPattern  = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
)

// ExtractID returns the document identifier from a spreadsheet URL or a raw identifier.
func ExtractID(input string) (string, error) {
	input = strings.TrimSpace(input)

	if strings.Contains(input, "spreadsheets/d/") {
		m := urlPattern.FindStringSubmatch(input)
		if m == nil {
			return "", ErrInvalidDocument
		}
		return m[1], nil
	}

	if !idPattern.MatchString(input) {
		return "", ErrInvalidDocument
	}

	return input, nil
}

// Status is the result of a modification check.
type Status struct {
	HasChanges   bool      `json:"hasChanges"`
	LastModified time.Time `json:"lastModified"`
}

// EmployeeLookup finds the employee who added a document.
type EmployeeLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)
}

// Service is the document tracking service.
type Service struct {
	docs      store.DocumentStore
	metadata  sheets.MetadataSource
	employees EmployeeLookup
	now       func() time.Time
}

type Option func(*Service)

// WithAdderToken lets callers without an access token check a document with the token of
// the employee who added it.
func WithAdderToken(employees EmployeeLookup) Option {
	return func(s *Service) { s.employees = employees }
}

func NewService(docs store.DocumentStore, metadata sheets.MetadataSource, opts ...Option) *Service {
	s := &Service{docs: docs, metadata: metadata, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add verifies the document with the metadata source using the caller's token and starts tracking it.
func (s *Service) Add(ctx context.Context, caller *models.Employee, input string) (*models.TrackedDocument, error) {
	id, err := ExtractID(input)
	if err != nil {
		return nil, err
	}

	md, err := s.metadata.Fetch(ctx, caller.AccessToken, id)
	if err != nil {
		log.Warn().Err(err).Str("document_id", id).Str("user", caller.Email).Msg("document verification failed")
		return nil, apperr.Wrap(apperr.ErrAccess, ErrNoAccess.Message, err)
	}

	doc := &models.TrackedDocument{
		ID:           id,
		Title:        md.Title,
		AddedAt:      s.now().UTC(),
		LastModified: md.LastModified.UTC(),
		AddedBy:      caller.Email,
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	log.Info().Str("document_id", id).Str("title", doc.Title).Str("user", caller.Email).Msg("document tracked")

	return doc, nil
}

func (s *Service) List(ctx context.Context) ([]*models.TrackedDocument, error) {
	return s.docs.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.TrackedDocument, error) {
	return s.docs.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Str("document_id", id).Msg("document removed from tracking")
	return nil
}

// CheckStatus re-reads the external modification time. HasChanges is true only when the
// external time is strictly after the stored one, and only then is the stored time refreshed.
func (s *Service) CheckStatus(ctx context.Context, caller *models.Employee, id string) (*Status, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	md, err := s.metadata.Fetch(ctx, s.checkToken(ctx, caller, doc), id)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrAccess, ErrNoAccess.Message, err)
	}

	external := md.LastModified.UTC()

	refreshed, err := s.docs.RefreshLastModified(ctx, id, external)
	if errors.Is(err, store.ErrDocumentNotFound) {
		// removed between the read and the refresh
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh document: %w", err)
	}

	if refreshed {
		log.Debug().
			Str("document_id", id).
			Time("previous", doc.LastModified).
			Time("current", external).
			Msg("document modified")
	}

	return &Status{HasChanges: refreshed, LastModified: external}, nil
}

// checkToken returns the caller's access token, or the adding employee's token when the
// caller logged in locally.
func (s *Service) checkToken(ctx context.Context, caller *models.Employee, doc *models.TrackedDocument) string {
	if caller.AccessToken != "" || s.employees == nil || doc.AddedBy == "" {
		return caller.AccessToken
	}

	adder, err := s.employees.GetByEmail(ctx, doc.AddedBy)
	if err != nil {
		log.Debug().Err(err).Str("document_id", doc.ID).Str("added_by", doc.AddedBy).Msg("no adder token for document")
		return ""
	}
	return adder.AccessToken
}
