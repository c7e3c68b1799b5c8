// Package authoring validates, normalizes, and persists new links.
// Grounded on the teacher's URLService.ShortenURL
// (services/url-shortener-svc/domain/service.go), replacing its ad hoc
// validation with real URL normalization and delegating code minting to
// the allocator instead of inlining it.
package authoring

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/linkstore"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

var (
	customAliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	errEmptyURL        = errors.New("authoring: originalUrl is empty")
	errNotAbsoluteHTTP = errors.New("authoring: originalUrl must be an absolute http(s) URL")
)

// Allocator is the subset of the short-code allocator (4.H) the authoring
// service needs.
type Allocator interface {
	Allocate(ctx context.Context, link *model.Link) (string, error)
}

// CustomAliasStore is the subset of the link store (4.C) needed to reserve
// a caller-supplied alias.
type CustomAliasStore interface {
	Insert(ctx context.Context, link *model.Link) error
}

// Service creates new links.
type Service struct {
	allocator      Allocator
	store          CustomAliasStore
	defaultTTLDays int
}

// New builds an authoring Service. defaultTTLDays of 0 means links never
// expire unless the caller sets one explicitly.
func New(allocator Allocator, store CustomAliasStore, defaultTTLDays int) *Service {
	return &Service{allocator: allocator, store: store, defaultTTLDays: defaultTTLDays}
}

// CreateInput is the caller-supplied payload for Create.
type CreateInput struct {
	OriginalURL string
	CustomAlias string
	Title       string
	Description string
}

// Create validates and normalizes the input URL, reserves a short code
// (custom alias or allocator-minted), composes a Link, and persists it.
func (s *Service) Create(ctx context.Context, input CreateInput, ownerID int64) (*model.Link, error) {
	normalized, meta, err := Normalize(input.OriginalURL)
	if err != nil {
		return nil, apperr.New(apperr.InvalidFormat).Wrap(err).WithContext("originalUrl", input.OriginalURL)
	}

	now := time.Now().UTC()
	link := &model.Link{
		OriginalURL: normalized,
		OwnerID:     ownerID,
		ClickCount:  0,
		IsActive:    true,
		Title:       input.Title,
		Description: input.Description,
		Metadata:    meta,
	}
	if s.defaultTTLDays > 0 {
		expires := now.Add(time.Duration(s.defaultTTLDays) * 24 * time.Hour)
		link.ExpiresAt = &expires
	}

	if input.CustomAlias != "" {
		if !customAliasPattern.MatchString(input.CustomAlias) {
			return nil, apperr.New(apperr.InvalidFormat).WithContext("customAlias", input.CustomAlias)
		}
		link.CustomAlias = input.CustomAlias
		link.ShortCode = input.CustomAlias
		if err := s.store.Insert(ctx, link); err != nil {
			if errors.Is(err, linkstore.ErrDuplicateCode) {
				return nil, apperr.New(apperr.CustomAliasTaken).WithContext("customAlias", input.CustomAlias)
			}
			return nil, apperr.Wrap(apperr.DatabaseError, err)
		}
		obs.LinksCreatedTotal.WithLabelValues("true").Inc()
		return link, nil
	}

	if _, err := s.allocator.Allocate(ctx, link); err != nil {
		return nil, err
	}
	obs.LinksCreatedTotal.WithLabelValues("false").Inc()
	return link, nil
}

// Normalize parses rawURL, lower-cases its host, and strips trailing "/"
// characters unless the path is root, preserving query and fragment verbatim.
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(rawURL string) (string, model.LinkMetadata, error) {
	if rawURL == "" {
		return "", model.LinkMetadata{}, errEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", model.LinkMetadata{}, err
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", model.LinkMetadata{}, errNotAbsoluteHTTP
	}

	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}

	meta := model.LinkMetadata{
		Domain:   u.Host,
		Protocol: u.Scheme,
		Path:     u.Path,
	}

	return u.String(), meta, nil
}
