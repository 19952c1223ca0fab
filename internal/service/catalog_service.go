package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/repository"
)

// CatalogService serves the dataset catalog. Listing and detail are public;
// direct downloads are granted per account and recorded.
type CatalogService struct {
	datasets repository.DatasetRepository
}

func NewCatalogService(datasets repository.DatasetRepository) *CatalogService {
	return &CatalogService{datasets: datasets}
}

func (s *CatalogService) List(ctx context.Context, filter repository.DatasetFilter, page repository.PageRequest) (repository.PageResult[domain.Dataset], error) {
	return s.datasets.List(filter, page)
}

func (s *CatalogService) Get(ctx context.Context, publicID string) (*domain.Dataset, error) {
	dataset, err := s.datasets.FindByPublicID(publicID)
	if err != nil {
		if errors.Is(err, repository.ErrDatasetNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, err
	}
	return dataset, nil
}

type CreateDatasetInput struct {
	Title     string
	Summary   string
	Category  string
	Region    string
	Format    string
	SourceURL string
}

func (s *CatalogService) Create(ctx context.Context, in CreateDatasetInput) (*domain.Dataset, error) {
	verr := newValidationError()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		verr.add("title", "title is required")
	}
	if strings.TrimSpace(in.SourceURL) == "" {
		verr.add("source_url", "source_url is required")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	dataset := &domain.Dataset{
		PublicID:  uuid.NewString(),
		Title:     title,
		Summary:   strings.TrimSpace(in.Summary),
		Category:  strings.TrimSpace(in.Category),
		Region:    strings.TrimSpace(in.Region),
		Format:    strings.TrimSpace(in.Format),
		SourceURL: strings.TrimSpace(in.SourceURL),
	}
	if err := s.datasets.Create(dataset); err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	return dataset, nil
}

type DownloadGrant struct {
	GrantID   string
	Dataset   *domain.Dataset
	SourceURL string
}

// GrantDownload records a download grant and exposes the dataset's source
// location to the caller. The gatekeeper enforces who may reach this.
func (s *CatalogService) GrantDownload(ctx context.Context, accountID uint, publicID string) (*DownloadGrant, error) {
	dataset, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	grant := &domain.DownloadGrant{
		GrantID:   uuid.NewString(),
		DatasetID: dataset.ID,
		AccountID: accountID,
	}
	if err := s.datasets.RecordGrant(grant); err != nil {
		return nil, fmt.Errorf("record grant: %w", err)
	}
	return &DownloadGrant{GrantID: grant.GrantID, Dataset: dataset, SourceURL: dataset.SourceURL}, nil
}
