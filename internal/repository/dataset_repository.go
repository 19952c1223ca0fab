package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/domain"
)

var ErrDatasetNotFound = errors.New("dataset not found")

type DatasetFilter struct {
	Category string
	Region   string
}

type DatasetRepository interface {
	Create(d *domain.Dataset) error
	FindByPublicID(publicID string) (*domain.Dataset, error)
	List(filter DatasetFilter, page PageRequest) (PageResult[domain.Dataset], error)
	Count() (int64, error)
	RecordGrant(g *domain.DownloadGrant) error
}

type GormDatasetRepository struct{ db *gorm.DB }

func NewDatasetRepository(db *gorm.DB) DatasetRepository { return &GormDatasetRepository{db: db} }

func (r *GormDatasetRepository) Create(d *domain.Dataset) error { return r.db.Create(d).Error }

func (r *GormDatasetRepository) FindByPublicID(publicID string) (*domain.Dataset, error) {
	var d domain.Dataset
	if err := r.db.Where("public_id = ?", publicID).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *GormDatasetRepository) List(filter DatasetFilter, page PageRequest) (PageResult[domain.Dataset], error) {
	page = page.normalized()
	q := r.db.Model(&domain.Dataset{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Region != "" {
		q = q.Where("region = ?", filter.Region)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PageResult[domain.Dataset]{}, err
	}
	var datasets []domain.Dataset
	err := q.Order("updated_at DESC").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&datasets).Error
	if err != nil {
		return PageResult[domain.Dataset]{}, err
	}
	return newPageResult(datasets, page, total), nil
}

func (r *GormDatasetRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&domain.Dataset{}).Count(&total).Error
	return total, err
}

func (r *GormDatasetRepository) RecordGrant(g *domain.DownloadGrant) error {
	return r.db.Create(g).Error
}
