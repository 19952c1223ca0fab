package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/domain"
)

var (
	ErrDataRequestNotFound = errors.New("data request not found")
	ErrDataRequestSettled  = errors.New("data request already settled")
)

type DataRequestRepository interface {
	Create(req *domain.DataRequest) error
	FindByID(id uint) (*domain.DataRequest, error)
	ListByStatus(status string, page PageRequest) (PageResult[domain.DataRequest], error)
	ListByAccount(accountID uint, page PageRequest) (PageResult[domain.DataRequest], error)
	RecordDecision(req *domain.DataRequest) error
}

type GormDataRequestRepository struct{ db *gorm.DB }

func NewDataRequestRepository(db *gorm.DB) DataRequestRepository {
	return &GormDataRequestRepository{db: db}
}

func (r *GormDataRequestRepository) Create(req *domain.DataRequest) error {
	return r.db.Create(req).Error
}

func (r *GormDataRequestRepository) FindByID(id uint) (*domain.DataRequest, error) {
	var req domain.DataRequest
	if err := r.db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDataRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *GormDataRequestRepository) ListByStatus(status string, page PageRequest) (PageResult[domain.DataRequest], error) {
	q := r.db.Model(&domain.DataRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.list(q, page)
}

func (r *GormDataRequestRepository) ListByAccount(accountID uint, page PageRequest) (PageResult[domain.DataRequest], error) {
	return r.list(r.db.Model(&domain.DataRequest{}).Where("account_id = ?", accountID), page)
}

// RecordDecision persists a decision only while the row is still pending, so
// the loser of a concurrent decision race gets ErrDataRequestSettled instead
// of overwriting the first verdict.
func (r *GormDataRequestRepository) RecordDecision(req *domain.DataRequest) error {
	tx := r.db.Model(&domain.DataRequest{}).
		Where("id = ? AND status = ?", req.ID, domain.RequestStatusPending).
		Updates(map[string]any{
			"status":       req.Status,
			"decided_by":   req.DecidedBy,
			"decided_at":   req.DecidedAt,
			"decision_msg": req.DecisionMsg,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDataRequestSettled
	}
	return nil
}

func (r *GormDataRequestRepository) list(q *gorm.DB, page PageRequest) (PageResult[domain.DataRequest], error) {
	page = page.normalized()
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PageResult[domain.DataRequest]{}, err
	}
	var reqs []domain.DataRequest
	err := q.Order("created_at DESC").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&reqs).Error
	if err != nil {
		return PageResult[domain.DataRequest]{}, err
	}
	return newPageResult(reqs, page, total), nil
}
