package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/domain"
)

type SessionRepository interface {
	Create(s *domain.Session) error
	FindValidByHash(hash string) (*domain.Session, error)
	RevokeByHash(hash string) error
	RevokeByAccountID(accountID uint) error
	CleanupExpired() (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error { return r.db.Create(s).Error }

func (r *GormSessionRepository) FindValidByHash(hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", hash, time.Now()).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) RevokeByHash(hash string) error {
	now := time.Now()
	return r.db.Model(&domain.Session{}).Where("token_hash = ? AND revoked_at IS NULL", hash).Update("revoked_at", now).Error
}

func (r *GormSessionRepository) RevokeByAccountID(accountID uint) error {
	now := time.Now()
	return r.db.Model(&domain.Session{}).Where("account_id = ? AND revoked_at IS NULL", accountID).Update("revoked_at", now).Error
}

func (r *GormSessionRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now()).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
