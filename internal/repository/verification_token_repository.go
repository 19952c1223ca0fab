package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/domain"
)

var ErrVerificationTokenNotFound = errors.New("verification token not found")

type VerificationTokenRepository interface {
	// Replace deletes every token for (email, purpose) and inserts the new
	// one in a single transaction, so two concurrent issuers can never leave
	// two live tokens behind.
	Replace(token *domain.VerificationToken) error
	FindByHash(hash, purpose string) (*domain.VerificationToken, error)
	// Consume deletes the token by id. The rows-affected guard makes
	// redemption single-use: the second of two racing redeemers gets
	// ErrVerificationTokenNotFound.
	Consume(tokenID uint) error
	DeleteExpired(now time.Time) (int64, error)
}

type GormVerificationTokenRepository struct{ db *gorm.DB }

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &GormVerificationTokenRepository{db: db}
}

func (r *GormVerificationTokenRepository) Replace(token *domain.VerificationToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND purpose = ?", token.Email, token.Purpose).
			Delete(&domain.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *GormVerificationTokenRepository) FindByHash(hash, purpose string) (*domain.VerificationToken, error) {
	var token domain.VerificationToken
	err := r.db.Where("token_hash = ? AND purpose = ?", hash, purpose).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *GormVerificationTokenRepository) Consume(tokenID uint) error {
	res := r.db.Delete(&domain.VerificationToken{}, tokenID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVerificationTokenNotFound
	}
	return nil
}

func (r *GormVerificationTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.VerificationToken{})
	return res.RowsAffected, res.Error
}
