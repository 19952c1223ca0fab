package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/domain"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailTaken is the unique-constraint outcome of Create; the store's
	// constraint is the sole arbiter of "already exists".
	ErrEmailTaken = errors.New("email already registered")
)

type ProfileUpdate struct {
	Name         string
	Organization string
	Country      string
	Phone        string
}

type AccountRepository interface {
	Create(a *domain.Account) error
	FindByID(id uint) (*domain.Account, error)
	FindByEmail(email string) (*domain.Account, error)
	MarkEmailVerified(id uint, at time.Time) error
	UpdatePassword(id uint, hash string) error
	UpdateProfile(id uint, p ProfileUpdate) error
	SetRole(id uint, role string) error
	List(page PageRequest) (PageResult[domain.Account], error)
}

type GormAccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &GormAccountRepository{db: db} }

func (r *GormAccountRepository) Create(a *domain.Account) error {
	err := r.db.Create(a).Error
	if err != nil && isDuplicateKey(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *GormAccountRepository) FindByID(id uint) (*domain.Account, error) {
	var a domain.Account
	if err := r.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *GormAccountRepository) FindByEmail(email string) (*domain.Account, error) {
	var a domain.Account
	if err := r.db.Where("email = ?", email).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *GormAccountRepository) MarkEmailVerified(id uint, at time.Time) error {
	res := r.db.Model(&domain.Account{}).
		Where("id = ? AND email_verified IS NULL", id).
		Updates(map[string]any{"email_verified": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	// Already-verified accounts are left untouched; emailVerified is set
	// exactly once.
	return nil
}

func (r *GormAccountRepository) UpdatePassword(id uint, hash string) error {
	res := r.db.Model(&domain.Account{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *GormAccountRepository) UpdateProfile(id uint, p ProfileUpdate) error {
	res := r.db.Model(&domain.Account{}).Where("id = ?", id).Updates(map[string]any{
		"name":         p.Name,
		"organization": p.Organization,
		"country":      p.Country,
		"phone":        p.Phone,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *GormAccountRepository) SetRole(id uint, role string) error {
	res := r.db.Model(&domain.Account{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *GormAccountRepository) List(page PageRequest) (PageResult[domain.Account], error) {
	page = page.normalized()
	var total int64
	if err := r.db.Model(&domain.Account{}).Count(&total).Error; err != nil {
		return PageResult[domain.Account]{}, err
	}
	var accounts []domain.Account
	err := r.db.Order("id").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&accounts).Error
	if err != nil {
		return PageResult[domain.Account]{}, err
	}
	return newPageResult(accounts, page, total), nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The sqlite driver used in tests does not translate constraint
	// violations into gorm.ErrDuplicatedKey.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
