package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already stored")
)

const pgUniqueViolation = "23505"

// UserStore is the gorm-backed user record store. It holds no state besides
// the handle, so one instance is shared by every request.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByEmail matches the email exactly, deleted rows included.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByID ignores soft-deleted rows.
func (s *UserStore) FindActiveByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts the row. The unique index on email is the final word on
// duplicates, whatever the caller checked before.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// RecordLogin bumps login_count in a single statement and stamps last_login_at.
func (s *UserStore) RecordLogin(ctx context.Context, id uint64, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"login_count":   gorm.Expr("login_count + ?", 1),
			"last_login_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns one page of non-deleted users ordered by id and the
// total number of non-deleted users.
func (s *UserStore) ListActive(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	active := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.User{}).Where("is_deleted = ?", false)
	}

	var total int64
	if err := active().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]models.User, 0, limit)
	if total == 0 {
		return users, 0, nil
	}
	if err := active().Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
