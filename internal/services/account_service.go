package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// AccountStore is the slice of the user record store the service needs.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindActiveByID(ctx context.Context, id uint64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	RecordLogin(ctx context.Context, id uint64, at time.Time) error
	ListActive(ctx context.Context, offset, limit int) ([]models.User, int64, error)
}

var validate = validator.New()

type AccountService struct {
	store    AccountStore
	cache    *expirable.LRU[uint64, dto.AccountResponse]
	hashCost int
	now      func() time.Time
}

func NewAccountService(accounts AccountStore, cfg *config.Config) *AccountService {
	s := &AccountService{
		store:    accounts,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	if cfg.AccountCacheSize > 0 {
		s.cache = expirable.NewLRU[uint64, dto.AccountResponse](cfg.AccountCacheSize, nil, cfg.AccountCacheTTL)
	}
	return s
}

type credentials struct {
	email    string
	password string
	social   models.SocialSignupType
}

// normalize trims the input and applies the field rules shared by sign-up
// and sign-in. A password is required only when no social provider is named.
func normalize(req *dto.AccountRequest) (*credentials, error) {
	if req == nil || req.Email == nil || req.SocialSignupType == nil {
		return nil, malformed("email and social_signup_type are required")
	}

	social, err := models.ParseSocialSignupType(req.SocialSignupType)
	if err != nil {
		return nil, malformed("%v", err)
	}

	creds := &credentials{
		email:  strings.TrimSpace(*req.Email),
		social: social,
	}
	if req.Password != nil {
		creds.password = strings.TrimSpace(*req.Password)
	}

	if !social.IsSocial() && creds.password == "" {
		return nil, &MissingFieldError{Field: "password"}
	}
	if len(creds.password) > maxPasswordBytes {
		return nil, malformed("password must be at most %d bytes", maxPasswordBytes)
	}
	if creds.email == "" {
		return nil, &MissingFieldError{Field: "email"}
	}
	if err := validate.Var(creds.email, "email,max=255"); err != nil {
		return nil, malformed("email is not a valid address")
	}
	return creds, nil
}

// SignUp creates a consumer account. An existing row with the same email
// blocks the create whether or not it has been soft-deleted.
func (s *AccountService) SignUp(ctx context.Context, req *dto.AccountRequest) (resp *dto.AccountResponse, err error) {
	defer func() { metrics.AccountOutcomes.WithLabelValues("sign_up", Outcome(err)).Inc() }()

	creds, err := normalize(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByEmail(ctx, creds.email)
	switch {
	case err == nil:
		if existing.IsDeleted {
			return nil, ErrAccountDeleted
		}
		return nil, ErrAccountExists
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeFailure(err)
	}

	user := models.User{
		Email:            creds.email,
		AccountType:      models.AccountTypeConsumer,
		SocialSignupType: &creds.social,
	}
	if creds.password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(creds.password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashed := string(hash)
		user.PasswordHash = &hashed
	}

	if err := s.store.Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, storeFailure(err)
	}

	slog.InfoContext(ctx, "account created",
		"account_id", user.ID,
		"social_signup_type", creds.social.Label(),
	)
	projection := toAccountResponse(&user)
	return &projection, nil
}

// SignIn authenticates an existing account and records the login.
func (s *AccountService) SignIn(ctx context.Context, req *dto.AccountRequest) (resp *dto.AccountResponse, err error) {
	defer func() { metrics.AccountOutcomes.WithLabelValues("sign_in", Outcome(err)).Inc() }()

	creds, err := normalize(req)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByEmail(ctx, creds.email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, storeFailure(err)
	}

	if user.IsDeleted {
		return nil, ErrAccountDeleted
	}

	if err := verifyCredentials(user, creds); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, storeFailure(err)
	}
	user.LoginCount++
	user.LastLoginAt = &now

	projection := toAccountResponse(user)
	return &projection, nil
}

// verifyCredentials checks the supplied password against the stored hash.
// Accounts without a hash were created through a provider and only accept
// a password-less sign-in naming that same provider.
func verifyCredentials(user *models.User, creds *credentials) error {
	if user.PasswordHash == nil {
		if creds.password != "" || creds.social != user.Social() {
			return ErrPasswordMismatch
		}
		return nil
	}
	if creds.password == "" {
		return ErrPasswordMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(creds.password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// Retrieve returns the projection of a non-deleted account.
func (s *AccountService) Retrieve(ctx context.Context, id uint64) (*dto.AccountResponse, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(id); ok {
			return &cached, nil
		}
	}

	user, err := s.store.FindActiveByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, storeFailure(err)
	}

	projection := toAccountResponse(user)
	if s.cache != nil {
		s.cache.Add(id, projection)
	}
	return &projection, nil
}

// List pages through non-deleted accounts ordered by id.
func (s *AccountService) List(ctx context.Context, page, pageSize int) (*dto.AccountPage, error) {
	page, pageSize = NormalizePage(page, pageSize)

	users, total, err := s.store.ListActive(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, storeFailure(err)
	}

	results := make([]dto.AccountResponse, 0, len(users))
	for i := range users {
		results = append(results, toAccountResponse(&users[i]))
	}
	return &dto.AccountPage{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  results,
	}, nil
}

// NormalizePage clamps paging input to sane bounds. The page is capped so
// the row offset stays within a 32-bit column.
func NormalizePage(page, pageSize int) (int, int) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt32 / pageSize; page > maxPage {
		page = maxPage
	}
	return page, pageSize
}

func toAccountResponse(user *models.User) dto.AccountResponse {
	return dto.AccountResponse{
		ID:                   user.ID,
		Email:                user.Email,
		IsDeleted:            user.IsDeleted,
		AccountTypeName:      user.AccountType.Label(),
		SocialSignupTypeName: user.Social().Label(),
	}
}
