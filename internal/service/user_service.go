package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"

	"usersvc/internal/auth"
	"usersvc/internal/cache"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/repository"
)

// DefaultCacheTTL is how long an active record stays in the cache.
const DefaultCacheTTL = 5 * time.Minute

var errCellphoneTaken = errors.New("cellphone already registered")

// loginTimeParser parses login_before/login_after values in UTC. Only full
// dates, optionally followed by a clock time, and RFC 3339 timestamps are
// accepted; bare clock times or month-day values are rejected.
var loginTimeParser = &now.Config{
	TimeLocation: time.UTC,
	TimeFormats: []string{
		"2006-1-2",
		"2006-1-2 15:4",
		"2006-1-2 15:4:5",
		time.RFC3339,
		time.RFC3339Nano,
	},
}

// CreateUserInput carries the fields of a new account.
type CreateUserInput struct {
	Name           string `json:"name" validate:"max=255"`
	Email          string `json:"email" validate:"max=255"`
	Password       string `json:"password" validate:"max=72"`
	PasswordSecond string `json:"password_second" validate:"max=72"`
	Cellphone      string `json:"cellphone" validate:"max=32"`
}

// UpdateUserInput carries a partial update. Nil fields keep their current value.
type UpdateUserInput struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	Password  *string `json:"password" validate:"omitempty,max=72"`
	Cellphone *string `json:"cellphone" validate:"omitempty,max=32"`
}

// FindUsersQuery carries the search parameters. A nil Status applies no status restriction.
type FindUsersQuery struct {
	Name        string
	Status      *string
	LoginBefore string
	LoginAfter  string
}

// BulkSummary reports the outcome of a bulk creation.
type BulkSummary struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// UserService exposes user record operations.
// The returned error is reserved for unexpected persistence failures; validation,
// conflict and not-found outcomes are reported through the Result code.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*apperrors.Result, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*apperrors.Result, error)
	GetAllUsers(ctx context.Context) (*apperrors.Result, error)
	FindUsers(ctx context.Context, q FindUsersQuery) (*apperrors.Result, error)
	BulkCreate(ctx context.Context, users []CreateUserInput) (*apperrors.Result, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*apperrors.Result, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (*apperrors.Result, error)
}

type userService struct {
	repo     repository.UserRepository
	hasher   auth.Hasher
	cache    *cache.Client
	cacheTTL time.Duration
	log      logrus.FieldLogger
}

// NewUserService builds a UserService. cache may be nil.
func NewUserService(repo repository.UserRepository, hasher auth.Hasher, cache *cache.Client, cacheTTL time.Duration, log logrus.FieldLogger) UserService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &userService{
		repo:     repo,
		hasher:   hasher,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// CreateUser registers a new active account.
func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*apperrors.Result, error) {
	if in.Password != in.PasswordSecond {
		return apperrors.ResultFromError(apperrors.ErrPasswordMismatch), nil
	}

	exists, err := s.emailTaken(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return apperrors.ResultFromError(apperrors.ErrUserAlreadyExists), nil
	}

	user, err := s.persist(ctx, in)
	if errors.Is(err, repository.ErrDuplicateEntry) {
		// lost the race against a concurrent create with the same email
		return apperrors.ResultFromError(apperrors.ErrUserAlreadyExists), nil
	}
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user created")
	return apperrors.OK("User created successfully with ID: " + user.ID.String()), nil
}

// GetUserByID returns the active record or a nil message when none matches.
func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*apperrors.Result, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return apperrors.OK(&cached), nil
		}
	}

	user, err := s.repo.FindActiveByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.OK(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, s.cacheTTL)
	}
	return apperrors.OK(user), nil
}

// GetAllUsers lists every active record.
func (s *userService) GetAllUsers(ctx context.Context) (*apperrors.Result, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return apperrors.OK(users), nil
}

// FindUsers runs a filtered search. Without a status parameter soft-deleted
// records are included.
func (s *userService) FindUsers(ctx context.Context, q FindUsersQuery) (*apperrors.Result, error) {
	filter, err := BuildFilter(q)
	if err != nil {
		s.log.WithError(err).Warn("invalid user search parameters")
		return apperrors.ResultFromError(apperrors.ErrInvalidFilter), nil
	}

	users, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return apperrors.OK(users), nil
}

// BuildFilter translates search parameters into a repository filter.
// login_before and login_after share the created_at column, so when both are
// given the later-applied login_after bound replaces login_before.
func BuildFilter(q FindUsersQuery) (*repository.Filter, error) {
	filter := repository.NewFilter()
	if q.Status != nil {
		filter.Equal(repository.ColumnStatus, *q.Status == "true")
	}
	if q.Name != "" {
		filter.Contains(repository.ColumnName, q.Name)
	}
	if q.LoginBefore != "" {
		t, err := loginTimeParser.Parse(q.LoginBefore)
		if err != nil {
			return nil, fmt.Errorf("parse login_before: %w", err)
		}
		filter.AtMost(repository.ColumnCreatedAt, t)
	}
	if q.LoginAfter != "" {
		t, err := loginTimeParser.Parse(q.LoginAfter)
		if err != nil {
			return nil, fmt.Errorf("parse login_after: %w", err)
		}
		filter.AtLeast(repository.ColumnCreatedAt, t)
	}
	return filter, nil
}

// BulkCreate creates each candidate independently and reports aggregate counts.
// A nil slice means the payload was not a list.
func (s *userService) BulkCreate(ctx context.Context, users []CreateUserInput) (*apperrors.Result, error) {
	if users == nil {
		return apperrors.ResultFromError(apperrors.ErrInvalidBulkInput), nil
	}

	log := s.log.WithField("batch_id", uuid.NewString())
	var summary BulkSummary
	for i, in := range users {
		if err := s.createOne(ctx, in); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"index": i,
				"email": in.Email,
			}).Warn("bulk item rejected")
			summary.Failed++
			continue
		}
		summary.Success++
	}

	log.WithFields(logrus.Fields{
		"success": summary.Success,
		"failed":  summary.Failed,
	}).Info("bulk create finished")
	return apperrors.OK(summary), nil
}

func (s *userService) createOne(ctx context.Context, in CreateUserInput) error {
	if in.Password != in.PasswordSecond {
		return apperrors.ErrPasswordMismatch
	}

	taken, err := s.emailTaken(ctx, in.Email)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.ErrUserAlreadyExists
	}

	_, err = s.repo.FindByCellphone(ctx, in.Cellphone)
	if err == nil {
		return errCellphoneTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check cellphone: %w", err)
	}

	_, err = s.persist(ctx, in)
	return err
}

// UpdateUser overwrites the given fields of an active record.
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*apperrors.Result, error) {
	existing, err := s.repo.FindActiveByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ResultFromError(apperrors.ErrUserNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", id, err)
	}

	fields := repository.UserFields{
		Name:      existing.Name,
		Password:  existing.Password,
		Cellphone: existing.Cellphone,
	}
	if in.Name != nil {
		fields.Name = *in.Name
	}
	if in.Cellphone != nil {
		fields.Cellphone = *in.Cellphone
	}
	if in.Password != nil && *in.Password != "" {
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		fields.Password = hashed
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	return apperrors.OK("User updated successfully"), nil
}

// DeleteUser soft-deletes an active record by clearing its status.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) (*apperrors.Result, error) {
	if _, err := s.repo.FindActiveByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ResultFromError(apperrors.ErrUserNotFound), nil
		}
		return nil, fmt.Errorf("lookup user %s: %w", id, err)
	}

	if err := s.repo.SetStatus(ctx, id, false); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	s.log.WithField("user_id", id).Info("user soft-deleted")
	return apperrors.OK("User deleted successfully"), nil
}

// emailTaken checks the email against every record, active or not.
func (s *userService) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("check user existence: %w", err)
}

func (s *userService) persist(ctx context.Context, in CreateUserInput) (*model.User, error) {
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hashed,
		Cellphone: in.Cellphone,
		Status:    true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
