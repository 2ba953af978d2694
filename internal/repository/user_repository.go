package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"usersvc/internal/model"
)

// UserFields are the mutable columns written by Update.
type UserFields struct {
	Name      string
	Password  string
	Cellphone string
}

// UserRepository defines persistence operations over user records.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// FindActiveByID matches id AND status = true.
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// FindByEmail and FindByCellphone ignore status.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByCellphone(ctx context.Context, cellphone string) (*model.User, error)
	ListActive(ctx context.Context) ([]model.User, error)
	Find(ctx context.Context, filter *Filter) ([]model.User, error)
	// Update and SetStatus target the row by id regardless of its status.
	Update(ctx context.Context, id uuid.UUID, fields UserFields) error
	SetStatus(ctx context.Context, id uuid.UUID, active bool) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *userRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ? AND status = ?", id, true).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByCellphone(ctx context.Context, cellphone string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("cellphone = ?", cellphone).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := r.db.WithContext(ctx).Where("status = ?", true).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Find(ctx context.Context, filter *Filter) ([]model.User, error) {
	q := r.db.WithContext(ctx)
	for _, p := range filter.Predicates() {
		expr, arg := p.Clause()
		q = q.Where(expr, arg)
	}
	users := []model.User{}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, fields UserFields) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":      fields.Name,
			"password":  fields.Password,
			"cellphone": fields.Cellphone,
		}).Error
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, translate(err))
	}
	return nil
}

func (r *userRepository) SetStatus(ctx context.Context, id uuid.UUID, active bool) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("status", active).Error
	if err != nil {
		return fmt.Errorf("set status of user %s: %w", id, err)
	}
	return nil
}
