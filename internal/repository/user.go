package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (dao.User, error)
	FindAll(ctx context.Context) ([]dao.User, error)
	UpdateColumns(ctx context.Context, id uint, columns map[string]any) (dao.User, error)
	FindFavoriteTours(ctx context.Context, userID uint) ([]dao.Tour, error)
	AppendFavoriteTour(ctx context.Context, userID, tourID uint) error
	RemoveFavoriteTour(ctx context.Context, userID, tourID uint) error
	Delete(ctx context.Context, id uint) ([]uint, error)
	Deactivate(ctx context.Context, id uint) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		Photo:    user.Photo,
		Password: user.Password,
		Active:   true,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return userDaoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	found, err := r.dao.FindByResetToken(ctx, tokenHash, now)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByResetToken -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		users = append(users, userDaoToDomain(u))
	}

	return users, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, name, email, photo string) (domain.User, error) {
	columns := map[string]any{}
	if name != "" {
		columns["name"] = name
	}
	if email != "" {
		columns["email"] = email
	}
	if photo != "" {
		columns["photo"] = photo
	}
	if len(columns) == 0 {
		return r.FindByID(ctx, id)
	}

	updated, err := r.dao.UpdateColumns(ctx, id, columns)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.UpdateColumns -> %w", err)
	}

	return userDaoToDomain(updated), nil
}

// UpdatePassword stores the new hash and stamps password_changed_at slightly in
// the past so tokens minted in the same second stay valid.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string, changedAt time.Time) (domain.User, error) {
	updated, err := r.dao.UpdateColumns(ctx, id, map[string]any{
		"password":               passwordHash,
		"password_changed_at":    changedAt,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.UpdateColumns -> %w", err)
	}

	return userDaoToDomain(updated), nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error {
	_, err := r.dao.UpdateColumns(ctx, id, map[string]any{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expires,
	})
	if err != nil {
		return fmt.Errorf("r.dao.UpdateColumns -> %w", err)
	}

	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, id uint) error {
	_, err := r.dao.UpdateColumns(ctx, id, map[string]any{
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
	if err != nil {
		return fmt.Errorf("r.dao.UpdateColumns -> %w", err)
	}

	return nil
}

func (r *UserRepository) FindFavoriteTours(ctx context.Context, userID uint) ([]domain.Tour, error) {
	found, err := r.dao.FindFavoriteTours(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindFavoriteTours -> %w", err)
	}

	tours := make([]domain.Tour, 0, len(found))
	for _, t := range found {
		tours = append(tours, tourDaoToDomain(t))
	}

	return tours, nil
}

func (r *UserRepository) AddFavoriteTour(ctx context.Context, userID, tourID uint) error {
	if err := r.dao.AppendFavoriteTour(ctx, userID, tourID); err != nil {
		return fmt.Errorf("r.dao.AppendFavoriteTour -> %w", err)
	}

	return nil
}

func (r *UserRepository) RemoveFavoriteTour(ctx context.Context, userID, tourID uint) error {
	if err := r.dao.RemoveFavoriteTour(ctx, userID, tourID); err != nil {
		return fmt.Errorf("r.dao.RemoveFavoriteTour -> %w", err)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	tourIDs, err := r.dao.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return tourIDs, nil
}

func (r *UserRepository) Deactivate(ctx context.Context, id uint) error {
	if err := r.dao.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Deactivate -> %w", err)
	}

	return nil
}

func userDaoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		Photo:             u.Photo,
		Password:          u.Password,
		PasswordChangedAt: u.PasswordChangedAt,
		Active:            u.Active,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
