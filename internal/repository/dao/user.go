package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Name  string `gorm:"not null"`
	Email string `gorm:"unique;not null"`
	Role  string `gorm:"not null;default:user"`
	Photo string

	Password             string `gorm:"not null"`
	PasswordChangedAt    *time.Time
	PasswordResetToken   *string `gorm:"index"`
	PasswordResetExpires *time.Time

	Active bool `gorm:"not null;default:true"`

	FavoriteTours []Tour `gorm:"many2many:user_favorite_tours"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).Where("active = ?", true).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).Where("active = ?", true).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (User, error) {
	var user User

	result := d.db.WithContext(ctx).
		Where("active = ?", true).
		Where("password_reset_token = ?", tokenHash).
		Where("password_reset_expires > ?", now).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindAll(ctx context.Context) ([]User, error) {
	var users []User

	result := d.db.WithContext(ctx).Where("active = ?", true).Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// UpdateColumns writes only the given columns, bypassing struct zero-value
// filtering so that nil reset fields can be cleared.
func (d *UserDAO) UpdateColumns(ctx context.Context, id uint, columns map[string]any) (User, error) {
	result := d.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return User{}, ErrUserNotFound
	}

	var user User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return User{}, err
	}

	return user, nil
}

func (d *UserDAO) FindFavoriteTours(ctx context.Context, userID uint) ([]Tour, error) {
	var tours []Tour

	err := d.db.WithContext(ctx).
		Model(&User{ID: userID}).
		Association("FavoriteTours").
		Find(&tours)
	if err != nil {
		return nil, err
	}

	return tours, nil
}

// AppendFavoriteTour adds the association row only; the user record itself is
// not rewritten.
func (d *UserDAO) AppendFavoriteTour(ctx context.Context, userID, tourID uint) error {
	return d.db.WithContext(ctx).
		Model(&User{ID: userID}).
		Association("FavoriteTours").
		Append(&Tour{ID: tourID})
}

func (d *UserDAO) RemoveFavoriteTour(ctx context.Context, userID, tourID uint) error {
	return d.removeFavoriteTour(d.db.WithContext(ctx), userID, tourID)
}

func (d *UserDAO) removeFavoriteTour(tx *gorm.DB, userID, tourID uint) error {
	return tx.
		Model(&User{ID: userID}).
		Association("FavoriteTours").
		Delete(&Tour{ID: tourID})
}

// Delete hard-deletes the user together with their bookings, reviews and
// favorite references in one transaction. Callers re-run review aggregates for
// the returned tour ids.
func (d *UserDAO) Delete(ctx context.Context, id uint) (reviewedTourIDs []uint, err error) {
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Review{}).
			Where("user_id = ?", id).
			Distinct().
			Pluck("tour_id", &reviewedTourIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&Review{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&User{ID: id}).Association("FavoriteTours").Clear(); err != nil {
			return err
		}

		result := tx.Delete(&User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return reviewedTourIDs, nil
}

// Deactivate soft-deletes: the record stays but is excluded from all lookups.
func (d *UserDAO) Deactivate(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
