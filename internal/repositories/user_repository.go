package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/Code-Chilll/Task-Manager/internal/models"
)

// UserRepository is the credential store. Emails are expected in normalized form.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	UpdateRole(ctx context.Context, email string, role models.Role) error
	List(ctx context.Context) ([]models.User, error)
	// Delete removes the user and every task it owns in one transaction.
	Delete(ctx context.Context, email string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.updateColumn(ctx, email, "password_hash", passwordHash)
}

func (r *userRepository) UpdateRole(ctx context.Context, email string, role models.Role) error {
	return r.updateColumn(ctx, email, "role", role)
}

func (r *userRepository) updateColumn(ctx context.Context, email, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Update(column, value)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("email ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, email string) (int64, error) {
	var removedTasks int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := tx.Where("owner_email = ?", email).Delete(&models.Task{})
		if tasks.Error != nil {
			return tasks.Error
		}
		removedTasks = tasks.RowsAffected

		users := tx.Where("email = ?", email).Delete(&models.User{})
		if users.Error != nil {
			return users.Error
		}
		if users.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return removedTasks, nil
}
