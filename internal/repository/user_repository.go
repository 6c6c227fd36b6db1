package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/model"
)

// ErrDuplicate signals a unique constraint violation (e.g. email taken).
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetRole(ctx context.Context, userID uuid.UUID, roleCode string) error
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// NormalizeEmail is the canonical form stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// mapDuplicate folds driver-specific unique violations into ErrDuplicate.
func mapDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *GormUserRepository) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	return mapDuplicate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	n := NormalizeEmail(email)
	if n == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", n).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var users []model.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *GormUserRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.User, error) {
	if email, ok := fields["email"].(string); ok {
		fields["email"] = NormalizeEmail(email)
	}
	if len(fields) == 0 {
		// nothing to update; just return current user
		return r.GetByID(ctx, id)
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, mapDuplicate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GormUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).
		Error
}

func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormUserRepository) SetRole(ctx context.Context, userID uuid.UUID, roleCode string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// ensure role exists
		var role model.Role
		if err := tx.Where("code = ?", roleCode).First(&role).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			role.Code = roleCode
			role.Name = roleCode
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
		}

		// single role policy: drop previous roles
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}

		ur := model.UserRole{RoleID: role.ID, UserID: userID}
		return tx.Create(&ur).Error
	})
}

func (r *GormUserRepository) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		First(&role).Error
	if err != nil {
		return "", err
	}
	return role.Code, nil
}
