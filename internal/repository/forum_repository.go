package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/model"
)

type ForumRepository interface {
	CreatePost(ctx context.Context, p *model.ForumPost) error
	// GetPost loads the post with its comments, oldest comment first.
	GetPost(ctx context.Context, id uuid.UUID) (*model.ForumPost, error)
	// ListPosts returns sticky posts first, then newest first.
	ListPosts(ctx context.Context, category model.ForumCategory, limit, offset int) ([]model.ForumPost, int64, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	AddComment(ctx context.Context, c *model.ForumComment) error
	// ToggleLike adds the user's like or takes it back; returns the new state.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (liked bool, likes int64, err error)
	DeletePost(ctx context.Context, id uuid.UUID) error
}

type GormForumRepository struct {
	db *gorm.DB
}

func NewGormForumRepository(db *gorm.DB) *GormForumRepository {
	return &GormForumRepository{db: db}
}

func (r *GormForumRepository) CreatePost(ctx context.Context, p *model.ForumPost) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *GormForumRepository) GetPost(ctx context.Context, id uuid.UUID) (*model.ForumPost, error) {
	var p model.ForumPost
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormForumRepository) ListPosts(ctx context.Context, category model.ForumCategory, limit, offset int) ([]model.ForumPost, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ForumPost{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var posts []model.ForumPost
	if err := q.Order("is_sticky DESC").Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *GormForumRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.ForumPost{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormForumRepository) AddComment(ctx context.Context, c *model.ForumComment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *GormForumRepository) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int64, error) {
	var (
		liked bool
		likes int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.ForumLike{}, "post_id = ? AND user_id = ?", postID, userID)
		if res.Error != nil {
			return res.Error
		}

		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&model.ForumLike{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
			liked = true
			delta = 1
		}

		upd := tx.Model(&model.ForumPost{}).
			Where("id = ?", postID).
			UpdateColumn("likes", gorm.Expr("likes + ?", delta))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&model.ForumPost{}).
			Select("likes").
			Where("id = ?", postID).
			Scan(&likes).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likes, nil
}

// DeletePost removes the post with its comments and likes.
func (r *GormForumRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.ForumComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.ForumLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.ForumPost{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
