package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/repository"
)

type ForumService struct {
	posts repository.ForumRepository

	gate     access.Gate
	activity ActivityRecorder
}

func NewForumService(db *gorm.DB, gate access.Gate, activity ActivityRecorder) *ForumService {
	return &ForumService{
		posts:    repository.NewGormForumRepository(db),
		gate:     gateOrDefault(gate),
		activity: recorderOrNop(activity),
	}
}

type PostInput struct {
	Title    string
	Content  string
	Category model.ForumCategory
	Tags     []string
}

// LikeResult is the state after a like toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

func validCategory(c model.ForumCategory) bool {
	switch c {
	case model.ForumGeneral, model.ForumBuying, model.ForumSelling,
		model.ForumRenting, model.ForumMaintenance, model.ForumOther:
		return true
	}
	return false
}

func (s *ForumService) ListPosts(ctx context.Context, category model.ForumCategory, p pagination.Params) (pagination.Page[model.ForumPost], error) {
	if category != "" && !validCategory(category) {
		return pagination.Page[model.ForumPost]{}, fail(ErrInvalidInput, "unknown category %q", category)
	}
	posts, total, err := s.posts.ListPosts(ctx, category, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[model.ForumPost]{}, err
	}
	return pagination.FromTotal(posts, total, p), nil
}

// GetPost returns the post with comments and counts the view.
func (s *ForumService) GetPost(ctx context.Context, id uuid.UUID) (*model.ForumPost, error) {
	if err := s.posts.IncrementViews(ctx, id); err != nil {
		return nil, lookupErr("post", err)
	}
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, lookupErr("post", err)
	}
	return post, nil
}

func (s *ForumService) CreatePost(ctx context.Context, actor access.Actor, in PostInput) (*model.ForumPost, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	category := in.Category
	if category == "" {
		category = model.ForumGeneral
	}
	switch n := utf8.RuneCountInString(title); {
	case n < 5 || n > 100:
		return nil, fail(ErrInvalidInput, "title must be 5 to 100 characters")
	case utf8.RuneCountInString(content) < 10:
		return nil, fail(ErrInvalidInput, "content must be at least 10 characters")
	case !validCategory(category):
		return nil, fail(ErrInvalidInput, "unknown category %q", category)
	}

	post := &model.ForumPost{
		AuthorID: actor.UserID,
		Title:    title,
		Content:  content,
		Category: category,
		Tags:     datatypes.JSONSlice[string](nonNil(in.Tags)),
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, writeErr("create post", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Forum post created", model.ResourceForum, post.ID, map[string]any{
		"title": post.Title,
	}))
	return post, nil
}

func (s *ForumService) AddComment(ctx context.Context, actor access.Actor, postID uuid.UUID, content string) (*model.ForumComment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < 2 {
		return nil, fail(ErrInvalidInput, "comment must be at least 2 characters")
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, lookupErr("post", err)
	}
	if post.IsLocked {
		return nil, fail(ErrInvalidState, "post is locked")
	}

	c := &model.ForumComment{PostID: postID, AuthorID: actor.UserID, Content: content}
	if err := s.posts.AddComment(ctx, c); err != nil {
		return nil, writeErr("add comment", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Forum comment added", model.ResourceForum, postID, nil))
	return c, nil
}

func (s *ForumService) ToggleLike(ctx context.Context, actor access.Actor, postID uuid.UUID) (*LikeResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	liked, likes, err := s.posts.ToggleLike(ctx, postID, actor.UserID)
	if err != nil {
		return nil, lookupErr("post", err)
	}
	return &LikeResult{Liked: liked, Likes: likes}, nil
}

func (s *ForumService) DeletePost(ctx context.Context, actor access.Actor, postID uuid.UUID) error {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return lookupErr("post", err)
	}
	if err := authorize(s.gate, actor, access.DeleteForumPost, access.OwnedBy(post.AuthorID)); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return writeErr("delete post", err)
	}

	s.activity.Record(ctx, entry(actor.UserID, "Forum post deleted", model.ResourceForum, postID, nil))
	return nil
}
