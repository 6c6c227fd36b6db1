package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/service"
)

type postReq struct {
	Title    string   `json:"title" validate:"required,min=5,max=100"`
	Content  string   `json:"content" validate:"required,min=10"`
	Category string   `json:"category" validate:"omitempty,oneof=general buying selling renting maintenance other"`
	Tags     []string `json:"tags"`
}

type commentReq struct {
	Content string `json:"content" validate:"required,min=2"`
}

// GET /api/forum?category=
func (h *handlers) listPosts(c echo.Context) error {
	page, err := h.Forum.ListPosts(c.Request().Context(), model.ForumCategory(c.QueryParam("category")), pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

func (h *handlers) getPost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	post, err := h.Forum.GetPost(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, post)
}

func (h *handlers) createPost(c echo.Context) error {
	var req postReq
	if err := bind(c, &req); err != nil {
		return err
	}
	post, err := h.Forum.CreatePost(c.Request().Context(), actorOf(c), service.PostInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: model.ForumCategory(req.Category),
		Tags:     req.Tags,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, post)
}

func (h *handlers) addComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req commentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.Forum.AddComment(c.Request().Context(), actorOf(c), id, req.Content)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, comment)
}

func (h *handlers) toggleLike(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	res, err := h.Forum.ToggleLike(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, res)
}

func (h *handlers) deletePost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Forum.DeletePost(c.Request().Context(), actorOf(c), id); err != nil {
		return err
	}
	return okMessage(c, "post deleted")
}
