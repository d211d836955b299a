package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"tipsvendor/app/models"
	"tipsvendor/app/services"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	*Base
	comments *services.CommentService
	posts    *services.PostService
	pages    *PostController
}

// NewCommentController creates a new CommentController. pages renders the
// post again when a submitted comment is invalid.
func NewCommentController(base *Base, comments *services.CommentService, posts *services.PostService, pages *PostController) *CommentController {
	return &CommentController{Base: base, comments: comments, posts: posts, pages: pages}
}

// Create handles the comment form under a post.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	post, err := cc.posts.GetPostBySlug(mux.Vars(r)["slug"])
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	comment := &models.Comment{
		PostID:  post.ID,
		Author:  r.FormValue("author"),
		Email:   r.FormValue("email"),
		Content: r.FormValue("content"),
	}
	if err := cc.comments.CreateComment(comment); err != nil {
		if fields, ok := fieldErrors(err); ok {
			cc.pages.renderShow(w, r, http.StatusBadRequest, post, comment, fields)
			return
		}
		cc.sendError(w, r, err)
		return
	}
	redirect(w, r, "/blog/"+post.Slug+"#comments", "success", "Thanks for your comment.")
}

// List handles GET /api/posts/{id}/comments.
func (cc *CommentController) List(w http.ResponseWriter, r *http.Request) {
	postID, err := intVar(r, "id")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	comments, err := cc.comments.ListPostComments(postID)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	cc.sendJSON(w, http.StatusOK, comments)
}

// APICreate handles POST /api/posts/{id}/comments.
func (cc *CommentController) APICreate(w http.ResponseWriter, r *http.Request) {
	postID, err := intVar(r, "id")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	var comment models.Comment
	if err := decodeJSON(r, &comment); err != nil {
		cc.sendError(w, r, err)
		return
	}
	comment.PostID = postID
	if err := cc.comments.CreateComment(&comment); err != nil {
		cc.sendError(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusCreated, comment)
}

// Delete removes a comment. Editors only.
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := requireEditor(r); err != nil {
		cc.sendError(w, r, err)
		return
	}
	id, err := intVar(r, "id")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	comment, err := cc.comments.GetComment(id)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	if err := cc.comments.DeleteComment(id); err != nil {
		cc.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	back := "/admin/blog"
	if post, err := cc.posts.GetPost(comment.PostID); err == nil {
		back = "/blog/" + post.Slug
	}
	redirect(w, r, back, "success", "Comment deleted.")
}
