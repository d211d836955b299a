package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipsvendor/app/models"
)

func setupCommentRouter(cc *CommentController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/blog/{slug}/comments", cc.Create).Methods("POST")
	router.HandleFunc("/admin/blog/comments/{id:[0-9]+}/delete", cc.Delete).Methods("POST")
	router.HandleFunc("/api/posts/{id:[0-9]+}/comments", cc.List).Methods("GET")
	router.HandleFunc("/api/posts/{id:[0-9]+}/comments", cc.APICreate).Methods("POST")
	router.HandleFunc("/api/comments/{id:[0-9]+}", cc.Delete).Methods("DELETE")
	return router
}

func newTestCommentController(app *testApp) *CommentController {
	return NewCommentController(app.base, app.comments, app.posts, newTestPostController(app))
}

func TestCommentController_Create(t *testing.T) {
	app := newTestApp(t)
	router := setupCommentRouter(newTestCommentController(app))
	post := app.createPost(t, "Derby Day Preview", true)
	draft := app.createPost(t, "Secret Draft", false)

	t.Run("form", func(t *testing.T) {
		w := serve(t, router, request{method: "POST", target: "/blog/" + post.Slug + "/comments", form: url.Values{
			"author": {"Sam"}, "content": {"Great preview"},
		}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/blog/"+post.Slug+"#comments", w.Header().Get("Location"))

		comments, err := app.repos.Comments.ListByPost(post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "Sam", comments[0].Author)
	})

	t.Run("invalid comment shows the post again", func(t *testing.T) {
		w := serve(t, router, request{method: "POST", target: "/blog/" + post.Slug + "/comments", form: url.Values{
			"author": {"S"}, "content": {"Kept text"},
		}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), post.Title)
		assert.Contains(t, w.Body.String(), "Kept text")
	})

	t.Run("drafts take no comments", func(t *testing.T) {
		w := serve(t, router, request{method: "POST", target: "/blog/" + draft.Slug + "/comments", form: url.Values{
			"author": {"Sam"}, "content": {"Hello"},
		}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("api", func(t *testing.T) {
		target := "/api/posts/" + strconv.Itoa(post.ID) + "/comments"
		w := serve(t, router, request{method: "POST", target: target, json: map[string]string{"author": "Jo", "content": "Agreed"}})
		assert.Equal(t, http.StatusCreated, w.Code)

		w = serve(t, router, request{target: target})
		assert.Equal(t, http.StatusOK, w.Code)
		var comments []models.Comment
		decodeBody(t, w, &comments)
		assert.Len(t, comments, 2)
	})

	t.Run("api list of unknown post", func(t *testing.T) {
		w := serve(t, router, request{target: "/api/posts/999/comments"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCommentController_Delete(t *testing.T) {
	app := newTestApp(t)
	router := setupCommentRouter(newTestCommentController(app))
	post := app.createPost(t, "Derby Day Preview", true)
	comment := &models.Comment{PostID: post.ID, Author: "Spammer", Content: "Buy now"}
	require.NoError(t, app.comments.CreateComment(comment))
	target := "/admin/blog/comments/" + strconv.Itoa(comment.ID) + "/delete"

	t.Run("readers cannot delete", func(t *testing.T) {
		user := app.createUser(t, "punter@example.com", models.RoleUser)
		w := serve(t, router, request{method: "POST", target: target, user: user})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("editor", func(t *testing.T) {
		editor := app.createUser(t, "editor@example.com", models.RoleEditor)
		w := serve(t, router, request{method: "POST", target: target, user: editor})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/blog/"+post.Slug, w.Header().Get("Location"))

		_, err := app.comments.GetComment(comment.ID)
		assert.Error(t, err)
	})
}
