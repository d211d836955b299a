package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
	"tipsvendor/app/storage"
	"tipsvendor/app/views"
)

// Uploader stores user uploaded files and returns their public URL.
type Uploader interface {
	Save(r io.Reader, name string) (string, error)
	Remove(url string) error
}

// PostController handles HTTP requests for blog posts
type PostController struct {
	*Base
	posts      *services.PostService
	categories *services.CategoryService
	files      Uploader
}

// NewPostController creates a new PostController
func NewPostController(base *Base, posts *services.PostService, categories *services.CategoryService, files Uploader) *PostController {
	return &PostController{Base: base, posts: posts, categories: categories, files: files}
}

// Index lists published posts. It serves /blog and GET /api/posts; editors
// see drafts through the API.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	q := services.PostQuery{
		Page:          queryInt(r, "page", 1),
		PerPage:       queryInt(r, "per_page", 0),
		CategoryID:    queryInt(r, "category", 0),
		PublishedOnly: true,
	}
	if u := currentUser(r); u != nil && u.IsEditor() && wantsJSON(r) {
		q.PublishedOnly = r.URL.Query().Get("drafts") != "true"
	}

	page, err := pc.posts.ListPosts(q)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, page)
		return
	}
	pc.renderIndex(w, r, page, nil, "/blog")
}

// Category lists the published posts of one category.
func (pc *PostController) Category(w http.ResponseWriter, r *http.Request) {
	category, err := pc.categories.GetBySlug(mux.Vars(r)["slug"])
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	page, err := pc.posts.ListPosts(services.PostQuery{
		Page:          queryInt(r, "page", 1),
		CategoryID:    category.ID,
		PublishedOnly: true,
	})
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.renderIndex(w, r, page, category, "/blog/category/"+category.Slug)
}

func (pc *PostController) renderIndex(w http.ResponseWriter, r *http.Request, page services.Page[*models.Post], category *models.Category, baseURL string) {
	categories, err := pc.categories.List()
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	title, description := "Blog", "Betting guides, match previews and football analysis."
	if category != nil {
		title = category.Name
		if category.Description != "" {
			description = category.Description
		}
	}
	pc.render(w, r, http.StatusOK, "blog_index", &views.Page{
		Title:       title,
		Description: description,
		Data: map[string]interface{}{
			"Page":       page,
			"Categories": categories,
			"Category":   category,
			"BaseURL":    baseURL,
		},
	})
}

// Show displays a post by slug and counts the view. Editors can preview
// drafts.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	post, err := pc.posts.ViewPost(mux.Vars(r)["slug"], u != nil && u.IsEditor())
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.renderShow(w, r, http.StatusOK, post, &models.Comment{}, nil)
}

func (pc *PostController) renderShow(w http.ResponseWriter, r *http.Request, status int, post *models.Post, comment *models.Comment, errs map[string]string) {
	var category *models.Category
	if post.CategoryID > 0 {
		c, err := pc.categories.Get(post.CategoryID)
		if err != nil && errors.Cause(err) != repositories.ErrNotFound {
			pc.sendError(w, r, err)
			return
		}
		category = c
	}
	pc.render(w, r, status, "blog_show", &views.Page{
		Title:       post.Title,
		Description: post.Summary(),
		Errors:      errs,
		Data: map[string]interface{}{
			"Post":     post,
			"Category": category,
			"Comment":  comment,
		},
	})
}

// APIShow handles GET /api/posts/{id}.
func (pc *PostController) APIShow(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	post, err := pc.posts.GetPost(id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if u := currentUser(r); !post.Published && (u == nil || !u.IsEditor()) {
		pc.sendError(w, r, repositories.ErrNotFound)
		return
	}
	pc.sendJSON(w, http.StatusOK, post)
}

// APICreate handles POST /api/posts.
func (pc *PostController) APICreate(w http.ResponseWriter, r *http.Request) {
	user, err := requireEditor(r)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	var post models.Post
	if err := decodeJSON(r, &post); err != nil {
		pc.sendError(w, r, err)
		return
	}
	if err := pc.posts.CreatePost(&post, user); err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusCreated, post)
}

// APIUpdate handles PUT /api/posts/{id}.
func (pc *PostController) APIUpdate(w http.ResponseWriter, r *http.Request) {
	if _, err := requireEditor(r); err != nil {
		pc.sendError(w, r, err)
		return
	}
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	var post models.Post
	if err := decodeJSON(r, &post); err != nil {
		pc.sendError(w, r, err)
		return
	}
	post.ID = id
	if err := pc.posts.UpdatePost(&post); err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, post)
}

// Delete removes a post and its comments. It serves DELETE /api/posts/{id}
// and the admin delete form.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := requireEditor(r); err != nil {
		pc.sendError(w, r, err)
		return
	}
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	post, err := pc.posts.GetPost(id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if err := pc.posts.DeletePost(id); err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.removeCover(post.CoverImage)

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirect(w, r, "/admin/blog", "success", "Post deleted.")
}

// AdminIndex lists every post, drafts included.
func (pc *PostController) AdminIndex(w http.ResponseWriter, r *http.Request) {
	page, err := pc.posts.ListPosts(services.PostQuery{Page: queryInt(r, "page", 1), PerPage: 20})
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, "admin/posts", &views.Page{
		Title: "Posts",
		Data:  map[string]interface{}{"Page": page, "BaseURL": "/admin/blog"},
	})
}

// New displays the form for creating a new post
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	pc.renderForm(w, r, http.StatusOK, &models.Post{}, nil)
}

func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	post, err := pc.posts.GetPost(id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.renderForm(w, r, http.StatusOK, post, nil)
}

func (pc *PostController) renderForm(w http.ResponseWriter, r *http.Request, status int, post *models.Post, errs map[string]string) {
	categories, err := pc.categories.List()
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	title := "New post"
	if post.ID > 0 {
		title = "Edit post"
	}
	pc.render(w, r, status, "admin/post_form", &views.Page{
		Title:  title,
		Errors: errs,
		Data:   map[string]interface{}{"Post": post, "Categories": categories},
	})
}

// Create handles the admin new post form.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	user, err := requireEditor(r)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	post, ok := pc.parseForm(w, r, &models.Post{})
	if !ok {
		return
	}
	if err := pc.posts.CreatePost(post, user); err != nil {
		pc.formError(w, r, post, err)
		return
	}
	redirect(w, r, "/admin/blog", "success", "Post created.")
}

// Update handles the admin edit post form.
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := requireEditor(r); err != nil {
		pc.sendError(w, r, err)
		return
	}
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	existing, err := pc.posts.GetPost(id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	post, ok := pc.parseForm(w, r, &models.Post{ID: id})
	if !ok {
		return
	}
	if err := pc.posts.UpdatePost(post); err != nil {
		pc.formError(w, r, post, err)
		return
	}
	if existing.CoverImage != post.CoverImage {
		pc.removeCover(existing.CoverImage)
	}
	redirect(w, r, "/admin/blog", "success", "Post updated.")
}

func (pc *PostController) formError(w http.ResponseWriter, r *http.Request, post *models.Post, err error) {
	if fields, ok := fieldErrors(err); ok {
		pc.renderForm(w, r, http.StatusBadRequest, post, fields)
		return
	}
	pc.sendError(w, r, err)
}

// parseForm fills post from a multipart (or plain) form and stores an
// uploaded cover image. It writes the response itself when ok is false.
func (pc *PostController) parseForm(w http.ResponseWriter, r *http.Request, post *models.Post) (*models.Post, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil && err != http.ErrNotMultipart {
		pc.renderForm(w, r, http.StatusBadRequest, post, map[string]string{"cover": "the upload could not be read"})
		return nil, false
	}

	post.Title = r.FormValue("title")
	post.Slug = r.FormValue("slug")
	post.Excerpt = r.FormValue("excerpt")
	post.Description = r.FormValue("description")
	post.CoverImage = r.FormValue("cover_image")
	post.Published = formBool(r, "published")
	if id, err := strconv.Atoi(r.FormValue("category_id")); err == nil {
		post.CategoryID = id
	}

	file, header, err := r.FormFile("cover")
	switch {
	case err == http.ErrMissingFile || err == http.ErrNotMultipart:
		return post, true
	case err != nil:
		pc.sendError(w, r, errors.Wrap(err, "reading cover upload"))
		return nil, false
	}
	defer file.Close()

	url, err := pc.files.Save(file, header.Filename)
	if err != nil {
		if c := errors.Cause(err); c == storage.ErrNotImage || c == storage.ErrTooLarge {
			pc.renderForm(w, r, http.StatusBadRequest, post, map[string]string{"cover": c.Error()})
			return nil, false
		}
		pc.sendError(w, r, err)
		return nil, false
	}
	post.CoverImage = url
	return post, true
}

func (pc *PostController) removeCover(url string) {
	if url == "" {
		return
	}
	if err := pc.files.Remove(url); err != nil {
		pc.reporter.Warn("removing cover image", "error", err, "url", url)
	}
}
