package controllers

import (
	"net/http"

	"tipsvendor/app/models"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

// CategoryController serves the blog category admin screen.
type CategoryController struct {
	*Base
	categories *services.CategoryService
}

func NewCategoryController(base *Base, categories *services.CategoryService) *CategoryController {
	return &CategoryController{Base: base, categories: categories}
}

func (cc *CategoryController) Index(w http.ResponseWriter, r *http.Request) {
	cc.renderIndex(w, r, http.StatusOK, &models.Category{}, nil)
}

func (cc *CategoryController) renderIndex(w http.ResponseWriter, r *http.Request, status int, form *models.Category, errs map[string]string) {
	categories, err := cc.categories.List()
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	cc.render(w, r, status, "admin/categories", &views.Page{
		Title:  "Categories",
		Errors: errs,
		Data:   map[string]interface{}{"Categories": categories, "Form": form},
	})
}

func categoryFromForm(r *http.Request) *models.Category {
	return &models.Category{
		Name:        r.FormValue("name"),
		Slug:        r.FormValue("slug"),
		Description: r.FormValue("description"),
	}
}

func (cc *CategoryController) Create(w http.ResponseWriter, r *http.Request) {
	c := categoryFromForm(r)
	if err := cc.categories.Create(c); err != nil {
		cc.formError(w, r, c, err)
		return
	}
	redirect(w, r, "/admin/categories", "success", "Category "+c.Name+" added.")
}

func (cc *CategoryController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	c := categoryFromForm(r)
	c.ID = id
	if err := cc.categories.Update(c); err != nil {
		cc.formError(w, r, c, err)
		return
	}
	redirect(w, r, "/admin/categories", "success", "Category "+c.Name+" saved.")
}

func (cc *CategoryController) formError(w http.ResponseWriter, r *http.Request, c *models.Category, err error) {
	if fields, ok := fieldErrors(err); ok {
		cc.renderIndex(w, r, http.StatusBadRequest, c, fields)
		return
	}
	cc.sendError(w, r, err)
}

// Delete refuses categories that still hold posts.
func (cc *CategoryController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	if err := cc.categories.Delete(id); err != nil {
		if statusFor(err) == http.StatusConflict {
			redirect(w, r, "/admin/categories", "error", "Move or delete the posts in this category first.")
			return
		}
		cc.sendError(w, r, err)
		return
	}
	redirect(w, r, "/admin/categories", "success", "Category deleted.")
}
