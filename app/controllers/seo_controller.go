package controllers

import (
	"net/http"

	"tipsvendor/app/models"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

// SEOController renders landing pages at their configured paths and serves
// their admin screens.
type SEOController struct {
	*Base
	seo *services.SEOService
}

func NewSEOController(base *Base, seo *services.SEOService) *SEOController {
	return &SEOController{Base: base, seo: seo}
}

// Show is the router's not-found handler: a published page at the request
// path is rendered, anything else is a 404.
func (sc *SEOController) Show(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		sc.NotFound(w, r)
		return
	}
	page, err := sc.seo.Published(r.URL.Path)
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	sc.render(w, r, http.StatusOK, "seo_page", &views.Page{
		Title:       page.Title,
		Description: page.MetaDescription,
		Keywords:    page.Keywords,
		Data:        page,
	})
}

func (sc *SEOController) AdminIndex(w http.ResponseWriter, r *http.Request) {
	pages, err := sc.seo.List()
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	sc.render(w, r, http.StatusOK, "admin/seo", &views.Page{Title: "SEO pages", Data: pages})
}

func (sc *SEOController) New(w http.ResponseWriter, r *http.Request) {
	sc.renderForm(w, r, http.StatusOK, &models.SEOPage{}, nil)
}

func (sc *SEOController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	page, err := sc.seo.Get(id)
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	sc.renderForm(w, r, http.StatusOK, page, nil)
}

func (sc *SEOController) renderForm(w http.ResponseWriter, r *http.Request, status int, page *models.SEOPage, errs map[string]string) {
	sc.render(w, r, status, "admin/seo_form", &views.Page{Title: "SEO page", Errors: errs, Data: page})
}

func seoPageFromForm(r *http.Request, page *models.SEOPage) *models.SEOPage {
	page.Path = r.FormValue("path")
	page.Title = r.FormValue("title")
	page.MetaDescription = r.FormValue("meta_description")
	page.Keywords = r.FormValue("keywords")
	page.Content = r.FormValue("content")
	page.Published = formBool(r, "published")
	return page
}

func (sc *SEOController) Create(w http.ResponseWriter, r *http.Request) {
	page := seoPageFromForm(r, &models.SEOPage{})
	if err := sc.seo.Create(page); err != nil {
		sc.formError(w, r, page, err)
		return
	}
	redirect(w, r, "/admin/seo", "success", "Page "+page.Path+" created.")
}

func (sc *SEOController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	page := seoPageFromForm(r, &models.SEOPage{ID: id})
	if err := sc.seo.Update(page); err != nil {
		sc.formError(w, r, page, err)
		return
	}
	redirect(w, r, "/admin/seo", "success", "Page "+page.Path+" saved.")
}

func (sc *SEOController) formError(w http.ResponseWriter, r *http.Request, page *models.SEOPage, err error) {
	if fields, ok := fieldErrors(err); ok {
		sc.renderForm(w, r, http.StatusBadRequest, page, fields)
		return
	}
	sc.sendError(w, r, err)
}

func (sc *SEOController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	if err := sc.seo.Delete(id); err != nil {
		sc.sendError(w, r, err)
		return
	}
	redirect(w, r, "/admin/seo", "success", "Page deleted.")
}
