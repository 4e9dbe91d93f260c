package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/catalog-editor/internal/editor"
	"github.com/sandeepkv93/catalog-editor/internal/service"
	"github.com/sandeepkv93/catalog-editor/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Only messages the editor produces are rendered from the redirect query.
var knownNotices = map[string]bool{
	editor.MsgAdded:          true,
	editor.MsgUpdated:        true,
	editor.MsgDeleted:        true,
	editor.MsgCleared:        true,
	editor.MsgRequiredFields: true,
	editor.MsgInvalidPrice:   true,
	editor.MsgNotFound:       true,
	editor.MsgStoreFailure:   true,
}

// PageHandler serves the server-rendered editor. Mutations follow
// post/redirect/get so a refresh never repeats them.
type PageHandler struct {
	ctrl *editor.Controller
	svc  service.ProductService
}

func NewPageHandler(ctrl *editor.Controller, svc service.ProductService) *PageHandler {
	return &PageHandler{ctrl: ctrl, svc: svc}
}

type pageData struct {
	Title        string
	Page         editor.Page
	Notice       *editor.Notice
	Listing      view.Listing
	SortKeys     []view.SortKey
	Session      editor.Session
	Form         editor.Form
	FormAction   string
	Categories   []string
	DeletePrompt string
	ClearPrompt  string
}

func (h *PageHandler) Products(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		q = view.Query{}
	}
	listing, err := h.svc.Listing(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "render product listing failed", "error", err)
		http.Error(w, editor.MsgStoreFailure, http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, pageData{
		Title:        "Products",
		Page:         editor.PageProducts,
		Notice:       noticeFromQuery(r),
		Listing:      listing,
		SortKeys:     view.SortKeys(),
		DeletePrompt: editor.PromptDelete,
		ClearPrompt:  editor.PromptClearAll,
	})
}

func (h *PageHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	sess, form := h.ctrl.NewSession()
	h.renderForm(w, r, http.StatusOK, sess, form, nil)
}

func (h *PageHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		redirectWithNotice(w, r, editor.Failure(editor.MsgNotFound))
		return
	}
	res := h.ctrl.BeginEdit(r.Context(), id)
	if res.Err != nil {
		redirectWithNotice(w, r, res.Notice)
		return
	}
	h.renderForm(w, r, http.StatusOK, res.Session, res.Form, nil)
}

func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, editor.NewSession())
}

func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		redirectWithNotice(w, r, editor.Failure(editor.MsgNotFound))
		return
	}
	h.submit(w, r, editor.EditSession(id))
}

func (h *PageHandler) submit(w http.ResponseWriter, r *http.Request, sess editor.Session) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := editor.Form{
		Title:       r.PostFormValue("title"),
		Price:       r.PostFormValue("price"),
		Image:       r.PostFormValue("image"),
		Category:    r.PostFormValue("category"),
		Description: r.PostFormValue("description"),
	}
	res := h.ctrl.Submit(r.Context(), sess, form)
	if res.Err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, res.Session, res.Form, res.Notice)
		return
	}
	redirectWithNotice(w, r, res.Notice)
}

func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		redirectWithNotice(w, r, editor.Failure(editor.MsgNotFound))
		return
	}
	ctrl := h.ctrl.WithConfirmer(editor.Preconfirmed(confirmed(r, "confirm", "yes")))
	redirectWithNotice(w, r, ctrl.Delete(r.Context(), id).Notice)
}

func (h *PageHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctrl := h.ctrl.WithConfirmer(editor.Preconfirmed(confirmed(r, "confirm", "yes")))
	redirectWithNotice(w, r, ctrl.ClearAll(r.Context()).Notice)
}

func (h *PageHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, sess editor.Session, form editor.Form, notice *editor.Notice) {
	action := "/products"
	if sess.Editing() {
		action = "/products/" + formatID(sess.TargetID)
	}
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		cats = nil
	}
	title := "Add Product"
	if sess.Editing() {
		title = "Edit Product"
	}
	h.render(w, r, status, pageData{
		Title:      title,
		Page:       editor.PageForm,
		Notice:     notice,
		Session:    sess,
		Form:       form,
		FormAction: action,
		Categories: cats,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, "layout", data); err != nil {
		slog.ErrorContext(r.Context(), "render page failed", "page", string(data.Page), "error", err)
	}
}

// redirectWithNotice returns to the product list. A nil notice, such as a
// declined confirmation, redirects silently.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, n *editor.Notice) {
	target := "/"
	if n != nil {
		v := url.Values{}
		v.Set("notice", n.Message)
		v.Set("kind", string(n.Kind))
		target += "?" + v.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func noticeFromQuery(r *http.Request) *editor.Notice {
	msg := r.URL.Query().Get("notice")
	if !knownNotices[msg] {
		return nil
	}
	if editor.NoticeKind(r.URL.Query().Get("kind")) == editor.NoticeError {
		return editor.Failure(msg)
	}
	return editor.Success(msg)
}
