// Package handler exposes the ledger services over HTTP. Every route runs
// behind auth.RequireOwner; the owner always comes from the token, never
// from the URL.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/auth"
	"github.com/sakif/ledger/internal/model"
	"github.com/sakif/ledger/internal/service"
)

type LedgerHandler struct {
	ledger     *service.LedgerService
	snapshots  *service.SnapshotService
	comparator *service.Comparator
	logger     *slog.Logger
}

func NewLedgerHandler(ledger *service.LedgerService, snapshots *service.SnapshotService, comparator *service.Comparator, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger:     ledger,
		snapshots:  snapshots,
		comparator: comparator,
		logger:     logger,
	}
}

// Routes returns the book routes, meant to be mounted under /api/v1.
//
//	GET    /books/{book}/view?at=TICK
//	GET    /books/{book}/sections/{section}/categories
//	POST   /books/{book}/sections/{section}/categories
//	PUT    /books/{book}/sections/{section}/categories/{key}
//	GET    /books/{book}/sections/{section}/items?at=TICK
//	POST   /books/{book}/sections/{section}/items
//	PUT    /books/{book}/sections/{section}/items/{key}
//	DELETE /books/{book}/sections/{section}/items/{key}
//	GET    /books/{book}/sections/{section}/history
//	GET    /books/{book}/sections/{section}/history/{origin}
//	GET    /books/{book}/snapshots
//	POST   /books/{book}/snapshots
//	GET    /books/{book}/snapshots/deleted
//	GET    /books/{book}/snapshots/{id}
//	DELETE /books/{book}/snapshots/{id}
//	POST   /books/{book}/snapshots/{id}/restore
//	GET    /books/{book}/trend
//	POST   /books/{book}/compare
func (h *LedgerHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/books/{book}", func(r chi.Router) {
		r.Get("/view", h.HandleView)

		r.Route("/sections/{section}", func(r chi.Router) {
			r.Get("/categories", h.HandleListCategories)
			r.Post("/categories", h.HandleCreateCategory)
			r.Put("/categories/{key}", h.HandleRenameCategory)

			r.Get("/items", h.HandleListItems)
			r.Post("/items", h.HandleCreateItem)
			r.Put("/items/{key}", h.HandleUpdateItem)
			r.Delete("/items/{key}", h.HandleDeleteItem)

			r.Get("/history", h.HandleHistory)
			r.Get("/history/{origin}", h.HandleItemHistory)
		})

		r.Get("/snapshots", h.HandleListSnapshots)
		r.Post("/snapshots", h.HandleCreateSnapshot)
		r.Get("/snapshots/deleted", h.HandleListDeletedSnapshots)
		r.Get("/snapshots/{id}", h.HandleViewSnapshot)
		r.Delete("/snapshots/{id}", h.HandleDeleteSnapshot)
		r.Post("/snapshots/{id}/restore", h.HandleRestoreSnapshot)
		r.Get("/trend", h.HandleTrend)
		r.Post("/compare", h.HandleCompare)
	})
	return r
}

type nameRequest struct {
	Name string `json:"name"`
}

type createItemRequest struct {
	Name     string   `json:"name"`
	Amount   *float64 `json:"amount"`
	Category string   `json:"category"`
}

func (h *LedgerHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	at, ok, err := parseTick(r, "at")
	if err != nil {
		writeError(w, err)
		return
	}

	var view *model.BookView
	if ok {
		view, err = h.ledger.View(r.Context(), owner, book, at)
	} else {
		view, err = h.ledger.ViewCurrent(r.Context(), owner, book)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *LedgerHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	categories, err := h.ledger.ListCategories(r.Context(), owner, section)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleCreateCategory answers 201 for a new category and 200 when the name
// was already taken; the body carries the status either way.
func (h *LedgerHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.ledger.CreateCategory(r.Context(), owner, section, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := categoryResponse{CategoryResult: res}
	status := http.StatusCreated
	if res.Status == service.CategoryAlreadyExists {
		status = http.StatusOK
		resp.Message = fmt.Sprintf("category %q already exists", res.Category.Name)
		if res.OriginalName {
			resp.Message = fmt.Sprintf("%q is the original name of category %q", strings.TrimSpace(req.Name), res.Category.Name)
		}
	}
	writeJSON(w, status, resp)
}

type categoryResponse struct {
	*service.CategoryResult
	Message string `json:"message,omitempty"`
}

func (h *LedgerHandler) HandleRenameCategory(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.ledger.RenameCategory(r.Context(), owner, section, chi.URLParam(r, "key"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleListItems returns the section as it is now, or as it was at ?at=.
func (h *LedgerHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	at, ok, err := parseTick(r, "at")
	if err != nil {
		writeError(w, err)
		return
	}

	var listing *model.Listing
	if ok {
		listing, err = h.ledger.Reconstruct(r.Context(), owner, section, at)
	} else {
		listing, err = h.ledger.ListOpen(r.Context(), owner, section)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *LedgerHandler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Amount == nil {
		writeError(w, apperror.ValidationFailed("amount", "amount is required"))
		return
	}

	item, err := h.ledger.CreateItem(r.Context(), owner, section, req.Name, *req.Amount, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *LedgerHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var changes service.ItemChanges
	if err := decodeJSON(r, &changes); err != nil {
		writeError(w, err)
		return
	}

	current, err := h.ledger.OpenItem(r.Context(), owner, section, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	next, err := h.ledger.UpdateItem(r.Context(), *current, changes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (h *LedgerHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	current, err := h.ledger.OpenItem(r.Context(), owner, section, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.ledger.DeleteItem(r.Context(), *current); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	versions, err := h.ledger.History(r.Context(), owner, section)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *LedgerHandler) HandleItemHistory(w http.ResponseWriter, r *http.Request) {
	owner, section, err := sectionScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	raw := chi.URLParam(r, "origin")
	origin, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("origin", "origin must be a tick, got "+strconv.Quote(raw)))
		return
	}

	versions, err := h.ledger.ItemHistory(r.Context(), owner, section, model.Tick(origin))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// bookScope reads the authenticated owner and the {book} URL parameter.
func bookScope(r *http.Request) (string, model.Book, error) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		return "", "", apperror.Unauthorized("no owner in request")
	}
	book, err := model.ParseBook(chi.URLParam(r, "book"))
	if err != nil {
		return "", "", apperror.ValidationFailed("book", err.Error())
	}
	return owner, book, nil
}

// sectionScope is bookScope plus {section}, which must belong to the book.
func sectionScope(r *http.Request) (string, model.Section, error) {
	owner, book, err := bookScope(r)
	if err != nil {
		return "", "", err
	}
	section, err := model.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		return "", "", apperror.ValidationFailed("section", err.Error())
	}
	if section.Book() != book {
		return "", "", apperror.NotFound("section", book.String()+"/"+section.String())
	}
	return owner, section, nil
}
