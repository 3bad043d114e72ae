package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"library-engine/internal/api/handler/dto"
	"library-engine/internal/domain/library"
	"library-engine/internal/pkg/apperrors"
)

type CatalogHandler struct {
	service library.Service
	logger  *slog.Logger
}

func NewCatalogHandler(s library.Service, l *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: s,
		logger:  l.With("component", "CatalogHandler"),
	}
}

// searchKeyword requires the q parameter to be present. An empty value is
// allowed and matches every item.
func searchKeyword(r *http.Request) (string, error) {
	values, ok := r.URL.Query()["q"]
	if !ok || len(values) == 0 {
		return "", fmt.Errorf("%w: query parameter q is required", apperrors.ErrInvalidArgument)
	}
	return values[0], nil
}

func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.NewItemListResponse(h.service.Books(r.Context())))
}

func (h *CatalogHandler) ListCDs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.NewItemListResponse(h.service.CDs(r.Context())))
}

func (h *CatalogHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	keyword, err := searchKeyword(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewItemListResponse(h.service.SearchBooks(r.Context(), keyword)))
}

func (h *CatalogHandler) SearchCDs(w http.ResponseWriter, r *http.Request) {
	keyword, err := searchKeyword(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewItemListResponse(h.service.SearchCDs(r.Context(), keyword)))
}

func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	isbn, err := pathParam(r, "isbn")
	if err != nil {
		respondError(w, err)
		return
	}
	book, err := h.service.Book(r.Context(), isbn)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewItemResponse(book))
}

func (h *CatalogHandler) GetCD(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "cdID")
	if err != nil {
		respondError(w, err)
		return
	}
	cd, err := h.service.CD(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewItemResponse(cd))
}

// CreateBook adds a book to the catalog. Admin only.
func (h *CatalogHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookRequest
	if !decodeValid(w, r, &req) {
		return
	}

	book, err := h.service.AddBook(r.Context(), req.Title, req.Author, req.ISBN)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Book added", "isbn", book.ID)
	respondJSON(w, http.StatusCreated, dto.NewItemResponse(book))
}

// CreateCD adds a CD to the catalog. Admin only.
func (h *CatalogHandler) CreateCD(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCDRequest
	if !decodeValid(w, r, &req) {
		return
	}

	cd, err := h.service.AddCD(r.Context(), req.Title, req.Artist, req.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "CD added", "cdID", cd.ID)
	respondJSON(w, http.StatusCreated, dto.NewItemResponse(cd))
}
