package dto

import (
	"fmt"
	"strings"

	"library-engine/internal/domain/catalog"
)

type CreateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

func (r *CreateBookRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.ISBN) == "" {
		return fmt.Errorf("isbn is required")
	}
	return nil
}

type CreateCDRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	ID     string `json:"id"`
}

func (r *CreateCDRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

// ItemResponse describes a book or a CD. Creator is the author or the artist.
type ItemResponse struct {
	Kind       string  `json:"kind"`
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Creator    string  `json:"creator"`
	Available  bool    `json:"available"`
	BorrowDate *string `json:"borrowDate,omitempty"`
	DueDate    *string `json:"dueDate,omitempty"`
}

func NewItemResponse(item *catalog.Item) ItemResponse {
	return ItemResponse{
		Kind:       item.Kind.String(),
		ID:         item.ID,
		Title:      item.Title,
		Creator:    item.Creator,
		Available:  item.Available(),
		BorrowDate: optionalDate(item.BorrowDate()),
		DueDate:    optionalDate(item.DueDate()),
	}
}

func NewItemListResponse(items []*catalog.Item) []ItemResponse {
	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, NewItemResponse(item))
	}
	return resp
}
