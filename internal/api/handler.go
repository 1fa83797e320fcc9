package api

import (
	"encoding/json"
	"net/http"

	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/internal/store"
)

// Handler serves the board API.
type Handler struct {
	store *store.BoardStore
}

// NewHandler creates a handler over a board store.
func NewHandler(boardStore *store.BoardStore) *Handler {
	return &Handler{store: boardStore}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/board", h.GetBoard)
	mux.HandleFunc("POST /api/v1/board/move", h.MoveItem)
	mux.HandleFunc("POST /api/v1/board/lists", h.CreateList)
	mux.HandleFunc("POST /api/v1/board/lists/{list}/items", h.CreateItem)
}

// ListResponse is one list as sent to views. DisplayName is cosmetic.
type ListResponse struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Items       []model.Item `json:"items"`
}

// BoardResponse is the board as sent to views, lists in board order.
type BoardResponse struct {
	Lists []ListResponse `json:"lists"`
}

func toBoardResponse(b model.Board) BoardResponse {
	resp := BoardResponse{Lists: make([]ListResponse, len(b.Lists))}
	for i, l := range b.Lists {
		items := l.Items
		if items == nil {
			items = []model.Item{}
		}
		resp.Lists[i] = ListResponse{
			Name:        l.Name,
			DisplayName: model.DisplayName(l.Name),
			Items:       items,
		}
	}
	return resp
}

// GetBoard returns the current board.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, toBoardResponse(h.store.Snapshot()))
}

// MoveRequest moves one item. Same source and destination list means a
// reorder within the list.
type MoveRequest struct {
	SourceList  string `json:"source_list"`
	SourceIndex *int   `json:"source_index"`
	DestList    string `json:"dest_list"`
	DestIndex   *int   `json:"dest_index"`
}

// MoveItem applies a single move and returns the new board.
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	if req.SourceList == "" || req.DestList == "" {
		BadRequest(w, "source_list and dest_list are required")
		return
	}
	if req.SourceIndex == nil || req.DestIndex == nil {
		BadRequest(w, "source_index and dest_index are required")
		return
	}

	var err error
	if req.SourceList == req.DestList {
		err = h.store.MoveWithinList(r.Context(), req.SourceList, *req.SourceIndex, *req.DestIndex)
	} else {
		err = h.store.MoveAcrossLists(r.Context(), req.SourceList, *req.SourceIndex, req.DestList, *req.DestIndex)
	}
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, toBoardResponse(h.store.Snapshot()))
}

// CreateItemRequest adds an item to the end of a list.
type CreateItemRequest struct {
	Title string `json:"title"`
}

// CreateItem appends a new item to the list named in the path.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	listName := r.PathValue("list")

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	item, err := h.store.AddItem(r.Context(), listName, req.Title)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, item)
}

// CreateListRequest adds an empty list.
type CreateListRequest struct {
	Name string `json:"name"`
}

// CreateList appends an empty list to the board.
func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	if err := h.store.AddList(r.Context(), req.Name); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, toBoardResponse(h.store.Snapshot()))
}
