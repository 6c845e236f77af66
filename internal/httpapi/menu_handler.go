package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"canteen-be/internal/menu"
	"canteen-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type MenuHandler struct {
	menu menu.Service
}

func NewMenuHandler(svc menu.Service) *MenuHandler {
	return &MenuHandler{menu: svc}
}

func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter menu.Filter
	if cat := r.URL.Query().Get("category"); cat != "" {
		filter.Category = utils.StrPtr(cat)
	}
	if avail := r.URL.Query().Get("available"); avail != "" {
		v, err := strconv.ParseBool(avail)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "available must be true or false"})
			return
		}
		filter.Available = &v
	}

	items, err := h.menu.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*menu.Item{}
	}
	writeData(w, http.StatusOK, items)
}

func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.menu.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeData(w, http.StatusOK, categories)
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.menu.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, item)
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in menu.NewItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid json"})
		return
	}

	item, err := h.menu.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, item, "food item created")
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch menu.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid json"})
		return
	}

	item, err := h.menu.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, item, "food item updated")
}

func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.menu.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "food item deleted")
}
