package httpapi

import (
	"encoding/json"
	"net/http"

	"canteen-be/internal/order"
	"canteen-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orders order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{orders: svc}
}

type placeOrderRequest struct {
	Items []order.LineRequest `json:"items"`
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

type verifyQRRequest struct {
	QRCode string `json:"qrCode"`
}

func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid json"})
		return
	}

	id, _ := utils.GetUserIDFromContext(r.Context())
	who := order.Identity{
		ID:    id,
		Name:  utils.GetUserNameFromContext(r.Context()),
		Email: utils.GetUserEmailFromContext(r.Context()),
	}

	o, err := h.orders.PlaceOrder(r.Context(), who, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, o, "order placed successfully")
}

// List returns the caller's own orders; admins see everyone's and may
// filter by status.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter order.ListFilter
	if !utils.IsAdmin(r.Context()) {
		id, _ := utils.GetUserIDFromContext(r.Context())
		filter.UserID = utils.StrPtr(id)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := order.Status(s)
		if !status.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid status filter"})
			return
		}
		filter.Status = &status
	}

	orders, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	writeData(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Customers may only see their own orders.
	if !utils.IsAdmin(r.Context()) {
		id, _ := utils.GetUserIDFromContext(r.Context())
		if o.UserID != id {
			writeError(w, r, order.ErrOrderNotFound)
			return
		}
	}

	writeData(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid json"})
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, o, "order status updated")
}

func (h *OrderHandler) VerifyQR(w http.ResponseWriter, r *http.Request) {
	var req verifyQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid json"})
		return
	}

	o, err := h.orders.VerifyPickup(r.Context(), req.QRCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, o, "order verified and fulfilled")
}
