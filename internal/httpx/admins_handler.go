package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/go-chi/chi/v5"
)

type AdminsHandler struct {
	Store admins.Store
}

type ActiveReq struct {
	Active *bool `json:"active"`
}

func (h *AdminsHandler) Register(r chi.Router) {
	r.Get("/admins", h.list)
	r.With(RequireRole(admins.RoleMaster)).Patch("/admins/{id}/active", h.setActive)
}

func (h *AdminsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	as, err := h.Store.ListActive(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if as == nil {
		as = []admins.Admin{}
	}
	writeJSON(w, http.StatusOK, as)
}

func (h *AdminsHandler) setActive(w http.ResponseWriter, r *http.Request) {
	var req ActiveReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Active == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "active is required"})
		return
	}
	id := chi.URLParam(r, "id")
	if id == actor(r).ID && !*req.Active {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot deactivate yourself"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.SetActive(ctx, id, *req.Active); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
