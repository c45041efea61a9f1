package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/ariefcatur/go-admin-orders/internal/shipping"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	Service  *orders.Service
	Exporter *shipping.Exporter
}

type BulkStatusReq struct {
	OrderIDs     []string      `json:"order_ids"`
	SourceStatus orders.Status `json:"source_status"`
	TargetStatus orders.Status `json:"target_status"`
}

type StatusReq struct {
	TargetStatus orders.Status `json:"target_status"`
}

type AdminRefReq struct {
	AdminID *string `json:"admin_id"`
}

type MemoReq struct {
	Memo *string `json:"memo"`
}

type CancelReq struct {
	Reason string `json:"reason"`
}

type ExportReq struct {
	OrderIDs []string `json:"order_ids"`
	Advance  bool     `json:"advance"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Get("/orders/counts", h.counts)
	r.Post("/orders/status/bulk", h.bulkStatus)
	r.Post("/orders/export", h.export)
	r.Get("/orders/{id}", h.get)
	r.Patch("/orders/{id}/status", h.status)
	r.Patch("/orders/{id}/assignee", h.assignee)
	r.Patch("/orders/{id}/handler", h.handler)
	r.Patch("/orders/{id}/memo", h.memo)
	r.Put("/orders/{id}/shipping", h.shipping)
	r.Post("/orders/{id}/cancel", h.cancel)
}

func parseTime(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", errBadRequest, s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

func parseFilter(r *http.Request) (orders.ListFilter, error) {
	q := r.URL.Query()
	f := orders.ListFilter{
		Assigned: strings.TrimSpace(q.Get("assigned")),
		Search:   strings.TrimSpace(q.Get("q")),
		Sort:     q.Get("sort"),
	}
	if s := q.Get("status"); s != "" && s != "all" {
		st := orders.Status(s)
		f.Status = &st
	}
	var err error
	if f.From, err = parseTime(q.Get("from"), false); err != nil {
		return f, err
	}
	if f.To, err = parseTime(q.Get("to"), true); err != nil {
		return f, err
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	f.Desc, _ = strconv.ParseBool(q.Get("desc"))
	return f, nil
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Service.List(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *OrdersHandler) counts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	m, err := h.Service.Counts(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *OrdersHandler) bulkStatus(w http.ResponseWriter, r *http.Request) {
	var req BulkStatusReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.ApplyBulkTransition(ctx, actor(r), req.OrderIDs, req.TargetStatus, req.SourceStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	var req StatusReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Service.ApplySingleTransition(ctx, actor(r), id, req.TargetStatus); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "consultation_status": req.TargetStatus})
}

func (h *OrdersHandler) assignee(w http.ResponseWriter, r *http.Request) {
	var req AdminRefReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.AssignAdmin(ctx, actor(r), chi.URLParam(r, "id"), req.AdminID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) handler(w http.ResponseWriter, r *http.Request) {
	var req AdminRefReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.SetHandler(ctx, actor(r), chi.URLParam(r, "id"), req.AdminID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) memo(w http.ResponseWriter, r *http.Request) {
	var req MemoReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.SetMemo(ctx, actor(r), chi.URLParam(r, "id"), req.Memo); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) shipping(w http.ResponseWriter, r *http.Request) {
	var req orders.ShippingInfo
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.SaveShipping(ctx, actor(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// the payment gateway gets its own budget on top of the status write
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Service.Cancel(ctx, actor(r), id, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "consultation_status": orders.StatusCancelled})
}

func (h *OrdersHandler) export(w http.ResponseWriter, r *http.Request) {
	var req ExportReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var (
		out shipping.Export
		err error
	)
	if req.Advance {
		out, err = h.Exporter.ExportAndAdvance(ctx, actor(r), req.OrderIDs)
	} else {
		out, err = h.Exporter.ExportOnly(ctx, req.OrderIDs)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	// []byte is encoded as base64
	writeJSON(w, http.StatusOK, out)
}
