package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Handlers groups everything mounted behind admin authentication.
type Handlers struct {
	Orders  *OrdersHandler
	Uploads *UploadsHandler
	Admins  *AdminsHandler
}

// Mount registers the authenticated API on r.
func (h Handlers) Mount(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))
			if h.Orders != nil {
				h.Orders.Register(r)
			}
			if h.Admins != nil {
				h.Admins.Register(r)
			}
		})
		if h.Uploads != nil {
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(2 * time.Minute))
				h.Uploads.Register(r)
			})
		}
	})
}
