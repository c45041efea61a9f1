package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/ariefcatur/go-admin-orders/internal/shipping"
	"github.com/ariefcatur/go-admin-orders/internal/upload"
)

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, orders.ErrNothingSelected),
		errors.Is(err, orders.ErrUnknownStatus),
		errors.Is(err, orders.ErrMissingField),
		errors.Is(err, upload.ErrUnsupportedImage),
		errors.Is(err, upload.ErrInvalidHeight):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrOrdersNotFound),
		errors.Is(err, orders.ErrAdminNotFound),
		errors.Is(err, admins.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, orders.ErrStatusConflict),
		errors.Is(err, orders.ErrAlreadyCancelled),
		errors.Is(err, orders.ErrNoPayment),
		errors.Is(err, shipping.ErrNotReadyToShip):
		return http.StatusConflict
	case errors.Is(err, errTooLarge),
		errors.Is(err, upload.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, orders.ErrPaymentCancel):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json", errBadRequest)
	}
	return nil
}
