package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-admin-orders/internal/upload"
	"github.com/go-chi/chi/v5"
)

const (
	maxUploadMemory = 32 << 20
	maxUploadBytes  = 64 << 20
)

var errTooLarge = errors.New("request body too large")

type UploadsHandler struct {
	Pipeline    *upload.Pipeline
	SplitHeight int
	MaxBytes    int64 // request body cap, maxUploadBytes when zero
}

func (h *UploadsHandler) Register(r chi.Router) {
	r.Post("/uploads/images", h.images)
}

func readParts(r *http.Request) ([]upload.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, fmt.Errorf("%w: limit %d bytes", errTooLarge, mbe.Limit)
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	headers := r.MultipartForm.File["files[]"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no files", errBadRequest)
	}

	out := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		ct := fh.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			ct = http.DetectContentType(data)
		}
		out = append(out, upload.File{Name: fh.Filename, ContentType: ct, Data: data})
	}
	return out, nil
}

func (h *UploadsHandler) images(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxBytes
	if limit <= 0 {
		limit = maxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	files, err := readParts(r)
	if err != nil {
		writeError(w, err)
		return
	}
	height := h.SplitHeight
	if v := r.FormValue("split_height"); v != "" {
		if height, err = strconv.Atoi(v); err != nil || height < 0 {
			writeError(w, fmt.Errorf("%w: split_height", errBadRequest))
			return
		}
	}

	pieces, err := upload.Expand(files, height)
	if err != nil {
		writeError(w, err)
		return
	}
	results := h.Pipeline.Upload(r.Context(), pieces)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "failed": failed})
}
