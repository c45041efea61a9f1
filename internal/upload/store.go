package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPObjectStore writes objects with PUT {base}/object/{bucket}/{key}.
type HTTPObjectStore struct {
	BaseURL       string
	PublicBaseURL string
	Bucket        string
	Token         string
	HTTP          *http.Client
}

func NewHTTPObjectStore(baseURL, publicBaseURL, bucket, token string) *HTTPObjectStore {
	return &HTTPObjectStore{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		Bucket:        bucket,
		Token:         token,
		HTTP:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPObjectStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", s.BaseURL, s.Bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("put %s: status %d: %s", key, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return fmt.Sprintf("%s/%s/%s", s.PublicBaseURL, s.Bucket, key), nil
}
