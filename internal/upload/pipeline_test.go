package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeStore struct {
	mu       sync.Mutex
	calls    map[string]int
	failN    map[string]int // fail the first N puts of a file
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(s.delay)

	name := string(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	if s.calls[name] <= s.failN[name] {
		return "", fmt.Errorf("put %s: boom", name)
	}
	return "https://cdn.test/" + key, nil
}

func newFake() *fakeStore {
	return &fakeStore{calls: map[string]int{}, failN: map[string]int{}}
}

func files(n int) []File {
	out := make([]File, n)
	for i := range out {
		name := fmt.Sprintf("f%d", i)
		out[i] = File{Name: name + ".png", ContentType: "image/png", Data: []byte(name)}
	}
	return out
}

func TestUploadBoundedConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)
	st := newFake()
	st.delay = 20 * time.Millisecond
	p := &Pipeline{Store: st, Prefix: "products", Concurrency: 3, Backoff: time.Millisecond}

	res := p.Upload(context.Background(), files(8))
	require.Len(t, res, 8)
	for i, r := range res {
		assert.Equal(t, fmt.Sprintf("f%d.png", i), r.Name)
		assert.NoError(t, r.Err)
		assert.True(t, strings.HasPrefix(r.URL, "https://cdn.test/products/"), r.URL)
		assert.True(t, strings.HasSuffix(r.URL, ".png"), r.URL)
	}
	assert.LessOrEqual(t, st.peak.Load(), int32(3))
}

func TestUploadRetriesThenSucceeds(t *testing.T) {
	defer goleak.VerifyNone(t)
	st := newFake()
	st.failN["f0"] = 2
	p := &Pipeline{Store: st, Prefix: "p", Concurrency: 3, Retries: 2, Backoff: time.Millisecond}

	res := p.Upload(context.Background(), files(2))
	assert.NoError(t, res[0].Err)
	assert.Equal(t, 3, st.calls["f0"])
	assert.Equal(t, 1, st.calls["f1"])
}

func TestUploadPartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	st := newFake()
	st.failN["f1"] = 10
	p := &Pipeline{Store: st, Prefix: "p", Concurrency: 3, Retries: 2, Backoff: time.Millisecond}

	res := p.Upload(context.Background(), files(3))
	assert.NoError(t, res[0].Err)
	assert.Error(t, res[1].Err)
	assert.Contains(t, res[1].Error, "boom")
	assert.Empty(t, res[1].URL)
	assert.NoError(t, res[2].Err)
	assert.Equal(t, 3, st.calls["f1"])
}

func TestUploadStopsRetryingOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	st := newFake()
	st.failN["f0"] = 10
	p := &Pipeline{Store: st, Prefix: "p", Concurrency: 1, Retries: 2, Backoff: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	res := p.Upload(ctx, files(1))
	assert.True(t, errors.Is(res[0].Err, context.DeadlineExceeded))
	assert.Equal(t, 1, st.calls["f0"])
}

func TestHTTPObjectStorePut(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	s := NewHTTPObjectStore(srv.URL, "https://cdn.example.com/", "product-images", "tok")
	url, err := s.Put(context.Background(), "products/a.jpg", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)
	assert.Equal(t, "/object/product-images/products/a.jpg", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "jpegdata", gotBody)
	assert.Equal(t, "https://cdn.example.com/product-images/products/a.jpg", url)
}

func TestHTTPObjectStoreError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPObjectStore(srv.URL, "", "b", "t").Put(context.Background(), "k", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
