// Package upload splits product images and pushes them to object storage.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 3
	DefaultRetries     = 2
	DefaultBackoff     = time.Second
)

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is the outcome for the file at the same index of the input.
type Result struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (publicURL string, err error)
}

type Pipeline struct {
	Store       ObjectStore
	Prefix      string
	Concurrency int
	Retries     int
	Backoff     time.Duration
	Log         *zap.Logger
}

func NewPipeline(store ObjectStore, prefix string, log *zap.Logger) *Pipeline {
	return &Pipeline{
		Store:       store,
		Prefix:      prefix,
		Concurrency: DefaultConcurrency,
		Retries:     DefaultRetries,
		Backoff:     DefaultBackoff,
		Log:         log,
	}
}

// Expand splits every file taller than maxHeight into numbered JPEG pieces.
// maxHeight <= 0 passes the files through untouched.
func Expand(files []File, maxHeight int) ([]File, error) {
	if maxHeight <= 0 {
		return files, nil
	}
	var out []File
	for _, f := range files {
		parts, err := Split(bytes.NewReader(f.Data), maxHeight)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		base := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		for i, p := range parts {
			name := base + ".jpg"
			if len(parts) > 1 {
				name = fmt.Sprintf("%s_%d.jpg", base, i+1)
			}
			out = append(out, File{Name: name, ContentType: "image/jpeg", Data: p})
		}
	}
	return out, nil
}

// Upload stores every file, at most Concurrency at a time. A failed file
// does not stop the others.
func (p *Pipeline) Upload(ctx context.Context, files []File) []Result {
	results := make([]Result, len(files))
	var g errgroup.Group
	g.SetLimit(max(p.Concurrency, 1))
	for i, f := range files {
		g.Go(func() error {
			results[i] = p.uploadOne(ctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) uploadOne(ctx context.Context, f File) Result {
	res := Result{Name: f.Name}
	key := fmt.Sprintf("%s/%s.%s", strings.Trim(p.Prefix, "/"), uuid.NewString(), extension(f))

	var err error
	for attempt := 0; ; attempt++ {
		var url string
		url, err = p.Store.Put(ctx, key, f.ContentType, f.Data)
		if err == nil {
			res.URL = url
			return res
		}
		if attempt >= p.Retries {
			break
		}
		p.log().Warn("upload failed, retrying",
			zap.String("file", f.Name), zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			err = ctx.Err()
			res.Err, res.Error = err, err.Error()
			return res
		case <-time.After(time.Duration(attempt+1) * p.Backoff):
		}
	}
	p.log().Error("upload failed", zap.String("file", f.Name), zap.Error(err))
	res.Err, res.Error = err, err.Error()
	return res
}

func (p *Pipeline) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

func extension(f File) string {
	switch f.ContentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), "."); ext != "" {
		return ext
	}
	return "bin"
}
