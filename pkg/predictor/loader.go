package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"sync"

	"churn-rfm/pkg/models"

	"gopkg.in/yaml.v3"
)

// Opener resolves an artifact location to a reader (storage.Store).
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// LoadResult is either a ready Predictor or the reason loading failed.
// Err always matches models.ErrPredictorUnavailable.
type LoadResult struct {
	Predictor Predictor
	Err       error
}

func (r LoadResult) OK() bool { return r.Err == nil && r.Predictor != nil }

// Load reads and decodes the artifact at uri. A failure is returned in the
// result, never as a panic, so callers can continue without predictions.
func Load(ctx context.Context, src Opener, uri string) LoadResult {
	if uri == "" {
		return LoadResult{Err: fmt.Errorf("%w: no model path configured", models.ErrPredictorUnavailable)}
	}
	p, err := load(ctx, src, uri)
	if err != nil {
		return LoadResult{Err: fmt.Errorf("%w: %s: %w", models.ErrPredictorUnavailable, uri, err)}
	}
	return LoadResult{Predictor: p}
}

func load(ctx context.Context, src Opener, uri string) (*Logistic, error) {
	rc, err := src.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	a, err := Decode(path.Ext(uri), data)
	if err != nil {
		return nil, err
	}
	return NewLogistic(a)
}

// Decode parses an artifact; ext selects YAML (".yaml", ".yml") or JSON.
func Decode(ext string, data []byte) (Artifact, error) {
	var a Artifact
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&a); err != nil {
			return a, fmt.Errorf("decode yaml artifact: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return a, fmt.Errorf("decode json artifact: %w", err)
		}
	}
	return a, nil
}

// Handle loads the artifact at most once and hands every caller the same
// immutable result.
type Handle struct {
	src Opener
	uri string

	once sync.Once
	res  LoadResult
}

func NewHandle(src Opener, uri string) *Handle {
	return &Handle{src: src, uri: uri}
}

// Get triggers the load on first use. Later calls, including concurrent
// ones, return the first result even if it was a failure.
func (h *Handle) Get(ctx context.Context) LoadResult {
	h.once.Do(func() {
		h.res = Load(ctx, h.src, h.uri)
		if h.res.Err != nil {
			log.Printf("[ERROR] %v", h.res.Err)
			return
		}
		log.Printf("[INFO] model %s loaded from %s (%d features)",
			h.res.Predictor.Name(), h.uri, len(h.res.Predictor.ExpectedFeatures()))
	})
	return h.res
}
