// Package prompts resolves instruction templates for the extraction nodes:
// remote template store first, local instruction files as fallback, with an
// optional process-lifetime cache.
package prompts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
	logx "github.com/shipmentbot/server/pkg/logger"
)

type Resolver struct {
	store Store
	dir   string
	cache *templateCache
}

func NewResolver(cfg model.PromptConfig, store Store) *Resolver {
	r := &Resolver{
		store: store,
		dir:   cfg.InstructionsDir,
	}
	if cfg.CacheEnabled {
		r.cache = newTemplateCache()
	}
	return r
}

// Resolve fetches the template named name from the remote store, falling
// back to the local instruction file derived from the last '_' segment of
// the name (e.g. "shipmentbot_shipment" reads "instr_shipment.md"). When
// both fail the extraction cannot proceed; the error carries
// KindPromptUnavailable.
//
// Every template Resolve returns is escaped with EscapeExample, because its
// callers render it with RenderInput: a fenced example payload survives the
// {input} substitution literally. Local is the unescaped counterpart for
// instructions sent to the model verbatim.
//
// Without a cache every call re-resolves, trading latency for freshness:
// instructions may be edited live in the store. Cached entries are never
// invalidated within the process lifetime.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if r.cache != nil {
		if t, ok := r.cache.get(name); ok {
			return t, nil
		}
	}

	t, err := r.resolve(ctx, name)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		r.cache.set(name, t)
	}
	return t, nil
}

func (r *Resolver) resolve(ctx context.Context, name string) (string, error) {
	if r.store != nil {
		t, err := r.store.Fetch(ctx, name)
		if err == nil {
			logx.Debug().Str("prompt", name).Msg("prompt loaded from remote store")
			return EscapeExample(t), nil
		}
		logx.Warn().Err(err).Str("prompt", name).Msg("remote prompt fetch failed, trying local file")
	}

	segments := strings.Split(name, "_")
	t, err := r.Local("instr_" + segments[len(segments)-1])
	if err != nil {
		return "", errx.PromptUnavailable(fmt.Errorf("prompt %q: %w", name, err))
	}
	logx.Debug().Str("prompt", name).Msg("prompt loaded from local file")
	return EscapeExample(t), nil
}

// Local reads a fixed instruction file from the instructions directory,
// bypassing the remote store. The text is returned verbatim: the addresses
// and notes extractors send it to the model as-is, without any template
// rendering, so braces must not be escaped here.
func (r *Resolver) Local(fileBase string) (string, error) {
	path := filepath.Join(r.dir, fileBase+".md")
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read instruction file %s: %w", path, err)
	}
	return string(content), nil
}

// templateCache is a read-mostly map. A second concurrent miss on the same
// key may redundantly fetch rather than block; that tradeoff is acceptable
// because resolution is idempotent.
type templateCache struct {
	mu sync.RWMutex
	m  map[string]string
}

func newTemplateCache() *templateCache {
	return &templateCache{m: make(map[string]string)}
}

func (c *templateCache) get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.m[name]
	return t, ok
}

func (c *templateCache) set(name, t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[name] = t
}
