package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs/url"
	"github.com/viant/lakeflow/service/meta"
)

// TextExt is the named query text file extension
const TextExt = ".sql"

// Texts resolves named query texts, registered in memory or stored as <name>.sql under location
type Texts struct {
	meta     *meta.Service
	location string
	mu       sync.RWMutex
	texts    map[string]string
}

// Register registers query text
func (t *Texts) Register(name, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.texts[name] = text
}

// Lookup returns query text by name
func (t *Texts) Lookup(ctx context.Context, name string) (string, error) {
	t.mu.RLock()
	text, ok := t.texts[name]
	t.mu.RUnlock()
	if ok {
		return text, nil
	}
	if t.meta == nil || t.location == "" {
		return "", fmt.Errorf("query text %q was not registered", name)
	}
	data, err := t.meta.Download(ctx, url.Join(t.location, name+TextExt))
	if err != nil {
		return "", fmt.Errorf("failed to load query text %q: %w", name, err)
	}
	text = strings.TrimSpace(string(data))
	t.Register(name, text)
	return text, nil
}

// NewTexts creates query texts registry
func NewTexts(metaService *meta.Service, location string) *Texts {
	return &Texts{meta: metaService, location: location, texts: map[string]string{}}
}
