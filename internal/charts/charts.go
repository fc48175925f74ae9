// Package charts draws the dashboard charts and keeps the current rendering
// of each one. A redraw releases the previous rendering of that chart before
// the new one is produced, so at most one rendering per kind is alive.
package charts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AngelCh415/wbdash/internal/models"
)

type Kind string

const (
	SpendRevenue      Kind = "spend-revenue"
	ClicksImpressions Kind = "clicks-impressions"
	Correlation       Kind = "correlation"
)

// Kinds lists every chart the dashboard shows, in display order.
var Kinds = []Kind{SpendRevenue, ClicksImpressions, Correlation}

var (
	ErrUnknownKind = errors.New("unknown chart kind")
	ErrNoData      = errors.New("no data to chart")
)

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

type Rendering struct {
	Kind   Kind
	PNG    []byte
	Points int
}

type Renderer interface {
	Render(kind Kind, s models.DailySeries) (Rendering, error)
}

// Registry holds the live rendering of every chart kind.
type Registry struct {
	r Renderer

	mu    sync.RWMutex
	slots map[Kind]*Rendering
}

func NewRegistry(r Renderer) *Registry {
	return &Registry{r: r, slots: make(map[Kind]*Rendering, len(Kinds))}
}

// Replace drops the current rendering of kind and draws s in its place. When
// drawing fails the slot stays empty.
func (g *Registry) Replace(kind Kind, s models.DailySeries) error {
	g.mu.Lock()
	delete(g.slots, kind)
	g.mu.Unlock()

	out, err := g.r.Render(kind, s)
	if err != nil {
		return fmt.Errorf("render %s: %w", kind, err)
	}

	g.mu.Lock()
	g.slots[kind] = &out
	g.mu.Unlock()
	return nil
}

// ReplaceAll redraws every kind and returns the errors joined.
func (g *Registry) ReplaceAll(s models.DailySeries) error {
	var errs []error
	for _, k := range Kinds {
		if err := g.Replace(k, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Registry) Get(kind Kind) (Rendering, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.slots[kind]
	if !ok {
		return Rendering{}, false
	}
	return *r, true
}
