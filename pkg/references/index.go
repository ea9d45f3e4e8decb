package references

import (
	"context"
	"sort"
	"sync"

	"github.com/Ramsey-B/squidly/pkg/models"
)

// Index is an in-memory reverse reference index: target -> set of referrers.
type Index struct {
	mu       sync.RWMutex
	incoming map[models.Ref]map[models.Ref]struct{}
	outgoing map[models.Ref][]models.Ref
}

var _ Backend = (*Index)(nil)

func NewIndex() *Index {
	return &Index{
		incoming: map[models.Ref]map[models.Ref]struct{}{},
		outgoing: map[models.Ref][]models.Ref{},
	}
}

func (i *Index) Track(ctx context.Context, from models.Ref, to []models.Ref) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.unlink(from)
	if len(to) == 0 {
		return nil
	}

	i.outgoing[from] = append([]models.Ref(nil), to...)
	for _, target := range to {
		referrers, ok := i.incoming[target]
		if !ok {
			referrers = map[models.Ref]struct{}{}
			i.incoming[target] = referrers
		}
		referrers[from] = struct{}{}
	}
	return nil
}

func (i *Index) Forget(ctx context.Context, from models.Ref) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.unlink(from)
	return nil
}

func (i *Index) Referrers(ctx context.Context, target models.Ref) ([]models.Ref, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	referrers := make([]models.Ref, 0, len(i.incoming[target]))
	for ref := range i.incoming[target] {
		referrers = append(referrers, ref)
	}
	SortRefs(referrers)
	return referrers, nil
}

// Reset drops every entry.
func (i *Index) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.incoming = map[models.Ref]map[models.Ref]struct{}{}
	i.outgoing = map[models.Ref][]models.Ref{}
}

// unlink removes from's outgoing edges. Callers hold i.mu.
func (i *Index) unlink(from models.Ref) {
	for _, target := range i.outgoing[from] {
		delete(i.incoming[target], from)
		if len(i.incoming[target]) == 0 {
			delete(i.incoming, target)
		}
	}
	delete(i.outgoing, from)
}

// SortRefs orders refs by type then id.
func SortRefs(refs []models.Ref) {
	sort.Slice(refs, func(a, b int) bool {
		if refs[a].Type != refs[b].Type {
			return refs[a].Type < refs[b].Type
		}
		return refs[a].ID < refs[b].ID
	})
}
