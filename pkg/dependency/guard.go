// Package dependency blocks deletes that would leave other menu records pointing at nothing.
package dependency

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// Dependant is a record that would hold a dangling reference after a delete.
type Dependant struct {
	Ref  models.Ref `json:"ref"`
	Name string     `json:"name"`
}

// layers lists, per deleted type, the record types that can depend on it
// ordered from the nearest referrer outwards.
var layers = map[models.RecordType][]models.RecordType{
	models.RecordTypeIngredient:   {models.RecordTypeGroupItem, models.RecordTypeProductGroup, models.RecordTypeProduct},
	models.RecordTypeProduct:      {models.RecordTypeGroupItem, models.RecordTypeProductGroup, models.RecordTypeProduct},
	models.RecordTypeGroupItem:    {models.RecordTypeProductGroup, models.RecordTypeProduct},
	models.RecordTypeProductGroup: {models.RecordTypeProduct},
}

// Guard walks reverse references to find the dependants of a record.
type Guard struct {
	lookup references.Lookup
	store  store.EntityStore
	logger ectologger.Logger
}

func NewGuard(lookup references.Lookup, s store.EntityStore, logger ectologger.Logger) *Guard {
	return &Guard{
		lookup: lookup,
		store:  s,
		logger: logger,
	}
}

// Dependants returns every record that transitively references target, layer by
// layer, de-duplicated in first-seen order. Referrers that are gone from the
// store are ignored. Types nothing can reference (branches) have no dependants.
func (g *Guard) Dependants(ctx context.Context, target models.Ref) ([]Dependant, error) {
	ctx, span := tracing.StartSpan(ctx, "dependency.Guard.Dependants")
	defer span.End()
	tracing.SetRecord(span, string(target.Type), target.ID)

	chain, ok := layers[target.Type]
	if !ok {
		return nil, nil
	}

	seen := map[models.Ref]struct{}{target: {}}
	dependants := []Dependant{}
	frontier := []models.Ref{target}

	for _, layer := range chain {
		next := []models.Ref{}
		for _, ref := range frontier {
			referrers, err := g.lookup.Referrers(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("failed to find referrers of %s: %w", ref, err)
			}
			for _, referrer := range referrers {
				if referrer.Type != layer {
					continue
				}
				if _, dup := seen[referrer]; dup {
					continue
				}
				seen[referrer] = struct{}{}

				name, exists, err := g.name(ctx, referrer)
				if err != nil {
					return nil, err
				}
				if !exists {
					continue
				}
				dependants = append(dependants, Dependant{Ref: referrer, Name: name})
				next = append(next, referrer)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	g.logger.WithContext(ctx).WithFields(map[string]any{
		"record_type": target.Type,
		"record_id":   target.ID,
		"dependants":  len(dependants),
	}).Debug("resolved dependants")

	return dependants, nil
}

// Names returns the dependant names with duplicates removed.
func Names(dependants []Dependant) []string {
	names := make([]string, 0, len(dependants))
	for _, d := range dependants {
		if !ectolinq.Contains(names, d.Name) {
			names = append(names, d.Name)
		}
	}
	return names
}

// EnsureDeletable returns a *errors.ResourceInUseError naming every dependant of
// target, or nil when nothing depends on it.
func (g *Guard) EnsureDeletable(ctx context.Context, target models.Ref, resource string) error {
	dependants, err := g.Dependants(ctx, target)
	if err != nil {
		return err
	}
	if len(dependants) == 0 {
		return nil
	}
	return menuerrors.NewResourceInUseError(resource, Names(dependants))
}

// name loads the display name of ref. Group items have no name of their own.
func (g *Guard) name(ctx context.Context, ref models.Ref) (string, bool, error) {
	rec, err := g.store.GetRecord(ctx, ref.ID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load %s: %w", ref, err)
	}
	if rec == nil || rec.Type != ref.Type {
		return "", false, nil
	}
	if ref.Type == models.RecordTypeGroupItem {
		return ref.String(), true, nil
	}
	if name := rec.Meta.String(models.MetaKeyName); name != "" {
		return name, true, nil
	}
	return ref.String(), true, nil
}
