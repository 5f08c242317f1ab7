package actions

import (
	"context"
	"fmt"
	"sort"
)

// Registry filters the actions of a PluginSource by capability tag.
// Nothing is cached: every call enumerates again so newly installed actions
// show up without a restart.
type Registry struct {
	source PluginSource
}

// NewRegistry creates a registry over source
func NewRegistry(source PluginSource) *Registry {
	return &Registry{source: source}
}

// Discover returns every action declaring tag. Duplicate identifiers are
// kept; resolving them is the dispatcher's concern.
func (r *Registry) Discover(ctx context.Context, tag string) ([]Action, error) {
	all, err := r.source.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate actions: %w", err)
	}

	var matched []Action
	for _, a := range all {
		if a == nil {
			continue
		}
		if a.Descriptor().Has(tag) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// Descriptors returns the descriptors of the actions declaring tag, ordered
// by Order then ID for listing
func (r *Registry) Descriptors(ctx context.Context, tag string) ([]Descriptor, error) {
	found, err := r.Discover(ctx, tag)
	if err != nil {
		return nil, err
	}

	descriptors := make([]Descriptor, 0, len(found))
	for _, a := range found {
		descriptors = append(descriptors, a.Descriptor())
	}
	sort.SliceStable(descriptors, func(i, j int) bool {
		if descriptors[i].Order != descriptors[j].Order {
			return descriptors[i].Order < descriptors[j].Order
		}
		return descriptors[i].ID < descriptors[j].ID
	})
	return descriptors, nil
}
