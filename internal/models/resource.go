package models

import (
	"fmt"
	"sort"
	"strings"
)

// ResourceType discriminates the ResourceRef union.
type ResourceType string

const (
	ResourceSpace     ResourceType = "SPACE"
	ResourceEquipment ResourceType = "EQUIPMENT"
	ResourceWorkshop  ResourceType = "WORKSHOP"
)

// ParseResourceType accepts the canonical names and their plural path forms.
func ParseResourceType(raw string) (ResourceType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SPACE", "SPACES":
		return ResourceSpace, nil
	case "EQUIPMENT", "EQUIPMENTS":
		return ResourceEquipment, nil
	case "WORKSHOP", "WORKSHOPS":
		return ResourceWorkshop, nil
	default:
		return "", fmt.Errorf("unknown resource type %q", raw)
	}
}

// Schedulable reports whether the type can hold interval reservations and blocks.
func (t ResourceType) Schedulable() bool {
	return t == ResourceSpace || t == ResourceEquipment
}

// ResourceRef identifies exactly one bookable thing.
type ResourceRef struct {
	Type ResourceType `db:"resource_type" json:"type" validate:"required,oneof=SPACE EQUIPMENT WORKSHOP"`
	ID   string       `db:"resource_id" json:"id" validate:"required"`
}

// Key is a stable string form used for locking and cache keys.
func (r ResourceRef) Key() string {
	return string(r.Type) + ":" + r.ID
}

func (r ResourceRef) String() string {
	return r.Key()
}

// SortRefs orders refs by key and drops duplicates.
func SortRefs(refs []ResourceRef) []ResourceRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]ResourceRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.Key()]; ok {
			continue
		}
		seen[ref.Key()] = struct{}{}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
