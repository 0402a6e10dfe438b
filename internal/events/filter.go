package events

import (
	"slices"

	"github.com/kode4food/tartan/pkg/api"
)

// FilterProject selects events raised for the given project
func FilterProject(id api.ProjectID) Filter {
	return func(ev *api.Event) bool {
		return ev.ProjectID == id
	}
}

// FilterTypes selects events of any of the given types
func FilterTypes(types ...api.EventType) Filter {
	return func(ev *api.Event) bool {
		return slices.Contains(types, ev.Type)
	}
}

// AndFilters selects events matched by every given filter
func AndFilters(filters ...Filter) Filter {
	return func(ev *api.Event) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}

// BuildFilter creates a filter from a client subscription. An empty
// subscription matches every event
func BuildFilter(sub *api.ClientSubscription) Filter {
	var filters []Filter
	if sub.ProjectID != "" {
		filters = append(filters, FilterProject(sub.ProjectID))
	}
	if len(sub.EventTypes) > 0 {
		filters = append(filters, FilterTypes(sub.EventTypes...))
	}
	return AndFilters(filters...)
}
