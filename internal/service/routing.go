package service

import (
	"context"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CategoryDirectory exposes read-only routing defaults per category.
type CategoryDirectory interface {
	Category(ctx context.Context, id string) (domain.Category, bool)
}

// RoutingInput carries the explicit routing fields of a creation request.
type RoutingInput struct {
	Type        *string
	Priority    *string
	Destination *string
	CategoryID  string
}

// Route is the resolved classification of a new ticket.
type Route struct {
	Type               string
	Priority           string
	DestinationProfile string
}

// RoutingResolver decides type, priority and owning profile for new tickets.
type RoutingResolver struct {
	directory       CategoryDirectory
	defaultPriority string
}

// NewRoutingResolver builds a resolver; directory may be nil.
func NewRoutingResolver(directory CategoryDirectory, defaultPriority string) *RoutingResolver {
	return &RoutingResolver{directory: directory, defaultPriority: strings.TrimSpace(defaultPriority)}
}

// Resolve starts from the category defaults and lets every non-empty explicit
// field override its default. An unknown category yields empty defaults.
func (r *RoutingResolver) Resolve(ctx context.Context, in RoutingInput) Route {
	var route Route
	if r.directory != nil && strings.TrimSpace(in.CategoryID) != "" {
		if category, ok := r.directory.Category(ctx, in.CategoryID); ok {
			route = Route{
				Type:               category.Type,
				Priority:           category.Priority,
				DestinationProfile: category.DestinationProfile,
			}
		}
	}
	override(&route.Type, in.Type)
	override(&route.Priority, in.Priority)
	override(&route.DestinationProfile, in.Destination)
	if route.Priority == "" {
		route.Priority = r.defaultPriority
	}
	return route
}

func override(dst *string, explicit *string) {
	if explicit == nil {
		return
	}
	if v := strings.TrimSpace(*explicit); v != "" {
		*dst = v
	}
}
