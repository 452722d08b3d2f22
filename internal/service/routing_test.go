package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestRoutingResolver(t *testing.T) {
	directory := staticCategories{
		"7": {ID: "7", Type: "Incidente", Priority: "Alta", DestinationProfile: "soporte"},
		"8": {ID: "8", Type: "Consulta"},
	}
	r := NewRoutingResolver(directory, "Media")
	ctx := context.Background()

	cases := []struct {
		name string
		in   RoutingInput
		want Route
	}{
		{"category defaults", RoutingInput{CategoryID: "7"}, Route{"Incidente", "Alta", "soporte"}},
		{"explicit overrides", RoutingInput{CategoryID: "7", Priority: strPtr("Baja"), Destination: strPtr("redes")}, Route{"Incidente", "Baja", "redes"}},
		{"blank explicit keeps default", RoutingInput{CategoryID: "7", Type: strPtr(" ")}, Route{"Incidente", "Alta", "soporte"}},
		{"unknown category", RoutingInput{CategoryID: "99"}, Route{Priority: "Media"}},
		{"default priority fills gap", RoutingInput{CategoryID: "8"}, Route{Type: "Consulta", Priority: "Media"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Resolve(ctx, tc.in))
		})
	}

	assert.Equal(t, Route{}, NewRoutingResolver(nil, "").Resolve(ctx, RoutingInput{CategoryID: "7"}))
}

func TestSLAPolicyEngine(t *testing.T) {
	engine := NewSLAPolicyEngine(staticRules{"Alta": {Priority: "Alta", FirstResponseMinutes: 30, ResolutionMinutes: 240}})
	ctx := context.Background()

	ticket := &domain.Ticket{Priority: "Alta", CreatedAt: t0}
	assert.True(t, engine.Stamp(ctx, ticket))
	assert.Equal(t, t0.Add(30*time.Minute), *ticket.SLAFirstResponseDeadline)
	assert.Equal(t, t0.Add(4*time.Hour), *ticket.SLAResolutionDeadline)

	untracked := &domain.Ticket{Priority: "Baja", CreatedAt: t0}
	assert.False(t, engine.Stamp(ctx, untracked))
	assert.Nil(t, untracked.SLAResolutionDeadline)

	first := t0.Add(time.Minute)
	assert.True(t, engine.StampFirstResponse(ticket, first))
	assert.False(t, engine.StampFirstResponse(ticket, first.Add(time.Hour)))
	assert.Equal(t, first, *ticket.FirstResponseAt)

	resolvedAt := t0.Add(time.Hour)
	resolved := &domain.Ticket{Priority: "Alta", CreatedAt: t0, ResolvedAt: &resolvedAt}
	assert.False(t, engine.Restamp(ctx, resolved))
	assert.Nil(t, resolved.SLAResolutionDeadline)
}
