package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorCanView(t *testing.T) {
	scopeA, scopeB := "client-a", "client-b"
	ticket := &Ticket{DestinationProfile: "Soporte", Creator: Creator{ID: "u-1"}, ClientScopeID: &scopeA}

	cases := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{"administrator", &Actor{ID: "x", Profile: "admin", Administrator: true}, true},
		{"matching profile ignores case", &Actor{ID: "a", Profile: "soporte"}, true},
		{"creator", &Actor{ID: "u-1", Profile: "cliente"}, true},
		{"creator in own scope", &Actor{ID: "u-1", Profile: "cliente", ClientScopeID: &scopeA}, true},
		{"other profile", &Actor{ID: "u-2", Profile: "cliente"}, false},
		{"profile match outside scope", &Actor{ID: "a", Profile: "soporte", ClientScopeID: &scopeB}, false},
		{"nil actor", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.actor.CanViewTicket(ticket))
		})
	}
}
