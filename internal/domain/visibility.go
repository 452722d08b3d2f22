package domain

import "strings"

// CanView applies profile visibility to a ticket owned by destination and
// creatorID. Administrators see everything; other actors see tickets routed
// to their profile (case-insensitive) or created by them, and client scoped
// actors only inside their scope.
func (a *Actor) CanView(destination, creatorID string, clientScopeID *string) bool {
	if a == nil {
		return false
	}
	if a.Administrator {
		return true
	}
	if a.ClientScopeID != nil && (clientScopeID == nil || *clientScopeID != *a.ClientScopeID) {
		return false
	}
	return creatorID == a.ID || strings.EqualFold(destination, a.Profile)
}

// CanViewTicket is CanView for a loaded ticket.
func (a *Actor) CanViewTicket(t *Ticket) bool {
	if t == nil {
		return false
	}
	return a.CanView(t.DestinationProfile, t.Creator.ID, t.ClientScopeID)
}
