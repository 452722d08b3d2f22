package domain

// Actor is the caller identity resolved by the authorization layer.
// SupportAgent and Administrator are capabilities computed once from the
// actor's profile; the ticket core never inspects profile names itself.
type Actor struct {
	ID            string
	Name          string
	Email         string
	Profile       string
	ClientScopeID *string
	SupportAgent  bool
	Administrator bool
}

// Valid reports whether the actor carries the identity every operation needs.
func (a *Actor) Valid() bool {
	return a != nil && a.ID != "" && a.Profile != ""
}

// SenderRole returns the thread role used for messages written by the actor.
func (a *Actor) SenderRole() SenderRole {
	if a.SupportAgent || a.Administrator {
		return SenderRoleSupport
	}
	return SenderRoleUser
}

// Sender converts the actor into a thread sender.
func (a *Actor) Sender() Sender {
	return Sender{ID: a.ID, Name: a.Name, Role: a.SenderRole()}
}
