package auth

import (
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// Policy turns profile labels into capabilities once, at authentication time.
type Policy struct {
	administrators map[string]struct{}
	supportAgents  map[string]struct{}
}

// NewPolicy builds a policy from the configured profile lists.
func NewPolicy(adminProfiles, supportProfiles []string) *Policy {
	return &Policy{
		administrators: profileSet(adminProfiles),
		supportAgents:  profileSet(supportProfiles),
	}
}

func profileSet(profiles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

// IsAdministrator reports whether profile is one of the privileged profiles.
func (p *Policy) IsAdministrator(profile string) bool {
	_, ok := p.administrators[strings.ToLower(strings.TrimSpace(profile))]
	return ok
}

// IsSupportAgent reports whether messages from profile count as support replies.
// Administrators always do.
func (p *Policy) IsSupportAgent(profile string) bool {
	if p.IsAdministrator(profile) {
		return true
	}
	_, ok := p.supportAgents[strings.ToLower(strings.TrimSpace(profile))]
	return ok
}

// Actor resolves the actor context for verified claims.
func (p *Policy) Actor(claims *Claims) *domain.Actor {
	return &domain.Actor{
		ID:            claims.Subject,
		Name:          claims.Name,
		Email:         claims.Email,
		Profile:       claims.Profile,
		ClientScopeID: claims.ClientScope,
		SupportAgent:  p.IsSupportAgent(claims.Profile),
		Administrator: p.IsAdministrator(claims.Profile),
	}
}
