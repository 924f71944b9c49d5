package service

import "authsvc/internal/auth"

// IdentityService answers who the caller is. It trusts the principal: the
// token verification gate must run before it.
type IdentityService interface {
	WhoAmI(p auth.Principal) string
}

type identityService struct{}

// NewIdentityService creates an identity service.
func NewIdentityService() IdentityService {
	return identityService{}
}

func (identityService) WhoAmI(p auth.Principal) string {
	return p.ID
}
