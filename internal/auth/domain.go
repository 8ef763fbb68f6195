package auth

import "github.com/meridian-hr/meridian-hr/internal/identity"

// Credentials are the submitted login inputs.
type Credentials struct {
	Email    string
	Password string
}

// Session pairs a verified identity with its freshly issued token.
type Session struct {
	Identity *identity.Identity
	Token    string
}
