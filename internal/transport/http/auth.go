package http

import (
	"net/http"

	"quizdeck-service/internal/domain"
)

// Authenticator resolves the caller's identity for a request. Real identity
// management (sign-in, tokens, cookies) lives in an external collaborator;
// the service only consumes its verdict.
type Authenticator interface {
	CurrentUser(r *http.Request) (domain.User, error)
}

// HeaderAuthenticator trusts identity headers stamped by an upstream auth
// gateway. Requests without the id header are unauthorized.
type HeaderAuthenticator struct {
	IDHeader   string
	NameHeader string
}

func NewHeaderAuthenticator() *HeaderAuthenticator {
	return &HeaderAuthenticator{
		IDHeader:   "X-User-ID",
		NameHeader: "X-User-Name",
	}
}

func (a *HeaderAuthenticator) CurrentUser(r *http.Request) (domain.User, error) {
	id := r.Header.Get(a.IDHeader)
	if id == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	return domain.User{ID: id, Name: r.Header.Get(a.NameHeader)}, nil
}
