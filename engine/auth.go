package engine

import (
	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/market"
)

// resolveCaller enforces spec.md §4.5's delegation rule for operations
// marked delegable: the caller is accepted iff they are the position owner,
// or hold an active Authorization from the owner.
func (e *Engine) resolveCaller(owner, caller [32]byte) error {
	if owner == caller {
		return nil
	}
	auth, err := e.state.GetAuthorization(owner, caller)
	if err != nil {
		return ErrUnauthorized
	}
	if auth == nil {
		return ErrUnauthorized
	}
	if auth.IsRevoked {
		return ErrAuthorizationRevoked
	}
	if !auth.IsAuthorized {
		return ErrUnauthorized
	}
	if auth.ExpiresAt != 0 && e.now() >= auth.ExpiresAt {
		return ErrAuthorizationExpired
	}
	return nil
}

// SetAuthorization grants or updates a delegation from authorizer to
// authorized. Once revoked, an authorization cannot be re-enabled
// (spec.md §3).
func (e *Engine) SetAuthorization(authorizer, authorized [32]byte, isAuthorized bool, expiresAt uint64) error {
	existing, err := e.state.GetAuthorization(authorizer, authorized)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsRevoked {
		return ErrAuthorizationRevoked
	}

	auth := existing
	if auth == nil {
		auth = &market.Authorization{Authorizer: authorizer, Authorized: authorized}
	}
	auth.IsAuthorized = isAuthorized
	auth.ExpiresAt = expiresAt

	if err := e.state.PutAuthorization(auth); err != nil {
		return err
	}
	e.emit(events.AuthorizationSet{
		Authorizer:   authorizer,
		Authorized:   authorized,
		IsAuthorized: isAuthorized,
		ExpiresAt:    expiresAt,
	})
	return nil
}

// RevokeAuthorization permanently disables a delegation grant.
func (e *Engine) RevokeAuthorization(authorizer, authorized [32]byte) error {
	auth, err := e.state.GetAuthorization(authorizer, authorized)
	if err != nil {
		return err
	}
	if auth == nil {
		auth = &market.Authorization{Authorizer: authorizer, Authorized: authorized}
	}
	auth.IsRevoked = true
	auth.IsAuthorized = false
	if err := e.state.PutAuthorization(auth); err != nil {
		return err
	}
	e.emit(events.AuthorizationRevoked{Authorizer: authorizer, Authorized: authorized})
	return nil
}
