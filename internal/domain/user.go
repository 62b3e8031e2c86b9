package domain

import (
	"context"
	"errors"
)

// Role represents an operator's access level
type Role string

const (
	// RoleAdmin can run sweeps, force resolutions and create accounts
	RoleAdmin Role = "admin"

	// RoleOperator can resolve freezes and read everything
	RoleOperator Role = "operator"

	// RoleService is used by the purchase front end and provider callbacks
	RoleService Role = "service"

	// RoleViewer can only read
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleService:  true,
	RoleViewer:   true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanResolve checks if the role may commit or refund freezes
func (r Role) CanResolve() bool {
	return r == RoleAdmin || r == RoleOperator || r == RoleService
}

// CanSweep checks if the role may trigger an expiry sweep
func (r Role) CanSweep() bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanManageAccounts checks if the role can create accounts and deposit
func (r Role) CanManageAccounts() bool {
	return r == RoleAdmin
}

// Actor identifies who initiated a request.
type Actor struct {
	Subject string
	Role    Role
}

type actorKey struct{}

// ContextWithActor stores the actor on ctx.
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the request actor, or SystemActor with admin rights
// when none was attached.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{Subject: SystemActor, Role: RoleAdmin}
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
