package auth

import "context"

const (
	RoleAdmin     = "admin"
	RoleFrontDesk = "front_desk"
)

// Actor is the employee on whose behalf an operation runs. It is passed explicitly to
// every service call that writes an audit entry.
type Actor struct {
	EmployeeID int64
	Username   string
	Role       string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func ActorFromClaims(c *Claims) Actor {
	return Actor{EmployeeID: c.Sub, Username: c.Username, Role: c.Role}
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
