package tracker

import "context"

// Identity is the test a snapshot call is attributed to
type Identity struct {
	Class  string
	Method string
}

func (i Identity) String() string {
	return i.Class + "#" + i.Method
}

type identityKey struct{}

// WithIdentity returns a context carrying test identity
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns test identity carried by ctx
func IdentityFrom(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
