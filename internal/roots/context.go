package roots

import "context"

type policyKey struct{}

// WithPolicy attaches the policy a transport resolved for this request.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	return context.WithValue(ctx, policyKey{}, p)
}

// PolicyFromContext returns the attached policy, or nil.
func PolicyFromContext(ctx context.Context) *Policy {
	p, _ := ctx.Value(policyKey{}).(*Policy)
	return p
}
