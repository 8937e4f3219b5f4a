package core

import "context"

type requestMetaKey struct{}

// RequestMeta identifies the client behind a change, for event logs.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta attaches client metadata to ctx.
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

// RequestMetaFrom returns the metadata attached by WithRequestMeta, or the
// zero value.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}
