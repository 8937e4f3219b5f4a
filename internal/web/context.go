package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/biomed/internal/core"
)

// WithRequestMetadata attaches the client address and user agent to ctx so
// recorded events can be traced back to a caller. RemoteAddr has already
// been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithRequestMeta(ctx, core.RequestMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}
