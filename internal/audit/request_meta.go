package audit

import "context"

// RequestMeta is the request metadata captured on each record.
//
// The HTTP layer resolves the client IP (gin's ClientIP honours trusted proxies)
// and attaches it with WithRequestMeta; internal layers only read it.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	if m == (RequestMeta{}) {
		return ctx
	}
	return context.WithValue(ctx, requestMetaKey{}, m)
}

func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if m, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return m
	}
	return RequestMeta{}
}
