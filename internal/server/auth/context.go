package auth

import "context"

type ctxKey string

const emailKey ctxKey = "email"

// WithEmail returns a copy of ctx carrying the verified caller email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// EmailFromContext returns the verified caller email, if any.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}
