package domain

import "context"

type usageKey struct{}

// EmbeddingUsage collects provider usage for one HTTP request. The handler installs it in the
// context, the weights service fills it, and the handler reports it in response headers.
type EmbeddingUsage struct {
	TotalTokens int
	Texts       int
}

// ContextWithUsage returns a context carrying a fresh usage collector.
func ContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext returns the collector installed by ContextWithUsage, or nil.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(usageKey{}).(*EmbeddingUsage)
	return u
}

// Record adds a provider call's usage. Safe on a nil receiver.
func (u *EmbeddingUsage) Record(texts, tokens int) {
	if u == nil {
		return
	}
	u.Texts += texts
	u.TotalTokens += tokens
}
