package secrets

import "context"

type bundleCtxKey struct{}

type runEnvCtxKey struct{}

// WithBundle returns a context carrying the run's resolved secret bundle.
func WithBundle(ctx context.Context, b *Bundle) context.Context {
	return context.WithValue(ctx, bundleCtxKey{}, b)
}

// BundleFrom extracts the run's secret bundle, or nil when no secrets were
// resolved for this run.
func BundleFrom(ctx context.Context) *Bundle {
	b, _ := ctx.Value(bundleCtxKey{}).(*Bundle)
	return b
}

// WithRunEnv returns a context carrying the run's environment, the merge of
// the flow's env block and its resolved secrets.
func WithRunEnv(ctx context.Context, env map[string]string) context.Context {
	return context.WithValue(ctx, runEnvCtxKey{}, env)
}

// RunEnvFrom extracts the run environment, or nil when none was composed.
func RunEnvFrom(ctx context.Context) map[string]string {
	env, _ := ctx.Value(runEnvCtxKey{}).(map[string]string)
	return env
}
