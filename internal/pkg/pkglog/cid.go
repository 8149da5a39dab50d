package pkglog

import "context"

type correlationKey struct{}

// GetCorrelationID returns the correlation ID carried by ctx, or "" when none
// was set.
//
// HTTP requests get one from the router middleware; queued research jobs use
// their event ID so every log line of a workflow run can be joined.
func GetCorrelationID(ctx context.Context) string {
	cid, _ := ctx.Value(correlationKey{}).(string)
	return cid
}

// SetCorrelationID stores cid into ctx.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cid)
}
