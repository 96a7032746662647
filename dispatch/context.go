package dispatch

import (
	"context"
	"time"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
)

// Info describes the dispatch a context belongs to.
type Info struct {
	ID        string
	Kind      cqrs.Kind
	Message   string
	StartedAt time.Time
}

type infoCtx struct{}

func withInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoCtx{}, info)
}

// InfoFrom returns the Info attached by the dispatcher. ok is false outside a dispatch.
func InfoFrom(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoCtx{}).(Info)
	return info, ok
}
