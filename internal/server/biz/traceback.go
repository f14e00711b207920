package biz

import (
	"context"

	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/tenant"
	"github.com/lorekeep/lorekeep/internal/traceback"
)

type TracebackServiceParams struct {
	fx.In

	Resolver *traceback.Resolver
}

func NewTracebackService(params TracebackServiceParams) *TracebackService {
	return &TracebackService{resolver: params.Resolver}
}

// TracebackService exposes retrieval-hit resolution to the API layer.
type TracebackService struct {
	resolver *traceback.Resolver
}

func (s *TracebackService) Resolve(ctx context.Context, tctx tenant.Context, hits []traceback.RankedHit) ([]traceback.Item, error) {
	return s.resolver.Resolve(ctx, tctx, hits)
}
