package ports

import "context"

type Analytics interface {
	Track(ctx context.Context, event string, fields map[string]any)
}

type NopAnalytics struct{}

func (NopAnalytics) Track(context.Context, string, map[string]any) {}
