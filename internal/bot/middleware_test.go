package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	logx "nasabot/pkg/logx"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *Request) error {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	h := Chain(func(context.Context, *Request) error {
		order = append(order, "handler")
		return nil
	}, mw("outer"), mw("inner"))

	if err := h(context.Background(), &Request{}); err != nil {
		t.Fatalf("chain: %v", err)
	}
	if got := strings.Join(order, ","); got != "outer,inner,handler" {
		t.Fatalf("order = %s", got)
	}
}

func TestMWPanicRecover(t *testing.T) {
	h := Chain(func(context.Context, *Request) error {
		panic("boom")
	}, MWPanicRecover(logx.Nop()))

	err := h(context.Background(), &Request{})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("recovered err = %v", err)
	}
}

func TestMWTimeout(t *testing.T) {
	h := Chain(func(ctx context.Context, _ *Request) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	}, MWTimeout(10*time.Millisecond))

	if err := h(context.Background(), &Request{}); err != context.DeadlineExceeded {
		t.Fatalf("err = %v; want deadline exceeded", err)
	}
}
