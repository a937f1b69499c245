package logctx

import (
	"context"
	"log/slog"
)

// Handler adds request attributes found in the context to every record.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("path", rd.Path),
			slog.String("route", rd.Route),
			slog.String("remote_addr", rd.RemoteAddr),
		))
	}
	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

// New wraps base so request data in the context is logged.
func New(base slog.Handler) *slog.Logger {
	if _, ok := base.(Handler); ok {
		return slog.New(base)
	}
	return slog.New(Handler{Handler: base})
}

type requestDataKey struct{}

type RequestData struct {
	RequestID  string
	Method     string
	Path       string
	Route      string
	RemoteAddr string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

// RequestDataFrom returns the request data stored in ctx, if any.
func RequestDataFrom(ctx context.Context) (*RequestData, bool) {
	rd, ok := ctx.Value(requestDataKey{}).(*RequestData)
	return rd, ok
}
