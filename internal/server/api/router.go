package api

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

// Request carries one decoded command: route parameters bound from the path
// and the raw payload that followed it.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response holds the JSON body to send back. Empty means a bare OK line.
type Response struct {
	JSON string
}

// HandlerFunc processes one request/response command. The logger is
// connection-scoped, enriched with the remote address by the server.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// StreamHandlerFunc serves a long-lived connection. The handler owns conn
// until it returns; a returned error is logged by the server, not sent to
// the peer.
type StreamHandlerFunc func(conn net.Conn, req *Request, logger *slog.Logger) error

// segment is one compiled piece of a route pattern. A non-empty param name
// marks a {placeholder} that captures the matching path part.
type segment struct {
	literal string
	param   string
}

// compileRoute splits a pattern like "profiles/{vid}/{pid}/get" into
// matchable segments. Literals are lowercased; parameter names keep their
// case.
func compileRoute(pattern string) []segment {
	parts := strings.Split(pattern, "/")
	segs := make([]segment, len(parts))
	for i, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			segs[i] = segment{param: part[1 : len(part)-1]}
			continue
		}
		segs[i] = segment{literal: strings.ToLower(part)}
	}
	return segs
}

// bindRoute matches already-split path parts against compiled segments and
// collects placeholder values.
func bindRoute(segs []segment, parts []string) (map[string]string, bool) {
	if len(segs) != len(parts) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range segs {
		if seg.param != "" {
			params[seg.param] = parts[i]
			continue
		}
		if seg.literal != parts[i] {
			return nil, false
		}
	}
	return params, true
}

type route[H any] struct {
	segs    []segment
	handler H
}

// Router matches command paths with {name} placeholders onto handlers.
// Request/response routes and stream routes live in separate tables; the
// server tries Match first, then MatchStream.
type Router struct {
	routes  []route[HandlerFunc]
	streams []route[StreamHandlerFunc]
}

func NewRouter() *Router { return &Router{} }

// Register adds a request/response route for a pattern like
// "profiles/{vid}/{pid}/get". Patterns are compiled once here, not on every
// match.
func (r *Router) Register(pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, route[HandlerFunc]{segs: compileRoute(pattern), handler: handler})
}

// RegisterStream adds a route whose handler takes over the connection.
func (r *Router) RegisterStream(pattern string, handler StreamHandlerFunc) {
	r.streams = append(r.streams, route[StreamHandlerFunc]{segs: compileRoute(pattern), handler: handler})
}

// Match returns the handler and bound parameters for path, or nil when no
// route fits.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	parts := strings.Split(strings.ToLower(path), "/")
	for _, rt := range r.routes {
		if params, ok := bindRoute(rt.segs, parts); ok {
			return rt.handler, params
		}
	}
	return nil, nil
}

// MatchStream is Match over the stream-route table.
func (r *Router) MatchStream(path string) (StreamHandlerFunc, map[string]string) {
	parts := strings.Split(strings.ToLower(path), "/")
	for _, rt := range r.streams {
		if params, ok := bindRoute(rt.segs, parts); ok {
			return rt.handler, params
		}
	}
	return nil, nil
}
