package chat

import (
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	routeRAG    = "rag"
	routeDirect = "direct"
)

// Router decides whether a message is about the indexed documents.
type Router struct {
	keywords []string
	routes   *prometheus.CounterVec
}

// NewRouter matches messages against keywords. With no keywords every
// message goes to document search. routes may be nil.
func NewRouter(keywords []string, routes *prometheus.CounterVec) *Router {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Router{keywords: lowered, routes: routes}
}

// NeedsDocumentSearch reports whether message contains any keyword, ignoring case.
func (r *Router) NeedsDocumentSearch(message string) bool {
	if len(r.keywords) == 0 {
		r.count(routeRAG)
		return true
	}

	lower := strings.ToLower(message)
	for _, k := range r.keywords {
		if strings.Contains(lower, k) {
			slog.Info("Router: keyword found, routing to document search", "keyword", k)
			r.count(routeRAG)
			return true
		}
	}

	slog.Info("Router: no keyword found, routing to direct answer")
	r.count(routeDirect)
	return false
}

func (r *Router) count(route string) {
	if r.routes != nil {
		r.routes.WithLabelValues(route).Inc()
	}
}
