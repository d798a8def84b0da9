package graph

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"

	apperrors "github.com/platefull/platefull/pkg/errors"
	"github.com/platefull/platefull/pkg/httputil"
	"github.com/platefull/platefull/pkg/logger"
)

type ipContextKey struct{}

// WithClientIP returns a context carrying the caller's IP address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipContextKey{}, ip)
}

// ClientIPFromContext returns the caller's IP address, or empty.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipContextKey{}).(string)
	return ip
}

// request is the standard GraphQL-over-HTTP request body.
type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler serves GraphQL over HTTP POST. The gate authenticates the request
// before the schema executes anything.
type Handler struct {
	schema graphql.Schema
	gate   *Gate
	logger *slog.Logger
}

// NewHandler creates the GraphQL HTTP handler.
func NewHandler(schema graphql.Schema, gate *Gate, logger *slog.Logger) *Handler {
	return &Handler{
		schema: schema,
		gate:   gate,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, r, apperrors.InvalidInput("GraphQL requests must use POST"), h.logger)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}
	if req.Query == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("query is required"), h.logger)
		return
	}

	ctx := WithClientIP(r.Context(), clientIP(r))

	ctx, err := h.gate.Authenticate(ctx, req.Query, r.Header.Get("Authorization"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})

	if result.HasErrors() {
		logger.FromContext(ctx).WarnContext(ctx, "graphql request completed with errors",
			slog.Int("error_count", len(result.Errors)),
			slog.String("first_error", result.Errors[0].Message),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// clientIP extracts the caller's IP, honoring X-Forwarded-For from a proxy.
// Only the first hop of the header is used; the rest of the list is
// client-controlled and would let a caller rotate rate-limit keys at will.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
