package graph

import (
	"context"
	"log/slog"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	apperrors "github.com/platefull/platefull/pkg/errors"

	"github.com/platefull/platefull/internal/auth"
	"github.com/platefull/platefull/internal/service"
)

// exemptOperations are the top-level fields a request may select without
// presenting a token. Introspection fields (double underscore prefix) are
// always exempt.
var exemptOperations = map[string]struct{}{
	"createAccount": {},
	"login":         {},
	"verifyEmail":   {},
}

// Gate authenticates GraphQL requests before execution. A request selecting
// only exempt operations passes through untouched; any other request with a
// bearer token must present a valid one or execution is refused outright.
type Gate struct {
	jwt    *auth.JWTManager
	users  *service.UserService
	logger *slog.Logger
}

// NewGate creates a request authenticator.
func NewGate(jwt *auth.JWTManager, users *service.UserService, logger *slog.Logger) *Gate {
	return &Gate{
		jwt:    jwt,
		users:  users,
		logger: logger,
	}
}

// Authenticate inspects the Authorization header and the query document and
// returns a context carrying the authenticated user. Requests without a
// token proceed anonymously and the guards decide what they may do. A
// malformed or invalid token on a non-exempt request is refused with
// Unauthorized before any resolver runs.
func (g *Gate) Authenticate(ctx context.Context, query, authHeader string) (context.Context, error) {
	if isExemptQuery(query) {
		return ctx, nil
	}

	token, ok := bearerToken(authHeader)
	if !ok {
		if authHeader != "" {
			return nil, apperrors.Unauthorized("malformed authorization header")
		}
		return ctx, nil
	}

	claims, err := g.jwt.Validate(token)
	if err != nil {
		g.logger.DebugContext(ctx, "rejected invalid access token",
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	user, err := g.users.GetProfile(ctx, claims.UserID)
	if err != nil {
		// A token for a deleted account is as invalid as a forged one.
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	return auth.WithUser(ctx, user), nil
}

// bearerToken extracts the token from an Authorization header. The second
// return value is false when no bearer token is present.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// isExemptQuery reports whether every top-level field selected by the query
// is exempt from authentication. Unparseable queries are not exempt; the
// executor will produce the syntax error after the gate passes judgment.
func isExemptQuery(query string) bool {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(query), Name: "request"}),
	})
	if err != nil {
		return false
	}

	sawField := false
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok || op.SelectionSet == nil {
			continue
		}
		for _, sel := range op.SelectionSet.Selections {
			field, ok := sel.(*ast.Field)
			if !ok || field.Name == nil {
				return false
			}
			sawField = true
			name := field.Name.Value
			if strings.HasPrefix(name, "__") {
				continue
			}
			if _, exempt := exemptOperations[name]; !exempt {
				return false
			}
		}
	}

	return sawField
}
