// Package auth resolves the calling Actor from a JWT bearer token and
// guards the mutating census operations over gRPC and HTTP.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/gartstein/census/internal/census/models"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ServicePrefix is the full-method prefix of the census gRPC service.
const ServicePrefix = "/census.v1.CensusService/"

// Interceptor holds the JWT secret and the set of protected methods.
type Interceptor struct {
	jwtSecret        string
	protectedMethods map[string]bool
}

type contextKey string

const (
	actorContextKey contextKey = "actor"
)

// protectedMethodNames change roster state and require a caller identity.
var protectedMethodNames = []string{
	"CreateCensusEmployee",
	"UpdateCensusEmployee",
	"TerminateEmployment",
	"Rehire",
	"ElectCobra",
	"TerminateCobra",
	"LinkEmployeeRole",
	"DelinkEmployeeRole",
	"ConstructEmployeeRole",
	"NewlyDesignate",
	"AssignBenefitGroup",
	"UpdateAssignmentCoverage",
	"SyncPersonIdentity",
}

// NewAuthInterceptor creates an Interceptor guarding the census mutations.
func NewAuthInterceptor(jwtSecret string) *Interceptor {
	protected := make(map[string]bool, len(protectedMethodNames))
	for _, name := range protectedMethodNames {
		protected[ServicePrefix+name] = true
	}

	return &Interceptor{
		jwtSecret:        jwtSecret,
		protectedMethods: protected,
	}
}

// Unary returns a gRPC unary interceptor that validates the bearer token on
// protected methods and stores the resolved Actor in the context.
func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if i.protectedMethods[info.FullMethod] {
			md, ok := metadata.FromIncomingContext(ctx)
			if !ok {
				return nil, status.Error(codes.Unauthenticated, "metadata missing")
			}

			tokenString, err := extractTokenFromMetadata(md)
			if err != nil {
				return nil, err
			}

			claims, err := validateToken(tokenString, i.jwtSecret)
			if err != nil {
				return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
			}

			actor, err := actorFromClaims(claims)
			if err != nil {
				return nil, status.Error(codes.PermissionDenied, err.Error())
			}
			ctx = WithActor(ctx, actor)
		}

		return handler(ctx, req)
	}
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the Actor resolved for the request, if any.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	return actor, ok
}

// extractTokenFromMetadata retrieves a Bearer token from gRPC metadata.
func extractTokenFromMetadata(md metadata.MD) (string, error) {
	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return "", status.Error(codes.Unauthenticated, "authorization header missing")
	}

	headerValue := authHeaders[0]
	if !strings.HasPrefix(headerValue, "Bearer ") {
		return "", status.Error(codes.Unauthenticated, "invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimPrefix(headerValue, "Bearer ")
	if tokenString == "" {
		return "", status.Error(codes.Unauthenticated, "invalid authorization format: empty token")
	}

	return tokenString, nil
}

// validateToken checks the token signature and returns parsed claims if valid.
func validateToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// actorFromClaims reads the subject and role claims. A token without a role
// acts as employer staff.
func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.Actor{}, fmt.Errorf("token subject missing")
	}

	role := models.RoleEmployer
	if raw, ok := claims[RoleClaim]; ok {
		s, ok := raw.(string)
		if !ok {
			return models.Actor{}, fmt.Errorf("role claim must be a string")
		}
		role = models.Role(s)
	}
	if !role.Valid() {
		return models.Actor{}, fmt.Errorf("unknown role %q", role)
	}

	return models.Actor{ID: sub, Role: role}, nil
}
