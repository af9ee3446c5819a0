// This is a **mock authentication service**, designed to provide JWT tokens
// for the census service, simulating staff and employee sign-in.
package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/census/internal/census/auth"
	"github.com/gartstein/census/internal/census/models"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultPort   = "8081"
	defaultSecret = "change-me"
	defaultUserID = "12345"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type tokenService struct {
	secret string
	logger *zap.Logger
}

// tokenHandler issues a token for the user and role in the query string.
// The role defaults to employer staff.
func (s *tokenService) tokenHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = defaultUserID
	}
	role := models.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = models.RoleEmployer
	}
	if !role.Valid() {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	token, err := auth.GenerateToken(userID, role, s.secret)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(TokenResponse{Token: token, Role: string(role)}); err != nil {
		s.logger.Error("Failed to encode token", zap.Error(err))
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal("failed to load .env", zap.Error(err))
	}

	svc := &tokenService{secret: getenv("CENSUS_JWT_SECRET", defaultSecret), logger: logger}
	port := getenv("AUTH_PORT", defaultPort)

	mux := http.NewServeMux()
	mux.HandleFunc("/token", svc.tokenHandler)
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	logger.Info("Authentication service running", zap.String("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Authentication service failed", zap.Error(err))
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
