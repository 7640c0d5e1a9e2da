package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"welfaredesk/internal/db"
	"welfaredesk/internal/model"
)

type ctxKey int

const userKey ctxKey = iota

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

func (s *Server) signToken(u model.User, tokenType string) (string, error) {
	ttl := s.accessTTL
	if tokenType == tokenRefresh {
		ttl = s.refreshTTL
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      fmt.Sprint(u.ID),
		"user_id":  u.ID,
		"username": u.Username,
		"role":     string(u.Role),
		"type":     tokenType,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parseToken verifies signature, expiry and type, returning the user id.
func (s *Server) parseToken(tokenStr, tokenType string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}
	if t, _ := claims["type"].(string); t != tokenType {
		return 0, fmt.Errorf("not an %s token", tokenType)
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("user_id not found in token")
	}
	return int64(id), nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		if tokenStr == auth || tokenStr == "" {
			writeDetail(w, http.StatusUnauthorized, "Authorization header must contain two space-delimited values")
			return
		}

		id, err := s.parseToken(tokenStr, tokenAccess)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		u, err := db.GetUser(s.db, id)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "User not found",
				"code":   "user_not_found",
			})
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) model.User {
	u, _ := r.Context().Value(userKey).(model.User)
	return u
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}

	fieldErrs := map[string][]string{}
	if strings.TrimSpace(req.Username) == "" {
		fieldErrs["username"] = []string{msgRequired}
	}
	if req.Password == "" {
		fieldErrs["password"] = []string{msgRequired}
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}

	u, err := db.GetUserByUsername(s.db, strings.TrimSpace(req.Username))
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password))
	}
	if err != nil {
		s.metrics.logins.WithLabelValues("failure").Inc()
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access, err := s.signToken(u.User, tokenAccess)
	if err != nil {
		s.serverError(w, "failed to sign access token", err)
		return
	}
	refresh, err := s.signToken(u.User, tokenRefresh)
	if err != nil {
		s.serverError(w, "failed to sign refresh token", err)
		return
	}

	s.metrics.logins.WithLabelValues("success").Inc()
	s.logger.Info("login", "user", u.Username, "role", u.Role)
	writeJSON(w, http.StatusOK, map[string]any{
		"access":  access,
		"refresh": refresh,
		"user":    u.User,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}
	if req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {msgRequired}})
		return
	}

	id, err := s.parseToken(req.Refresh, tokenRefresh)
	var u db.UserRow
	if err == nil {
		u, err = db.GetUser(s.db, id)
	}
	if err != nil {
		s.metrics.refreshes.WithLabelValues("failure").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}

	access, err := s.signToken(u.User, tokenAccess)
	if err != nil {
		s.serverError(w, "failed to sign access token", err)
		return
	}
	refresh, err := s.signToken(u.User, tokenRefresh)
	if err != nil {
		s.serverError(w, "failed to sign refresh token", err)
		return
	}

	s.metrics.refreshes.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"access": access, "refresh": refresh})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
}
