package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arcwave/nereus/internal/models"
	"github.com/arcwave/nereus/internal/settings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionCookie = "nsess"
	sessionTTL    = 7 * 24 * time.Hour
)

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// createSession stores a new session row and sets the cookie. The cookie
// carries "<sessionID>.<token>"; only the token's SHA-256 lands in the DB so
// a leaked sessions table cannot be replayed.
func (s *server) createSession(w http.ResponseWriter, r *http.Request, userID uint) error {
	id := uuid.NewString()
	token := uuid.NewString()
	sess := models.Session{
		ID:        id,
		UserID:    userID,
		TokenHash: hashToken(token),
		LoginUA:   r.UserAgent(),
		LoginXFF:  r.Header.Get("X-Forwarded-For"),
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	if err := s.db.Create(&sess).Error; err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id + "." + token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
}

// currentUser resolves the session cookie to a user, or nil for anonymous
// and invalid sessions alike.
func (s *server) currentUser(r *http.Request) *models.User {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	sid, token, ok := strings.Cut(c.Value, ".")
	if !ok || sid == "" || token == "" {
		return nil
	}
	var sess models.Session
	if err := s.db.Where("id = ?", sid).First(&sess).Error; err != nil {
		return nil
	}
	if time.Now().After(sess.ExpiresAt) {
		return nil
	}
	if !hmac.Equal([]byte(sess.TokenHash), []byte(hashToken(token))) {
		return nil
	}
	var u models.User
	if err := s.db.First(&u, sess.UserID).Error; err != nil {
		return nil
	}
	return &u
}

func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.currentUser(r); u != nil {
			next.ServeHTTP(w, r)
			return
		}
		respondError(w, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := s.currentUser(r)
		if u == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if u.Role != "admin" {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) registerAuth(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Get("/me", s.me)
		r.Post("/change-password", s.changePassword)
	})
}

func userJSON(u *models.User) map[string]any {
	return map[string]any{"id": u.ID, "email": u.Email, "role": u.Role, "mustChangePassword": u.MustChangePassword}
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	if !s.site.GetBool(settings.KeyAllowRegister) {
		respondError(w, http.StatusForbidden, "registration disabled")
		return
	}
	var in struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(in.Password) < 8 {
		respondError(w, http.StatusBadRequest, "password too short")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	u := models.User{Email: in.Email, Password: string(hash), Role: "user"}
	if err := s.db.Create(&u).Error; err != nil {
		// unique index on email
		respondError(w, http.StatusConflict, "email already registered")
		return
	}
	if err := s.createSession(w, r, u.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, userJSON(&u))
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var u models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// burn a comparison so a missing account costs the same as a wrong password
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uFakeFakeFakeFakeFakeFakeFaken"), []byte(in.Password))
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := s.createSession(w, r, u.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(&u))
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sid, _, ok := strings.Cut(c.Value, "."); ok {
			_ = s.db.Delete(&models.Session{}, "id = ?", sid).Error
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	if u == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (s *server) changePassword(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	if u == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in struct{ OldPassword, NewPassword string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(in.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "password too short")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.OldPassword)) != nil {
		respondError(w, http.StatusBadRequest, "invalid old password")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	u.Password = string(hash)
	u.MustChangePassword = false
	if err := s.db.Save(u).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
