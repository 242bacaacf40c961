// Package foliotest provides a scripted Folio backend for client tests.
package foliotest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/foliohq/folio-cli/internal/models"
)

// DefaultEmail and DefaultPassword are the seeded test account.
const (
	DefaultEmail    = "ada@example.com"
	DefaultPassword = "secret123"
)

var signingKey = []byte("foliotest-signing-key")

// Server is a fake Folio backend. Knobs control refresh behaviour so tests
// can script expiry, single-flight, and failure fan-out scenarios.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	validToken    string
	refreshCalls  int
	refreshStatus int           // 0 means succeed
	refreshDelay  time.Duration // hold the refresh call open to let queues build
	requireCookie bool          // refresh demands the session cookie + CSRF header

	profile            models.Profile
	authRecords        []AuthRecord // requests observed on protected endpoints
	loginCount         int
	notificationEvents []models.Notification
}

// AuthRecord is one request observed on a protected endpoint.
type AuthRecord struct {
	Path          string
	Authorization string
}

// New starts a fake backend with a seeded profile and a valid credential.
func New() *Server {
	s := &Server{
		validToken: MintToken("user-1", time.Hour),
		profile: models.Profile{
			ID:       "profile-1",
			UserID:   "user-1",
			Headline: "Distributed Systems Engineer",
			Skills:   []string{"Go", "PostgreSQL"},
		},
	}

	r := chi.NewRouter()

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post("/session/logout", s.handleLogout)
		r.Get("/profile/me", s.handleProfile)
		r.Patch("/profile/me", s.handleUpdateProfile)
		r.Post("/profile/me/experiences", s.handleAddExperience)
		r.Delete("/profile/me/experiences/{id}", s.handleRemoveExperience)
		r.Post("/profile/me/skills", s.handleAddSkill)
		r.Delete("/profile/me/skills/{name}", s.handleRemoveSkill)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/notifications", s.handleNotifications)
		r.Get("/notifications/events", s.handleEvents)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// MintToken issues a signed JWT usable as an access token.
func MintToken(subject string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic("foliotest: mint token: " + err.Error())
	}
	return token
}

// ValidToken returns the token the server currently accepts.
func (s *Server) ValidToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validToken
}

// SetValidToken replaces the accepted token, invalidating whatever clients hold.
func (s *Server) SetValidToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validToken = token
}

// FailRefresh makes the refresh endpoint answer with the given status.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatus = status
}

// DelayRefresh holds each refresh call open for d before answering.
func (s *Server) DelayRefresh(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// RequireSessionCookie makes refresh demand the login cookie and matching
// CSRF header, as the production backend does.
func (s *Server) RequireSessionCookie(require bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireCookie = require
}

// RefreshCalls reports how many refresh calls hit the wire.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// AuthRecords returns the requests observed on protected endpoints, in
// arrival order.
func (s *Server) AuthRecords() []AuthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuthRecord(nil), s.authRecords...)
}

// PushEvent queues a notification for the events endpoint.
func (s *Server) PushEvent(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notificationEvents = append(s.notificationEvents, n)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		s.mu.Lock()
		s.authRecords = append(s.authRecords, AuthRecord{Path: r.URL.RequestURI(), Authorization: header})
		valid := s.validToken
		s.mu.Unlock()

		if header != "Bearer "+valid {
			writeDetail(w, http.StatusUnauthorized, "token expired or invalid")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Email == "" || params.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}
	writeJSON(w, http.StatusCreated, models.User{
		ID:        "user-2",
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	// A stale bearer header on login would leak the credential to an
	// endpoint that must never see it; tests assert this stays empty.
	if r.Header.Get("Authorization") != "" {
		writeDetail(w, http.StatusBadRequest, "unexpected authorization header on login")
		return
	}

	var params struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "malformed body")
		return
	}
	if params.Email != DefaultEmail || params.Password != DefaultPassword {
		writeDetail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.mu.Lock()
	s.loginCount++
	token := MintToken("user-1", time.Hour)
	s.validToken = token
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "refresh_session", Value: "session-user-1", HttpOnly: true, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "csrf_token", Value: "csrf-abc", Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"user":         models.User{ID: "user-1", Email: DefaultEmail, FirstName: "Ada"},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	status := s.refreshStatus
	delay := s.refreshDelay
	requireCookie := s.requireCookie
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if requireCookie {
		cookie, err := r.Cookie("refresh_session")
		if err != nil || cookie.Value == "" {
			writeDetail(w, http.StatusUnauthorized, "no session")
			return
		}
		if r.Header.Get("X-CSRF-Token") != "csrf-abc" {
			writeDetail(w, http.StatusForbidden, "csrf token mismatch")
			return
		}
	}

	if status != 0 {
		writeDetail(w, status, "session expired")
		return
	}

	s.mu.Lock()
	token := MintToken("user-1", time.Hour)
	s.validToken = token
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.validToken = ""
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	profile := s.profile
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "malformed body")
		return
	}

	s.mu.Lock()
	if update.Headline != nil {
		s.profile.Headline = *update.Headline
	}
	if update.Summary != nil {
		s.profile.Summary = *update.Summary
	}
	if update.Location != nil {
		s.profile.Location = *update.Location
	}
	if update.Skills != nil {
		s.profile.Skills = *update.Skills
	}
	profile := s.profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	var exp models.Experience
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil || exp.Title == "" || exp.Company == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "title and company are required")
		return
	}

	s.mu.Lock()
	exp.ID = fmt.Sprintf("exp-%d", len(s.profile.Experiences)+1)
	s.profile.Experiences = append(s.profile.Experiences, exp)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, exp)
}

func (s *Server) handleRemoveExperience(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, exp := range s.profile.Experiences {
		if exp.ID == id {
			s.profile.Experiences = append(s.profile.Experiences[:i], s.profile.Experiences[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "experience not found")
}

func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	s.mu.Lock()
	s.profile.Skills = append(s.profile.Skills, params.Name)
	profile := s.profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleRemoveSkill(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, skill := range s.profile.Skills {
		if skill == name {
			s.profile.Skills = append(s.profile.Skills[:i], s.profile.Skills[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "skill not found")
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.Dashboard{
		Completeness: models.CompletenessWidget{Percent: 70, Missing: []string{"summary", "education"}},
		RecentViews:  []models.ProfileView{{ViewerName: "Grace", ViewedAt: "2026-08-29T10:00:00Z"}},
		Suggestions:  []models.Suggestion{{Kind: "skill", Message: "Add your top skills"}},
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	all := []models.Notification{
		{ID: "n1", Kind: "view", Message: "Grace viewed your profile", Read: false, CreatedAt: "2026-08-29T10:00:00Z"},
		{ID: "n2", Kind: "system", Message: "Welcome to Folio", Read: true, CreatedAt: "2026-08-28T09:00:00Z"},
	}
	if r.URL.Query().Get("unread") == "true" {
		unread := all[:0:0]
		for _, n := range all {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		all = unread
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events := append([]models.Notification(nil), s.notificationEvents...)
	s.notificationEvents = nil
	s.mu.Unlock()

	cursor := r.URL.Query().Get("cursor")
	next := cursor
	if len(events) > 0 {
		next = fmt.Sprintf("cursor-%s", events[len(events)-1].ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "cursor": next})
}

// BearerOf strips the scheme from an Authorization header value.
func BearerOf(header string) string {
	return strings.TrimPrefix(header, "Bearer ")
}
