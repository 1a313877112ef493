package web

import (
	"errors"
	"net/http"

	"utnode/internal/application/orchestrators"
)

// Flash texts for the login flow.
const (
	flashLoggedIn    = "Logged in!"
	flashLoginFailed = "Failed to login."
	flashLoggedOut   = "You have been logged out!"
)

func (s *Server) loginView(rc *requestCtx) (outcome, error) {
	rc.locals["Title"] = "Login"
	s.render(rc.w, rc.r, http.StatusOK, "login", rc.locals)
	return handled, nil
}

// authenticate checks the credentials and, on success, attaches the identity
// to a freshly rotated session.
func (s *Server) authenticate(rc *requestCtx) (outcome, error) {
	if err := rc.r.ParseForm(); err != nil {
		return handled, err
	}
	result, err := orchestrators.ExecuteLogin(rc.r.Context(), orchestrators.LoginInput{
		Email:    rc.r.PostForm.Get("email"),
		Password: rc.r.PostForm.Get("password"),
	}, orchestrators.LoginDeps{Users: s.stores.Users})
	if errors.Is(err, orchestrators.ErrInvalidCredentials) {
		if err := s.sessions.AddFlash(rc.w, rc.r, "error", flashLoginFailed); err != nil {
			return handled, err
		}
		rc.redirectTo = "/users/login"
		return proceed, nil
	}
	if err != nil {
		return handled, err
	}

	if err := s.sessions.Login(rc.w, rc.r, result.UserID); err != nil {
		return handled, err
	}
	if err := s.sessions.AddFlash(rc.w, rc.r, "success", flashLoggedIn); err != nil {
		return handled, err
	}
	rc.redirectTo = "/"
	return proceed, nil
}

func (s *Server) logout(rc *requestCtx) (outcome, error) {
	if err := s.sessions.Logout(rc.w, rc.r); err != nil {
		return handled, err
	}
	if err := s.sessions.AddFlash(rc.w, rc.r, "success", flashLoggedOut); err != nil {
		return handled, err
	}
	rc.redirectTo = "/"
	return proceed, nil
}
