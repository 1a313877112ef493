package web

import "net/http"

// page renders a static page.
func (s *Server) page(name, title string) stage {
	return func(rc *requestCtx) (outcome, error) {
		rc.locals["Title"] = title
		s.render(rc.w, rc.r, http.StatusOK, name, rc.locals)
		return handled, nil
	}
}
