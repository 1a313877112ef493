package web

import (
	"errors"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"utnode/internal/adapters/storage/document"
)

// outcome tells the pipeline whether to run the next stage.
type outcome int

const (
	proceed outcome = iota
	handled         // the stage wrote the response
)

// requestCtx is the state shared by the stages of one request.
type requestCtx struct {
	s      *Server
	w      http.ResponseWriter
	r      *http.Request
	id     string
	locals map[string]any

	// record and input carry the typed values of a resource between stages.
	record any
	input  any

	// redirectTo is the base path redirectView sends the client to.
	redirectTo string
	withID     bool
}

// stage is one unit of request handling. Returning handled or an error stops the pipeline.
type stage func(rc *requestCtx) (outcome, error)

// pipeline runs stages in order for each request.
// INVARIANT: Exactly one response is written: by a stage, or by fail on error
func (s *Server) pipeline(stages ...stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := &requestCtx{
			s:      s,
			w:      w,
			r:      r,
			id:     chi.URLParam(r, "id"),
			locals: map[string]any{},
		}
		for _, st := range stages {
			out, err := st(rc)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			if out == handled {
				return
			}
		}
		// A pipeline that never writes is a wiring bug.
		s.fail(w, r, errors.New("pipeline ended without a response"))
	}
}

// fail answers a request whose pipeline returned an error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, document.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	s.internalError(w, r, err)
}

// redirectView issues the single redirect of a write operation.
// PRE: an earlier stage set rc.redirectTo
func redirectView(rc *requestCtx) (outcome, error) {
	target := rc.redirectTo
	if rc.withID {
		target = path.Join(target, rc.id)
	}
	http.Redirect(rc.w, rc.r, target, http.StatusSeeOther)
	return handled, nil
}
