package http

import (
	"net/http"

	"spendtrack/internal/analytics"
)

// parseFilter reads range, start and end from the query string. Dates are
// resolved in the service clock's location.
func (s *Server) parseFilter(r *http.Request) (analytics.DateFilter, error) {
	q := r.URL.Query()
	return analytics.ParseFilter(q.Get("range"), q.Get("start"), q.Get("end"), s.svc.Now().Location())
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(s.svc.Analytics(f)).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	sum, err := s.svc.Summary(f)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(sum).Write(w)
}
