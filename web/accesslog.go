package web

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// secretParams are query parameters that carry bearer tokens in emailed links.
var secretParams = []string{"token"}

// redactingLogFormatter masks secret query values before the wrapped
// formatter records the request line.
type redactingLogFormatter struct {
	next middleware.LogFormatter
}

func (f redactingLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return f.next.NewLogEntry(redactRequest(r))
}

func redactRequest(r *http.Request) *http.Request {
	if r.URL == nil || r.URL.RawQuery == "" {
		return r
	}
	q := r.URL.Query()
	found := false
	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			found = true
		}
	}
	if !found {
		return r
	}
	clone := r.Clone(r.Context())
	clone.URL.RawQuery = q.Encode()
	clone.RequestURI = clone.URL.RequestURI()
	return clone
}

func (s *Server) accessLogger() func(http.Handler) http.Handler {
	return middleware.RequestLogger(redactingLogFormatter{
		next: &middleware.DefaultLogFormatter{Logger: s.accessLog, NoColor: true},
	})
}
