package http

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/cimillas/ticket-issuer/internal/app"
)

// StatsReader is the minimal interface needed for the summary page.
type StatsReader interface {
	Stats(ctx context.Context) (app.Stats, error)
}

var summaryPage = template.Must(template.New("summary").Parse(`<html>
  <body>
    <p>Total Tickets Generated: {{.TotalCount}}</p>
  </body>
</html>
`))

// HandleSummary renders the total ticket count at the site root. Any other
// path falls through to a JSON 404.
func HandleSummary(svc StatsReader, logger *slog.Logger) http.HandlerFunc {
	logger = resolveLogger(logger)
	notFound := NotFoundHandler()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			notFound.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, "GET, HEAD")
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "error fetching ticket count", "err", err)
			http.Error(w, msgInternalError, http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := summaryPage.Execute(&buf, stats); err != nil {
			logger.ErrorContext(r.Context(), "error rendering summary", "err", err)
			http.Error(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
