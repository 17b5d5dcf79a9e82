package basecamp

import (
	"fmt"
	"net/http"

	"ganttview/internal/service"
)

// maxErrorBody caps how much of an error body is kept for diagnostics.
const maxErrorBody = 512

// APIError is a non-2xx answer from Basecamp. errors.Is matches it against
// the service error kind for its status.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func newAPIError(req *http.Request, r *response) *APIError {
	body := string(r.body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{
		StatusCode: r.status,
		Method:     req.Method,
		URL:        req.URL.Redacted(),
		Body:       body,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("basecamp: %s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports whether target is the error kind for this status.
func (e *APIError) Is(target error) bool {
	return target == service.KindForStatus(e.StatusCode)
}
