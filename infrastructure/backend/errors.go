package backend

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"condowater/models"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Logs    []models.BackendLog
}

func (e *APIError) Error() string {
	return e.Message
}

// BackendLogs returns the structured logs the backend attached to the error.
func (e *APIError) BackendLogs() []models.BackendLog {
	return e.Logs
}

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Logs    []models.BackendLog `json:"logs"`
}

func parseError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Logs = body.Logs
		switch {
		case body.Error != "":
			apiErr.Message = body.Error
		case body.Message != "":
			apiErr.Message = body.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = "request failed: " + http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// IsUnauthorized reports whether err is a 401 from the backend, which means
// the stored token is missing, invalid or expired.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
