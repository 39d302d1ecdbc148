package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// decodeJSONBody decodes the request body into v, rejecting unknown fields.
func decodeJSONBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseHistoryPath extracts the session ID from /sessions/{id}/history.
func parseHistoryPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/sessions/")
	if !ok {
		return "", false
	}
	sessionID, ok := strings.CutSuffix(rest, "/history")
	if !ok || sessionID == "" || strings.Contains(sessionID, "/") {
		return "", false
	}
	return sessionID, true
}
