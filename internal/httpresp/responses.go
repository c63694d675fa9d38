// Package httpresp holds the JSON response envelope and request-parsing
// helpers shared by every REST handler, in the style of
// activity-hub-common/http/responses.go.
package httpresp

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorBody is the {error, details?} envelope every failing REST call returns.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessJSON writes data as a JSON body with the given status code.
func SuccessJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ failed to encode JSON response: %v", err)
	}
}

// ErrorJSON writes the {error, details?} envelope with the given status code.
func ErrorJSON(w http.ResponseWriter, message string, statusCode int) {
	ErrorJSONWithDetails(w, message, "", statusCode)
}

// ErrorJSONWithDetails is ErrorJSON with an additional details field.
func ErrorJSONWithDetails(w http.ResponseWriter, message, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorBody{Error: message, Details: details}); err != nil {
		log.Printf("❌ failed to encode error JSON: %v", err)
	}
}

// ParseJSON decodes a JSON request body into target.
func ParseJSON(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
