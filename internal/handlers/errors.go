package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError writes a JSON error body {"error": userMsg} with the given
// status. Every failure path goes through here: no endpoint returns a 200
// with an embedded error.
func respondError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, map[string]string{"error": userMsg})
}

// requireMethod enforces the HTTP method for a route, answering 405 with an
// Allow header otherwise. Returns false when the request was rejected.
func requireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}

	allow := ""
	for i, method := range methods {
		if i > 0 {
			allow += ", "
		}
		allow += method
	}
	w.Header().Set("Allow", allow)
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "", nil)
	return false
}
