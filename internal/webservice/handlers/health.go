package handlers

import (
	"fmt"
	"net/http"
)

// HealthHandler handles requests to the /health endpoint.
//
// It reports readiness only: the process serving requests is the signal, the
// payload store state does not influence the answer.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
