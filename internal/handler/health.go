package handler

import (
	"net/http"
)

// HandleHealthz reports that the server is up and which store backs it.
func HandleHealthz(storeDriver string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": storeDriver})
	}
}
