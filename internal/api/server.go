package api

import (
	"net/http"
)

// NewMux registers the web app endpoints.
func NewMux(settings *SettingsHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/webapp/settings", settings)
	return mux
}
