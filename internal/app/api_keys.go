package app

import (
	"crypto/subtle"
	"net/http"
)

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.IsInvalidAPIKey(r.URL.Query().Get("key"))
}

// IsInvalidAPIKey reports whether key is empty or unknown. Exempt keys are
// valid keys as well.
func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}
	for _, keys := range [][]string{app.Config.ApiKeys, app.Config.ExemptApiKeys} {
		for _, valid := range keys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
				return false
			}
		}
	}
	return true
}
