package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/MobilityData/gtfs-validator-sub012/internal/config"
	"github.com/MobilityData/gtfs-validator-sub012/internal/logging"
)

// APIKeyAuth checks the X-API-Key header against the configured keys.
// It lets every request through when cfg.RequireAPIKey is false.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			switch {
			case key == "":
				logging.FromContext(r.Context()).Warn("auth: missing API key",
					"path", r.URL.Path, "remote_addr", r.RemoteAddr)
				denied(w, http.StatusUnauthorized, "missing API key", "AUTH001")
			case !isValidAPIKey(key, cfg.APIKeys):
				logging.FromContext(r.Context()).Warn("auth: invalid API key",
					"path", r.URL.Path, "remote_addr", r.RemoteAddr)
				denied(w, http.StatusForbidden, "invalid API key", "AUTH002")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func denied(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "message": message, "code": code})
}

// isValidAPIKey compares key against every configured key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
