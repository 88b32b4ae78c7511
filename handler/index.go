package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"cermont/models"
)

var startedAt = time.Now()

type liveness struct {
	Service string `json:"service"`
	Env     string `json:"env"`
	Uptime  string `json:"uptime"`
	Time    string `json:"time"`
}

// Handler answers liveness probes without touching the database.
func Handler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	_ = json.NewEncoder(w).Encode(models.Response{
		Success: true,
		Message: "Cermont API is running",
		Data: liveness{
			Service: "cermont",
			Env:     env,
			Uptime:  time.Since(startedAt).Round(time.Second).String(),
			Time:    time.Now().UTC().Format(time.RFC3339),
		},
	})
}
