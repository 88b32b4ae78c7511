package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"cermont/bootstrap"
	"cermont/config"
	"cermont/models"

	"go.uber.org/zap"
)

var (
	app     *bootstrap.App
	initErr error
	once    sync.Once
)

func initApp() {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		log, err := bootstrap.NewLogger(cfg)
		if err != nil {
			log = zap.NewNop()
		}
		app, initErr = bootstrap.New(context.Background(), cfg, log)
	})
}

// Handler is the serverless entry point; the app is built once per instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	initApp()
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Message: "Service unavailable",
			Error:   initErr.Error(),
		})
		return
	}
	app.Router.ServeHTTP(w, r)
}
