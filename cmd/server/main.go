package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"koe/agent/internal/api"
	"koe/agent/internal/config"
	"koe/agent/internal/dispatch"
	"koe/agent/internal/floor"
	"koe/agent/internal/lexicon"
	"koe/agent/internal/store"
	"koe/agent/internal/workerws"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// A bad lexicon fails here, at startup, never at decision time.
	cls, err := lexicon.NewClassifier(cfg.Engine.IgnoreWords, cfg.Engine.CommandWords, cfg.Engine.FuzzyThreshold)
	if err != nil {
		log.Fatalf("lexicon: %v", err)
	}

	st := store.New()
	reg := workerws.NewRegistry()
	ctl := dispatch.NewWorkerControl(reg, st)
	eng := floor.NewEngine(cls, st, dispatch.New(ctl), floor.Options{
		TranscriptWait:  time.Duration(cfg.Engine.TranscriptWaitMs) * time.Millisecond,
		TimeoutFallback: fallbackAction(cfg.Engine.TimeoutFallback),
		Guard:           time.Duration(cfg.Engine.GuardMs) * time.Millisecond,
		MaxSpeech:       time.Duration(cfg.Engine.MaxSpeechSeconds) * time.Second,
	})

	h := api.NewHandlers(cfg, st, eng)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.Handle("/metrics", promhttp.Handler())

	wss := workerws.NewServer(cfg, st, reg, eng)
	mux.HandleFunc("/ws/worker", wss.HandleWorkerWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		reg.CloseAll()
		for _, id := range st.ListSessionIDs() {
			eng.ResetSession(id)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func fallbackAction(s string) floor.Action {
	if s == "ignore" {
		return floor.ActionIgnore
	}
	return floor.ActionInterrupt
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
