package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/router"
)

var servePort int

// resolver is the routing surface the HTTP handlers need; the router
// satisfies it, and tests substitute a fake.
type resolver interface {
	Resolve(ctx context.Context, req *model.ResolutionRequest, opts router.Options) (*model.ResolutionResult, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resolution over HTTP with a streaming endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeHandler(e.Router),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// resolveRequest is the JSON body for both resolve endpoints.
type resolveRequest struct {
	Class      string   `json:"class"`
	EntityName string   `json:"entity_name,omitempty"`
	EntityURL  string   `json:"entity_url,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Message    string   `json:"message,omitempty"`
	Topics     []string `json:"topics,omitempty"`
	Scope      string   `json:"scope,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	NoFallback bool     `json:"no_fallback,omitempty"`
}

func newServeHandler(res resolver) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/v1/resolve", handleResolve(res))
	r.Post("/v1/resolve/stream", handleResolveStream(res))
	return r
}

// requestLogger tags each request with an id and logs its completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		start := time.Now()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
		zap.L().Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func handleResolve(res resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, opts, ok := decodeResolveRequest(w, r)
		if !ok {
			return
		}

		result, err := res.Resolve(r.Context(), req, opts)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// handleResolveStream runs a resolution while relaying its thought stream
// as server-sent events, ending with a result or error event.
func handleResolveStream(res resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, opts, ok := decodeResolveRequest(w, r)
		if !ok {
			return
		}

		flusher, canFlush := w.(http.Flusher)
		if !canFlush {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
			return
		}

		// Thoughts arrive on the provider's goroutine; the channel hands
		// them to this one. A full buffer drops rather than blocks the
		// resolution.
		thoughts := make(chan model.Thought, 64)
		req.Sink = func(t model.Thought) {
			select {
			case thoughts <- t:
			default:
			}
		}

		type outcome struct {
			result *model.ResolutionResult
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			result, err := res.Resolve(r.Context(), req, opts)
			done <- outcome{result: result, err: err}
		}()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case t := <-thoughts:
				writeSSE(w, "thought", t)
				flusher.Flush()
			case o := <-done:
				// Flush thoughts that raced the completion.
				for {
					select {
					case t := <-thoughts:
						writeSSE(w, "thought", t)
					default:
						if o.err != nil {
							writeSSE(w, "error", map[string]string{"error": o.err.Error()})
						} else {
							writeSSE(w, "result", o.result)
						}
						flusher.Flush()
						return
					}
				}
			case <-r.Context().Done():
				return
			}
		}
	}
}

// decodeResolveRequest parses and validates the shared request body. On
// failure it writes the error response and returns ok=false.
func decodeResolveRequest(w http.ResponseWriter, r *http.Request) (*model.ResolutionRequest, router.Options, bool) {
	var body resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, router.Options{}, false
	}
	if body.Class == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "class is required"})
		return nil, router.Options{}, false
	}

	req := &model.ResolutionRequest{
		Class:      model.TargetClass(body.Class),
		EntityName: body.EntityName,
		EntityURL:  body.EntityURL,
		Subject:    body.Subject,
		Message:    body.Message,
		Topics:     body.Topics,
		Scope:      body.Scope,
		Ctx:        r.Context(),
	}
	opts := router.Options{
		Preferred:     body.Provider,
		AllowFallback: !body.NoFallback,
	}
	return req, opts, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
