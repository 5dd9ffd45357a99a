package site

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewServer creates the preview server: the output directory as static files,
// plus a live archive page and read-only JSON endpoints.
func NewServer(layout ops.Layout, cfg *config.Config, version, bind string, port int) *http.Server {
	h := &Handlers{
		layout:   layout,
		cfg:      cfg,
		renderer: DefaultRenderer(version),
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           securityHeaders(h.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (h *Handlers) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /archive", h.HandleArchive)
	mux.HandleFunc("GET /api/today", h.HandleToday)
	mux.HandleFunc("GET /api/catalog", h.HandleCatalog)
	mux.HandleFunc("GET /api/validate", h.HandleValidate)

	// Everything else comes from the generated site
	mux.Handle("GET /", http.FileServer(http.Dir(h.layout.OutputDir)))

	return mux
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("preview running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
