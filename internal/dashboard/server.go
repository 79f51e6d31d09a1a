// Package dashboard serves the local web UI: data pages backed by the
// analysis API, the upload modal, and an SSE feed of session and upload
// events.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/api"
	"github.com/zulandar/segdash/internal/logger"
	"github.com/zulandar/segdash/internal/models"
	"github.com/zulandar/segdash/internal/session"
	"github.com/zulandar/segdash/internal/upload"
)

// Backend is the part of the API client the dashboard uses.
type Backend interface {
	Segments(ctx context.Context, fileName string) ([]models.SegmentDTO, error)
	Insights(ctx context.Context, fileName string) ([]models.InsightDTO, error)
	Dashboard(ctx context.Context, fileName string) (*models.DashboardDTO, error)
	Customers(ctx context.Context, f models.CustomerFilter) ([]models.CustomerDTO, error)
	Customer(ctx context.Context, id int) (*models.CustomerDTO, error)
	Files(ctx context.Context) ([]string, error)
	Upload(ctx context.Context, name, contentType string, r io.Reader) (*models.UploadResponse, error)
	Cluster(ctx context.Context, parquetPath string, numClusters int) (*models.ClusterResponse, error)
	Login(ctx context.Context, email, password string) (session.Session, error)
	Logout(ctx context.Context) error
	Predict(ctx context.Context, req models.PredictRequest) (*models.Prediction, error)
	GenerateReport(ctx context.Context, reportType models.ReportType) (*models.GeneratedReport, error)
	DownloadReport(ctx context.Context, id string) (*api.Download, error)
	OnSessionExpired(fn func(api.SessionExpired))
}

// SessionStore is the part of session.Store the dashboard reads.
type SessionStore interface {
	IsAuthenticated() bool
	Current() session.Session
	Subscribe() (<-chan session.Change, func())
}

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Client   Backend
	Store    SessionStore
	Port     int
	FilesTTL time.Duration // how long the file list is cached, default 30s
	// Upload carries the workflow settings; Service and Navigator are
	// supplied by the dashboard.
	Upload upload.Options
	Logger *zap.Logger
	Out    io.Writer
}

// app holds what handlers share.
type app struct {
	api      Backend
	store    SessionStore
	log      *zap.Logger
	hub      *hub
	cache    *cache.Cache
	filesTTL time.Duration
	upload   upload.Options
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	gin.SetMode(gin.ReleaseMode)
	router, _, err := newRouter(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 3000
	}

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// newRouter validates opts and builds the gin engine.
func newRouter(opts StartOpts) (*gin.Engine, *app, error) {
	if opts.Client == nil {
		return nil, nil, fmt.Errorf("dashboard: client is required")
	}
	if opts.Store == nil {
		return nil, nil, fmt.Errorf("dashboard: session store is required")
	}
	if opts.FilesTTL <= 0 {
		opts.FilesTTL = 30 * time.Second
	}

	a := &app{
		api:      opts.Client,
		store:    opts.Store,
		log:      logger.OrNop(opts.Logger).Named("dashboard"),
		hub:      newHub(),
		cache:    cache.New(opts.FilesTTL, time.Minute),
		filesTTL: opts.FilesTTL,
		upload:   opts.Upload,
	}
	a.cache.OnEvicted(a.onEvicted)
	a.coordinate()

	router := gin.New()
	router.Use(requestID(), requestLogger(a.log), recovery(a.log))

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, nil, fmt.Errorf("dashboard: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, a)
	return router, a, nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
