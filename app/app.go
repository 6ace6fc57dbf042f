package app

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/JoshPattman/cvquestions/client"
	"github.com/JoshPattman/cvquestions/config"
	"github.com/JoshPattman/cvquestions/storage"
	"github.com/JoshPattman/cvquestions/view"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//go:embed templates
var templatesFS embed.FS

// maxUploadMemory is how much of a multipart upload is kept in memory before spilling to disk.
const maxUploadMemory = 32 << 20

// A function that handles a request and returns data for a template.
type PageDataHander func(ctx *gin.Context, logger *slog.Logger) (any, error)

// A function that returns the main and auxillary templates to be rendered.
type PageTemplateDefiner func(ctx *gin.Context, logger *slog.Logger) []string

// App collects all data for running the webserver.
type App struct {
	addr   string
	logger *slog.Logger
	view   *view.GenerationView
}

// Services is everything built from the config that both the web page and the CLI use.
type Services struct {
	KV      storage.KVStore
	Tokens  *storage.TokenStore
	Results *storage.ResultsStore
	Client  *client.Client
	View    *view.GenerationView
}

// NewServices opens the client storage and builds the API client and generation view.
// Persisted results are restored into the view.
func NewServices(cfg config.Config, logger *slog.Logger) (*Services, error) {
	logger.Debug("Setting up client storage", "dir", cfg.StorageDir)
	kv, err := storage.NewFileKVStore(cfg.StorageDir)
	if err != nil {
		return nil, err
	}
	tokens := storage.NewTokenStore(kv)
	results := storage.NewResultsStore(kv)

	logger.Debug("Creating API client", "base_url", cfg.BaseURL)
	c, err := client.New(client.Config{
		BaseURL:         cfg.BaseURL,
		DownloadBaseURL: cfg.DownloadBaseURL,
		Tokens:          tokens,
		HTTPClient:      &http.Client{Timeout: time.Duration(cfg.Timeout)},
		Logger:          logger.With("component", "client"),
	})
	if err != nil {
		return nil, err
	}

	v := view.NewGenerationView(c, results, logger.With("component", "view"))
	if err := v.Restore(); err != nil {
		logger.Warn("Starting without persisted results", "err", err)
	}
	return &Services{
		KV:      kv,
		Tokens:  tokens,
		Results: results,
		Client:  c,
		View:    v,
	}, nil
}

// Create a new app from the loaded config.
func BuildApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	services, err := NewServices(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Server preparation succsessful")
	return newApp(cfg.Addr, logger, services.View), nil
}

func newApp(addr string, logger *slog.Logger, v *view.GenerationView) *App {
	return &App{
		addr:   addr,
		logger: logger,
		view:   v,
	}
}

// Router builds the gin engine with all routes registered.
func (app *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	app.setupHandlers(r)
	return r
}

// Run the app, returning a fatal error.
func (app *App) Run() error {
	gin.SetMode(gin.ReleaseMode)
	r := app.Router()
	app.logger.Info("Server starting", "addr", app.addr)
	return r.Run(app.addr)
}

// Create a handler that calls the data handler then renders the data using the templates
func (app *App) handlePage(dataHandler PageDataHander, templateDefiner PageTemplateDefiner) func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		requestLogger := app.logger.With("txid", uuid.New().String())
		requestLogger.Info("Incoming request", "method", ctx.Request.Method, "path", ctx.Request.URL.Path)
		templatesToParse := []string{}
		templates := templateDefiner(ctx, requestLogger)
		for _, t := range templates {
			templatesToParse = append(templatesToParse, "templates/"+t+".html")
		}

		tmpl, err := template.ParseFS(templatesFS, templatesToParse...)
		if err != nil {
			requestLogger.Error("Template parse failed", "templates", templates, "error", err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		data, err := dataHandler(ctx, requestLogger)
		if err != nil {
			requestLogger.Error("Page data handler failed", "templates", templates, "error", err)
			ctx.String(http.StatusBadRequest, fmt.Sprintf("bad request: %v", err))
			return
		}

		ctx.Header("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(ctx.Writer, templates[0], data); err != nil {
			requestLogger.Error("Template render failed", "templates", templates, "error", err)
			ctx.Status(http.StatusInternalServerError)
			return
		}
		requestLogger.Info("Finished request", "status", ctx.Writer.Status())
	}
}
