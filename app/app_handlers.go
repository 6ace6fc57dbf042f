package app

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/JoshPattman/cvquestions/cvfiles"
	"github.com/JoshPattman/cvquestions/metrics"
	"github.com/JoshPattman/cvquestions/view"
	"github.com/gin-gonic/gin"
)

// Setup all of the handlers to their respective endpoints
func (app *App) setupHandlers(r *gin.Engine) {
	r.GET("/", app.handlePage(app.generatePageHandler, app.generatePageTemplates))
	r.POST("/generate", app.handlePage(app.generateHandler, app.generatePageTemplates))
	r.POST("/hx/generate", app.handlePage(app.generateHandler, app.resultsTemplates))
	r.GET("/hx/results", app.handlePage(app.generatePageHandler, app.resultsTemplates))
	r.GET("/health", app.healthHandler)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// GeneratePageData is what the generation page and its fragments render.
type GeneratePageData struct {
	Title string
	view.Snapshot
}

// HasRows reports whether there is a results table to show.
func (pd GeneratePageData) HasRows() bool {
	return len(pd.Rows) > 0
}

func (app *App) generatePageHandler(*gin.Context, *slog.Logger) (any, error) {
	return GeneratePageData{
		Title:    "Generate Interview Questions",
		Snapshot: app.view.Snapshot(),
	}, nil
}

func (app *App) generatePageTemplates(*gin.Context, *slog.Logger) []string {
	return []string{"page", "generate", "results"}
}

func (app *App) resultsTemplates(*gin.Context, *slog.Logger) []string {
	return []string{"results"}
}

// generateHandler submits the uploaded form to the view.
func (app *App) generateHandler(ctx *gin.Context, logger *slog.Logger) (any, error) {
	if err := ctx.Request.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	var headers []*multipart.FileHeader
	if form := ctx.Request.MultipartForm; form != nil {
		headers = form.File["question_files"]
	}
	files, err := cvfiles.FromMultipart(headers)
	if err != nil {
		return nil, err
	}
	logger.Info("Form submitted", "num_files", len(files), "num_uploaded", len(headers))

	// The request runs to completion even if the browser goes away.
	err = app.view.Submit(context.WithoutCancel(ctx.Request.Context()), ctx.PostForm("job_description"), files)
	switch {
	case errors.Is(err, view.ErrGenerationInFlight):
		ctx.Status(http.StatusConflict)
	case errors.Is(err, view.ErrIncompleteInput):
		ctx.Status(http.StatusUnprocessableEntity)
	case err != nil:
		// Already logged and turned into a message by the view.
		ctx.Status(http.StatusBadGateway)
	}
	return app.generatePageHandler(ctx, logger)
}

func (app *App) healthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"state":  app.view.Snapshot().State.String(),
	})
}
