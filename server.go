package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/auditafrete/freight_backend/config"
	"github.com/auditafrete/freight_backend/models"
	"github.com/auditafrete/freight_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPort = "8080"

// application owns the DB handle. The server starts listening before the
// database is connected; until setDB runs, data endpoints answer 503.
type application struct {
	mu     sync.RWMutex
	db     *gorm.DB
	logger *logrus.Logger
}

func (app *application) DB() *gorm.DB {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.db
}

func (app *application) setDB(db *gorm.DB) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.db = db
}

// Single-operator deployments run under one tenant; the header exists so a
// hosted setup can partition data without an auth layer.
func businessIdFromRequest(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-Business-Id")); id != "" {
		return id
	}
	return "default"
}

func createCarrierHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.NewCarrier
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		carrier, err := models.CreateCarrier(app.DB(), c.Request.Context(), businessIdFromRequest(c), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": carrier})
	}
}

func updateCarrierHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid carrier id"})
			return
		}
		var req models.NewCarrier
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		carrier, err := models.UpdateCarrier(app.DB(), c.Request.Context(), businessIdFromRequest(c), id, req)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, utils.ErrorRecordNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": carrier})
	}
}

func listCarriersHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		carriers, err := models.ListCarriers(app.DB(), c.Request.Context(), businessIdFromRequest(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": carriers})
	}
}

func createRateTableHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		carrierId, err := strconv.Atoi(c.Param("id"))
		if err != nil || carrierId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid carrier id"})
			return
		}
		var req models.NewRateTable
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		table, err := models.CreateRateTable(app.DB(), c.Request.Context(), businessIdFromRequest(c), carrierId, req)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, utils.ErrorRecordNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": table})
	}
}

func listAuditsHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		audits, err := models.ListAudits(app.DB(), c.Request.Context(), businessIdFromRequest(c), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": audits})
	}
}

type contestRequest struct {
	Reason string `json:"reason"`
}

func contestAuditHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audit id"})
			return
		}
		var req contestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		audit, err := models.ContestAudit(app.DB(), c.Request.Context(), businessIdFromRequest(c), id, req.Reason)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, utils.ErrorRecordNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": audit})
	}
}

func waiveAuditHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audit id"})
			return
		}
		audit, err := models.WaiveAudit(app.DB(), c.Request.Context(), businessIdFromRequest(c), id)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, utils.ErrorRecordNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": audit})
	}
}

func waiveReconciliationRowHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row id"})
			return
		}
		row, err := models.WaiveReconciliationRow(app.DB(), c.Request.Context(), businessIdFromRequest(c), id)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, utils.ErrorRecordNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": row})
	}
}

func getImportBatchHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
			return
		}
		batch, err := models.GetImportBatch(app.DB(), c.Request.Context(), businessIdFromRequest(c), id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, utils.ErrorRecordNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": batch})
	}
}

func dashboardSummaryHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := models.GetDashboardSummary(app.DB(), c.Request.Context(), businessIdFromRequest(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": summary})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	app := &application{logger: config.GetLogger()}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before dependencies are ready; until the DB is
	// connected, data endpoints answer 503 ("storage unavailable") and only
	// the liveness probe is served.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if app.DB() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; in development allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Business-Id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(app.logger))
	r.Use(gin.Recovery())

	r.POST("/carriers", createCarrierHandler(app))
	r.PUT("/carriers/:id", updateCarrierHandler(app))
	r.GET("/carriers", listCarriersHandler(app))
	r.POST("/carriers/:id/rate-tables", createRateTableHandler(app))

	r.POST("/uploads/cte", cteUploadHandler(app))
	r.POST("/uploads/memoria", memoriaUploadHandler(app))

	r.GET("/audits", listAuditsHandler(app))
	r.POST("/audits/:id/contest", contestAuditHandler(app))
	r.POST("/audits/:id/waive", waiveAuditHandler(app))
	r.POST("/reconciliations/:id/waive", waiveReconciliationRowHandler(app))
	r.GET("/imports/:id", getImportBatchHandler(app))
	r.GET("/dashboard/summary", dashboardSummaryHandler(app))

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	db := config.ConnectDatabaseWithRetry()
	config.ConnectRedis()

	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable(db)
	} else {
		app.logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	app.setDB(db)
	app.logger.WithFields(logrus.Fields{"port": port}).Info("freight audit backend ready")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
