package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/personnel-api/api/swagger"
	"github.com/noah-isme/personnel-api/internal/middleware"
	"github.com/noah-isme/personnel-api/internal/service"
	"github.com/noah-isme/personnel-api/pkg/config"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
	"github.com/noah-isme/personnel-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/personnel-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/personnel-api/pkg/middleware/requestid"
	"github.com/noah-isme/personnel-api/pkg/response"
)

// RouterDeps bundles everything the HTTP surface is built from.
type RouterDeps struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *service.MetricsService
	Persons       *PersonHandler
	Items         *ItemHandler
	Observability *MetricsHandler
}

// NewRouter wires middleware, API routes and the static bundle fallback.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(logger.Recovery(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.Observability.Health)
	r.GET("/ready", deps.Observability.Ready)
	r.GET("/metrics", deps.Observability.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/candidates/:page", deps.Persons.Candidates)
	api.GET("/persons/:personId", deps.Persons.Get)
	api.GET("/persons/:personId/export", deps.Persons.Export)
	api.POST("/persons", deps.Persons.Upsert)
	api.DELETE("/persons/:personId", deps.Persons.Delete)

	api.GET("/:item/:personId", deps.Items.List)
	api.POST("/:item/:personId", deps.Items.Upsert)
	api.DELETE("/:item/:itemId", deps.Items.Delete)

	r.NoRoute(staticFallback(cfg.APIPrefix, cfg.StaticDir))
	return r
}

// staticFallback serves the UI bundle for any GET outside the API, falling
// back to index.html so client-side routes resolve.
func staticFallback(apiPrefix, dir string) gin.HandlerFunc {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "route not found")
	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if strings.HasPrefix(reqPath, apiPrefix+"/") || reqPath == apiPrefix ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			response.Error(c, notFound)
			return
		}

		clean := path.Clean("/" + reqPath)
		file := filepath.Join(dir, filepath.FromSlash(clean))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
		response.Error(c, notFound)
	}
}
