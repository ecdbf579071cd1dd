package server

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/ruxlab/labvault/internal/accounting"
	"github.com/ruxlab/labvault/internal/asset"
	"github.com/ruxlab/labvault/internal/auth"
	"github.com/ruxlab/labvault/internal/config"
	"github.com/ruxlab/labvault/internal/metrics"
	"github.com/ruxlab/labvault/internal/study"
	"github.com/ruxlab/labvault/internal/user"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	Log         *zap.Logger
	DB          *pgxpool.Pool
	ObjectStore *minio.Client

	AuthService  *auth.Service
	UserService  *user.Service
	StudyService *study.Service
	Engine       *accounting.Engine
	AssetService *asset.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	registerHealthRoutes(router, deps.DB, deps.ObjectStore, deps.Config.MinIO.Bucket)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.NewHandler(deps.AuthService, deps.Log).RegisterRoutes(api)

		protected := api.Group("/")
		protected.Use(auth.RequireUser(deps.AuthService))

		if deps.UserService != nil {
			user.RegisterRoutes(protected, deps.UserService)
		}
		if deps.StudyService != nil {
			study.RegisterRoutes(protected, deps.StudyService)
		}
		if deps.Engine != nil {
			accounting.RegisterRoutes(protected, deps.Engine)
		}
		if deps.AssetService != nil {
			asset.NewHandler(deps.AssetService, deps.Log).RegisterRoutes(protected)
		}
	}

	return router
}
