package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"

	"github.com/corpuschat/corpuschat/internal/server/handlers"
	"github.com/corpuschat/corpuschat/internal/version"
)

func SetupRoutes(s *Server) http.Handler {
	r := gin.New()

	syncH := handlers.NewSyncHandler(s.engine, s.cfg)
	storesH := handlers.NewStoresHandler(s.engine.Directory())
	ledgerH := handlers.NewLedgerHandler(s.engine.Ledger())
	chatH := handlers.NewChatHandler(s.api, s.engine.Directory(), s.cfg.StoreName)

	httpLogger := slog.Default().WithGroup("http")
	r.Use(slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.BestSpeed))
	r.Use(cors.Default())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, version.DetailedWithApp())
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.PureJSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// sync
		v1.POST("/sync", syncH.Trigger)
		v1.GET("/sync/status", syncH.Status)
		v1.GET("/sync/events", syncH.Events)

		// stores
		v1.GET("/stores", storesH.List)
		v1.GET("/stores/inspect", storesH.Inspect)
		v1.POST("/stores/reconcile", storesH.Reconcile)
		v1.DELETE("/stores/:id", storesH.Delete)

		// ledger
		v1.GET("/ledger", ledgerH.Show)
		v1.POST("/ledger/dedupe", ledgerH.Dedupe)

		// chat
		v1.POST("/chat/query", chatH.Query)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	return r.Handler()
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
