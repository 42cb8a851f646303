package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/metrics"
	"github.com/polkiloo/dispatchboard/internal/server/http/handlers"
	"github.com/polkiloo/dispatchboard/internal/server/http/middleware"
)

// maxRequestBody caps decoded request payloads.
const maxRequestBody = 1 << 20

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.DispatchFacade, logger *slog.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest(maxRequestBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	engine.GET("/healthz", handlers.Health(facade))
	engine.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	boardHandler := handlers.NewBoardHandler(facade)
	driverHandler := handlers.NewDriverHandler(facade)
	customerHandler := handlers.NewCustomerHandler(facade)
	reportHandler := handlers.NewReportHandler(facade)

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	authed.GET("/orders", orderHandler.List)
	authed.POST("/orders", orderHandler.Create)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.PATCH("/orders/:id", orderHandler.Edit)
	authed.POST("/orders/:id/move", orderHandler.Move)
	authed.POST("/orders/:id/ready", orderHandler.Ready)
	authed.POST("/orders/:id/assign", orderHandler.Assign)
	authed.POST("/orders/:id/complete", orderHandler.Complete)
	authed.GET("/orders/:id/timeline", orderHandler.Timeline)
	authed.POST("/refresh", orderHandler.Refresh)

	boards := authed.Group("/boards")
	boards.GET("/processing", boardHandler.Show(board.KindProcessing))
	boards.GET("/dispatch", boardHandler.Show(board.KindDispatch))
	boards.GET("/dispatch/completed", boardHandler.Show(board.KindDispatchCompleted))
	boards.GET("/dispatch/drivers/:id", boardHandler.Show(board.KindDispatchDriver))
	boards.GET("/pickup", boardHandler.Show(board.KindPickup))
	boards.GET("/drivers/:id/portal", boardHandler.Show(board.KindDriverPortal))
	boards.GET("/drivers/:id/completed", boardHandler.Show(board.KindDriverCompleted))
	boards.GET("/drivers/:id/schedule", boardHandler.Show(board.KindDriverSchedule))

	authed.GET("/drivers", driverHandler.List)
	authed.POST("/drivers", driverHandler.Create)
	authed.PATCH("/drivers/:id", driverHandler.Update)

	authed.GET("/customers", customerHandler.List)
	authed.POST("/customers", customerHandler.Create)
	authed.PATCH("/customers/:id", customerHandler.Update)

	authed.GET("/reports/orders.csv", reportHandler.OrdersCSV)
	authed.GET("/reports/summary", reportHandler.Summary)

	return engine
}
