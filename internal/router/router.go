package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "ocrdesk/docs"
	"ocrdesk/internal/domain"
	"ocrdesk/internal/handler"
	"ocrdesk/internal/middleware"
	"ocrdesk/internal/service"
)

// Deps carries everything the router needs.
type Deps struct {
	AuthService  service.AuthService
	CORSOrigins  []string
	WebhookToken string

	Auth     *handler.AuthHandler
	Import   *handler.ImportHandler
	Document *handler.DocumentHandler
	Event    *handler.EventHandler
	Export   *handler.ExportHandler
	Master   *handler.MasterHandler
	User     *handler.UserHandler
	Health   *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(d Deps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(d.CORSOrigins))

	// Health checks
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", d.Auth.Login)

	// Webhook surface, authenticated by shared token
	events := v1.Group("/events")
	events.Use(middleware.WebhookToken(d.WebhookToken))
	events.POST("/documents", d.Event.DocumentEvent)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(d.AuthService))

	protected.GET("/auth/me", d.Auth.Me)

	// Staging record lifecycle
	imports := protected.Group("/imports")
	imports.POST("", d.Import.Upload)
	imports.GET("", d.Import.List)
	imports.GET("/export", d.Export.ExportCSV)
	imports.GET("/:id", d.Import.GetByID)
	imports.GET("/:id/lines", d.Import.GetLines)
	imports.GET("/:id/source-url", d.Import.GetSourceURL)
	imports.GET("/:id/duplicates", d.Import.Duplicates)
	imports.DELETE("/:id", middleware.RequireRole(domain.RoleAdmin), d.Import.Delete)
	imports.POST("/:id/retry", d.Import.Retry)
	imports.POST("/:id/no-action", d.Import.NoAction)
	imports.POST("/:id/resolve", d.Import.Resolve)
	imports.POST("/:id/confirm-supplier", d.Import.ConfirmSupplier)
	imports.POST("/:id/lines/:lineID/confirm", d.Import.ConfirmLine)
	imports.PUT("/:id/kind", d.Import.SetKind)
	imports.PUT("/:id/links", d.Import.SetLinks)

	// Document creation and retrieval
	imports.POST("/:id/document", d.Document.Create)
	imports.DELETE("/:id/document", d.Document.Unlink)

	documents := protected.Group("/documents")
	documents.GET("/purchase-invoices/:id", d.Document.GetPurchaseInvoice)
	documents.GET("/purchase-receipts/:id", d.Document.GetPurchaseReceipt)
	documents.GET("/journal-entries/:id", d.Document.GetJournalEntry)

	// Master data for the review UI
	master := protected.Group("/master")
	master.GET("/suppliers", d.Master.ListSuppliers)
	master.GET("/items", d.Master.ListItems)
	master.GET("/suppliers/:id/open-orders", d.Master.ListOpenOrders)

	// Account management
	users := protected.Group("/users")
	users.POST("", middleware.RequireRole(domain.RoleAdmin), d.User.Create)
	users.GET("/:id", d.User.GetByID)

	return r
}
