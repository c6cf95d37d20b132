package routes

import (
	"time"

	"emaihl-library/internal/adapters/gateway"
	"emaihl-library/internal/adapters/http/handlers"
	"emaihl-library/internal/adapters/http/middleware"
	"emaihl-library/internal/config"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies holds the services the HTTP layer is built on
type Dependencies struct {
	Config    *config.Config
	Store     handlers.Pinger // nil when records live behind a remote gateway
	Gateway   gateway.Executor
	Library   services.Library
	Assistant services.Assistant
	Sessions  services.Sessions
	Dashboard *services.DashboardService
	Feedback  *services.FeedbackService
	Validator *validation.Validator
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps *Dependencies) {
	cfg := deps.Config

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Library, cfg)
	gatewayHandler := handlers.NewGatewayHandler(deps.Gateway)
	sessionHandler := handlers.NewSessionHandler(deps.Sessions, cfg)
	bookHandler := handlers.NewBookHandler(deps.Library, deps.Assistant, deps.Validator)
	studentHandler := handlers.NewStudentHandler(deps.Library, deps.Validator)
	loanHandler := handlers.NewLoanHandler(deps.Library, deps.Validator)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard)
	assistantHandler := handlers.NewAssistantHandler(deps.Assistant)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Feedback)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Record store gateway. Every method is routed so the handler can answer 405 itself.
	app.All("/api/mongo", gatewayHandler.Handle)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, deps, healthHandler, sessionHandler, bookHandler, studentHandler,
		loanHandler, dashboardHandler, assistantHandler, feedbackHandler)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	deps *Dependencies,
	healthHandler *handlers.HealthHandler,
	sessionHandler *handlers.SessionHandler,
	bookHandler *handlers.BookHandler,
	studentHandler *handlers.StudentHandler,
	loanHandler *handlers.LoanHandler,
	dashboardHandler *handlers.DashboardHandler,
	assistantHandler *handlers.AssistantHandler,
	feedbackHandler *handlers.FeedbackHandler,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Library status (public, the loading and error screens need it before unlock)
	statusRoutes := router.Group("/status")
	statusRoutes.Use(middleware.NoCacheHeaders())
	statusRoutes.Get("/", healthHandler.Status)
	statusRoutes.Post("/reload", middleware.LoginRateLimiter(), healthHandler.Reload)

	// Session routes (public)
	router.Post("/session", middleware.LoginRateLimiter(), sessionHandler.Login)
	router.Post("/session/logout", sessionHandler.Logout)

	session := middleware.SessionMiddleware(deps.Sessions)
	ready := middleware.ReadyMiddleware(deps.Library)

	// Book routes
	bookRoutes := router.Group("/books")
	bookRoutes.Use(session, ready, middleware.NoCacheHeaders())
	setupBookRoutes(bookRoutes, bookHandler)

	// Student routes
	studentRoutes := router.Group("/students")
	studentRoutes.Use(session, ready, middleware.NoCacheHeaders())
	setupStudentRoutes(studentRoutes, studentHandler)

	// Loan routes
	loanRoutes := router.Group("/loans")
	loanRoutes.Use(session, ready, middleware.NoCacheHeaders())
	setupLoanRoutes(loanRoutes, loanHandler)

	// Dashboard routes
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(session, ready, middleware.NoCacheHeaders())
	dashboardRoutes.Get("/", dashboardHandler.GetDashboard)

	// Assistant routes
	assistantRoutes := router.Group("/assistant")
	assistantRoutes.Use(session)
	setupAssistantRoutes(assistantRoutes, assistantHandler, ready)

	// Feedback routes
	feedbackRoutes := router.Group("/feedback")
	feedbackRoutes.Use(session)
	feedbackRoutes.Post("/", feedbackHandler.Submit)
}

// setupBookRoutes configures book routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Post("/scan", middleware.AssistantRateLimiter(), handler.Scan)
	router.Delete("/:id", handler.Delete)
}

// setupStudentRoutes configures student routes
func setupStudentRoutes(router fiber.Router, handler *handlers.StudentHandler) {
	router.Get("/", handler.List)
	router.Get("/grades", handler.Grades)
	router.Post("/", handler.Create)
	router.Delete("/:id", handler.Delete)
}

// setupLoanRoutes configures loan routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/candidates/books", handler.CandidateBooks)
	router.Get("/candidates/students", handler.CandidateStudents)
	router.Post("/:id/return", handler.Return)
}

// setupAssistantRoutes configures assistant routes.
// Insights and chat read library counts, so they wait for the ready phase.
func setupAssistantRoutes(router fiber.Router, handler *handlers.AssistantHandler, ready fiber.Handler) {
	router.Get("/greeting", middleware.CacheControl(time.Hour), handler.Greeting)
	router.Get("/insights", ready, middleware.AssistantRateLimiter(), handler.Insights)
	router.Post("/chat", ready, middleware.AssistantRateLimiter(), handler.Chat)
}
