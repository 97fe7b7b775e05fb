// Package router provides HTTP routing, middleware configuration, and server setup for the ranking API
package router

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/app/handlers"
	"github.com/amirphl/operator-ranking/app/middleware"
	"github.com/amirphl/operator-ranking/config"
	"github.com/amirphl/operator-ranking/docs"
	"github.com/amirphl/operator-ranking/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

const healthPath = "/api/v1/health"

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	config         *config.ProductionConfig
	accessLog      io.Writer
	rankingHandler handlers.RankingHandlerInterface
	uploadHandler  handlers.UploadHandlerInterface
	adminHandler   handlers.AdminHandlerInterface
	healthHandler  *handlers.HealthHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router. A nil accessLog writes access logs to stdout.
func NewFiberRouter(
	cfg *config.ProductionConfig,
	rankingHandler handlers.RankingHandlerInterface,
	uploadHandler handlers.UploadHandlerInterface,
	adminHandler handlers.AdminHandlerInterface,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	accessLog io.Writer,
) Router {
	server := cfg.Server
	app := fiber.New(fiber.Config{
		AppName:      "Operator Ranking API",
		ServerHeader: "operator-ranking",
		ErrorHandler: errorHandler,
		BodyLimit:    bodyLimit(server.BodyLimit, cfg.Upload.MaxFileSize),
		ReadTimeout:  server.ReadTimeout,
		WriteTimeout: server.WriteTimeout,
		IdleTimeout:  server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ProxyHeader:  server.ProxyHeader,
		TrustProxy:   len(server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: server.TrustedProxies,
		},
	})

	if accessLog == nil {
		accessLog = os.Stdout
	}

	return &FiberRouter{
		app:            app,
		config:         cfg,
		accessLog:      accessLog,
		rankingHandler: rankingHandler,
		uploadHandler:  uploadHandler,
		adminHandler:   adminHandler,
		healthHandler:  healthHandler,
		authMiddleware: authMiddleware,
	}
}

// bodyLimit leaves room for multipart framing around the largest accepted upload.
func bodyLimit(configured int, maxUpload int64) int {
	need := int(maxUpload) + 1024*1024
	if configured < need {
		return need
	}
	return configured
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	if r.config.Metrics.Enabled {
		path := r.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthHandler.Health)

	if env := r.config.Deployment.Environment; env == "development" || env == "local" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		log.Println("API documentation enabled for development")
	}

	api.Use(limiter.New(limiter.Config{
		Max:        r.config.Security.GlobalRateLimit,
		Expiration: r.rateLimitWindow(),
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	// Public dashboard
	api.Get("/rankings", r.rankingHandler.GetRanking)
	api.Get("/rankings/export", r.rankingHandler.ExportRanking)
	api.Get("/operators/:code/summary", r.rankingHandler.GetOperatorSummary)
	api.Get("/deduction-rules", r.rankingHandler.ListDeductionRules)

	admin := api.Group("/admin")

	// Auth endpoints with stricter rate limiting
	auth := admin.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        r.config.Security.AuthRateLimit,
		Expiration: r.rateLimitWindow(),
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))
	auth.Post("/login", r.adminHandler.Login)
	auth.Post("/refresh", r.adminHandler.Refresh)
	auth.Post("/logout", r.authMiddleware.AdminAuthenticate(), r.adminHandler.Logout)

	uploads := admin.Group("/uploads", r.authMiddleware.AdminAuthenticate())
	uploads.Post("/zones", r.uploadHandler.UploadZones)
	uploads.Post("/sponsors", r.uploadHandler.UploadSponsors)
	uploads.Post("/tasks", r.uploadHandler.UploadTasks)
	uploads.Post("/incidents", r.uploadHandler.UploadIncidents)
	uploads.Post("/control-variables", r.uploadHandler.UploadControlVariables)
	uploads.Post("/operators", r.uploadHandler.UploadOperators)
	uploads.Get("/audits", r.uploadHandler.ListAudits)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

func (r *FiberRouter) rateLimitWindow() time.Duration {
	if r.config.Security.RateLimitWindow > 0 {
		return r.config.Security.RateLimitWindow
	}
	return time.Minute
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: utils.NewRequestID,
	}))

	sec := r.config.Security
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             sec.XSSProtection,
		ContentTypeNosniff:        sec.XContentTypeOptions,
		XFrameOptions:             sec.XFrameOptions,
		HSTSMaxAge:                sec.HSTSMaxAge,
		HSTSExcludeSubdomains:     !sec.HSTSIncludeSubDoms,
		HSTSPreloadEnabled:        sec.HSTSPreload,
		ContentSecurityPolicy:     sec.CSPPolicy,
		ReferrerPolicy:            sec.ReferrerPolicy,
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     sec.AllowedOrigins,
		AllowMethods:     sec.AllowedMethods,
		AllowHeaders:     sec.AllowedHeaders,
		ExposeHeaders:    []string{fiber.HeaderXRequestID, fiber.HeaderContentDisposition},
		AllowCredentials: sec.AllowCredentials,
		MaxAge:           sec.CORSMaxAge,
	}))

	if r.config.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
			Next: func(c fiber.Ctx) bool {
				// xlsx is already zipped
				return strings.HasSuffix(c.Path(), "/export")
			},
		}))
	}

	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Stream:     r.accessLog,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	r.app.Use(middleware.Metrics())

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: r.config.Logging.EnableStacktrace,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				requestid.FromContext(c),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	sec := r.config.Security
	if sec.TLSEnabled {
		log.Printf("Starting server on %s (tls)", address)
		return r.app.Listen(address, fiber.ListenConfig{
			CertFile:    sec.TLSCertFile,
			CertKeyFile: sec.TLSKeyFile,
		})
	}
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// serveSwaggerJSON returns the registered OpenAPI document
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}

// Serve Swagger UI HTML page
func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(swaggerUIPage)
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Operator Ranking API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errorCode := "INTERNAL_ERROR"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code == fiber.StatusRequestEntityTooLarge {
			message = "Request body too large"
			errorCode = "FILE_TOO_LARGE"
		} else if code < fiber.StatusInternalServerError {
			message = fe.Message
			errorCode = "REQUEST_ERROR"
		}
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errorCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}
