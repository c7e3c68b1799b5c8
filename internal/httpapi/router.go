package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/go-systems-lab/shortlink/internal/obs"
)

// CORSConfig mirrors the CORS_ALLOW_* environment trio from spec §6.
type CORSConfig struct {
	AllowOrigins string
	AllowMethods string
	AllowHeaders string
}

// NewRedirectRouter wires the redirect service's route table: health and
// link resolution are public; the dashboard route requires a bearer token.
// Grounded on the teacher's main.go (gin.Default(), ordered middleware,
// grouped API routes). tracer is nil-safe: when tracing failed to
// initialize, the tracing middleware is skipped entirely, matching the
// teacher's "if tp != nil" guard.
func NewRedirectRouter(api *RedirectAPI, verifier TokenVerifier, metrics *obs.Metrics, tracer *obs.Tracer, cors CORSConfig, serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obs.GinMiddleware(serviceName))
	if tracer != nil {
		router.Use(Tracing(tracer, serviceName))
	}
	router.Use(CORS(cors.AllowOrigins, cors.AllowMethods, cors.AllowHeaders))

	router.GET("/health", api.Health)
	router.GET("/metrics", metrics.Handler())
	router.GET("/r/:shortUrl", api.Redirect)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/info/:shortUrl", api.Info)
		apiGroup.GET("/dashboard", RequireBearer(verifier), api.Dashboard)
	}

	return router
}

// NewAuthoringRouter wires the authoring service's route table. Both
// routes require a bearer token; collisions additionally requires the
// admin role.
func NewAuthoringRouter(api *AuthoringAPI, verifier TokenVerifier, metrics *obs.Metrics, tracer *obs.Tracer, cors CORSConfig, serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obs.GinMiddleware(serviceName))
	if tracer != nil {
		router.Use(Tracing(tracer, serviceName))
	}
	router.Use(CORS(cors.AllowOrigins, cors.AllowMethods, cors.AllowHeaders))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": serviceName})
	})
	router.GET("/metrics", metrics.Handler())

	apiGroup := router.Group("/api/url")
	{
		apiGroup.POST("/create", RequireBearer(verifier), RequireRole("user", "admin"), api.CreateLink)
		apiGroup.GET("/metrics/collisions", RequireBearer(verifier), RequireRole("admin"), api.CollisionMetrics)
	}

	return router
}
