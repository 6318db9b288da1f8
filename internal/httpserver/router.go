package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"hezora/internal/domain"
	cartsvc "hezora/internal/service/cart"
	"hezora/internal/service/checkout"
	"hezora/internal/session"
)

type catalogService interface {
	List(ctx context.Context) ([]domain.Book, error)
	Get(ctx context.Context, id int64) (*domain.Book, error)
	Asset(ctx context.Context, id int64) (*domain.Book, string, error)
}

type cartService interface {
	View(ctx context.Context, cart domain.Cart) (*cartsvc.View, error)
}

type checkoutService interface {
	Checkout(ctx context.Context, cart domain.Cart, in checkout.ContactInput) (*checkout.Result, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

// Deps are the services the router dispatches to.
type Deps struct {
	Catalog  catalogService
	Cart     cartService
	Checkout checkoutService
	Sessions session.Store
	Cookie   session.CookieOptions

	CORSOrigins    []string
	TracerProvider trace.TracerProvider
	ServiceName    string
	Debug          bool
}

// buildRouter wires routes for the storefront.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Cart == nil || deps.Checkout == nil {
		return nil, errors.New("catalog, cart and checkout services are required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "hezora-api"
	}

	if deps.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if deps.TracerProvider != nil {
		router.Use(otelgin.Middleware(deps.ServiceName, otelgin.WithTracerProvider(deps.TracerProvider)))
	}
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Location"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	r := responder{logger: logger}
	shop := router.Group("/")
	shop.Use(session.Middleware(deps.Sessions, deps.Cookie, logger))

	shop.GET("/", listBooksHandler(deps.Catalog, r))
	shop.GET("/books", listBooksHandler(deps.Catalog, r))
	shop.GET("/books/:id", bookDetailHandler(deps.Catalog, r))
	shop.GET("/books/:id/download", downloadHandler(deps.Catalog, r))

	shop.POST("/cart/add/:id", addToCartHandler(logger, r))
	shop.GET("/cart/add/:id", rejectAddToCart)
	shop.GET("/cart", cartViewHandler(deps.Cart, r))

	shop.GET("/checkout", checkoutFormHandler(deps.Cart, r))
	shop.POST("/checkout", checkoutSubmitHandler(deps.Checkout, logger, r))
	shop.GET("/orders/:id", orderHandler(deps.Checkout, r))

	router.NoRoute(func(c *gin.Context) {
		r.respond(c, problemNotFound.withDetail("no route for "+c.Request.URL.Path))
	})

	return router, nil
}
