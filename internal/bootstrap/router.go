package bootstrap

import (
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	acchttp "github.com/aquavolt-iot/aquavolt-backend/internal/account/http"
	accrepo "github.com/aquavolt-iot/aquavolt-backend/internal/account/repository"
	accservice "github.com/aquavolt-iot/aquavolt-backend/internal/account/service"
	httpapi "github.com/aquavolt-iot/aquavolt-backend/internal/api/http"
	"github.com/aquavolt-iot/aquavolt-backend/internal/api/http/middleware"
	devhttp "github.com/aquavolt-iot/aquavolt-backend/internal/device/http"
	devrepo "github.com/aquavolt-iot/aquavolt-backend/internal/device/repository"
	"github.com/aquavolt-iot/aquavolt-backend/internal/identity"
	"github.com/aquavolt-iot/aquavolt-backend/internal/prefs"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Redis       *redis.Client
	AdminAuth   *auth.Client
	Provider    identity.Provider
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	accountRepo := accrepo.NewRepo(dep.DB)
	accountSvc := accservice.NewAccountService(dep.Provider, accountRepo)
	emailChecker := accservice.NewEmailChecker(accountRepo, 500*time.Millisecond)
	accountHandler := acchttp.New(accountSvc, emailChecker)

	accounts := api.Group("/accounts")
	accountHandler.RegisterPublic(accounts)

	authed := api.Group("")
	authed.Use(middleware.FirebaseAuthMiddleware(dep.AdminAuth))

	accountHandler.RegisterAuthenticated(authed.Group("/accounts"))

	bindingRepo := devrepo.NewBindingRepository(dep.Redis)
	devhttp.New(bindingRepo).Register(authed.Group("/device"))

	prefsRepo := prefs.NewRepo(dep.Redis)
	prefs.NewHandler(prefsRepo).Register(authed.Group("/prefs"))

	return r
}
