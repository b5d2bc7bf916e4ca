package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"clinicore/internal/config"
	"clinicore/internal/handler"
	"clinicore/internal/model"
	"clinicore/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	userService service.UserService,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// User administration requires an authenticated admin. Creation included:
	// self-service onboarding goes through /auth/register instead.
	admin := api.Group("/users",
		Authenticate(cfg.JWTSecret),
		RequireRoles(userService, model.RoleAdmin),
	)
	admin.POST("", userHandler.CreateUser)
	admin.GET("", userHandler.ListUsers)
	admin.GET("/:id", userHandler.GetUser)
	admin.PUT("/:id", userHandler.UpdateUser)
	admin.DELETE("/:id", userHandler.DeleteUser)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
