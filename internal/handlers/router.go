package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/Code-Chilll/Task-Manager/internal/middleware"
	"github.com/Code-Chilll/Task-Manager/internal/monitoring"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

type Deps struct {
	Accounts services.AccountService
	Tasks    services.TaskService
	Users    services.UserService
	Tokens   services.TokenService

	// Optional.
	Health         *monitoring.HealthChecker
	RateLimiter    *middleware.IPRateLimiter
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.RecoveryWithLog(logger),
		monitoring.MetricsMiddleware(),
	)
	if len(d.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(d.AllowedOrigins))
	}

	if d.Health != nil {
		router.GET("/health", d.Health.HealthHandler())
		router.GET("/health/live", d.Health.LivenessHandler())
		router.GET("/health/ready", d.Health.ReadinessHandler())
	}
	router.GET("/metrics", monitoring.MetricsHandler())

	api := router.Group("/")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware())
	}

	authHandler := NewAuthHandler(d.Accounts, logger)
	auth := api.Group("/auth")
	{
		auth.POST("/send-otp", authHandler.SendOTP)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forget-password", authHandler.ForgetPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	authenticated := api.Group("/", middleware.Authenticate(d.Tokens))

	taskHandler := NewTaskHandler(d.Tasks, logger)
	tasks := authenticated.Group("/tasks")
	{
		tasks.GET("", taskHandler.GetTasks)
		tasks.GET("/paginated", taskHandler.GetTasksPaginated)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	userHandler := NewUserHandler(d.Users, logger)
	users := authenticated.Group("/users")
	{
		users.GET("/me", userHandler.GetCurrentUser)
		users.GET("", middleware.AdminOnly(), userHandler.ListUsers)
		users.POST("", middleware.AdminOnly(), userHandler.CreateUser)
		users.GET("/:email", userHandler.GetUser)
		users.DELETE("/:email", userHandler.DeleteUser)
		users.PUT("/:email/role", middleware.AdminOnly(), userHandler.UpdateRole)
	}

	return router, nil
}
