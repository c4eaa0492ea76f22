package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"interview-service/internal/api/handlers"
	"interview-service/internal/api/middleware"
	"interview-service/internal/gateway"
	"interview-service/internal/services"
)

type Router struct {
	engine           *gin.Engine
	wsHandler        *handlers.WSHandler
	authHandler      *handlers.AuthHandler
	userHandler      *handlers.UserHandler
	friendHandler    *handlers.FriendHandler
	interviewHandler *handlers.InterviewHandler
	rateLimitMW      *middleware.RateLimitMiddleware
	authMW           *middleware.AuthMiddleware
}

type Services struct {
	Users      *services.UserService
	Friends    *services.FriendService
	Interviews *services.InterviewService
	Tokens     *services.TokenService
	Limiter    *services.RateLimiter
}

func NewRouter(hub *gateway.Hub, svc Services) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	return &Router{
		engine:           engine,
		wsHandler:        handlers.NewWSHandler(hub),
		authHandler:      handlers.NewAuthHandler(svc.Users),
		userHandler:      handlers.NewUserHandler(svc.Users),
		friendHandler:    handlers.NewFriendHandler(svc.Friends),
		interviewHandler: handlers.NewInterviewHandler(svc.Interviews),
		rateLimitMW:      middleware.NewRateLimitMiddleware(svc.Limiter),
		authMW:           middleware.NewAuthMiddleware(svc.Tokens),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint; the hub authenticates the handshake itself so
	// browser clients can pass the token as a query parameter.
	api.GET("/ws", r.wsHandler.HandleWebSocket)

	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/profile", r.userHandler.GetProfile)
			users.PUT("/profile", r.userHandler.UpdateProfile)
			users.POST("/onboarding", r.userHandler.CompleteOnboarding)
			users.GET("/search", r.userHandler.Search)
		}

		friends := auth.Group("/friends")
		friends.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			friends.GET("/", r.friendHandler.ListFriends)
			friends.POST("/", r.friendHandler.AddFriend)
			friends.DELETE("/:id", r.friendHandler.RemoveFriend)
		}

		interviews := auth.Group("/interviews")
		interviews.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			interviews.GET("/", r.interviewHandler.List)
			interviews.POST("/", r.interviewHandler.Create)
			interviews.GET("/:id", r.interviewHandler.Get)
			interviews.POST("/:id/start", r.interviewHandler.Start)
			interviews.POST("/:id/end", r.interviewHandler.End)
			interviews.DELETE("/:id", r.interviewHandler.Delete)
		}
	}

	public := api.Group("/")
	{
		authRoutes := public.Group("/auth")
		authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
		{
			authRoutes.POST("/register", r.authHandler.Register)
			authRoutes.POST("/login", r.authHandler.Login)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
