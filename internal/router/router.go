package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/OmChannawar/Listify/api/handler"
)

type Handlers struct {
	Task        *apiHandler.TaskHandler
	Profile     *apiHandler.ProfileHandler
	Leaderboard *apiHandler.LeaderboardHandler
	Reward      *apiHandler.RewardHandler
	Analytics   *apiHandler.AnalyticsHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	api.GET("/profile", authMiddleware(handlers.Profile.GetProfile))
	api.PUT("/profile", authMiddleware(handlers.Profile.UpdateProfile))
	api.GET("/activity", authMiddleware(handlers.Profile.GetActivity))

	api.GET("/tasks", authMiddleware(handlers.Task.GetTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	api.POST("/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))
	api.POST("/tasks/{id}/subtasks/{subtaskId}/toggle", authMiddleware(handlers.Task.ToggleSubtask))

	api.GET("/friends", authMiddleware(handlers.Profile.ListFriends))
	api.POST("/friends", authMiddleware(handlers.Profile.AddFriend))

	api.GET("/leaderboard/global", authMiddleware(handlers.Leaderboard.Global))
	api.GET("/leaderboard/friends", authMiddleware(handlers.Leaderboard.Friends))

	api.GET("/rewards", authMiddleware(handlers.Reward.Catalog))
	api.POST("/rewards/purchase", authMiddleware(handlers.Reward.Purchase))

	api.GET("/analytics", authMiddleware(handlers.Analytics.Summary))

	return r
}
