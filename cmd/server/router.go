package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lingochat/internal/handlers"
	"lingochat/internal/middleware"
	jwtauth "lingochat/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *jwtauth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	roomH *handlers.RoomHandler,
	messageH *handlers.MessageHandler,
	wsH *handlers.WebSocketHandler,
) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/me", userH.GetMe)
		api.PATCH("/me", userH.UpdateMe)
		api.GET("/users/:id", userH.GetUser)

		api.POST("/rooms", roomH.CreateRoom)
		api.GET("/rooms", roomH.ListRooms)
		api.GET("/rooms/:id", roomH.GetRoom)
		api.PATCH("/rooms/:id", roomH.UpdateRoom)
		api.DELETE("/rooms/:id", roomH.DeleteRoom)
		api.POST("/rooms/:id/join", roomH.JoinRoom)
		api.POST("/rooms/:id/leave", roomH.LeaveRoom)
		api.GET("/rooms/:id/members", roomH.GetRoomMembers)

		api.POST("/rooms/:id/messages", messageH.PostMessage)
		api.GET("/rooms/:id/messages", messageH.GetMessages)
	}

	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
