package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"lingochat/internal/config"
	"lingochat/internal/database"
	"lingochat/internal/handlers"
	ws "lingochat/internal/websocket"
	"lingochat/pkg/auth"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
}

func NewServer() *Server {
	config.Load()

	db := &database.Database{}
	if err := db.Connect(config.MustGet("DATABASE_URL")); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(config.MustGet("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		config.MustGet("JWT_SECRET"),
		24*time.Hour,
	)

	hub := ws.NewHub()
	go hub.Run()

	authH := handlers.NewAuthHandler(db, jwtMgr, rdb)
	userH := handlers.NewUserHandler(db)
	roomH := handlers.NewRoomHandler(db, hub)
	messageH := handlers.NewMessageHandler(db, hub)
	wsH := handlers.NewWebSocketHandler(hub)

	router := gin.Default()
	APIEndpoints(router, jwtMgr, rdb, authH, userH, roomH, messageH, wsH)

	return &Server{
		Router: router,
		DB:     db,
		Redis:  rdb,
		Hub:    hub,
	}
}

func (s *Server) Run() {
	port := config.Get("PORT", "8080")
	log.Printf("server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("server run error: %v", err)
	}
}
