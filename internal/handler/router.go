package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/middleware"
)

// Router собирает обработчики и middleware в один gin.Engine
type Router struct {
	Auth           *AuthHandler
	Game           *GameHandler
	Rooms          *RoomHandler
	Users          *UserHandler
	Quizzes        *QuizHandler
	Assignments    *AssignmentHandler
	H5P            *H5PHandler
	WS             *WSHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	TrustedProxies []string
}

// Setup настраивает маршруты /api/* и /ws
func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	if err := router.SetTrustedProxies(r.TrustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	corsConfig := cors.Config{
		AllowOrigins:     r.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(r.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	auth := r.AuthMiddleware
	strict := r.RateLimiter.Limit(middleware.StrictAuthRateLimitConfig())

	api := router.Group("/api")
	{
		api.GET("/health", Health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", strict, r.Auth.Register)
			authGroup.POST("/login", strict, r.Auth.Login)

			authed := authGroup.Group("")
			authed.Use(auth.RequireAuth())
			authed.GET("/me", r.Auth.Me)
			authed.POST("/ws-ticket", r.Auth.GetWsTicket)
		}

		game := api.Group("/game")
		game.Use(auth.RequireAuth())
		{
			game.GET("/available-rooms", r.Game.AvailableRooms)
			game.POST("/start-session/:room_id", middleware.ExtractUintParam("room_id", "roomID"), r.Game.StartSession)
			game.POST("/submit-answer", r.Game.SubmitAnswer)

			session := game.Group("/session/:id")
			session.Use(middleware.ExtractUintParam("id", "sessionID"))
			session.GET("/puzzles", r.Game.SessionPuzzles)
			session.GET("/progress", r.Game.Progress)
			session.POST("/complete", r.Game.CompleteSession)
		}

		admin := api.Group("/admin")
		admin.Use(auth.RequireAuth(), auth.StaffOnly())
		{
			admin.GET("/rooms", r.Rooms.ListRooms)
			admin.POST("/rooms", r.Rooms.CreateRoom)

			room := admin.Group("/rooms/:id")
			room.Use(middleware.ExtractUintParam("id", "roomID"))
			room.GET("", r.Rooms.GetRoom)
			room.PUT("", r.Rooms.UpdateRoom)
			room.DELETE("", r.Rooms.DeleteRoom)
			room.POST("/activate", r.Rooms.ToggleActive)
			room.GET("/puzzles", r.Rooms.ListPuzzles)
			room.POST("/puzzles", r.Rooms.CreatePuzzle)
			room.GET("/results/export", r.Rooms.ExportRoomResults)
			room.POST("/assign-student", r.Assignments.AssignStudent)
			room.GET("/assignments", r.Assignments.ListAssigned)

			puzzle := admin.Group("/puzzles/:id")
			puzzle.Use(middleware.ExtractUintParam("id", "puzzleID"))
			puzzle.PUT("", r.Rooms.UpdatePuzzle)
			puzzle.DELETE("", r.Rooms.DeletePuzzle)

			admin.POST("/h5p/upload", r.H5P.Upload)
			admin.GET("/h5p/content/:id", r.H5P.GetContent)
			admin.DELETE("/h5p/content/:id", middleware.ExtractUintParam("id", "puzzleID"), r.H5P.DeleteContent)

			admin.GET("/students", r.Users.ListStudents)
			admin.GET("/teachers", r.Users.ListTeachers)
		}

		quizzes := api.Group("/quizzes")
		quizzes.Use(auth.RequireAuth())
		{
			quizzes.GET("", r.Quizzes.ListQuizzes)
			quizzes.POST("/upload", auth.StaffOnly(), r.Quizzes.Upload)
		}
	}

	router.GET("/ws", r.WS.HandleConnection)
	router.GET("/ws/room/:id", middleware.ExtractUintParam("id", "roomID"), r.WS.HandleRoomConnection)
	return router
}

// Health отвечает на проверку доступности
// GET /api/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
