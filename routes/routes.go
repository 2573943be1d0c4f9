package routes

import (
	"net/http"
	"time"

	"memberhub-backend/config"
	"memberhub-backend/controllers"
	"memberhub-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(reminder *controllers.ReminderController) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "Server is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Member routes
		members := api.Group("/members")
		{
			members.POST("", controllers.CreateMember)
			members.GET("", controllers.GetMembers)
			members.GET("/expiring", controllers.GetExpiringMembers)
			members.GET("/:id", controllers.GetMember)
			members.PUT("/:id", controllers.UpdateMember)
			members.DELETE("/:id", controllers.DeleteMember)
			members.POST("/:id/reminder", reminder.SendMemberReminder)
		}

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)
	}

	return r
}
