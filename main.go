package main

import (
	"fmt"
	"log"
	"os"

	"memberhub-backend/config"
	"memberhub-backend/controllers"
	"memberhub-backend/models"
	"memberhub-backend/routes"
	"memberhub-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Member{},
		&models.ReminderLog{},
	)
}

func main() {
	settings := config.LoadSettings()

	messenger := services.NewTwilioMessenger(settings)
	reminderService := services.NewReminderService(config.DB, messenger, settings)
	if err := reminderService.StartScheduler(); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}
	defer reminderService.StopScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter(&controllers.ReminderController{Service: reminderService})
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
