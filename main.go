package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
)

func main() {
	config.Load()

	if config.AppEnv.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsurePrescriptionIndexes(db); err != nil {
		log.Printf("prescription index warning: %v", err)
	}
	if err := database.EnsureMessageIndexes(db); err != nil {
		log.Printf("message index warning: %v", err)
	}
	if err := database.EnsureAuditLogIndexes(db); err != nil {
		log.Printf("audit log index warning: %v", err)
	}

	if err := database.EnsureAdminAccount(db, config.AppEnv.AdminEmail, config.AppEnv.AdminPassword); err != nil {
		log.Printf("admin seed warning: %v", err)
	}

	secret := config.AppEnv.JWTSecret
	ttl := config.AppEnv.AccessTokenTTL
	freeThreshold := config.AppEnv.FreeDeliveryThreshold
	flatFee := config.AppEnv.StandardDeliveryFee

	r := gin.Default()
	r.Static("/uploads", config.AppEnv.UploadDir)

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "OK"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", handlers.Register(db, secret, ttl))
		auth.POST("/login", handlers.Login(db, secret, ttl))
		auth.GET("/me", middleware.AuthGuard(secret), handlers.GetMe(db))
	}

	products := r.Group("/api/products")
	{
		products.GET("", handlers.GetProducts(db))
		products.GET("/admin/low-stock", middleware.StaffAuth(secret), handlers.GetLowStockProducts(db))
		products.GET("/:id", handlers.GetProduct(db))
		products.POST("", middleware.AdminAuth(secret), handlers.CreateProduct(db))
		products.PUT("/:id", middleware.AdminAuth(secret), handlers.UpdateProduct(db))
		products.DELETE("/:id", middleware.AdminAuth(secret), handlers.DeleteProduct(db))
		products.PATCH("/:id/stock", middleware.StaffAuth(secret), handlers.UpdateStock(db))
	}

	categories := r.Group("/api/categories")
	{
		categories.GET("", handlers.GetCategories(db))
		categories.POST("", middleware.AdminAuth(secret), handlers.CreateCategory(db))
		categories.PUT("/:id", middleware.AdminAuth(secret), handlers.UpdateCategory(db))
		categories.DELETE("/:id", middleware.AdminAuth(secret), handlers.DeleteCategory(db))
	}

	orders := r.Group("/api/orders")
	{
		orders.POST("", middleware.CustomerAuth(secret), handlers.CreateOrder(db, freeThreshold, flatFee))
		orders.GET("/my-orders", middleware.CustomerAuth(secret), handlers.GetMyOrders(db))
		orders.GET("", middleware.StaffAuth(secret), handlers.GetAllOrders(db))
		orders.GET("/:id", middleware.AuthGuard(secret), handlers.GetOrder(db))
		orders.PATCH("/:id/status", middleware.StaffAuth(secret), handlers.UpdateOrderStatus(db))
		orders.PATCH("/:id/cancel", middleware.CustomerAuth(secret), handlers.CancelOrder(db))
		orders.POST("/:id/payment-proof", middleware.CustomerAuth(secret),
			handlers.UploadPaymentProof(db, config.AppEnv.UploadDir, config.AppEnv.MaxFileSize))
	}

	prescriptions := r.Group("/api/prescriptions")
	{
		prescriptions.POST("", middleware.CustomerAuth(secret),
			handlers.UploadPrescription(db, config.AppEnv.UploadDir, config.AppEnv.MaxFileSize, config.AppEnv.MaxPrescriptionFiles))
		prescriptions.GET("/my-prescriptions", middleware.CustomerAuth(secret), handlers.GetMyPrescriptions(db))
		prescriptions.GET("/pending", middleware.PharmacistAuth(secret), handlers.GetPendingPrescriptions(db))
		prescriptions.GET("", middleware.StaffAuth(secret), handlers.GetAllPrescriptions(db))
		prescriptions.GET("/:id", middleware.AuthGuard(secret), handlers.GetPrescription(db))
		prescriptions.PATCH("/:id/review", middleware.PharmacistAuth(secret),
			handlers.ReviewPrescription(db, freeThreshold, flatFee))
	}

	messages := r.Group("/api/messages")
	messages.Use(middleware.AuthGuard(secret))
	{
		messages.GET("", handlers.GetMyMessages(db))
		messages.PATCH("/:id/read", handlers.MarkMessageRead(db))
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.GET("/dashboard", handlers.GetDashboardStats(db))
		admin.GET("/pharmacists/pending", handlers.GetPendingPharmacists(db))
		admin.PATCH("/pharmacists/:id/approval", handlers.UpdatePharmacistApproval(db))
		admin.GET("/users", handlers.GetAllUsers(db))
		admin.PATCH("/users/:id/status", handlers.UpdateUserStatus(db))
		admin.GET("/audit-logs", handlers.GetAuditLogs(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
