package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shurale/expense-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, categoryHandler *CategoryHandler, expenseHandler *ExpenseHandler, receiptsDir string) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Login is the only unauthenticated auth route
	e.POST("/auth/login", authHandler.Login)

	// Auth routes (protected)
	auth := e.Group("/auth")
	auth.Use(authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// Category routes (protected; mutations are admin only)
	categories := e.Group("/categories")
	categories.Use(authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.CreateCategory, middleware.RequireAdmin())
	categories.PATCH("/:id", categoryHandler.UpdateCategory, middleware.RequireAdmin())
	categories.POST("/:id/archive", categoryHandler.ArchiveCategory, middleware.RequireAdmin())
	categories.POST("/:id/restore", categoryHandler.RestoreCategory, middleware.RequireAdmin())

	// Expense routes (protected)
	expenses := e.Group("/expenses")
	expenses.Use(authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PATCH("/:id", expenseHandler.UpdateExpense)
	expenses.POST("/:id/delete", expenseHandler.DeleteExpense)
	expenses.POST("/:id/restore", expenseHandler.RestoreExpense, middleware.RequireAdmin())
	expenses.GET("/:id/history", expenseHandler.GetHistory, middleware.RequireAdmin())
	expenses.POST("/:id/receipt", expenseHandler.UploadReceipt)

	// Stored receipt files
	e.Static("/receipts", receiptsDir)
}
