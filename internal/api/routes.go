package api

import (
	"net/http"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	scheduleService service.ScheduleService,
	bookingService service.BookingService,
	coachService service.CoachService,
	notificationService service.NotificationService,
	subscriptionService service.SubscriptionService,
	adminService service.AdminService,
) {

	authHandler := NewAuthHandler(authService)
	scheduleHandler := NewScheduleHandler(scheduleService, subscriptionService)
	bookingHandler := NewBookingHandler(bookingService)
	coachHandler := NewCoachHandler(coachService)
	notificationHandler := NewNotificationHandler(notificationService)
	subscriptionHandler := NewSubscriptionHandler(subscriptionService, authService)
	adminHandler := NewAdminHandler(adminService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Stripe calls this directly; the signature header is the authentication.
	router.POST("/webhooks/stripe", subscriptionHandler.StripeWebhook)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Coach Discovery (any authenticated user) ---
		coachesGroup := protected.Group("/coaches")
		{
			coachesGroup.GET("", coachHandler.FindCoaches)
			coachesGroup.GET("/:coachId", coachHandler.GetCoach)
			coachesGroup.GET("/:coachId/schedule", scheduleHandler.GetCoachSchedule)
		}

		// --- Coach Self-Service Routes ---
		// Authentication from 'protected' plus the coach role.
		coachApiGroup := protected.Group("/coach")
		coachApiGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachApiGroup.PUT("/profile", coachHandler.UpdateProfile)
			coachApiGroup.POST("/profile/photo", coachHandler.RequestPhotoUpload)

			// POST /api/v1/coach/schedule - set a day's hours, regenerate slots
			coachApiGroup.POST("/schedule", scheduleHandler.GenerateSlots)
			coachApiGroup.GET("/schedule", scheduleHandler.GetMySchedule)
			coachApiGroup.POST("/schedule/slots", scheduleHandler.AddSlot)
			coachApiGroup.PATCH("/schedule/slots/:slotId/toggle", scheduleHandler.ToggleSlot)

			coachApiGroup.POST("/subscription/checkout", subscriptionHandler.CreateCheckout)
			coachApiGroup.GET("/subscription", subscriptionHandler.GetSubscription)
		}

		// --- Booking Routes ---
		bookingGroup := protected.Group("/bookings")
		{
			// Only athletes open new bookings; coaches act on existing ones.
			bookingGroup.POST("", RoleMiddleware(domain.RoleAthlete), bookingHandler.CreateBooking)
			bookingGroup.GET("", bookingHandler.ListBookings)
			bookingGroup.POST("/:bookingId/cancel", bookingHandler.CancelBooking)
			bookingGroup.POST("/:bookingId/finish", RoleMiddleware(domain.RoleCoach), bookingHandler.FinishBooking)
			bookingGroup.POST("/:bookingId/reschedule", bookingHandler.RequestReschedule)
			bookingGroup.POST("/:bookingId/reschedule/respond", bookingHandler.RespondToReschedule)
			bookingGroup.POST("/:bookingId/review", RoleMiddleware(domain.RoleAthlete), coachHandler.CreateReview)
		}

		// --- Favorites (athlete only) ---
		favoritesGroup := protected.Group("/favorites")
		favoritesGroup.Use(RoleMiddleware(domain.RoleAthlete))
		{
			favoritesGroup.GET("", coachHandler.ListFavorites)
			favoritesGroup.POST("/:coachId", coachHandler.AddFavorite)
			favoritesGroup.DELETE("/:coachId", coachHandler.RemoveFavorite)
		}

		// --- Notifications ---
		notificationsGroup := protected.Group("/notifications")
		{
			notificationsGroup.GET("", notificationHandler.ListNotifications)
			notificationsGroup.POST("/:notificationId/read", notificationHandler.MarkNotificationRead)
		}

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/dashboard", adminHandler.Dashboard)
		}
	}
}
