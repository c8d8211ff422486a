package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/trailpost/tours-api/docs"
	v1 "github.com/trailpost/tours-api/internal/api/handler/v1"
	"github.com/trailpost/tours-api/internal/api/middleware"
	"github.com/trailpost/tours-api/internal/config"
	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/payment"
	"github.com/trailpost/tours-api/internal/pkg/loginguard"
	"github.com/trailpost/tours-api/internal/pkg/mailer"
	"github.com/trailpost/tours-api/internal/repository"
	"github.com/trailpost/tours-api/internal/repository/dao"
	"github.com/trailpost/tours-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	if conf.API.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	tourRepo := repository.NewTourRepository(dao.NewTourDAO(db))
	bookingRepo := repository.NewBookingRepository(dao.NewBookingDAO(db))
	reviewRepo := repository.NewReviewRepository(dao.NewReviewDAO(db))

	gateway := payment.NewStripeGateway(conf.Stripe)
	guard := loginguard.New(conf.API.MaxLoginAttempts)
	smtpMailer := mailer.NewSMTPMailer(conf.SMTP)
	resetURL := conf.API.BaseURL + "/api/v1/auth/reset-password/"

	authSvc := service.NewAuthService(userRepo, guard, smtpMailer, resetURL)
	tourSvc := service.NewTourService(tourRepo)
	bookingSvc := service.NewBookingService(bookingRepo, userRepo, tourRepo, gateway)
	reviewSvc := service.NewReviewService(reviewRepo, bookingRepo, tourRepo)
	userSvc := service.NewUserService(userRepo, reviewSvc)

	authHandler := v1.NewAuthHandler(conf.JWT, authSvc)
	tourHandler := v1.NewTourHandler(tourSvc)
	bookingHandler := v1.NewBookingHandler(bookingSvc)
	reviewHandler := v1.NewReviewHandler(reviewSvc)
	userHandler := v1.NewUserHandler(userSvc)
	webhookHandler := v1.NewWebhookHandler(gateway, bookingSvc)

	authenticator := middleware.NewAuthenticator(conf.JWT.SigningKey, userRepo)

	s.MountHandlers(authenticator, authHandler, tourHandler, bookingHandler, reviewHandler, userHandler, webhookHandler)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedOrigins))
}

func (s *Server) MountHandlers(
	authenticator *middleware.Authenticator,
	authHandler *v1.AuthHandler,
	tourHandler *v1.TourHandler,
	bookingHandler *v1.BookingHandler,
	reviewHandler *v1.ReviewHandler,
	userHandler *v1.UserHandler,
	webhookHandler *v1.WebhookHandler,
) {
	const basePath = "/api/v1"

	requireAuth := authenticator.VerifyJWT()
	optionalAuth := authenticator.OptionalJWT()
	staffOnly := middleware.RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)
	customersOnly := middleware.RequireRoles(domain.RoleUser)

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
		auth.POST("/auth/logout", authHandler.HandleLogout)
		auth.POST("/auth/forgot-password", authHandler.HandleForgotPassword)
		auth.PATCH("/auth/reset-password/:token", authHandler.HandleResetPassword)
	}

	tours := s.Router.Group(basePath)
	{
		tours.GET("/tours", optionalAuth, tourHandler.HandleListTours)
		tours.GET("/tours/top-5-cheap", optionalAuth, tourHandler.HandleTopCheapTours)
		tours.GET("/tours/stats", tourHandler.HandleTourStats)
		tours.GET("/tours/slug/:slug", optionalAuth, tourHandler.HandleGetTourBySlug)
		tours.GET("/tours/within/:distance/center/:latlng/unit/:unit", tourHandler.HandleToursWithin)
		tours.GET("/tours/distances/:latlng/unit/:unit", tourHandler.HandleTourDistances)
		tours.GET("/tours/:tourID", optionalAuth, tourHandler.HandleGetTour)
		tours.GET("/tours/:tourID/reviews", reviewHandler.HandleListTourReviews)

		tours.GET("/tours/monthly-plan/:year", requireAuth,
			middleware.RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide),
			tourHandler.HandleMonthlyPlan)
		tours.POST("/tours", requireAuth, staffOnly, tourHandler.HandleCreateTour)
		tours.PATCH("/tours/:tourID", requireAuth, staffOnly, tourHandler.HandleUpdateTour)
		tours.DELETE("/tours/:tourID", requireAuth, staffOnly, tourHandler.HandleDeleteTour)
	}

	reviews := s.Router.Group(basePath)
	{
		reviews.GET("/reviews/:reviewID", reviewHandler.HandleGetReview)

		reviews.POST("/tours/:tourID/reviews", requireAuth, customersOnly, reviewHandler.HandleCreateReview)
		reviews.PATCH("/reviews/:reviewID", requireAuth, reviewHandler.HandleUpdateReview)
		reviews.DELETE("/reviews/:reviewID", requireAuth, reviewHandler.HandleDeleteReview)
	}

	bookings := s.Router.Group(basePath, requireAuth)
	{
		bookings.POST("/tours/:tourID/checkout", customersOnly, bookingHandler.HandleCreateCheckoutSession)
		bookings.GET("/bookings/me", bookingHandler.HandleMyBookings)

		bookings.GET("/users/me/favorites", bookingHandler.HandleListFavorites)
		bookings.PATCH("/tours/:tourID/favorites", customersOnly, bookingHandler.HandleAddFavorite)
		bookings.DELETE("/tours/:tourID/favorites", customersOnly, bookingHandler.HandleRemoveFavorite)

		bookings.GET("/bookings", staffOnly, bookingHandler.HandleListBookings)
		bookings.POST("/bookings", staffOnly, bookingHandler.HandleCreateBooking)
		bookings.GET("/bookings/:bookingID", staffOnly, bookingHandler.HandleGetBooking)
		bookings.PATCH("/bookings/:bookingID", staffOnly, bookingHandler.HandleUpdateBooking)
		bookings.DELETE("/bookings/:bookingID", staffOnly, bookingHandler.HandleDeleteBooking)
	}

	users := s.Router.Group(basePath, requireAuth)
	{
		users.GET("/users/me", userHandler.HandleGetMe)
		users.PATCH("/users/me", userHandler.HandleUpdateMe)
		users.DELETE("/users/me", userHandler.HandleDeleteMe)
		users.PATCH("/users/me/password", authHandler.HandleUpdatePassword)

		users.GET("/users", adminOnly, userHandler.HandleListUsers)
		users.GET("/users/:userID", adminOnly, userHandler.HandleGetUser)
		users.GET("/users/:userID/bookings", adminOnly, bookingHandler.HandleUserBookings)
		users.DELETE("/users/:userID", adminOnly, userHandler.HandleDeleteUser)
	}

	// Webhooks authenticate by signature, not by user token.
	s.Router.POST(basePath+"/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.Host
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Tours API"
	docs.SwaggerInfo.Description = "REST API for browsing, booking and reviewing tours."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
