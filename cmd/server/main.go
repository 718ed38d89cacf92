package main

import (
	"log"
	"net/http"

	"livetalk/backend/internal/audio"
	"livetalk/backend/internal/auth"
	"livetalk/backend/internal/config"
	"livetalk/backend/internal/database"
	"livetalk/backend/internal/economy"
	"livetalk/backend/internal/gamebridge"
	"livetalk/backend/internal/handler"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/logging"
	"livetalk/backend/internal/presence"
	"livetalk/backend/internal/seats"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "livetalk/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           LiveTalk API
// @version         1.0
// @description     This is the API for the LiveTalk service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := logging.NewLogger()

	database.Connect(config.AppConfig.DatabaseURL)

	presenceStore, err := presence.NewStore(config.AppConfig.ValkeyAddr, config.AppConfig.PresenceTTL())
	if err != nil {
		log.Fatalf("Failed to connect to valkey: %v", err)
	}
	defer presenceStore.Close()

	eventHub := hub.NewHub()
	scheduler := seats.NewScheduler(database.DB, eventHub, config.AppConfig.SeatSyncDelay(), logger)
	rng := economy.NewLockedSource(nil)
	reconciler := economy.NewReconciler(database.DB, eventHub, rng, scheduler, logger)
	combos := economy.NewComboTracker(reconciler, config.AppConfig.ComboWindow())
	bridge := gamebridge.NewRegistry(database.DB, logger)
	audioManager := audio.NewManager(
		audio.NewProviderTransport(config.AppConfig.AudioAPIURL, config.AppConfig.AudioAppID),
		logger,
	)

	handler.Configure(handler.Deps{
		Hub:        eventHub,
		Reconciler: reconciler,
		Combos:     combos,
		Seats:      scheduler,
		Presence:   presenceStore,
		Bridge:     bridge,
		Audio:      audioManager,
		Logger:     logger,
	})

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
			userRoutes.PUT("/me", handler.UpdateMe)
			userRoutes.GET("/:id", handler.GetUserByID)
		}

		// Room routes
		roomRoutes := apiV1.Group("/rooms")
		roomRoutes.Use(auth.OptionalAuthMiddleware())
		{
			roomRoutes.GET("", handler.ListRooms)
			roomRoutes.GET("/:id", handler.GetRoom)
			roomRoutes.GET("/:id/events", handler.StreamRoomEvents)
			roomRoutes.GET("/:id/messages", handler.ListMessages)
			roomRoutes.GET("/:id/listeners", handler.ListListeners)
			roomRoutes.GET("/:id/contributors", handler.ListContributors)
			roomRoutes.GET("/:id/lucky-bags", handler.ListLuckyBags)
		}

		// Room routes (protected)
		roomAuthRoutes := apiV1.Group("/rooms")
		roomAuthRoutes.Use(auth.AuthMiddleware())
		{
			roomAuthRoutes.POST("", handler.CreateRoom)
			roomAuthRoutes.PUT("/:id", handler.UpdateRoom)
			roomAuthRoutes.POST("/:id/join", handler.JoinRoom)
			roomAuthRoutes.POST("/:id/leave", handler.LeaveRoom)
			roomAuthRoutes.POST("/:id/heartbeat", handler.Heartbeat)
			roomAuthRoutes.POST("/:id/messages", handler.SendMessage)

			roomAuthRoutes.POST("/:id/seats/claim", handler.ClaimSeat)
			roomAuthRoutes.POST("/:id/seats/leave", handler.LeaveSeat)
			roomAuthRoutes.POST("/:id/seats/mute", handler.SetSeatMute)
			roomAuthRoutes.POST("/:id/seats/emoji", handler.SetSeatEmoji)
			roomAuthRoutes.POST("/:id/seats/reset-charm", handler.ResetSeatCharm)
			roomAuthRoutes.POST("/:id/seats/mic-layout", handler.CycleMicLayout)

			roomAuthRoutes.POST("/:id/gifts/send", handler.SendGift)
			roomAuthRoutes.POST("/:id/gifts/combo", handler.ComboHit)

			roomAuthRoutes.POST("/:id/lucky-bags", handler.CreateLuckyBag)
			roomAuthRoutes.POST("/:id/lucky-bags/:bagId/claim", handler.ClaimLuckyBag)
		}

		// Catalog routes (public)
		apiV1.GET("/gifts", handler.ListGifts)
		apiV1.GET("/banners", handler.ListBanners)
		apiV1.GET("/emojis", handler.ListEmojis)
		apiV1.GET("/backgrounds", handler.ListBackgrounds)
		apiV1.GET("/store/items", handler.ListStoreItems)
		apiV1.GET("/store/special-ids", handler.ListSpecialIDs)
		apiV1.GET("/store/vip", handler.ListVIPPackages)

		// Store purchases (protected)
		storeRoutes := apiV1.Group("/store")
		storeRoutes.Use(auth.AuthMiddleware())
		{
			storeRoutes.POST("/vip/:id/purchase", handler.PurchaseVIP)
			storeRoutes.POST("/special-ids/:id/purchase", handler.PurchaseSpecialID)
			storeRoutes.POST("/items/:id/purchase", handler.PurchaseStoreItem)
		}

		// External game bridge
		apiV1.GET("/games", handler.ListExternalGames)
		apiV1.GET("/bridge/ws", handler.BridgeSocket)
		gameRoutes := apiV1.Group("/games")
		gameRoutes.Use(auth.AuthMiddleware())
		{
			gameRoutes.POST("/:id/open", handler.OpenExternalGame)
		}

		// Admin routes, gated per panel
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware())
		{
			giftAdmin := adminRoutes.Group("")
			giftAdmin.Use(auth.AdminMiddleware("gifts"))
			{
				giftAdmin.POST("/gifts", handler.CreateGift)
				giftAdmin.PUT("/gifts/:id", handler.UpdateGift)
				giftAdmin.DELETE("/gifts/:id", handler.DeleteGift)
				giftAdmin.GET("/game-settings", handler.GetGameSettings)
				giftAdmin.PUT("/game-settings", handler.UpdateGameSettings)
			}

			bannerAdmin := adminRoutes.Group("")
			bannerAdmin.Use(auth.AdminMiddleware("banners"))
			{
				bannerAdmin.POST("/banners", handler.CreateBanner)
				bannerAdmin.PUT("/banners/:id", handler.UpdateBanner)
				bannerAdmin.DELETE("/banners/:id", handler.DeleteBanner)
			}

			catalogAdmin := adminRoutes.Group("")
			catalogAdmin.Use(auth.AdminMiddleware("catalog"))
			{
				catalogAdmin.POST("/emojis", handler.CreateEmoji)
				catalogAdmin.PUT("/emojis/:id", handler.UpdateEmoji)
				catalogAdmin.DELETE("/emojis/:id", handler.DeleteEmoji)

				catalogAdmin.POST("/backgrounds", handler.CreateBackground)
				catalogAdmin.PUT("/backgrounds/:id", handler.UpdateBackground)
				catalogAdmin.DELETE("/backgrounds/:id", handler.DeleteBackground)

				catalogAdmin.POST("/store/items", handler.CreateStoreItem)
				catalogAdmin.PUT("/store/items/:id", handler.UpdateStoreItem)
				catalogAdmin.DELETE("/store/items/:id", handler.DeleteStoreItem)

				catalogAdmin.POST("/store/special-ids", handler.CreateSpecialID)
				catalogAdmin.PUT("/store/special-ids/:id", handler.UpdateSpecialID)
				catalogAdmin.DELETE("/store/special-ids/:id", handler.DeleteSpecialID)

				catalogAdmin.POST("/store/vip", handler.CreateVIPPackage)
				catalogAdmin.PUT("/store/vip/:id", handler.UpdateVIPPackage)
				catalogAdmin.DELETE("/store/vip/:id", handler.DeleteVIPPackage)
			}

			gameAdmin := adminRoutes.Group("")
			gameAdmin.Use(auth.AdminMiddleware("games"))
			{
				gameAdmin.POST("/games", handler.CreateExternalGame)
				gameAdmin.PUT("/games/:id", handler.UpdateExternalGame)
				gameAdmin.DELETE("/games/:id", handler.DeleteExternalGame)
			}

			userAdmin := adminRoutes.Group("")
			userAdmin.Use(auth.AdminMiddleware("users"))
			{
				userAdmin.GET("/users", handler.ListUsers)
				userAdmin.POST("/users/:id/coins", handler.GrantCoins)
				userAdmin.POST("/users/:id/ban", handler.SetBan)
				userAdmin.POST("/users/:id/vip", handler.GrantVIP)
				userAdmin.POST("/users/:id/reset-charm", handler.ResetUserCharm)
			}

			rootAdmin := adminRoutes.Group("")
			rootAdmin.Use(auth.RootAdminMiddleware())
			{
				rootAdmin.POST("/users/:id/role", handler.SetRole)
			}
		}
	}

	logger.Info("starting server", "addr", config.AppConfig.ListenAddr)
	if err := router.Run(config.AppConfig.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
