package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/trivia-live/internal/config"
	"github.com/yourusername/trivia-live/internal/handler"
	"github.com/yourusername/trivia-live/internal/middleware"
	pgRepo "github.com/yourusername/trivia-live/internal/repository/postgres"
	"github.com/yourusername/trivia-live/internal/service"
	"github.com/yourusername/trivia-live/internal/sse"
	"github.com/yourusername/trivia-live/pkg/auth"
	"github.com/yourusername/trivia-live/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	isProduction := os.Getenv("GIN_MODE") == "release"

	// Контекст приложения: отменяется при остановке сервера
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Redis нужен только rate limiter-у; без него лимиты отключаются (fail-open)
	var rateLimiter *middleware.RateLimiter
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Redis unavailable, rate limiting disabled: %v", err)
	} else {
		log.Println("Successfully connected to Redis")
		rateLimiter = middleware.NewRateLimiter(redisClient)
	}

	// Репозитории и менеджер транзакций
	repos := pgRepo.NewRepositories(db)
	txManager := pgRepo.NewTxManager(db)

	// JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWT service: %v", err)
		os.Exit(1)
	}

	// Email: Resend, если включен, иначе заглушка с логированием
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress)
		if err != nil {
			log.Printf("Failed to initialize Resend email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
	}

	// Хаб событий и хранилище билетов
	hub := sse.NewHub(cfg.Game.EventBufferSize)
	tickets := sse.NewTicketStore(cfg.Game.TicketTTL())
	go tickets.RunSweeper(appCtx, time.Minute)

	// Сервисы
	publisher := service.NewHubPublisher(hub)
	lobbyService := service.NewLobbyService(repos, &cfg.Game)
	rankingService := service.NewRankingService(repos)
	playService := service.NewPlayService(txManager, repos, rankingService, publisher, &cfg.Game)
	gameService := service.NewGameService(txManager, repos, lobbyService, playService, rankingService, publisher, &cfg.Game)
	rosterService := service.NewRosterService(txManager, repos, emailService, &cfg.Game)
	authService := service.NewAuthService(repos, jwtService)

	// Обработчики
	authHandler := handler.NewAuthHandler(authService)
	triviaHandler := handler.NewTriviaHandler(rosterService, gameService, rankingService)
	gameHandler := handler.NewGameHandler(gameService, playService, lobbyService, rosterService)
	eventHandler := handler.NewEventHandler(hub, tickets, cfg.Game.TicketTTL())
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			if rateLimiter != nil {
				authGroup.Use(rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()))
			}
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Пользователи
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", authHandler.Me)
		}

		// Викторины
		trivias := api.Group("/trivias")
		trivias.Use(authMiddleware.RequireAuth())
		{
			trivias.GET("/assigned", gameHandler.ListAssigned)

			// Группа маршрутов, требующих trivia_id
			withID := trivias.Group("/:trivia_id")
			{
				withID.GET("", triviaHandler.GetTrivia)

				// Игровой цикл игрока
				withID.POST("/join", gameHandler.Join)
				withID.POST("/ready", gameHandler.Ready)
				withID.POST("/heartbeat", gameHandler.Heartbeat)
				withID.GET("/lobby", gameHandler.GetLobby)
				withID.GET("/question", gameHandler.GetCurrentQuestion)
				withID.POST("/answers", gameHandler.SubmitAnswer)
				withID.POST("/fifty-fifty", gameHandler.UseFiftyFifty)
				withID.GET("/ranking", triviaHandler.GetRanking)

				// Билеты на поток событий
				ticketRoute := withID.Group("")
				if rateLimiter != nil {
					ticketRoute.Use(rateLimiter.Limit(middleware.TicketRateLimitConfig()))
				}
				ticketRoute.POST("/events/ticket", eventHandler.CreateTicket)

				// Маршруты для администраторов
				admin := withID.Group("")
				admin.Use(authMiddleware.AdminOnly())
				{
					admin.POST("/questions", triviaHandler.AddQuestion)
					admin.POST("/players", triviaHandler.AssignPlayer)
					admin.POST("/start", triviaHandler.StartTrivia)
					admin.POST("/advance", triviaHandler.AdvanceQuestion)
					admin.POST("/reset", triviaHandler.ResetTrivia)
					admin.GET("/lobby/admin", gameHandler.GetAdminLobby)
					admin.GET("/ranking/export", triviaHandler.ExportRanking)
				}
			}

			// Создание и список своих викторин (только администраторы)
			adminCreate := trivias.Group("")
			adminCreate.Use(authMiddleware.AdminOnly())
			{
				adminCreate.POST("", triviaHandler.CreateTrivia)
				adminCreate.GET("", triviaHandler.ListMyTrivias)
			}
		}
	}

	// Потоки событий: авторизация одноразовым билетом в query-параметре,
	// поэтому вне RequireAuth
	router.GET("/api/trivias/:trivia_id/events", eventHandler.StreamSSE)
	router.GET("/api/trivias/:trivia_id/events/ws", eventHandler.StreamWS)

	// WriteTimeout не задаем: SSE-потоки долгоживущие,
	// их живость обеспечивают keepalive-кадры
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем фоновые горутины (sweeper билетов)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
