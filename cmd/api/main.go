package main

import (
	"context"
	"strings"
	"time"

	_ "carf-backend/api/swagger" // swagger docs
	"carf-backend/internal/cache"
	"carf-backend/internal/config"
	"carf-backend/internal/database"
	"carf-backend/internal/drive"
	"carf-backend/internal/handler"
	"carf-backend/internal/logger"
	"carf-backend/internal/middleware"
	"carf-backend/internal/pdf"
	"carf-backend/internal/repository"
	"carf-backend/internal/service"
	"carf-backend/internal/sheet"
	"carf-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Online CARF API
// @version         1.0
// @description     Customer activation request forms: multi-step capture, approval chain workflow, document storage and PDF export.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		// Running without a .env file is fine; environment wins anyway.
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	middleware.InitPermissionMiddleware(db)

	// Redis list cache; nil-safe when unreachable so startup never blocks on it.
	listCache := cache.New(cfg.RedisURL)

	// WebSocket hub for workflow status events
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Blob + workbook storage on the OS filesystem
	osFs := afero.NewOsFs()
	driveRepo := repository.NewDriveRepository(db)
	driveStore := drive.NewStore(osFs, cfg.DriveRoot, driveRepo)
	workbook := sheet.NewWorkbook(osFs, cfg.SheetRoot)

	// Repositories
	txm := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	matrixRepo := repository.NewMatrixRepository(db)
	udfRepo := repository.NewUDFRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Request rows live either in postgres or in the spreadsheet workbook.
	var customerRepo repository.CustomerRepository
	switch cfg.CustomerSource {
	case config.SourceSheet:
		customerRepo = sheet.NewCustomerStore(workbook)
		log.Info("customer requests backed by spreadsheet workbook", zap.String("dir", cfg.SheetRoot))
	default:
		customerRepo = repository.NewCustomerRepository(db)
	}

	// PDF renderer with a shared headless browser
	renderer, err := pdf.NewRenderer(cfg.PDFMaxConcurrent, time.Duration(cfg.PDFTimeoutSec)*time.Second)
	if err != nil {
		log.Fatal("pdf renderer startup failed", zap.Error(err))
	}
	defer renderer.Close()

	// Services
	userService := service.NewUserService(userRepo, tokenRepo)
	groupService := service.NewGroupService(groupRepo, txm)
	customerService := service.NewCustomerService(customerRepo, matrixRepo, userRepo, auditRepo, txm, wsHub, listCache)
	matrixService := service.NewMatrixService(matrixRepo, userRepo, auditRepo, txm)
	udfService := service.NewUDFService(udfRepo, auditRepo)
	auditService := service.NewAuditService(auditRepo)

	if err := groupService.SeedDefaultGroupsAndPermissions(context.Background()); err != nil {
		log.Warn("failed to seed default groups", zap.Error(err))
	}

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	groupHandler := handler.NewGroupHandler(groupService)
	customerHandler := handler.NewCustomerHandler(customerService)
	matrixHandler := handler.NewMatrixHandler(matrixService)
	udfHandler := handler.NewUDFHandler(udfService)
	auditHandler := handler.NewAuditHandler(auditService)
	driveHandler := handler.NewDriveHandler(driveStore, customerService, auditRepo)
	sheetHandler := handler.NewSheetHandler(workbook)
	pdfHandler := handler.NewPDFHandler(renderer, auditRepo)

	// Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routing
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	groupHandler.RegisterRoutes(root)
	customerHandler.RegisterRoutes(root)
	matrixHandler.RegisterRoutes(root)
	udfHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)
	driveHandler.RegisterRoutes(root)
	sheetHandler.RegisterRoutes(root)
	pdfHandler.RegisterRoutes(root)

	log.Info("server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
