package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/naufalhakim/profile-builder/internal/analysis"
	"github.com/naufalhakim/profile-builder/internal/config"
	"github.com/naufalhakim/profile-builder/internal/domain/fiber/handler"
	"github.com/naufalhakim/profile-builder/internal/draft"
	"github.com/naufalhakim/profile-builder/internal/middleware"
	"github.com/naufalhakim/profile-builder/internal/model"
	"github.com/naufalhakim/profile-builder/internal/repository"
	"github.com/naufalhakim/profile-builder/internal/service"
	"github.com/naufalhakim/profile-builder/internal/usecase"
	"github.com/naufalhakim/profile-builder/internal/wizard"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	err := godotenv.Load()
	if err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env != "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB()

	sectionRepo := repository.NewSectionRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	jobRepo := repository.NewAnalysisJobRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	positionRepo := repository.NewPositionRepository(db)

	wizardConfig := config.LoadWizardConfig()
	analysisConfig := config.LoadAnalysisConfig()
	draftCache := draft.NewCache(wizardConfig.DraftDir, wizardConfig.DraftTTL)
	registry := wizard.DefaultRegistry()
	extractor := service.NewExtractorService()

	questionService, err := service.NewQuestionService(ctx)
	if err != nil {
		log.Fatal(err)
	}

	mgr := wizard.NewManager(func(sessionID uuid.UUID) (*wizard.Runtime, error) {
		coord := wizard.NewCoordinator(sectionRepo, snapshotRepo, draftCache, wizardConfig.Debounce)
		sess, offer, err := coord.Load(sessionID, registry)
		if err != nil {
			return nil, err
		}
		ctrl := wizard.NewController(sess, coord, registry)

		monitor := analysis.NewMonitor(jobRepo, sectionRepo, extractor, analysis.Config{
			PollInterval:     analysisConfig.PollInterval,
			MaxPollAttempts:  analysisConfig.MaxPollAttempts,
			FetchBaseDelay:   analysisConfig.FetchBaseDelay,
			FetchMaxDelay:    analysisConfig.FetchMaxDelay,
			FetchMaxAttempts: analysisConfig.FetchMaxAttempts,
			StuckAfter:       analysisConfig.StuckAfter,
		})
		monitor.OnExtracted(func(_ uuid.UUID, profile string) {
			ctrl.ApplyExtracted(profile)
		})
		monitor.OnReset(func(uuid.UUID) {
			ctrl.ResetToUpload()
		})

		stuck, err := monitor.CheckStuck(sessionID)
		if err != nil {
			log.Printf("stuck check failed for %s: %v", sessionID, err)
		}

		return &wizard.Runtime{
			Controller:  ctrl,
			Coordinator: coord,
			Monitor:     monitor,
			DraftOffer:  offer,
			Stuck:       stuck,
		}, nil
	})

	assessmentUc := usecase.NewAssessmentUsecase(assessmentRepo, positionRepo, questionService)

	handler.NewWizardHandler(mgr, registry).RegisterRoutes(app)
	handler.NewAnalysisHandler(mgr).RegisterRoutes(app)
	handler.NewAssessmentHandler(assessmentUc).RegisterRoutes(app)

	// Monitor goroutine count
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			log.Printf("Active goroutines: %d", runtime.NumGoroutine())
		}
	}()

	log.Println("Server running on ", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal(err)
	}
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=Asia/Jakarta",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	// uuid defaults and the positions embedding column need these.
	db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`)
	db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	err = db.AutoMigrate(
		&model.ProfileSection{},
		&model.StateSnapshot{},
		&model.AnalysisJob{},
		&model.SkillAssessment{},
		&model.Position{},
	)
	if err != nil {
		log.Fatal("migration failed: ", err)
	}
	return db
}
