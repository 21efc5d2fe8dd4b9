package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"strive/coaching-app/internal/api"
	"strive/coaching-app/internal/cache"
	"strive/coaching-app/internal/config"
	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/email"
	"strive/coaching-app/internal/logging"
	"strive/coaching-app/internal/repository"
	"strive/coaching-app/internal/repository/mongo"
	"strive/coaching-app/internal/service"
	"strive/coaching-app/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// --- Logging ---
	appLog, err := logging.Init(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer appLog.Closer()
	log := zap.S()
	log.Info("Starting coaching platform server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	log.Info("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("Database connection established.")

	// --- Ensure Indexes ---
	log.Info("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureOrganizationIndexes(ctx, appDB.Collection("organizations"))
		mongo.EnsurePlayerIndexes(ctx, appDB.Collection("players"))
		mongo.EnsureQuizIndexes(ctx, appDB.Collection("quizzes"))
		mongo.EnsureQuizVersionIndexes(ctx, appDB.Collection("quiz_versions"))
		mongo.EnsureCoachAccessIndexes(ctx, appDB.Collection("quiz_coach_access"))
		mongo.EnsureQuestionnaireIndexes(ctx, appDB.Collection("questionnaire_templates"), appDB.Collection("questionnaire_responses"))
		log.Info("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Info("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	// --- Listing Cache ---
	listings := cache.New(cfg.Redis.Addr, cfg.Redis.TTL)
	if listings == nil {
		log.Info("Redis address not configured; listing cache disabled.")
	}

	// --- Invitation Mailer ---
	var mailer email.Mailer
	if cfg.Email.SendgridKey != "" {
		mailer = email.NewSendgridMailer(cfg.Email.SendgridKey, cfg.Email.FromName, cfg.Email.FromEmail)
	} else {
		log.Info("SendGrid key not configured; invitations are written to the log.")
		mailer = email.NewConsoleMailer()
	}

	// --- Initialize Repositories ---
	log.Info("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	orgRepo := mongo.NewMongoOrganizationRepository(appDB)
	playerRepo := mongo.NewMongoPlayerRepository(appDB)
	quizRepo := mongo.NewMongoQuizRepository(appDB)
	versionRepo := mongo.NewMongoQuizVersionRepository(appDB)
	accessRepo := mongo.NewMongoCoachAccessRepository(appDB)
	questionnaireRepo := mongo.NewMongoQuestionnaireRepository(appDB)

	// --- Bootstrap Admin Account ---
	if err := ensureAdminAccount(context.Background(), userRepo, cfg.Admin); err != nil {
		log.Fatalf("Failed to ensure admin account: %v", err)
	}

	// --- Initialize Services ---
	log.Info("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	coachService := service.NewCoachService(userRepo, orgRepo, accessRepo, mailer, listings, cfg.Server.BaseURL)
	playerService := service.NewPlayerService(playerRepo, userRepo, questionnaireRepo, fileStorage, listings)
	quizService := service.NewQuizService(quizRepo, versionRepo, accessRepo, userRepo)
	questionnaireService := service.NewQuestionnaireService(questionnaireRepo, playerRepo)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Info("Setting up API routes...")
	secureCookies := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	api.SetupRoutes(
		router,
		cfg.JWT.Secret,
		cfg.Assign.ServiceKey,
		cfg.JWT.Expiration,
		secureCookies,
		authService,
		coachService,
		playerService,
		quizService,
		questionnaireService,
	)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exiting.")
}

// ensureAdminAccount creates the configured admin user on first start.
// Skipped when no admin credentials are configured; an existing account
// is left untouched.
func ensureAdminAccount(ctx context.Context, userRepo repository.UserRepository, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	if _, err := userRepo.GetByEmail(ctx, cfg.Email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Email:        cfg.Email,
		PasswordHash: string(hashed),
		Role:         domain.RoleAdmin,
		FirstName:    "Admin",
	}
	if _, err := userRepo.Create(ctx, admin); err != nil {
		return err
	}
	zap.S().Infow("bootstrap admin account created", "email", cfg.Email)
	return nil
}
