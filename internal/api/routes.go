package api

import (
	"net/http"
	"time"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the full HTTP surface: the JSON API, the internal
// scheduler endpoint, and the gated page routes.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	serviceKey string,
	sessionTTL time.Duration,
	secureCookies bool,
	authService service.AuthService,
	coachService service.CoachService,
	playerService service.PlayerService,
	quizService service.QuizService,
	questionnaireService service.QuestionnaireService,
) {
	authHandler := NewAuthHandler(authService, sessionTTL, secureCookies)
	coachHandler := NewCoachHandler(coachService)
	playerHandler := NewPlayerHandler(playerService)
	quizHandler := NewQuizHandler(quizService)
	questionnaireHandler := NewQuestionnaireHandler(questionnaireService, playerService)
	pageHandler := NewPageHandler()

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/invitations/accept", authHandler.AcceptInvite)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/coaches", coachHandler.ListCoaches)
			adminGroup.POST("/coaches", coachHandler.InviteCoach)
			adminGroup.DELETE("/coaches/:coachId", coachHandler.DeleteCoach)

			adminGroup.GET("/players", playerHandler.ListPlayers)
			adminGroup.POST("/players", playerHandler.AddPlayer)
			adminGroup.GET("/players/:playerId", playerHandler.GetPlayer)
			adminGroup.PUT("/players/:playerId", playerHandler.UpdatePlayer)
			adminGroup.DELETE("/players/:playerId", playerHandler.DeletePlayer)
			adminGroup.GET("/players/:playerId/playbook", playerHandler.PlaybookDownload)

			adminGroup.GET("/quizzes", quizHandler.ListQuizzes)
			adminGroup.POST("/quizzes", quizHandler.CreateQuiz)
			adminGroup.GET("/quizzes/:quizId", quizHandler.GetQuiz)
			adminGroup.DELETE("/quizzes/:quizId", quizHandler.DeleteQuiz)
			adminGroup.POST("/quizzes/:quizId/versions/:versionId/activate", quizHandler.SetActiveVersion)
			adminGroup.DELETE("/quizzes/:quizId/versions/:versionId", quizHandler.DeleteVersion)

			adminGroup.POST("/versions/:versionId/clone", quizHandler.CloneVersion)
			adminGroup.PUT("/versions/:versionId/data", quizHandler.UpdateVersionData)
			adminGroup.GET("/versions/:versionId/access", quizHandler.GetCoachAccess)
			adminGroup.PUT("/versions/:versionId/access", quizHandler.UpdateCoachAccess)

			adminGroup.POST("/questionnaire/templates", questionnaireHandler.SaveTemplate)
			adminGroup.GET("/questionnaire/templates/latest", questionnaireHandler.LatestTemplate)
		}

		// --- Coach Dashboard Routes ---
		dashboardGroup := protected.Group("/dashboard")
		dashboardGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			dashboardGroup.GET("/players", playerHandler.MyPlayers)
			dashboardGroup.GET("/players/:playerId", playerHandler.MyPlayer)
			dashboardGroup.GET("/players/:playerId/playbook", playerHandler.MyPlayerPlaybook)
			dashboardGroup.GET("/players/:playerId/questionnaires", questionnaireHandler.MyPlayerResponses)

			dashboardGroup.GET("/quiz", quizHandler.MyAssignedQuiz)
			dashboardGroup.POST("/quiz/:versionId/administer", quizHandler.RecordAdministration)

			dashboardGroup.POST("/questionnaires/:responseId/submit", questionnaireHandler.SubmitResponse)
		}
	}

	// --- Internal Routes (machine callers, no user session) ---
	internal := router.Group("/internal")
	internal.Use(ServiceKeyMiddleware(serviceKey))
	{
		internal.POST("/questionnaires/assign", questionnaireHandler.Assign)
	}

	// --- Gated Page Routes ---
	gate := GateMiddleware(jwtSecret)
	pages := router.Group("")
	pages.Use(gate)
	{
		pages.GET("/login", pageHandler.Shell("login"))
		pages.GET("/admin/login", pageHandler.Shell("admin/login"))
		pages.GET("/admin/coaches", pageHandler.Shell("admin/coaches"))
		pages.GET("/admin/players", pageHandler.Shell("admin/players"))
		pages.GET("/admin/quizzes", pageHandler.Shell("admin/quizzes"))
		pages.GET("/admin/quizzes/:quizId", pageHandler.Shell("admin/quiz-editor"))
		pages.GET("/admin/questionnaire", pageHandler.Shell("admin/questionnaire"))
		pages.GET("/dashboard", pageHandler.Shell("dashboard"))
		pages.GET("/auth/confirm", pageHandler.AuthConfirm)
		pages.GET("/auth/callback", pageHandler.AuthCallback)
	}
}
