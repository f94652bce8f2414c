package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yamenzk/ptrainer/internal/config"
	"github.com/yamenzk/ptrainer/internal/handlers"
	"github.com/yamenzk/ptrainer/internal/middleware"
	"github.com/yamenzk/ptrainer/internal/repository"
	"github.com/yamenzk/ptrainer/internal/services"
	noticews "github.com/yamenzk/ptrainer/internal/websocket"
	"go.uber.org/zap"
)

// Services holds the long-lived components the server wires into routes and
// runs alongside the listener.
type Services struct {
	Profiles  *services.ProfileStore
	Wizards   *services.WizardService
	Refresher *services.RefreshService
	Hub       *noticews.Hub
}

// BuildServices assembles the dashboard services. Without a database the
// snapshot cache and audit trail live in memory only.
func BuildServices(cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) *Services {
	backend := services.NewFrappeTrainerBackend(
		cfg.BackendURL,
		cfg.BackendTimeout,
		logger.Named("backend"),
		services.WithAPIToken(cfg.BackendAPIKey, cfg.BackendAPISecret),
	)
	hub := noticews.NewHub(logger.Named("hub"))

	var profiles *services.ProfileStore
	var wizards *services.WizardService
	if db != nil {
		profiles = services.NewProfileStore(backend, repository.NewClientSnapshotRepository(db), logger.Named("profiles"))
		wizards = services.NewWizardService(profiles, backend, repository.NewWizardSubmissionRepository(db), hub, cfg.WizardSettleDelay, logger.Named("wizard"))
	} else {
		profiles = services.NewProfileStore(backend, nil, logger.Named("profiles"))
		wizards = services.NewWizardService(profiles, backend, nil, hub, cfg.WizardSettleDelay, logger.Named("wizard"))
	}
	refresher := services.NewRefreshService(profiles, wizards, hub, cfg.RefreshInterval, logger.Named("refresh"))

	return &Services{
		Profiles:  profiles,
		Wizards:   wizards,
		Refresher: refresher,
		Hub:       hub,
	}
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, svc *Services) error {
	profileHandler := handlers.NewProfileHandler(svc.Profiles, svc.Refresher)
	wizardHandler := handlers.NewWizardHandler(svc.Wizards, svc.Profiles)
	noticeHandler := handlers.NewNoticeHandler(svc.Hub, svc.Refresher, svc.Profiles)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api")
	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	authProtected.Get("/profile", profileHandler.GetProfile)
	authProtected.Post("/profile/refresh", profileHandler.RefreshProfile)
	authProtected.Get("/requirements", profileHandler.GetRequirements)

	wizards := authProtected.Group("/wizard")
	wizards.Post("", wizardHandler.OpenWizard)
	wizards.Get("", wizardHandler.GetActiveWizard)
	wizards.Get("/submissions", wizardHandler.ListSubmissions)
	wizards.Get("/:id", wizardHandler.GetWizard)
	wizards.Put("/:id/answers/:field", wizardHandler.AnswerStep)
	wizards.Post("/:id/advance", wizardHandler.Advance)
	wizards.Post("/:id/retreat", wizardHandler.Retreat)
	wizards.Delete("/:id", wizardHandler.CloseWizard)

	authProtected.Use("/ws", noticeHandler.WebSocketAuth)
	authProtected.Get("/ws", websocket.New(noticeHandler.HandleWebSocket))

	return nil
}
