package provider

import (
	"github.com/schoolsuite/resultpin/internal/cache"
	"github.com/schoolsuite/resultpin/internal/config"
	"github.com/schoolsuite/resultpin/internal/logger"
	"github.com/schoolsuite/resultpin/internal/models"
	"github.com/schoolsuite/resultpin/internal/queue"
	"github.com/schoolsuite/resultpin/internal/repository"
	"github.com/schoolsuite/resultpin/internal/service"
)

// Container dependency injection container
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	SchoolRepo        repository.SchoolRepository
	SchoolAdminRepo   repository.SchoolAdminRepository
	StudentRepo       repository.StudentRepository
	StudentResultRepo repository.StudentResultRepository
	ScratchCardRepo   repository.ScratchCardRepository
	UsageRepo         repository.ScratchCardUsageRepository

	// Services
	AuthService        *service.AuthService
	EmailService       *service.EmailService
	ScratchCardService *service.ScratchCardService
	RedemptionService  *service.RedemptionService
}

// NewContainer builds the container
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.SchoolRepo = repository.NewSchoolRepository(db)
	c.SchoolAdminRepo = repository.NewSchoolAdminRepository(db)
	c.StudentRepo = repository.NewStudentRepository(db)
	c.StudentResultRepo = repository.NewStudentResultRepository(db)
	c.ScratchCardRepo = repository.NewScratchCardRepository(db)
	c.UsageRepo = repository.NewScratchCardUsageRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.SchoolAdminRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.ScratchCardService = service.NewScratchCardService(c.ScratchCardRepo, c.UsageRepo, c.Config.Cards)
	c.RedemptionService = service.NewRedemptionService(
		c.ScratchCardRepo,
		c.UsageRepo,
		c.StudentRepo,
		c.StudentResultRepo,
		c.QueueClient,
	)
}
