package controller

import (
	"context"
	"net/http"

	"clearway-backend/middelware"
	"clearway-backend/models"
	"clearway-backend/services"
	"clearway-backend/utils/logger"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	Job        *JobController
	Crew       *CrewController
	jwtManager *middelware.JWTManager
}

func NewController(ctx context.Context, svc services.ServiceContainerInterface, cfg *models.Config, log logger.Logger) *Controller {
	c := &Controller{
		Job:        NewJobController(ctx, svc.GetJobService(), log),
		jwtManager: middelware.NewJWTManager(cfg, log),
	}
	if crewService := svc.GetCrewService(); crewService != nil {
		c.Crew = NewCrewController(ctx, crewService, log)
	}
	return c
}

func (c *Controller) RegisterRoutes(ctx context.Context, config *models.Config, r *gin.Engine, basePath string) error {
	log := logger.NewLogger(config.LogLevel, config.LogFormat)

	logging := middelware.NewLoggingMiddleware(log)
	r.Use(logging.Recovery())
	r.Use(logging.StructuredLogger())
	r.Use(middelware.NewCORSMiddleware(config).CORS())

	v1 := r.Group(basePath)

	// Health check endpoint (no auth required)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": config.AppVersion,
			"service": "ClearWay Backend",
		})
	})

	auth := c.jwtManager.AuthMiddleware()

	jobs := v1.Group("/jobs")
	jobs.POST("", auth, c.Job.CreateJob)
	jobs.GET("", auth, c.Job.GetJobs)
	jobs.GET("/:id", auth, c.Job.GetJob)
	jobs.PATCH("/:id", auth, c.Job.UpdateJob)

	jobs.POST("/:id/quote", auth, c.jwtManager.RequireRole(models.RoleAdmin), c.Job.ProvideQuote)
	jobs.POST("/:id/quote/approve", auth, c.jwtManager.RequireRole(models.RoleClient), c.Job.ApproveQuote)
	jobs.POST("/:id/quote/reject", auth, c.jwtManager.RequireRole(models.RoleClient), c.Job.RejectQuote)

	jobs.POST("/:id/payment/deposit", auth, c.Job.PayDeposit)
	jobs.POST("/:id/payment/final", auth, c.Job.PayFinal)

	jobs.POST("/:id/crew", auth, c.jwtManager.RequireRole(models.RoleAdmin), c.Job.AssignCrew)
	jobs.POST("/:id/dispatch", auth, c.jwtManager.RequireRole(models.RoleAdmin), c.Job.DispatchJob)
	jobs.POST("/:id/start", auth, c.Job.StartJob)
	jobs.POST("/:id/complete", auth, c.Job.CompleteJob)
	jobs.POST("/:id/verify", auth, c.jwtManager.RequireRole(models.RoleAdmin), c.Job.VerifyJob)
	jobs.POST("/:id/invoice", auth, c.jwtManager.RequireRole(models.RoleAdmin), c.Job.GenerateInvoice)
	jobs.POST("/:id/cancel", auth, c.Job.CancelJob)

	jobs.POST("/:id/photos", auth, c.Job.AddPhoto)
	jobs.POST("/:id/checklist/:index", auth, c.Job.CompleteChecklistItem)
	jobs.GET("/:id/sla", auth, c.Job.GetSLAStatus)
	jobs.GET("/:id/report", auth, c.Job.GetReport)

	// Crew registry routes need the archive-backed repository.
	if c.Crew != nil {
		crew := v1.Group("/crew")
		crew.POST("", auth, c.jwtManager.RequireRole(models.RoleAdmin), c.Crew.CreateCrew)
		crew.GET("", auth, c.Crew.ListCrew)
		crew.GET("/:id", auth, c.Crew.GetCrew)
		crew.PATCH("/:id", auth, c.jwtManager.RequireRole(models.RoleAdmin), c.Crew.UpdateCrew)
	}

	srv := &http.Server{
		Addr:    config.AppHost + ":" + config.AppPort,
		Handler: r,
	}

	log.Infof("Starting server on %s:%s", config.AppHost, config.AppPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
