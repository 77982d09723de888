package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/config"
	"github.com/gigbridge/marketplace-service/internal/events"
	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
)

type HandlerManager struct {
	jobHandler      *JobHandler
	proposalHandler *ProposalHandler
	userHandler     *UserHandler
	matchingHandler *MatchingHandler
	careerHandler   *CareerHandler
	reportHandler   *ReportHandler
	paymentHandler  *PaymentHandler
	authMiddleware  *CasdoorAuthMiddleware
	serviceManager  services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	publisher events.EventPublisher,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, serviceManager.User())

	return &HandlerManager{
		jobHandler:      NewJobHandler(serviceManager.Job(), publisher, logger),
		proposalHandler: NewProposalHandler(serviceManager.Proposal(), publisher, logger),
		userHandler:     NewUserHandler(serviceManager.User(), publisher, logger),
		matchingHandler: NewMatchingHandler(serviceManager.Matching(), logger),
		careerHandler:   NewCareerHandler(serviceManager.Career(), logger),
		reportHandler:   NewReportHandler(serviceManager.Report(), logger),
		paymentHandler:  NewPaymentHandler(serviceManager.Payment(), publisher, logger),
		authMiddleware:  authMiddleware,
		serviceManager:  serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Job routes
		jobs := v1.Group("/jobs")
		{
			// Posting and management - businesses only
			jobs.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.jobHandler.CreateJob)
			jobs.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.jobHandler.UpdateJob)
			jobs.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.jobHandler.DeleteJob)

			// Browsing - all authenticated users
			jobs.GET("", hm.jobHandler.ListJobs)
			jobs.GET("/search", hm.jobHandler.SearchJobs)
			jobs.GET("/:id", hm.jobHandler.GetJob)

			// Owner views
			jobs.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.jobHandler.GetJobStats)
			jobs.GET("/:id/proposals", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.proposalHandler.GetProposalsByJob)
		}

		// Proposal routes
		proposals := v1.Group("/proposals")
		{
			proposals.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleFreelancer), hm.proposalHandler.CreateProposal)
			proposals.POST("/offers", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.proposalHandler.CreateOffer)
			proposals.GET("/:id", hm.proposalHandler.GetProposal)
			proposals.PUT("/:id/status", hm.proposalHandler.UpdateProposalStatus)
			proposals.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleFreelancer), hm.proposalHandler.WithdrawProposal)
		}

		// Authenticated user's own resources
		me := v1.Group("/me")
		{
			me.GET("", hm.userHandler.GetMe)
			me.PUT("/profile", hm.userHandler.UpdateProfile)
			me.PUT("/portfolio", hm.authMiddleware.RequireRoleMiddleware(models.RoleFreelancer), hm.userHandler.UpdatePortfolio)
			me.GET("/jobs", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.jobHandler.GetMyJobs)
			me.GET("/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.jobHandler.GetMyBusinessStats)
			me.GET("/proposals", hm.authMiddleware.RequireRoleMiddleware(models.RoleFreelancer), hm.proposalHandler.GetMyProposals)
			me.GET("/proposals/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleFreelancer), hm.proposalHandler.GetMyProposalStats)
		}

		// User directory
		users := v1.Group("/users")
		{
			users.GET("/:id", hm.userHandler.GetUser)
			users.GET("", hm.userHandler.ListFreelancers)
		}

		// Matching routes
		matches := v1.Group("/matches")
		{
			matches.GET("/jobs/:job_id/freelancers/:freelancer_id", hm.matchingHandler.ScoreMatch)
			matches.GET("/jobs/:job_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.matchingHandler.RankCandidates)
		}

		// Career guidance - freelancers only
		v1.POST("/career-guide", hm.authMiddleware.RequireRoleMiddleware(models.RoleFreelancer), hm.careerHandler.GetGuidance)

		// Reports - businesses only
		v1.GET("/reports/jobs/:job_id/proposals", hm.authMiddleware.RequireRoleMiddleware(models.RoleBusiness), hm.reportHandler.ExportProposals)

		// Payment routes
		payments := v1.Group("/payments")
		{
			payments.POST("/orders", hm.paymentHandler.CreateOrder)
			payments.POST("/verify", hm.paymentHandler.VerifyPayment)
		}
	}
}

// HealthCheck reports service health
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "marketplace-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
