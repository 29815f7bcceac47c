package router

import (
	"database/sql"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/phonginreallife/inres/authz"
	"github.com/phonginreallife/inres/handlers"
	"github.com/phonginreallife/inres/internal/config"
	"github.com/phonginreallife/inres/internal/ratelimit"
	"github.com/phonginreallife/inres/internal/uptime"
	"github.com/phonginreallife/inres/services"
)

func NewGinRouter(pg *sql.DB, redis *redis.Client) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize services
	fcmService, _ := services.NewFCMService(pg)
	slackService, _ := services.NewSlackService(pg)
	alertService := services.NewAlertService(pg, redis, fcmService)
	incidentService := services.NewIncidentService(pg, redis, fcmService) // NEW: Incident service

	// Create lightweight notification sender for API server
	notificationSender := services.NewLightweightNotificationSender(pg)
	incidentService.SetNotificationWorker(notificationSender)

	// Initialize realtime broadcast service for live notifications
	broadcastService := services.NewRealtimeBroadcastService()
	incidentService.SetBroadcastService(broadcastService)
	userService := services.NewUserService(pg, redis)
	uptimeService := services.NewUptimeService(pg, redis)
	alertManagerService := services.NewAlertManagerService(pg, alertService)
	apiKeyService := services.NewAPIKeyService(pg)
	groupService := services.NewGroupService(pg)
	escalationService := services.NewEscalationService(pg, redis, groupService, fcmService)
	onCallService := services.NewOnCallService(pg)
	rotationService := services.NewRotationService(pg)
	schedulerService := services.NewSchedulerService(pg)                                  // NEW: Service scheduling
	serviceService := services.NewServiceService(pg)                                      // NEW: Service management
	integrationService := services.NewIntegrationService(pg)                              // NEW: Integration management
	identityService, err := services.NewIdentityServiceWithDB(config.App.DataDir, pg, "") // Initialize IdentityService with DB for K8s persistence
	if err != nil {
		log.Printf("Warning: Failed to initialize identity service: %v", err)
	}

	// Initialize cloud relay and auto-register with cloud if configured
	cloudRelayService := services.NewCloudRelayService(identityService)
	if cloudRelayService.IsConfigured() {
		go func() {
			if err := cloudRelayService.RegisterWithCloud(); err != nil {
				log.Printf("Warning: Failed to register with cloud relay: %v", err)
			}
		}()
	}

	// Initialize authz components (Organizations, Projects, Memberships)
	authzBackend, membershipMgr, orgRepo, projectRepo := authz.NewSimpleBackend(pg)
	orgService := authz.NewOrgService(authzBackend, membershipMgr, orgRepo)
	projectService := authz.NewProjectService(authzBackend, membershipMgr, projectRepo, orgRepo)
	authzMiddleware := authz.NewAuthzMiddleware(authzBackend)
	projectScopedMiddleware := authz.NewProjectScopedMiddleware(authzBackend, projectService) // ReBAC project scoping

	// Initialize handlers
	alertHandler := handlers.NewAlertHandler(alertService)
	// Initialize analytics service for AI-powered incident analysis
	analyticsService := services.NewIncidentAnalyticsService(pg)
	if err := analyticsService.CreateQueueIfNotExists(); err != nil {
		log.Printf("⚠️  Warning: Failed to create analytics queue: %v", err)
	}

	incidentHandler := handlers.NewIncidentHandler(incidentService, serviceService, projectService, authzBackend, analyticsService) // NEW: Incident handler with ReBAC
	userHandler := handlers.NewUserHandler(userService)
	uptimeHandler := handlers.NewUptimeHandler(uptimeService)
	alertManagerHandler := handlers.NewAlertManagerHandler(alertManagerService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService, alertService, userService)
	dashboardHandler := handlers.NewDashboardHandler(userService)
	// testHandler := handlers.NewTestHandler(alertManagerHandler)
	groupHandler := handlers.NewGroupHandler(groupService, escalationService)
	onCallHandler := handlers.NewOnCallHandler(onCallService, schedulerService)
	rotationHandler := handlers.NewRotationHandler(rotationService)
	overrideHandler := handlers.NewOverrideHandler(onCallService.OverrideService)
	schedulerHandler := handlers.NewSchedulerHandler(schedulerService, onCallService, serviceService)               // NEW: Service scheduling
	serviceHandler := handlers.NewServiceHandler(serviceService)                                                    // NEW: Service management
	integrationHandler := handlers.NewIntegrationHandler(integrationService)                                        // NEW: Integration handler
	routingService := services.NewRoutingService(pg)
	webhookHandler := handlers.NewWebhookHandler(integrationService, alertService, incidentService, serviceService, routingService) // NEW: Webhook handler
	notificationHandler := handlers.NewNotificationHandler(slackService)                                            // NEW: Notification handler
	mobileHandler := handlers.NewMobileHandler(pg, identityService)                                                 // Inject IdentityService
	identityHandler := handlers.NewIdentityHandler(identityService)                                                 // Initialize IdentityHandler
	orgHandler := handlers.NewOrgHandler(orgService)                                                                // Organization management
	projectHandler := handlers.NewProjectHandler(projectService)                                                    // Project management

	// Initialize uptime provider handler (UptimeRobot, Checkly, etc.)
	uptimeProviderHandler := uptime.NewProviderHandler(pg)

	// Initialize middleware
	supabaseAuthMiddleware := handlers.NewSupabaseAuthMiddleware(userService, apiKeyService)

	// PUBLIC ENDPOINTS (no authentication required)

	// Health check and info endpoints
	r.GET("/env", func(c *gin.Context) {
		// Set environment header for frontend
		env := os.Getenv("inres_ENV")
		if env == "" {
			env = "development"
		}
		c.Header("x-inres-env", env)

		// Get Supabase config to send to frontend
		// Use PublicSupabaseURL for browser access, fallback to SupabaseURL
		supabaseURL := config.App.PublicSupabaseURL
		if supabaseURL == "" {
			supabaseURL = config.App.SupabaseURL
		}
		supabaseAnonKey := config.App.SupabaseAnonKey

		c.JSON(200, gin.H{
			"supabase_url":      supabaseURL,
			"supabase_anon_key": supabaseAnonKey,
		})
	})

	// PUBLIC IDENTITY ENDPOINT - public key is public!
	// AI Agent needs this to verify device certificates without authentication
	// Must be registered BEFORE protected routes to take precedence
	r.GET("/identity/public-key", identityHandler.GetPublicKey)

	// PUBLIC WEBHOOK ENDPOINTS (no authentication - secured by integration secret)
	webhookLimiter := ratelimit.NewIntegrationLimiter()
	webhookRoutes := r.Group("/webhook")
	webhookRoutes.Use(func(c *gin.Context) {
		integrationID := c.Param("integration_id")
		if integrationID != "" && !webhookLimiter.Allow(integrationID) {
			c.JSON(429, gin.H{"error": "rate limit exceeded for this integration"})
			c.Abort()
			return
		}
		c.Next()
	})
	{
		// Integration webhooks: /webhook/:type/:integration_id
		webhookRoutes.POST("/:type/:integration_id", webhookHandler.ReceiveWebhook)
	}

	// API KEY AUTHENTICATED WEBHOOK ENDPOINTS
	apiKeyWebhookRoutes := r.Group("/webhooks")
	apiKeyWebhookRoutes.Use(apiKeyHandler.APIKeyAuthMiddleware())
	{
		apiKeyWebhookRoutes.POST("/incident", incidentHandler.WebhookCreateIncident) // NEW: PagerDuty-style incident webhook
		apiKeyWebhookRoutes.POST("/alert", apiKeyHandler.WebhookAlert)               // Legacy
		apiKeyWebhookRoutes.POST("/alertmanager", alertManagerHandler.ReceiveWebhook)
	}

	// PROTECTED ENDPOINTS (require Supabase authentication)
	protected := r.Group("/")
	protected.Use(supabaseAuthMiddleware.SupabaseAuthMiddleware())
	// protected.Use()
	{
		// =====================================================================
		// ORGANIZATION MANAGEMENT (Defense in Depth)
		// =====================================================================
		orgRoutes := protected.Group("/orgs")
		{
			// Routes WITHOUT resource ID - check in handler
			orgRoutes.POST("", orgHandler.CreateOrg) // Anyone authenticated can create
			orgRoutes.GET("", orgHandler.ListOrgs)   // Returns only user's orgs

			// Routes WITH resource ID - use middleware for coarse-grained check
			orgDetailRoutes := orgRoutes.Group("/:id")
			orgDetailRoutes.Use(authzMiddleware.RequirePermission(authz.ActionView, authz.ResourceOrg))
			{
				orgDetailRoutes.GET("", orgHandler.GetOrg)
				orgDetailRoutes.GET("/members", orgHandler.GetOrgMembers)

				// Update requires ActionUpdate permission
				orgDetailRoutes.PATCH("",
					authzMiddleware.RequirePermission(authz.ActionUpdate, authz.ResourceOrg),
					orgHandler.UpdateOrg)

				// Delete requires ActionDelete (only owner)
				orgDetailRoutes.DELETE("",
					authzMiddleware.RequirePermission(authz.ActionDelete, authz.ResourceOrg),
					orgHandler.DeleteOrg)

				// Member management requires ActionManage
				orgDetailRoutes.POST("/members",
					authzMiddleware.RequirePermission(authz.ActionManage, authz.ResourceOrg),
					orgHandler.AddOrgMember)
				orgDetailRoutes.PATCH("/members/:user_id",
					authzMiddleware.RequirePermission(authz.ActionManage, authz.ResourceOrg),
					orgHandler.UpdateOrgMemberRole)
				orgDetailRoutes.DELETE("/members/:user_id",
					authzMiddleware.RequirePermission(authz.ActionManage, authz.ResourceOrg),
					orgHandler.RemoveOrgMember)
			}

			// Projects under org - requires org access first
			orgProjectRoutes := orgRoutes.Group("/:id/projects")
			orgProjectRoutes.Use(authzMiddleware.RequirePermission(authz.ActionView, authz.ResourceOrg))
			{
				orgProjectRoutes.GET("", projectHandler.ListOrgProjects)
				orgProjectRoutes.POST("", projectHandler.CreateProject) // Check org membership in handler
			}
		}

		// =====================================================================
		// PROJECT MANAGEMENT (Defense in Depth)
		// =====================================================================
		projectRoutes := protected.Group("/projects")
		{
			// Routes WITHOUT resource ID
			projectRoutes.GET("", projectHandler.ListUserProjects) // Returns only user's projects

			// Routes WITH resource ID - use middleware
			projectDetailRoutes := projectRoutes.Group("/:id")
			projectDetailRoutes.Use(authzMiddleware.RequirePermission(authz.ActionView, authz.ResourceProject))
			{
				projectDetailRoutes.GET("", projectHandler.GetProject)
				projectDetailRoutes.GET("/members", projectHandler.GetProjectMembers)

				// Update requires ActionUpdate
				projectDetailRoutes.PATCH("",
					authzMiddleware.RequirePermission(authz.ActionUpdate, authz.ResourceProject),
					projectHandler.UpdateProject)

				// Delete requires ActionDelete
				projectDetailRoutes.DELETE("",
					authzMiddleware.RequirePermission(authz.ActionDelete, authz.ResourceProject),
					projectHandler.DeleteProject)

				// Member management requires ActionManage
				projectDetailRoutes.POST("/members",
					authzMiddleware.RequirePermission(authz.ActionManage, authz.ResourceProject),
					projectHandler.AddProjectMember)
				projectDetailRoutes.DELETE("/members/:user_id",
					authzMiddleware.RequirePermission(authz.ActionManage, authz.ResourceProject),
					projectHandler.RemoveProjectMember)
			}
		}

		// INCIDENTS MANAGEMENT (PagerDuty-style)
		// Global incidents route - returns incidents from all user's accessible projects
		// Uses ProjectScopedMiddleware to inject project context (ReBAC)
		incidentRoutes := protected.Group("/incidents")
		incidentRoutes.Use(projectScopedMiddleware.InjectProjectContext()) // ReBAC: inject project_id (org_id only for API keys)
		{
			incidentRoutes.GET("", incidentHandler.ListIncidents)
			incidentRoutes.POST("", incidentHandler.CreateIncident)
			incidentRoutes.GET("/stats", incidentHandler.GetIncidentStats)
			incidentRoutes.GET("/trends", incidentHandler.GetIncidentTrends) // NEW: Incident trends for dashboard charts
			incidentRoutes.GET("/:id", incidentHandler.GetIncident)
			incidentRoutes.PUT("/:id", incidentHandler.UpdateIncident)
			incidentRoutes.POST("/:id/acknowledge", incidentHandler.AcknowledgeIncident)
			incidentRoutes.POST("/:id/resolve", incidentHandler.ResolveIncident)
			incidentRoutes.POST("/:id/assign", incidentHandler.AssignIncident)
			incidentRoutes.POST("/:id/escalate", incidentHandler.EscalateIncident)
			incidentRoutes.POST("/:id/notes", incidentHandler.AddIncidentNote)
			incidentRoutes.GET("/:id/events", incidentHandler.GetIncidentEvents)
		}

		// =====================================================================
		// PROJECT-SCOPED INCIDENTS (Defense in Depth)
		// =====================================================================
		// Incidents filtered by project - requires project VIEW access
		projectIncidentRoutes := protected.Group("/projects/:id/incidents")
		projectIncidentRoutes.Use(authzMiddleware.RequirePermission(authz.ActionView, authz.ResourceProject))
		{
			projectIncidentRoutes.GET("", incidentHandler.ListIncidents)            // Filtered by project_id from URL
			projectIncidentRoutes.GET("/stats", incidentHandler.GetIncidentStats)   // Stats for this project
			projectIncidentRoutes.GET("/trends", incidentHandler.GetIncidentTrends) // Trends for this project

			// Create incident requires project CREATE permission
			projectIncidentRoutes.POST("",
				authzMiddleware.RequirePermission(authz.ActionCreate, authz.ResourceProject),
				incidentHandler.CreateIncident)
		}

		// ALERTS MANAGEMENT (Legacy - for backward compatibility)
		alertRoutes := protected.Group("/alerts")
		{
			alertRoutes.GET("", alertHandler.ListAlerts)
			alertRoutes.POST("", alertHandler.CreateAlert)
			alertRoutes.GET("/:id", alertHandler.GetAlert)
			alertRoutes.POST("/:id/ack", alertHandler.AckAlert)
			alertRoutes.POST("/:id/unack", alertHandler.UnackAlert)
			alertRoutes.POST("/:id/close", alertHandler.CloseAlert)
		}

		// API KEY MANAGEMENT
		apiKeyRoutes := protected.Group("/api-keys")
		{
			apiKeyRoutes.POST("", apiKeyHandler.CreateAPIKey)
			apiKeyRoutes.GET("", apiKeyHandler.ListAPIKeys)
			apiKeyRoutes.GET("/:id", apiKeyHandler.GetAPIKey)
			apiKeyRoutes.PUT("/:id", apiKeyHandler.UpdateAPIKey)
			apiKeyRoutes.DELETE("/:id", apiKeyHandler.DeleteAPIKey)
			apiKeyRoutes.POST("/:id/regenerate", apiKeyHandler.RegenerateAPIKey)
			apiKeyRoutes.GET("/stats", apiKeyHandler.GetAPIKeyStats)
		}

		// USER MANAGEMENT
		userRoutes := protected.Group("/users")
		{
			userRoutes.GET("", userHandler.ListUsers)
			userRoutes.GET("/search", userHandler.SearchUsers)
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("/:id", userHandler.GetUser)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
			userRoutes.POST("/fcm-token", userHandler.UpdateFCMToken)
			userRoutes.GET("/fcm-token", userHandler.GetFCMToken)

			// Notification configuration endpoints
			userRoutes.GET("/:id/notifications/config", notificationHandler.GetNotificationConfig)
			userRoutes.PUT("/:id/notifications/config", notificationHandler.UpdateNotificationConfig)
			userRoutes.POST("/:id/notifications/test/slack", notificationHandler.TestSlackNotification)
			userRoutes.GET("/:id/notifications/stats", notificationHandler.GetNotificationStats)
		}

		// ON-CALL MANAGEMENT
		oncallRoutes := protected.Group("/oncall")
		{
			// Legacy endpoints (for backward compatibility)
			oncallRoutes.GET("/schedules", onCallHandler.ListOnCallSchedules)
			oncallRoutes.POST("/schedules", onCallHandler.CreateOnCallSchedule)
			oncallRoutes.PUT("/schedules/:id", onCallHandler.UpdateOnCallSchedule)
			oncallRoutes.DELETE("/schedules/:id", onCallHandler.DeleteOnCallSchedule)
		}

		// SCHEDULE MANAGEMENT (direct schedule operations)
		scheduleRoutes := protected.Group("/schedules")
		{
			scheduleRoutes.PUT("/:id", onCallHandler.UpdateSchedule)
			scheduleRoutes.DELETE("/:id", onCallHandler.DeleteSchedule)
		}

		// ROTATION CYCLE MANAGEMENT (automatic rotation operations)
		rotationRoutes := protected.Group("/rotations")
		{
			rotationRoutes.GET("/:rotationId", rotationHandler.GetRotationCycle)
			rotationRoutes.GET("/:rotationId/preview", rotationHandler.GetRotationPreview)
			rotationRoutes.GET("/:rotationId/current", rotationHandler.GetCurrentRotationMember)
			rotationRoutes.DELETE("/:rotationId", rotationHandler.DeactivateRotationCycle)
			rotationRoutes.POST("/override", rotationHandler.CreateScheduleOverride)
			rotationRoutes.GET("/schedules/:scheduleId", rotationHandler.GetScheduleForOverride)
		}

		// UPTIME MONITORING
		uptimeRoutes := protected.Group("/uptime")
		{
			uptimeRoutes.GET("", uptimeHandler.GetUptimeDashboard)
			uptimeRoutes.GET("/services", uptimeHandler.ListServices)
			uptimeRoutes.POST("/services", uptimeHandler.CreateService)
			uptimeRoutes.GET("/services/:id", uptimeHandler.GetService)
			uptimeRoutes.GET("/services/:id/stats", uptimeHandler.GetServiceStats)
			uptimeRoutes.GET("/services/:id/history", uptimeHandler.GetServiceHistory)

			// External Uptime Providers (UptimeRobot, Checkly, etc.)
			uptimeRoutes.GET("/providers", uptimeProviderHandler.ListProviders)
			uptimeRoutes.POST("/providers", uptimeProviderHandler.CreateProvider)
			uptimeRoutes.DELETE("/providers/:id", uptimeProviderHandler.DeleteProvider)
			uptimeRoutes.POST("/providers/:id/sync", uptimeProviderHandler.SyncProvider)

			// External Monitors (from providers)
			uptimeRoutes.GET("/external-monitors", uptimeProviderHandler.ListExternalMonitors)

			// Unified view (internal + external monitors)
			uptimeRoutes.GET("/all-monitors", uptimeProviderHandler.GetAllMonitors)
		}

		// GROUP MANAGEMENT
		groupRoutes := protected.Group("/groups")
		{
			// Admin-only endpoints (all groups)
			groupRoutes.GET("/all", groupHandler.ListGroups)

			// User-scoped endpoints (recommended for most use cases)
			groupRoutes.GET("", groupHandler.GetMyGroups)
			groupRoutes.GET("/my", groupHandler.GetCurrentUserGroups)
			groupRoutes.GET("/public", groupHandler.GetPublicGroups)

			// Standard CRUD operations
			groupRoutes.POST("", groupHandler.CreateGroup)
			groupRoutes.GET("/:id", groupHandler.GetGroup)
			groupRoutes.GET("/:id/with-members", groupHandler.GetGroupWithMembers)
			groupRoutes.PUT("/:id", groupHandler.UpdateGroup)
			groupRoutes.DELETE("/:id", groupHandler.DeleteGroup)
			groupRoutes.GET("/:id/statistics", groupHandler.GetGroupStatistics)

			// Group member management
			groupRoutes.GET("/:id/members", groupHandler.GetGroupMembers)
			groupRoutes.POST("/:id/members", groupHandler.AddGroupMember)
			groupRoutes.POST("/:id/members/bulk", groupHandler.AddMultipleGroupMembers)
			groupRoutes.PUT("/:id/members/:user_id", groupHandler.UpdateGroupMember)
			groupRoutes.DELETE("/:id/members/:user_id", groupHandler.RemoveGroupMember)

			// Group scheduler management (NEW: Scheduler + Shifts architecture)
			groupRoutes.GET("/:id/schedulers", schedulerHandler.GetGroupSchedulers)                              // List schedulers (basic info)
			groupRoutes.POST("/:id/schedulers/with-shifts", schedulerHandler.CreateSchedulerWithShiftsOptimized) // Create scheduler + shifts (OPTIMIZED - default)
			groupRoutes.POST("/:id/schedulers/with-shifts-legacy", schedulerHandler.CreateSchedulerWithShifts)   // LEGACY: Fallback to non-optimized
			groupRoutes.GET("/:id/schedulers/stats", schedulerHandler.GetSchedulerPerformanceStats)              // Performance statistics
			groupRoutes.POST("/:id/schedulers/benchmark", schedulerHandler.BenchmarkSchedulerCreation)           // Performance benchmark
			groupRoutes.GET("/:id/schedulers/:scheduler_id", schedulerHandler.GetSchedulerWithShifts)            // Get scheduler with shifts
			groupRoutes.PUT("/:id/schedulers/:scheduler_id", schedulerHandler.UpdateSchedulerWithShifts)         // Update scheduler and its shifts
			groupRoutes.DELETE("/:id/schedulers/:scheduler_id", schedulerHandler.DeleteScheduler)                // Delete scheduler and its shifts
			groupRoutes.GET("/:id/shifts", schedulerHandler.GetGroupShifts)                                      // Get all shifts in group (with scheduler context)

			// Group schedule management (Legacy: Individual shifts)
			groupRoutes.GET("/:id/schedules", onCallHandler.GetGroupSchedules)
			groupRoutes.POST("/:id/schedules", schedulerHandler.CreateGroupSchedule) // Updated to support service scheduling
			groupRoutes.GET("/:id/schedules/current", onCallHandler.GetCurrentOnCallUser)
			groupRoutes.GET("/:id/schedules/upcoming", onCallHandler.GetUpcomingSchedules)

			// Schedule swap endpoint
			groupRoutes.POST("/:id/schedules/swap", onCallHandler.SwapSchedules)

			// Group rotation cycle management (automatic rotations)
			groupRoutes.GET("/:id/rotations", rotationHandler.GetGroupRotationCycles)
			groupRoutes.POST("/:id/rotations", rotationHandler.CreateRotationCycle)

			// Group schedule overrides (manual overrides for automatic schedules)
			groupRoutes.GET("/:id/overrides", overrideHandler.ListOverrides)
			groupRoutes.POST("/:id/overrides", overrideHandler.CreateOverride)
			groupRoutes.DELETE("/:id/overrides/:overrideId", overrideHandler.DeleteOverride)

			// NEW: Service scheduling endpoints (DEPRECATED - use /schedulers instead)
			groupRoutes.GET("/:id/scheduler-timelines", schedulerHandler.GetGroupSchedulerTimelines)
			groupRoutes.GET("/:id/services", serviceHandler.GetGroupServices) // Use ServiceHandler instead

			// Service management within groups
			groupRoutes.POST("/:id/services", serviceHandler.CreateService)

			// Service-specific scheduling
			groupRoutes.GET("/:id/services/:service_id/effective-schedule", schedulerHandler.GetEffectiveScheduleForService)
			groupRoutes.POST("/:id/services/:service_id/schedules", schedulerHandler.CreateServiceSchedule)

			// Group escalation policies
			groupRoutes.GET("/:id/escalation-policies", groupHandler.GetGroupEscalationPolicies)
			groupRoutes.POST("/:id/escalation-policies", groupHandler.CreateEscalationPolicy)
			groupRoutes.GET("/:id/escalation-policies/:policy_id", groupHandler.GetEscalationPolicy)
			groupRoutes.GET("/:id/escalation-policies/:policy_id/detail", groupHandler.GetEscalationPolicyDetail)
			groupRoutes.PUT("/:id/escalation-policies/:policy_id", groupHandler.UpdateEscalationPolicy)
			groupRoutes.DELETE("/:id/escalation-policies/:policy_id", groupHandler.DeleteEscalationPolicy)
			groupRoutes.GET("/:id/escalation-policies/:policy_id/levels", groupHandler.GetEscalationLevels)

		}

		// SERVICE MANAGEMENT
		serviceRoutes := protected.Group("/services")
		{
			// Service CRUD operations
			serviceRoutes.GET("", serviceHandler.ListAllServices)      // Admin: list all services
			serviceRoutes.GET("/:id", serviceHandler.GetService)       // Get specific service
			serviceRoutes.PUT("/:id", serviceHandler.UpdateService)    // Update service
			serviceRoutes.DELETE("/:id", serviceHandler.DeleteService) // Delete service

			// Service lookup by routing key (for alert ingestion)
			serviceRoutes.GET("/by-routing-key/:routing_key", serviceHandler.GetServiceByRoutingKey)

			// Service-Integration mappings
			serviceRoutes.GET("/:id/integrations", integrationHandler.GetServiceIntegrations)
			serviceRoutes.POST("/:id/integrations", integrationHandler.CreateServiceIntegration)
		}

		// INTEGRATION MANAGEMENT
		integrationRoutes := protected.Group("/integrations")
		{
			// Integration CRUD operations
			integrationRoutes.GET("", integrationHandler.GetIntegrations)
			integrationRoutes.POST("", integrationHandler.CreateIntegration)
			integrationRoutes.GET("/:id", integrationHandler.GetIntegration)
			integrationRoutes.PUT("/:id", integrationHandler.UpdateIntegration)
			integrationRoutes.DELETE("/:id", integrationHandler.DeleteIntegration)

			// Integration health monitoring
			integrationRoutes.POST("/:id/heartbeat", integrationHandler.UpdateHeartbeat)
			integrationRoutes.GET("/health", integrationHandler.GetIntegrationHealth)

			// Integration services
			integrationRoutes.GET("/:id/services", integrationHandler.GetIntegrationServices)

			// Integration templates
			integrationRoutes.GET("/templates", integrationHandler.GetIntegrationTemplates)
		}

		// SERVICE-INTEGRATION MAPPINGS
		serviceIntegrationRoutes := protected.Group("/service-integrations")
		{
			serviceIntegrationRoutes.PUT("/:id", integrationHandler.UpdateServiceIntegration)
			serviceIntegrationRoutes.DELETE("/:id", integrationHandler.DeleteServiceIntegration)
		}

		// ALERT ESCALATION HISTORY (Keep only non-duplicate routes)
		escalationRoutes := protected.Group("/escalation")
		{
			// Alert escalation history
			escalationRoutes.GET("/alerts/:alert_id/history", groupHandler.GetAlertEscalations)
		}

		// USER GROUP UTILITIES
		userGroupRoutes := protected.Group("/user-groups")
		{
			userGroupRoutes.GET("/:user_id", groupHandler.GetUserGroups)
		}

		// DASHBOARD
		protected.GET("/dashboard", dashboardHandler.GetDashboard)

		// AI AGENT
		protected.GET("/verify-token", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "Token is valid"})
		})

		// MOBILE APP CONNECTION (protected - requires Supabase JWT)
		mobileRoutes := protected.Group("/mobile")
		{
			mobileRoutes.POST("/connect/generate", mobileHandler.GenerateMobileConnectQR)
			mobileRoutes.GET("/devices", mobileHandler.GetConnectedDevices)
			mobileRoutes.DELETE("/devices/:device_id", mobileHandler.DisconnectDevice)
		}

		// IDENTITY MANAGEMENT (connect-relay requires auth, public-key is public - see above)
		identityRoutes := protected.Group("/identity")
		{
			// Note: GET /identity/public-key is registered as PUBLIC route above
			identityRoutes.POST("/connect-relay", identityHandler.ConnectRelay)
		}

	}

	// PUBLIC MOBILE ENDPOINTS (no Supabase auth - token verified internally)
	mobilePublicRoutes := r.Group("/mobile")
	{
		mobilePublicRoutes.POST("/connect/verify", mobileHandler.VerifyMobileConnect)
		mobilePublicRoutes.POST("/devices/register-push", mobileHandler.RegisterDeviceForPush)
		mobilePublicRoutes.GET("/auth-config", mobileHandler.GetAuthConfig) // Get Supabase config after QR scan
	}

	return r
}
