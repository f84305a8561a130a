package rest

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/service"
)

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
}

func NewHandler(services *service.Services, logger *zap.Logger, config *config.Config) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		config:   config,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())

	router.Use(h.errorMiddleware())

	router.Use(h.corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/refresh", h.refreshTokens)
			auth.POST("/logout", h.logout)
		}

		users := api.Group("/users")
		users.Use(h.authMiddleware())
		{
			users.GET("/me", h.getCurrentUser)
			users.GET("/:id", h.getUserByID)
			users.PUT("/:id", h.updateUser)
			users.PUT("/:id/password", h.updatePassword)

			admin := users.Group("/")
			admin.Use(h.adminMiddleware())
			{
				admin.POST("/", h.createUser)
				admin.GET("/", h.getUsers)
				admin.DELETE("/:id", h.deleteUser)
			}
		}

		doctors := api.Group("/doctors")
		{
			doctors.GET("/", h.getDoctors)
			doctors.GET("/:id", h.getDoctorByID)
			doctors.GET("/:id/free-slots", h.getFreeSlots)

			auth := doctors.Group("/", h.authMiddleware())
			{
				auth.GET("/me", h.getMyDoctorProfile)
				auth.POST("/", h.doctorMiddleware(), h.createDoctor)
				auth.PUT("/:id", h.updateDoctor)
				auth.PUT("/:id/working-hours", h.setWorkingHours)
				auth.POST("/:id/photo", h.uploadDoctorPhoto)

				admin := auth.Group("/", h.adminMiddleware())
				{
					admin.POST("/:id/approve", h.approveDoctor)
					admin.DELETE("/:id", h.deleteDoctor)
				}
			}
		}

		appointments := api.Group("/appointments")
		appointments.Use(h.authMiddleware())
		{
			appointments.POST("/", h.createAppointment)
			appointments.GET("/", h.getAppointments)
			appointments.GET("/:id", h.getAppointmentByID)
			appointments.DELETE("/:id", h.cancelAppointment)
			appointments.PUT("/:id/reschedule", h.rescheduleAppointment)
			appointments.PUT("/:id/status", h.updateAppointmentStatus)
			appointments.POST("/:id/notes", h.addAppointmentNotes)
			appointments.POST("/:id/prescription", h.attachPrescription)
		}
	}
}
