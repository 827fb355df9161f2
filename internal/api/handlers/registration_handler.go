package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"example.com/campushub/services/events/internal/api/middleware"
	"example.com/campushub/services/events/internal/services"
	"example.com/campushub/services/events/internal/tracing"
)

// RegistrationHandler handles event registration HTTP requests
type RegistrationHandler struct {
	registrationService *services.RegistrationService
	tracer              tracing.Tracer
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrationService *services.RegistrationService, tracer tracing.Tracer) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
		tracer:              tracer,
	}
}

// HandleRegister registers the authenticated student for an event
func (h *RegistrationHandler) HandleRegister(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	result := h.registrationService.Register(c.Request.Context(), middleware.UserID(c), eventID)
	writeResult(c, result, http.StatusCreated)
}

// HandleCancel cancels the authenticated student's registration
func (h *RegistrationHandler) HandleCancel(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	result := h.registrationService.Cancel(c.Request.Context(), middleware.UserID(c), eventID)
	writeResult(c, result, http.StatusOK)
}

// HandleListRegistrations lists all registrations for an event
func (h *RegistrationHandler) HandleListRegistrations(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	result := h.registrationService.ListRegistrations(c.Request.Context(), eventID)
	writeResult(c, result, http.StatusOK)
}

// HandleActiveRegistration returns the student's active registration
func (h *RegistrationHandler) HandleActiveRegistration(c *gin.Context) {
	result := h.registrationService.GetActiveRegistration(c.Request.Context(), middleware.UserID(c))
	writeResult(c, result, http.StatusOK)
}

// RegisterRoutes registers the handler's routes
func (h *RegistrationHandler) RegisterRoutes(api *gin.RouterGroup) {
	events := api.Group("/events")
	events.POST("/:id/register", h.HandleRegister)
	events.DELETE("/:id/register", h.HandleCancel)
	events.GET("/:id/registrations", h.HandleListRegistrations)

	api.GET("/registrations/active", h.HandleActiveRegistration)
}

func eventIDParam(c *gin.Context) (int, bool) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid event ID",
		})
		return 0, false
	}
	return eventID, true
}

// writeResult maps a service result onto an HTTP response. Successful
// results use okStatus; failures map per reason.
func writeResult(c *gin.Context, result services.Result, okStatus int) {
	status := okStatus
	if !result.Success {
		switch result.Reason {
		case services.ReasonNotFound:
			status = http.StatusNotFound
		case services.ReasonFull, services.ReasonAlreadyRegistered:
			status = http.StatusConflict
		case services.ReasonClosed, services.ReasonDeadlinePassed:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, result)
}
