package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/calmana/calmana-api/internal/models"
	"github.com/calmana/calmana-api/internal/store"
)

type createAppointmentRequest struct {
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
	StartTime string `json:"startTime"`
	Type      string `json:"type"`
}

// CreateAppointment handles POST /api/appointments. Both sides of the
// booking must exist and carry the expected portal role.
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	patientID, err1 := primitive.ObjectIDFromHex(req.PatientID)
	doctorID, err2 := primitive.ObjectIDFromHex(req.DoctorID)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid patient or doctor id"})
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid time format, use RFC3339"})
		return
	}

	if req.Type != models.AppointmentVideo && req.Type != models.AppointmentInPerson {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Type must be video or in-person"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	if !h.requireRole(ctx, c, patientID, models.RolePatient) {
		return
	}
	if !h.requireRole(ctx, c, doctorID, models.RoleDoctor) {
		return
	}

	apt := models.Appointment{
		ID:        primitive.NewObjectID(),
		PatientID: patientID,
		DoctorID:  doctorID,
		StartTime: startTime,
		Type:      req.Type,
		Status:    models.AppointmentScheduled,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Appointments.Insert(ctx, &apt); err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, apt)
}

// requireRole reports whether the account exists with the expected
// portal role; on failure it has already answered the request.
func (h *Handler) requireRole(ctx context.Context, c *gin.Context, id primitive.ObjectID, role string) bool {
	user, err := h.Accounts.FetchByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "No such " + role})
		return false
	}
	if err != nil {
		h.serverError(c, err)
		return false
	}
	if user.Role != role {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account is not a " + role})
		return false
	}
	return true
}

// ListAppointments handles GET /api/appointments with optional
// patientId / doctorId query filters, sorted by start time.
func (h *Handler) ListAppointments(c *gin.Context) {
	var filter store.AppointmentFilter

	if v := c.Query("patientId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid patientId"})
			return
		}
		filter.PatientID = id
	}
	if v := c.Query("doctorId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid doctorId"})
			return
		}
		filter.DoctorID = id
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	appointments, err := h.Appointments.List(ctx, filter)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// CancelAppointment handles PATCH /api/appointments/:id/cancel.
func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid appointment id"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	if err := h.Appointments.Cancel(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Appointment not found"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled"})
}
