package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/calmana/calmana-api/internal/models"
	"github.com/calmana/calmana-api/internal/services"
	"github.com/calmana/calmana-api/internal/store"
)

// storeTimeout bounds every database round trip made on behalf of a
// single request.
const storeTimeout = 5 * time.Second

// MoodStore is the slice of the moods collection the handlers need.
type MoodStore interface {
	Insert(ctx context.Context, entry *models.MoodEntry) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.MoodEntry, error)
}

// AppointmentStore is the slice of the appointments collection the
// handlers need.
type AppointmentStore interface {
	Insert(ctx context.Context, apt *models.Appointment) error
	List(ctx context.Context, f store.AppointmentFilter) ([]models.Appointment, error)
	Cancel(ctx context.Context, id primitive.ObjectID) error
}

type Handler struct {
	Accounts     *services.AccountService
	Moods        MoodStore
	Appointments AppointmentStore
	Log          *logrus.Logger

	GeminiAPIKey string
	geminiURL    string
}

func NewHandler(accounts *services.AccountService, moods MoodStore, appointments AppointmentStore, log *logrus.Logger, geminiAPIKey string) *Handler {
	return &Handler{
		Accounts:     accounts,
		Moods:        moods,
		Appointments: appointments,
		Log:          log,
		GeminiAPIKey: geminiAPIKey,
		geminiURL:    defaultGeminiURL,
	}
}

func storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storeTimeout)
}

// serverError logs the real error and answers with an opaque body.
// Timeouts and unreachable-store errors get 503, everything else 500.
func (h *Handler) serverError(c *gin.Context, err error) {
	h.Log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("request failed")

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
