package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/calmana/calmana-api/internal/services"
)

type resolveRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ResolveAccount handles POST /api/users/auth/login. One endpoint covers
// both sign-in and first-time sign-up: an unseen email creates the
// account, a known email authenticates against it.
func (h *Handler) ResolveAccount(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	account, created, err := h.Accounts.Resolve(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		var mismatch *services.RoleMismatchError
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"message": "All fields required"})
		case errors.Is(err, services.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		case errors.Is(err, services.ErrInvalidPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid password"})
		case errors.As(err, &mismatch):
			c.JSON(http.StatusForbidden, gin.H{"message": mismatch.Error()})
		default:
			h.serverError(c, err)
		}
		return
	}

	if created {
		h.Log.WithFields(logrus.Fields{"email": account.Email, "role": account.Role}).Info("account created")
		c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "user": account})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": account})
}
