package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"parcel-delivery-api/models"
	"parcel-delivery-api/statemachine"
	"parcel-delivery-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorsOnce sync.Once

func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
			return models.UserRole(fl.Field().String()).Valid()
		})
	})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// bindFailed reports a request body that could not be bound
func bindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				fail(c, http.StatusBadRequest, "Missing required fields")
			case "user_role":
				fail(c, http.StatusBadRequest, "Invalid role")
			case "gt":
				fail(c, http.StatusBadRequest, fe.Field()+" must be greater than "+fe.Param())
			default:
				fail(c, http.StatusBadRequest, fe.Error())
			}
			return
		}
	}
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		fail(c, http.StatusBadRequest, vErr.Msg)
		return
	}
	fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

// storeFailed maps a persistence error to a response. Unknown errors are
// passed through as 500 with their text.
func (h *Handler) storeFailed(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, storage.ErrDuplicate):
		fail(c, http.StatusConflict, "Duplicate key")
	default:
		h.log.Error(op, slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

func illegalTransition(c *gin.Context, m *statemachine.Machine, from, to string, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":             "Invalid state transition",
		"current_status":    from,
		"requested":         to,
		"reason":            err.Error(),
		"valid_next_states": m.ValidTransitionsFrom(from),
	})
}
