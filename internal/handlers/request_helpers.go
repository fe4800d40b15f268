package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/middleware"
	"marketplace/internal/refs"
)

const storeTimeout = 5 * time.Second

// Validation messages name fields by their JSON key.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func logFor(c *gin.Context) *zerolog.Logger {
	return zerolog.Ctx(c.Request.Context())
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		logFor(c).Error().
			Str("route", route).
			Interface("panic", r).
			Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
	}
}

// storeContext bounds store calls without tying them to the client
// connection: a write that was issued completes even if the caller hangs up.
func storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), storeTimeout)
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	logFor(c).Debug().
		Str("route", route).
		Int("status", status).
		Msg(message)
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// respondError maps a service error to its status. Unexpected errors are
// logged in full and reach the client only as "Server Error".
func respondError(c *gin.Context, route string, err error) {
	status, message := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		event := logFor(c).Error().Err(err).Str("route", route)
		var perr *refs.PartialError
		if errors.As(err, &perr) {
			event = event.Str("failed", perr.Failed.String()).Int("pending", len(perr.Remaining))
		}
		event.Msg("request failed")
	}
	_ = c.Error(err)
	respondWithError(c, status, route, message)
}

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "min", "gte":
				details = append(details, fmt.Sprintf("%s must be at least %s", field, fieldError.Param()))
			case "max", "lte":
				details = append(details, fmt.Sprintf("%s must be at most %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		respondWithError(c, http.StatusBadRequest, route, strings.Join(details, ", "))
		return
	}
	respondWithError(c, http.StatusBadRequest, route, "Invalid request body")
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// currentUser returns the id set by middleware.UserAuth, answering 401 when
// the route was mounted without it.
func currentUser(c *gin.Context, route string) (primitive.ObjectID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, "You are not authenticated")
	}
	return id, ok
}

func pathID(c *gin.Context, route, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "Invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// idList accepts either a JSON array of ids or a single comma separated
// string.
type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return errors.New("expected an array of ids or a comma separated string")
	}
	*l = splitIDs(one)
	return nil
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
