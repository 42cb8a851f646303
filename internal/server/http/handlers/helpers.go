package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/server/http/dto"
	"github.com/polkiloo/dispatchboard/internal/server/http/middleware"
	"github.com/polkiloo/dispatchboard/internal/usecase"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDContextKey)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var validation *domainErrors.ValidationError
	switch {
	case errors.Is(err, domainErrors.ErrPersistence):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error(), Fields: validation.Fields})
	case errors.Is(err, domainErrors.ErrInvalidState), errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrUnauthenticated), errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

// settle resolves a pending order write. With ?async=true a write that is
// still running yields 202 and the optimistic record.
func settle(c *gin.Context, p *usecase.Pending, status int) {
	if queryBool(c, "async") {
		select {
		case <-p.Done():
		default:
			resp := dto.ToOrderResponse(p.Optimistic)
			resp.Pending = true
			c.JSON(http.StatusAccepted, resp)
			return
		}
	}

	r := p.Wait(c.Request.Context())
	switch {
	case r.Missing:
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: domainErrors.ErrNotFound.Error()})
	case r.Err != nil:
		writeError(c, r.Err)
	default:
		c.JSON(status, dto.ToOrderResponse(r.Order))
	}
}
