package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/auth"
	"marketplace/internal/models"
)

type registerRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	models.User
	AccessToken string `json:"accessToken"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

func Register(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		user, err := svc.Register(ctx, auth.RegisterInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
			Phone:           req.Phone,
			Address:         req.Address,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func Login(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		user, token, err := svc.Login(ctx, req.Email, req.Password)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, loginResponse{User: user, AccessToken: token})
	}
}

func GetUser(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/:id"
		defer handlePanic(c, route)

		if _, ok := currentUser(c, route); !ok {
			return
		}
		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		user, err := svc.Profile(ctx, id)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func UpdateUser(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /users/:id"
		defer handlePanic(c, route)

		callerID, ok := currentUser(c, route)
		if !ok {
			return
		}
		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		user, err := svc.UpdateProfile(ctx, callerID, id, auth.ProfilePatch{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Address:  req.Address,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
