package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

type SendOTPRequest struct {
	Email string `json:"email" form:"email" binding:"required,appemail"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" form:"email" binding:"required,appemail"`
	OTP   string `json:"otp" form:"otp" binding:"required,otp"`
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,personname"`
	Email    string `json:"email" binding:"required,appemail"`
	Password string `json:"password" binding:"required,min=6"`
	OTP      string `json:"otp" form:"otp" binding:"required,otp"`
}

// SendOTP emails a fresh code to any well-formed address.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.accounts.SendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ok, err := h.accounts.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ok {
		respondError(c, h.logger, apperr.Unauthorized("invalid or expired OTP"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified successfully"})
}

// Signup accepts the OTP in the body or, as the legacy clients send it, the query string.
func (h *AuthHandler) Signup(c *gin.Context) {
	req := SignupRequest{OTP: c.Query("otp")}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.accounts.Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		OTP:      req.OTP,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}
