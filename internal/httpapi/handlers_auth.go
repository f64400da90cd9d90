package httpapi

import (
	"net/http"

	"github.com/smartpetcare/feeder-backend/internal/apperr"
	"github.com/smartpetcare/feeder-backend/internal/auth"
)

type emailRequest struct {
	Email string `json:"email"`
}

type signupVerifyRequest struct {
	Email     string `json:"email"`
	OTP       string `json:"otp"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FCMToken  string `json:"fcm_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FCMToken string `json:"fcm_token"`
}

type resetVerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetConfirmRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (rt *Router) handleSignupRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	if req.Email == "" {
		writeError(w, rt.logger, apperr.Validation("Email is required"))
		return
	}

	if err := rt.auth.RequestSignupCode(r.Context(), req.Email); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Verification code sent")
}

func (rt *Router) handleSignupVerify(w http.ResponseWriter, r *http.Request) {
	var req signupVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	if req.Email == "" || req.OTP == "" || req.Password == "" {
		writeError(w, rt.logger, apperr.Validation("Email, otp and password are required"))
		return
	}

	session, err := rt.auth.CompleteSignup(r.Context(), auth.SignupParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Code:      req.OTP,
		FCMToken:  req.FCMToken,
	})
	if err != nil {
		writeError(w, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, rt.logger, apperr.Validation("Email and password are required"))
		return
	}

	session, err := rt.auth.Login(r.Context(), req.Email, req.Password, req.FCMToken)
	if err != nil {
		writeError(w, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) handleResetRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	if req.Email == "" {
		writeError(w, rt.logger, apperr.Validation("Email is required"))
		return
	}

	if err := rt.auth.RequestPasswordResetCode(r.Context(), req.Email); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	// Same response whether or not the account exists
	writeMessage(w, http.StatusOK, "If an account exists for this email, a verification code has been sent")
}

func (rt *Router) handleResetVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req resetVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	if req.Email == "" || req.OTP == "" {
		writeError(w, rt.logger, apperr.Validation("Email and otp are required"))
		return
	}

	if err := rt.auth.VerifyPasswordResetCode(r.Context(), req.Email, req.OTP); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Verification code accepted")
}

func (rt *Router) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		writeError(w, rt.logger, apperr.Validation("Email, otp and new_password are required"))
		return
	}

	if err := rt.auth.ConfirmPasswordReset(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeError(w, rt.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated")
}
