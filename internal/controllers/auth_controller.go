package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"handa/internal/middleware"
	"handa/internal/models"
	"handa/internal/notify"
	"handa/internal/registration"
)

type AuthController struct {
	Reg *registration.Orchestrator
	DB  *gorm.DB
	Hub *notify.Hub
}

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required"`

	// rescuer / barangay captain
	IDNumber     string `json:"id_number"`
	Organization string `json:"organization"`
	BarangayID   *uint  `json:"barangay_id"`

	// household lead
	FamilyMembers  int    `json:"family_members"`
	Latitude       string `json:"latitude"`
	Longitude      string `json:"longitude"`
	GPSCoordinates string `json:"gps_coordinates"`

	// household member
	HouseholdCode string `json:"household_code"`
	Relationship  string `json:"relationship"`
}

// Signup runs the registration orchestrator and returns the session token
// together with the created identity.
func (a *AuthController) Signup(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var captainBarangay uint
	if input.BarangayID != nil {
		captainBarangay = *input.BarangayID
	}
	in := registration.Input{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Phone:    input.Phone,
		Role:     input.Role,
		Rescuer: &registration.RescuerInput{
			IDNumber:     input.IDNumber,
			Organization: input.Organization,
		},
		HouseholdLead: &registration.HouseholdLeadInput{
			FamilyMembers:  input.FamilyMembers,
			Latitude:       input.Latitude,
			Longitude:      input.Longitude,
			GPSCoordinates: input.GPSCoordinates,
			BarangayID:     input.BarangayID,
		},
		HouseholdMember: &registration.HouseholdMemberInput{
			HouseholdCode: input.HouseholdCode,
			Relationship:  input.Relationship,
		},
		BrgyCaptain: &registration.BrgyCaptainInput{
			IDNumber:     input.IDNumber,
			Organization: input.Organization,
			BarangayID:   captainBarangay,
		},
	}

	res, err := a.Reg.Register(c.Request.Context(), in)
	if err != nil {
		respondFailure(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"token": res.Token,
		"user":  prepareUserResponse(*res.User),
	})
}

func (a *AuthController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	query := a.DB.Where("email = ?", body.Email).
		Preload("HouseholdLead").
		Preload("HouseholdMember").
		Preload("Rescuer").
		Preload("BrgyCaptain")

	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, "user not found or invalid credentials")
		} else {
			respondError(c, http.StatusInternalServerError, "database error: "+err.Error())
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "incorrect password")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role, user.ProfileID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not generate token")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
	})
}

// ForgotPassword issues a reset token. The response does not reveal whether
// the email exists.
func (a *AuthController) ForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := a.DB.Where("email = ?", body.Email).First(&user).Error; err == nil {
		reset := models.PasswordReset{
			UserID:    user.ID,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		if err := a.DB.Create(&reset).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "could not create reset token")
			return
		}
		if a.Hub != nil {
			notify.Notifier{Hub: a.Hub}.Send(user.ID, "Password reset",
				"A password reset was requested for your account. Token: "+reset.Token)
		}
		logrus.WithField("user_id", user.ID).Info("password reset token issued")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusInternalServerError, "database error")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"message": "if the account exists, a reset token has been sent"})
}

func (a *AuthController) ResetPassword(c *gin.Context) {
	var body struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var reset models.PasswordReset
	err := a.DB.Where("token = ? AND used = ? AND expires_at > ?", body.Token, false, time.Now()).
		First(&reset).Error
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid or expired reset token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not hash password")
		return
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password", string(hash)).Error; err != nil {
			return err
		}
		return tx.Model(&reset).Update("used", true).Error
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not reset password")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"message": "password updated"})
}

func prepareUserResponse(user models.User) gin.H {
	responseUser := gin.H{
		"ID":         user.ID,
		"CreatedAt":  user.CreatedAt,
		"UpdatedAt":  user.UpdatedAt,
		"name":       user.Name,
		"email":      user.Email,
		"phone":      user.Phone,
		"role":       user.Role,
		"verified":   user.Verified,
		"active":     user.Active,
		"profile_id": user.ProfileID,
	}

	if user.HouseholdLead != nil {
		responseUser["household_lead"] = gin.H{
			"ID":             user.HouseholdLead.ID,
			"family_members": user.HouseholdLead.FamilyMembers,
			"total_members":  user.HouseholdLead.TotalMembers,
			"is_full":        user.HouseholdLead.IsFull,
			"household_code": user.HouseholdLead.HouseholdCode,
			"latitude":       user.HouseholdLead.Latitude,
			"longitude":      user.HouseholdLead.Longitude,
			"barangay_id":    user.HouseholdLead.BarangayID,
		}
	}
	if user.HouseholdMember != nil {
		responseUser["household_member"] = gin.H{
			"ID":                user.HouseholdMember.ID,
			"household_lead_id": user.HouseholdMember.HouseholdLeadID,
			"relationship":      user.HouseholdMember.Relationship,
			"is_verified":       user.HouseholdMember.IsVerified,
		}
	}
	if user.Rescuer != nil {
		responseUser["rescuer"] = gin.H{
			"ID":           user.Rescuer.ID,
			"id_number":    user.Rescuer.IDNumber,
			"organization": user.Rescuer.Organization,
			"phone":        user.Rescuer.Phone,
		}
	}
	if user.BrgyCaptain != nil {
		responseUser["brgy_captain"] = gin.H{
			"ID":           user.BrgyCaptain.ID,
			"id_number":    user.BrgyCaptain.IDNumber,
			"organization": user.BrgyCaptain.Organization,
			"barangay_id":  user.BrgyCaptain.BarangayID,
		}
	}
	return responseUser
}
