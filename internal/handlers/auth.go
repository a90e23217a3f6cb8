package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"backend/internal/models"
)

type pharmacistDataRequest struct {
	LicenseNumber     string `json:"licenseNumber"`
	NIC               string `json:"nic"`
	Qualifications    string `json:"qualifications"`
	PharmacyBranch    string `json:"pharmacyBranch"`
	YearsOfExperience int    `json:"yearsOfExperience"`
	Specialization    string `json:"specialization"`
}

type registerRequest struct {
	FirstName      string                 `json:"firstName" binding:"required"`
	LastName       string                 `json:"lastName" binding:"required"`
	Email          string                 `json:"email" binding:"required,email"`
	Phone          string                 `json:"phone" binding:"required"`
	Password       string                 `json:"password" binding:"required,min=6"`
	Role           string                 `json:"role" binding:"required"`
	PharmacistData *pharmacistDataRequest `json:"pharmacistData"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func issueToken(userID primitive.ObjectID, role, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   role,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func Register(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.Role != models.RoleCustomer && req.Role != models.RolePharmacist {
			respondError(c, http.StatusBadRequest, route, "invalid role: only CUSTOMER and PHARMACIST can register")
			return
		}

		if req.Role == models.RolePharmacist {
			if req.PharmacistData == nil ||
				strings.TrimSpace(req.PharmacistData.LicenseNumber) == "" ||
				strings.TrimSpace(req.PharmacistData.NIC) == "" {
				respondError(c, http.StatusBadRequest, route,
					"license number and NIC are required for pharmacist registration")
				return
			}
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, route, "user with this email already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "registration failed")
			return
		}

		status := models.UserStatusActive
		if req.Role == models.RolePharmacist {
			// Pharmacists need admin approval before they can log in.
			status = models.UserStatusPending
		}

		now := time.Now()
		user := models.User{
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        email,
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: string(hash),
			Role:         req.Role,
			Status:       status,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			user.ID = id
		}

		if req.Role == models.RolePharmacist {
			profile := models.PharmacistProfile{
				UserID:            user.ID,
				LicenseNumber:     strings.TrimSpace(req.PharmacistData.LicenseNumber),
				NIC:               strings.TrimSpace(req.PharmacistData.NIC),
				Qualifications:    strings.TrimSpace(req.PharmacistData.Qualifications),
				PharmacyBranch:    strings.TrimSpace(req.PharmacistData.PharmacyBranch),
				YearsOfExperience: req.PharmacistData.YearsOfExperience,
				Specialization:    strings.TrimSpace(req.PharmacistData.Specialization),
				ApprovalStatus:    models.ApprovalPending,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if _, err := db.Collection("pharmacistProfiles").InsertOne(ctx, profile); err != nil {
				// Roll the account back so a retry can reuse the email.
				_, _ = db.Collection("users").DeleteOne(ctx, bson.M{"_id": user.ID})
				respondError(c, http.StatusConflict, route, "license number already registered")
				return
			}
		}

		writeAuditLog(db, c, user.ID, models.AuditUserRegister, "User", user.ID, bson.M{"role": req.Role})

		token, err := issueToken(user.ID, user.Role, jwtSecret, accessTTL)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		message := "Registration successful"
		if req.Role == models.RolePharmacist {
			message = "Registration successful. Your account is pending admin approval."
		}

		log.Println("[AUTH] [INFO] user registered:", user.Email)
		respondSuccess(c, http.StatusCreated, message, gin.H{"user": user, "token": token})
	}
}

func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials for:", email)
			respondError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		if user.Status == models.UserStatusBlocked {
			respondError(c, http.StatusForbidden, route, "your account has been blocked, please contact support")
			return
		}
		if user.Status == models.UserStatusPending && user.Role == models.RolePharmacist {
			respondError(c, http.StatusForbidden, route, "your account is pending admin approval")
			return
		}

		now := time.Now()
		_, _ = db.Collection("users").UpdateOne(ctx, bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"lastLogin": now, "updatedAt": now}})
		user.LastLogin = &now

		writeAuditLog(db, c, user.ID, models.AuditUserLogin, "User", user.ID, nil)

		token, err := issueToken(user.ID, user.Role, jwtSecret, accessTTL)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", user.Email)
		respondSuccess(c, http.StatusOK, "Login successful", gin.H{"user": user, "token": token})
	}
}

func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "User retrieved successfully", user)
	}
}
