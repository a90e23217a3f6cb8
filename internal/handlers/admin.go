package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type pharmacistApprovalRequest struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejectionReason"`
}

type pendingPharmacist struct {
	Profile models.PharmacistProfile `json:"profile"`
	User    models.User              `json:"user"`
}

func GetPendingPharmacists(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/pharmacists/pending"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("pharmacistProfiles").Find(ctx,
			bson.M{"approvalStatus": models.ApprovalPending},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		profiles := make([]models.PharmacistProfile, 0)
		if err := cursor.All(ctx, &profiles); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		result := make([]pendingPharmacist, 0, len(profiles))
		for _, profile := range profiles {
			var user models.User
			if err := db.Collection("users").FindOne(ctx, bson.M{"_id": profile.UserID}).Decode(&user); err != nil {
				continue
			}
			result = append(result, pendingPharmacist{Profile: profile, User: user})
		}

		respondSuccess(c, http.StatusOK, "Pending pharmacists retrieved successfully", result)
	}
}

// UpdatePharmacistApproval approves or rejects a pending pharmacist. The
// filter on approvalStatus makes review one-shot; a second attempt finds no
// matching document.
func UpdatePharmacistApproval(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/admin/pharmacists/:id/approval"
		defer handlePanic(c, route)

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		profileID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid profile id")
			return
		}

		var req pharmacistApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		status := strings.ToUpper(strings.TrimSpace(req.Status))
		if status != models.ApprovalApproved && status != models.ApprovalRejected {
			respondError(c, http.StatusBadRequest, route, "status must be APPROVED or REJECTED")
			return
		}
		if status == models.ApprovalRejected && strings.TrimSpace(req.RejectionReason) == "" {
			respondError(c, http.StatusBadRequest, route, "rejection reason is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		set := bson.M{
			"approvalStatus": status,
			"approvedBy":     actor,
			"approvedAt":     now,
			"updatedAt":      now,
		}
		if status == models.ApprovalRejected {
			set["rejectionReason"] = strings.TrimSpace(req.RejectionReason)
		}

		var profile models.PharmacistProfile
		err = db.Collection("pharmacistProfiles").FindOneAndUpdate(
			ctx,
			bson.M{"_id": profileID, "approvalStatus": models.ApprovalPending},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&profile)
		if err == mongo.ErrNoDocuments {
			count, countErr := db.Collection("pharmacistProfiles").CountDocuments(ctx, bson.M{"_id": profileID})
			if countErr == nil && count > 0 {
				respondError(c, http.StatusConflict, route, "pharmacist application already reviewed")
				return
			}
			respondError(c, http.StatusNotFound, route, "pharmacist profile not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		userStatus := models.UserStatusActive
		auditAction := models.AuditPharmacistApproved
		body := "Your pharmacist account has been approved. You can now review prescriptions."
		if status == models.ApprovalRejected {
			userStatus = models.UserStatusBlocked
			auditAction = models.AuditPharmacistRejected
			body = fmt.Sprintf("Your pharmacist application was rejected. Reason: %s", strings.TrimSpace(req.RejectionReason))
		}

		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": profile.UserID},
			bson.M{"$set": bson.M{"status": userStatus, "updatedAt": now}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		sendMessage(db, actor, profile.UserID, nil, "Pharmacist application reviewed", body, models.MessageGeneral)
		writeAuditLog(db, c, actor, auditAction, "PharmacistProfile", profile.ID,
			bson.M{"status": status})

		respondSuccess(c, http.StatusOK, "Pharmacist application reviewed successfully", profile)
	}
}

func GetAllUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/users"
		defer handlePanic(c, route)

		page, limit, skip, err := paginationFromQuery(c, 20)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if role := strings.ToUpper(strings.TrimSpace(c.Query("role"))); role != "" {
			filter["role"] = role
		}
		if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
			filter["status"] = status
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"firstName": bson.M{"$regex": search, "$options": "i"}},
				{"lastName": bson.M{"$regex": search, "$options": "i"}},
				{"email": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("users").Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit))
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("users").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Users retrieved successfully", users, page, limit, total)
	}
}

// UpdateUserStatus blocks or reactivates an account. Admin accounts are off
// limits.
func UpdateUserStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/admin/users/:id/status"
		defer handlePanic(c, route)

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		status := strings.ToUpper(strings.TrimSpace(req.Status))
		if status != models.UserStatusActive && status != models.UserStatusBlocked {
			respondError(c, http.StatusBadRequest, route, "status must be ACTIVE or BLOCKED")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err = db.Collection("users").FindOneAndUpdate(
			ctx,
			bson.M{"_id": userID, "role": bson.M{"$ne": models.RoleAdmin}},
			bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "user not found or cannot be modified")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		auditAction := models.AuditUserActivated
		if status == models.UserStatusBlocked {
			auditAction = models.AuditUserBlocked
		}
		writeAuditLog(db, c, actor, auditAction, "User", user.ID, bson.M{"status": status})

		respondSuccess(c, http.StatusOK, "User status updated successfully", user)
	}
}

func GetDashboardStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/dashboard"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		users := db.Collection("users")
		orders := db.Collection("orders")

		totalCustomers, err := users.CountDocuments(ctx, bson.M{"role": models.RoleCustomer})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalPharmacists, err := users.CountDocuments(ctx, bson.M{"role": models.RolePharmacist, "status": models.UserStatusActive})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		pendingPharmacists, err := db.Collection("pharmacistProfiles").CountDocuments(ctx,
			bson.M{"approvalStatus": models.ApprovalPending})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalProducts, err := db.Collection("products").CountDocuments(ctx, bson.M{"isActive": bson.M{"$ne": false}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalOrders, err := orders.CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		pendingReview, err := db.Collection("prescriptions").CountDocuments(ctx,
			bson.M{"status": models.PrescriptionStatusPending})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		startOfDay := time.Now().Truncate(24 * time.Hour)
		todaysOrders, err := orders.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": startOfDay}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// Revenue counts only orders whose payment actually settled.
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"paymentStatus": models.PaymentStatusPaid}}},
			{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$total"}}}},
		}
		cursor, err := orders.Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		totalRevenue := 0.0
		var revenueRow struct {
			Total float64 `bson:"total"`
		}
		if cursor.Next(ctx) {
			if err := cursor.Decode(&revenueRow); err == nil {
				totalRevenue = revenueRow.Total
			}
		}

		respondSuccess(c, http.StatusOK, "Dashboard stats retrieved successfully", gin.H{
			"totalCustomers":       totalCustomers,
			"activePharmacists":    totalPharmacists,
			"pendingPharmacists":   pendingPharmacists,
			"totalProducts":        totalProducts,
			"totalOrders":          totalOrders,
			"todaysOrders":         todaysOrders,
			"pendingPrescriptions": pendingReview,
			"totalRevenue":         totalRevenue,
		})
	}
}

func GetAuditLogs(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/audit-logs"
		defer handlePanic(c, route)

		page, limit, skip, err := paginationFromQuery(c, 50)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if action := strings.ToUpper(strings.TrimSpace(c.Query("action"))); action != "" {
			filter["action"] = action
		}
		if userHex := strings.TrimSpace(c.Query("user")); userHex != "" {
			userID, err := primitive.ObjectIDFromHex(userHex)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid user id")
				return
			}
			filter["user"] = userID
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("auditLogs").Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit))
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		logs := make([]models.AuditLog, 0)
		if err := cursor.All(ctx, &logs); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("auditLogs").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Audit logs retrieved successfully", logs, page, limit, total)
	}
}
