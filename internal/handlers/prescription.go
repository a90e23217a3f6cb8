package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/database"
	"backend/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type reviewItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type reviewPrescriptionRequest struct {
	Status          string              `json:"status" binding:"required"`
	ReviewNotes     string              `json:"reviewNotes"`
	RejectionReason string              `json:"rejectionReason"`
	Items           []reviewItemRequest `json:"items"`
	DeliveryFee     *float64            `json:"deliveryFee"`
}

var errAlreadyReviewed = errors.New("prescription has already been reviewed")

/* =========================
   PURE HELPERS
========================= */

// validateReviewInput enforces the per-decision input requirements before any
// storage work happens.
func validateReviewInput(status, rejectionReason, reviewNotes string, itemCount int) error {
	if !models.ValidReviewDecision(status) {
		return errors.New("invalid review status")
	}
	switch status {
	case models.PrescriptionStatusApproved:
		if itemCount == 0 {
			return errors.New("please add priced items to approve the prescription")
		}
	case models.PrescriptionStatusRejected:
		if strings.TrimSpace(rejectionReason) == "" {
			return errors.New("a rejection reason is required")
		}
	case models.PrescriptionStatusReuploadRequired:
		if strings.TrimSpace(reviewNotes) == "" {
			return errors.New("review notes are required when requesting a reupload")
		}
	}
	return nil
}

func parseReviewItems(items []reviewItemRequest) ([]orderItemInput, error) {
	parsed := make([]orderItemInput, 0, len(items))
	for _, item := range items {
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.Product))
		if err != nil {
			return nil, errors.New("invalid product id")
		}
		if item.Quantity < 1 {
			return nil, errors.New("quantity must be at least 1")
		}
		parsed = append(parsed, orderItemInput{ProductID: productID, Quantity: item.Quantity})
	}
	return parsed, nil
}

// parseRequestedMedicines decodes the free-text medicine list from a form
// value. Entries are not validated against the catalog.
func parseRequestedMedicines(raw string) ([]models.RequestedMedicine, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []models.RequestedMedicine{}, nil
	}
	var medicines []models.RequestedMedicine
	if err := json.Unmarshal([]byte(trimmed), &medicines); err != nil {
		return nil, errors.New("invalid requestedMedicines payload")
	}
	return medicines, nil
}

func parseDeliveryAddressForm(raw string) (models.Address, error) {
	var address models.Address
	if strings.TrimSpace(raw) == "" {
		return address, errors.New("deliveryAddress is required")
	}
	if err := json.Unmarshal([]byte(raw), &address); err != nil {
		return address, errors.New("invalid deliveryAddress payload")
	}
	if err := validateDeliveryAddress(address); err != nil {
		return address, err
	}
	return address, nil
}

/* =========================
   SUBMIT
========================= */

func UploadPrescription(db *mongo.Database, uploadDir string, maxFileSize int64, maxFiles int) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/prescriptions"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		customerID, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		medicines, err := parseRequestedMedicines(c.PostForm("requestedMedicines"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		address, err := parseDeliveryAddressForm(c.PostForm("deliveryAddress"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		files, err := savePrescriptionFiles(c, uploadDir, maxFileSize, maxFiles)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			removeUploadedFiles(uploadDir, files)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var prescription models.Prescription
		var order models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			now := time.Now()
			prescription = models.Prescription{
				CustomerID:         customerID,
				Files:              files,
				RequestedMedicines: medicines,
				Status:             models.PrescriptionStatusPending,
				CustomerNotes:      strings.TrimSpace(c.PostForm("customerNotes")),
				CreatedAt:          now,
				UpdatedAt:          now,
			}

			res, err := db.Collection("prescriptions").InsertOne(sessCtx, prescription)
			if err != nil {
				return nil, err
			}
			prescriptionID, _ := res.InsertedID.(primitive.ObjectID)
			prescription.ID = prescriptionID

			orderNumber, err := database.NextOrderNumber(sessCtx, db)
			if err != nil {
				return nil, err
			}

			// The paired order starts empty; the pharmacist fills the line
			// items and totals at review time.
			order = models.Order{
				OrderNumber:     orderNumber,
				CustomerID:      customerID,
				Items:           []models.OrderItem{},
				PrescriptionID:  &prescriptionID,
				Status:          models.OrderStatusPendingReview,
				PaymentMethod:   models.PaymentMethodCOD,
				PaymentStatus:   models.PaymentStatusPending,
				DeliveryAddress: address,
				StatusHistory: []models.StatusHistoryEntry{
					{Status: models.OrderStatusPendingReview, Timestamp: now, UpdatedBy: &customerID},
				},
				CreatedAt: now,
				UpdatedAt: now,
			}

			orderRes, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			orderID, _ := orderRes.InsertedID.(primitive.ObjectID)
			order.ID = orderID

			_, err = db.Collection("prescriptions").UpdateOne(
				sessCtx,
				bson.M{"_id": prescriptionID},
				bson.M{"$set": bson.M{"order": orderID, "updatedAt": now}},
			)
			if err != nil {
				return nil, err
			}
			prescription.OrderID = &orderID
			return nil, nil
		})
		if err != nil {
			removeUploadedFiles(uploadDir, files)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		writeAuditLog(db, c, customerID, models.AuditOrderCreated, "Order", order.ID,
			bson.M{"orderNumber": order.OrderNumber, "type": "prescription"})

		log.Println("[PRESCRIPTION] [INFO] prescription submitted:", prescription.ID.Hex())
		respondSuccess(c, http.StatusCreated,
			"Prescription uploaded successfully. A pharmacist will review your request shortly.",
			gin.H{"prescription": prescription, "order": order})
	}
}

/* =========================
   REVIEW
========================= */

func ReviewPrescription(db *mongo.Database, freeThreshold, flatFee float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/prescriptions/:id/review"
		defer handlePanic(c, route)

		prescriptionID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid prescription id")
			return
		}

		reviewerID, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req reviewPrescriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := validateReviewInput(req.Status, req.RejectionReason, req.ReviewNotes, len(req.Items)); err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		var inputs []orderItemInput
		if req.Status == models.PrescriptionStatusApproved {
			inputs, err = parseReviewItems(req.Items)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var prescription models.Prescription
		var order models.Order
		var subtotal, deliveryFee, total float64
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			now := time.Now()

			set := bson.M{
				"status":      req.Status,
				"reviewedBy":  reviewerID,
				"reviewedAt":  now,
				"reviewNotes": strings.TrimSpace(req.ReviewNotes),
				"updatedAt":   now,
			}
			if req.Status != models.PrescriptionStatusApproved {
				set["rejectionReason"] = strings.TrimSpace(req.RejectionReason)
			}

			// One-shot guard: the status precondition and the transition are
			// a single atomic step, so a concurrent second review cannot win.
			err := db.Collection("prescriptions").FindOneAndUpdate(
				sessCtx,
				bson.M{"_id": prescriptionID, "status": models.PrescriptionStatusPending},
				bson.M{"$set": set},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).Decode(&prescription)
			if err == mongo.ErrNoDocuments {
				return nil, errAlreadyReviewed
			}
			if err != nil {
				return nil, err
			}

			if prescription.OrderID == nil {
				return nil, fmt.Errorf("prescription %s has no linked order", prescriptionID.Hex())
			}
			if err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": *prescription.OrderID}).Decode(&order); err != nil {
				return nil, err
			}

			switch req.Status {
			case models.PrescriptionStatusApproved:
				items := make([]models.OrderItem, 0, len(inputs))
				for _, input := range inputs {
					// Stock is decremented at approval time so the quantity
					// promised to the customer cannot be oversold before
					// payment, and cancellation restores exactly this amount.
					item, err := reserveOrderItem(sessCtx, db, input, false)
					if err != nil {
						return nil, err
					}
					items = append(items, item)
				}

				subtotal, deliveryFee, total = computeOrderTotals(items, req.DeliveryFee, freeThreshold, flatFee)

				entry := models.StatusHistoryEntry{
					Status:    models.OrderStatusApproved,
					Timestamp: now,
					UpdatedBy: &reviewerID,
				}
				_, err := db.Collection("orders").UpdateOne(
					sessCtx,
					bson.M{"_id": order.ID},
					bson.M{
						"$set": bson.M{
							"items":       items,
							"subtotal":    subtotal,
							"deliveryFee": deliveryFee,
							"total":       total,
							"status":      models.OrderStatusApproved,
							"pharmacist":  reviewerID,
							"updatedAt":   now,
						},
						"$push": bson.M{"statusHistory": entry},
					},
				)
				if err != nil {
					return nil, err
				}
				order.Items = items
				order.Subtotal = subtotal
				order.DeliveryFee = deliveryFee
				order.Total = total
				order.Status = models.OrderStatusApproved
				order.PharmacistID = &reviewerID
				order.StatusHistory = append(order.StatusHistory, entry)

			case models.PrescriptionStatusRejected:
				entry := models.StatusHistoryEntry{
					Status:    models.OrderStatusRejected,
					Timestamp: now,
					UpdatedBy: &reviewerID,
				}
				_, err := db.Collection("orders").UpdateOne(
					sessCtx,
					bson.M{"_id": order.ID},
					bson.M{
						"$set":  bson.M{"status": models.OrderStatusRejected, "updatedAt": now},
						"$push": bson.M{"statusHistory": entry},
					},
				)
				if err != nil {
					return nil, err
				}
				order.Status = models.OrderStatusRejected
				order.StatusHistory = append(order.StatusHistory, entry)

			case models.PrescriptionStatusReuploadRequired:
				// The order stays PENDING_REVIEW; the customer is expected to
				// submit a fresh prescription.
			}

			return nil, nil
		})
		if err != nil {
			respondReviewError(c, route, err)
			return
		}

		switch req.Status {
		case models.PrescriptionStatusApproved:
			sendMessage(db, reviewerID, prescription.CustomerID, &order.ID,
				"Prescription Approved - Price Confirmation",
				fmt.Sprintf("Your prescription has been approved. Total amount: Rs. %.2f (Subtotal: Rs. %.2f + Delivery: Rs. %.2f). Please proceed with payment.",
					total, subtotal, deliveryFee),
				models.MessagePriceConfirmation)
		case models.PrescriptionStatusRejected:
			sendMessage(db, reviewerID, prescription.CustomerID, &order.ID,
				"Prescription Rejected",
				fmt.Sprintf("Your prescription has been rejected. Reason: %s", strings.TrimSpace(req.RejectionReason)),
				models.MessagePrescriptionFeedback)
		case models.PrescriptionStatusReuploadRequired:
			sendMessage(db, reviewerID, prescription.CustomerID, &order.ID,
				"Prescription Reupload Required",
				fmt.Sprintf("Please reupload your prescription. Reason: %s", strings.TrimSpace(req.ReviewNotes)),
				models.MessagePrescriptionFeedback)
		}

		writeAuditLog(db, c, reviewerID, models.AuditPrescriptionReview, "Prescription", prescription.ID,
			bson.M{"status": req.Status, "orderNumber": order.OrderNumber})

		log.Println("[PRESCRIPTION] [INFO] prescription reviewed:", prescription.ID.Hex(), req.Status)
		respondSuccess(c, http.StatusOK, "Prescription reviewed successfully",
			gin.H{"prescription": prescription, "order": order})
	}
}

// respondReviewError maps review failures onto the error taxonomy. Unlike OTC
// checkout, a missing product or short stock in an approval batch is a
// validation failure of the pharmacist's input.
func respondReviewError(c *gin.Context, route string, err error) {
	if errors.Is(err, errAlreadyReviewed) {
		respondError(c, http.StatusConflict, route, "prescription has already been reviewed")
		return
	}
	var stockErr outOfStockError
	if errors.As(err, &stockErr) {
		respondError(c, http.StatusBadRequest, route, stockErr.Error())
		return
	}
	var notFoundErr productNotFoundError
	if errors.As(err, &notFoundErr) {
		respondError(c, http.StatusBadRequest, route, notFoundErr.Error())
		return
	}
	respondError(c, http.StatusInternalServerError, route, "db error")
}

/* =========================
   QUERIES
========================= */

func GetMyPrescriptions(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/prescriptions/my-prescriptions"
		defer handlePanic(c, route)

		customerID, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		page, limit, skip, err := paginationFromQuery(c, 10)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{"customer": customerID}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit)

		cursor, err := db.Collection("prescriptions").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		prescriptions := make([]models.Prescription, 0)
		if err := cursor.All(ctx, &prescriptions); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("prescriptions").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Prescriptions retrieved successfully", prescriptions, page, limit, total)
	}
}

func GetPendingPrescriptions(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/prescriptions/pending"
		defer handlePanic(c, route)

		page, limit, skip, err := paginationFromQuery(c, 20)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{"status": models.PrescriptionStatusPending}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// Oldest first: review queue order.
		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: 1}}).
			SetSkip(skip).
			SetLimit(limit)

		cursor, err := db.Collection("prescriptions").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		prescriptions := make([]models.Prescription, 0)
		if err := cursor.All(ctx, &prescriptions); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("prescriptions").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Pending prescriptions retrieved successfully", prescriptions, page, limit, total)
	}
}

func GetPrescription(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/prescriptions/:id"
		defer handlePanic(c, route)

		prescriptionID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid prescription id")
			return
		}

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var prescription models.Prescription
		err = db.Collection("prescriptions").FindOne(ctx, bson.M{"_id": prescriptionID}).Decode(&prescription)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "prescription not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if actorRole(c) == models.RoleCustomer && prescription.CustomerID != actor {
			respondError(c, http.StatusForbidden, route, "not authorized to access this prescription")
			return
		}

		respondSuccess(c, http.StatusOK, "Prescription retrieved successfully", prescription)
	}
}

func GetAllPrescriptions(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/prescriptions"
		defer handlePanic(c, route)

		page, limit, skip, err := paginationFromQuery(c, 20)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit)

		cursor, err := db.Collection("prescriptions").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		prescriptions := make([]models.Prescription, 0)
		if err := cursor.All(ctx, &prescriptions); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("prescriptions").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Prescriptions retrieved successfully", prescriptions, page, limit, total)
	}
}
