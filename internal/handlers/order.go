package handlers

import (
	"context"
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

type createOrderItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type addressRequest struct {
	Street       string `json:"street" binding:"required"`
	City         string `json:"city" binding:"required"`
	Province     string `json:"province" binding:"required"`
	PostalCode   string `json:"postalCode" binding:"required"`
	ContactPhone string `json:"contactPhone" binding:"required"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" binding:"required"`
	DeliveryAddress addressRequest           `json:"deliveryAddress" binding:"required"`
	PaymentMethod   string                   `json:"paymentMethod" binding:"required"`
	CustomerNotes   string                   `json:"customerNotes"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

/* =========================
   TYPED ERRORS
========================= */

type outOfStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e outOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID.Hex())
}

type prescriptionRequiredError struct {
	ProductName string
}

func (e prescriptionRequiredError) Error() string {
	return fmt.Sprintf("product %s requires a prescription", e.ProductName)
}

/* =========================
   PURE HELPERS
========================= */

type orderItemInput struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// parseOrderItems validates raw item requests into resolved product ids and
// positive quantities.
func parseOrderItems(items []createOrderItemRequest) ([]orderItemInput, error) {
	if len(items) == 0 {
		return nil, errors.New("no items in order")
	}

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

func deliveryAddressFromRequest(req addressRequest) models.Address {
	return models.Address{
		Street:       strings.TrimSpace(req.Street),
		City:         strings.TrimSpace(req.City),
		Province:     strings.TrimSpace(req.Province),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
	}
}

func validateDeliveryAddress(addr models.Address) error {
	if addr.Street == "" || addr.City == "" || addr.Province == "" ||
		addr.PostalCode == "" || addr.ContactPhone == "" {
		return errors.New("delivery address requires street, city, province, postalCode and contactPhone")
	}
	return nil
}

// reserveOrderItem checks and decrements stock for one line item inside a
// transaction. The filtered $inc keeps check-then-decrement atomic against
// concurrent orders for the same product.
func reserveOrderItem(sessCtx mongo.SessionContext, db *mongo.Database, input orderItemInput, forbidPrescription bool) (models.OrderItem, error) {
	var product models.Product
	err := db.Collection("products").FindOne(
		sessCtx,
		bson.M{"_id": input.ProductID, "isActive": bson.M{"$ne": false}},
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.OrderItem{}, productNotFoundError{ProductID: input.ProductID}
	}
	if err != nil {
		return models.OrderItem{}, err
	}

	if forbidPrescription && product.PrescriptionRequired {
		return models.OrderItem{}, prescriptionRequiredError{ProductName: product.Name}
	}

	if product.Stock < input.Quantity {
		return models.OrderItem{}, outOfStockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   input.Quantity,
		}
	}

	res, err := db.Collection("products").UpdateOne(
		sessCtx,
		bson.M{"_id": input.ProductID, "stock": bson.M{"$gte": input.Quantity}},
		bson.M{"$inc": bson.M{"stock": -input.Quantity}},
	)
	if err != nil {
		return models.OrderItem{}, err
	}
	if res.MatchedCount == 0 {
		return models.OrderItem{}, outOfStockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   input.Quantity,
		}
	}

	return models.OrderItem{
		ProductID: product.ID,
		Quantity:  input.Quantity,
		Price:     product.Price,
		Subtotal:  product.Price * float64(input.Quantity),
	}, nil
}

func respondOrderError(c *gin.Context, route string, err error) {
	var stockErr outOfStockError
	if errors.As(err, &stockErr) {
		respondError(c, http.StatusConflict, route, stockErr.Error())
		return
	}
	var notFoundErr productNotFoundError
	if errors.As(err, &notFoundErr) {
		respondError(c, http.StatusNotFound, route, notFoundErr.Error())
		return
	}
	var rxErr prescriptionRequiredError
	if errors.As(err, &rxErr) {
		respondError(c, http.StatusBadRequest, route,
			rxErr.Error()+". Please use the prescription upload flow.")
		return
	}
	respondError(c, http.StatusInternalServerError, route, "db error")
}

/* =========================
   CREATE ORDER (OTC)
========================= */

func CreateOrder(db *mongo.Database, freeThreshold, flatFee float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
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

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if !models.ValidPaymentMethod(req.PaymentMethod) {
			respondError(c, http.StatusBadRequest, route, "invalid payment method")
			return
		}

		inputs, err := parseOrderItems(req.Items)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		address := deliveryAddressFromRequest(req.DeliveryAddress)
		if err := validateDeliveryAddress(address); err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var order models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			items := make([]models.OrderItem, 0, len(inputs))
			for _, input := range inputs {
				item, err := reserveOrderItem(sessCtx, db, input, true)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}

			subtotal, deliveryFee, total := computeOrderTotals(items, nil, freeThreshold, flatFee)

			orderNumber, err := database.NextOrderNumber(sessCtx, db)
			if err != nil {
				return nil, err
			}

			status := models.OrderStatusAwaitingPayment
			if req.PaymentMethod == models.PaymentMethodCOD {
				status = models.OrderStatusPaid
			}

			now := time.Now()
			order = models.Order{
				OrderNumber:     orderNumber,
				CustomerID:      customerID,
				Items:           items,
				Status:          status,
				Subtotal:        subtotal,
				DeliveryFee:     deliveryFee,
				Total:           total,
				PaymentMethod:   req.PaymentMethod,
				PaymentStatus:   models.PaymentStatusPending,
				DeliveryAddress: address,
				CustomerNotes:   strings.TrimSpace(req.CustomerNotes),
				StatusHistory: []models.StatusHistoryEntry{
					{Status: status, Timestamp: now, UpdatedBy: &customerID},
				},
				CreatedAt: now,
				UpdatedAt: now,
			}

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				order.ID = id
			}
			return nil, nil
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		writeAuditLog(db, c, customerID, models.AuditOrderCreated, "Order", order.ID,
			bson.M{"orderNumber": order.OrderNumber})

		log.Println("[ORDER] [INFO] order created:", order.OrderNumber)
		respondSuccess(c, http.StatusCreated, "Order created successfully", order)
	}
}

/* =========================
   QUERIES
========================= */

func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/my-orders"
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

		cursor, err := db.Collection("orders").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Orders retrieved successfully", orders, page, limit, total)
	}
}

func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if actorRole(c) == models.RoleCustomer && order.CustomerID != actor {
			respondError(c, http.StatusForbidden, route, "not authorized to access this order")
			return
		}

		respondSuccess(c, http.StatusOK, "Order retrieved successfully", order)
	}
}

func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
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
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["orderNumber"] = bson.M{"$regex": search, "$options": "i"}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit)

		cursor, err := db.Collection("orders").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Orders retrieved successfully", orders, page, limit, total)
	}
}

/* =========================
   STATUS UPDATE
========================= */

func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if !models.ValidOrderStatus(req.Status) {
			respondError(c, http.StatusBadRequest, route, "invalid status")
			return
		}
		if req.Status == models.OrderStatusCancelled {
			respondError(c, http.StatusConflict, route, "use the cancel operation to cancel an order")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !models.CanTransitionOrder(order.Status, req.Status) {
			respondError(c, http.StatusConflict, route,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status))
			return
		}

		now := time.Now()
		entry := models.StatusHistoryEntry{
			Status:    req.Status,
			Timestamp: now,
			UpdatedBy: &actor,
			Note:      strings.TrimSpace(req.Note),
		}

		set := bson.M{"status": req.Status, "updatedAt": now}
		if order.PharmacistID == nil && actorRole(c) == models.RolePharmacist {
			set["pharmacist"] = actor
		}

		// Guarded on the old status so a concurrent update cannot slip an
		// extra transition through.
		res, err := db.Collection("orders").UpdateOne(
			ctx,
			bson.M{"_id": orderID, "status": order.Status},
			bson.M{"$set": set, "$push": bson.M{"statusHistory": entry}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusConflict, route, "order was modified concurrently, retry")
			return
		}

		note := strings.TrimSpace(req.Note)
		body := fmt.Sprintf("Your order %s status has been updated to %s.", order.OrderNumber, req.Status)
		if note != "" {
			body += " " + note
		}
		sendMessage(db, actor, order.CustomerID, &order.ID,
			"Order Status Update", body, models.MessageOrderUpdate)

		writeAuditLog(db, c, actor, models.AuditOrderStatusUpdated, "Order", order.ID,
			bson.M{"orderNumber": order.OrderNumber, "statusChange": bson.M{"from": order.Status, "to": req.Status}})

		order.Status = req.Status
		order.StatusHistory = append(order.StatusHistory, entry)
		order.UpdatedAt = now

		respondSuccess(c, http.StatusOK, "Order status updated successfully", order)
	}
}

/* =========================
   CANCEL
========================= */

func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:id/cancel"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		customerID, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var order models.Order
		cancelErr := func() error {
			_, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
				err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&order)
				if err != nil {
					return nil, err
				}

				if order.CustomerID != customerID {
					return nil, errNotOwner
				}
				if !models.OrderCancellable(order.Status) {
					return nil, errNotCancellable
				}

				now := time.Now()
				entry := models.StatusHistoryEntry{
					Status:    models.OrderStatusCancelled,
					Timestamp: now,
					UpdatedBy: &customerID,
				}

				// The status guard makes cancellation idempotent-safe: a
				// concurrent cancel loses the race and restores nothing.
				res, err := db.Collection("orders").UpdateOne(
					sessCtx,
					bson.M{"_id": orderID, "status": order.Status},
					bson.M{
						"$set":  bson.M{"status": models.OrderStatusCancelled, "updatedAt": now},
						"$push": bson.M{"statusHistory": entry},
					},
				)
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, errNotCancellable
				}

				// Restore stock exactly once per line item. Orders cancelled
				// before approval have no items, so nothing is credited back.
				for _, item := range order.Items {
					_, err := db.Collection("products").UpdateOne(
						sessCtx,
						bson.M{"_id": item.ProductID},
						bson.M{"$inc": bson.M{"stock": item.Quantity}},
					)
					if err != nil {
						return nil, err
					}
				}

				order.Status = models.OrderStatusCancelled
				order.StatusHistory = append(order.StatusHistory, entry)
				order.UpdatedAt = now
				return nil, nil
			})
			return err
		}()
		if cancelErr != nil {
			switch {
			case errors.Is(cancelErr, mongo.ErrNoDocuments):
				respondError(c, http.StatusNotFound, route, "order not found")
			case errors.Is(cancelErr, errNotOwner):
				respondError(c, http.StatusForbidden, route, "not authorized to cancel this order")
			case errors.Is(cancelErr, errNotCancellable):
				respondError(c, http.StatusConflict, route, "cannot cancel order at this stage")
			default:
				respondError(c, http.StatusInternalServerError, route, "db error")
			}
			return
		}

		sendMessage(db, customerID, order.CustomerID, &order.ID,
			"Order Cancelled",
			fmt.Sprintf("Your order %s has been cancelled.", order.OrderNumber),
			models.MessageOrderUpdate)

		log.Println("[ORDER] [INFO] order cancelled:", order.OrderNumber)
		respondSuccess(c, http.StatusOK, "Order cancelled successfully", order)
	}
}

var (
	errNotOwner       = errors.New("not resource owner")
	errNotCancellable = errors.New("order not cancellable")
)

/* =========================
   PAYMENT PROOF
========================= */

func UploadPaymentProof(db *mongo.Database, uploadDir string, maxFileSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/:id/payment-proof"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		customerID, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.CustomerID != customerID {
			respondError(c, http.StatusForbidden, route, "not authorized")
			return
		}

		proofPath, err := savePaymentProof(c, uploadDir, maxFileSize)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		now := time.Now()
		proof := models.PaymentProof{URL: proofPath, UploadedAt: now}
		entry := models.StatusHistoryEntry{
			Status:    models.OrderStatusPaid,
			Timestamp: now,
			UpdatedBy: &customerID,
			Note:      "payment proof uploaded",
		}

		_, err = db.Collection("orders").UpdateOne(
			ctx,
			bson.M{"_id": orderID},
			bson.M{
				"$set": bson.M{
					"paymentProof":  proof,
					"paymentStatus": models.PaymentStatusPaid,
					"status":        models.OrderStatusPaid,
					"updatedAt":     now,
				},
				"$push": bson.M{"statusHistory": entry},
			},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		order.PaymentProof = &proof
		order.PaymentStatus = models.PaymentStatusPaid
		order.Status = models.OrderStatusPaid
		order.StatusHistory = append(order.StatusHistory, entry)
		order.UpdatedAt = now

		respondSuccess(c, http.StatusOK, "Payment proof uploaded successfully", order)
	}
}
