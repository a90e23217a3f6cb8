package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type productRequest struct {
	Name                 string                `json:"name" binding:"required"`
	GenericName          string                `json:"genericName"`
	Brand                string                `json:"brand"`
	Category             string                `json:"category" binding:"required"`
	Description          string                `json:"description" binding:"required"`
	DosageForm           string                `json:"dosageForm"`
	Strength             string                `json:"strength"`
	Price                *float64              `json:"price" binding:"required"`
	Stock                *int                  `json:"stock" binding:"required"`
	LowStockThreshold    int                   `json:"lowStockThreshold"`
	PrescriptionRequired bool                  `json:"prescriptionRequired"`
	Images               []models.ProductImage `json:"images"`
	Manufacturer         string                `json:"manufacturer"`
}

func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		page, limit, skip, err := paginationFromQuery(c, 12)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{"isActive": bson.M{"$ne": false}}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"genericName": bson.M{"$regex": search, "$options": "i"}},
				{"brand": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			categoryID, err := primitive.ObjectIDFromHex(category)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid category id")
				return
			}
			filter["category"] = categoryID
		}

		if rx := strings.TrimSpace(c.Query("prescriptionRequired")); rx != "" {
			filter["prescriptionRequired"] = rx == "true"
		}

		priceFilter := bson.M{}
		if minPrice := strings.TrimSpace(c.Query("minPrice")); minPrice != "" {
			if parsed, err := strconv.ParseFloat(minPrice, 64); err == nil {
				priceFilter["$gte"] = parsed
			}
		}
		if maxPrice := strings.TrimSpace(c.Query("maxPrice")); maxPrice != "" {
			if parsed, err := strconv.ParseFloat(maxPrice, 64); err == nil {
				priceFilter["$lte"] = parsed
			}
		}
		if len(priceFilter) > 0 {
			filter["price"] = priceFilter
		}

		if c.Query("inStock") == "true" {
			filter["stock"] = bson.M{"$gt": 0}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit)

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		for i := range products {
			products[i].ResolveStockStatus()
		}

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Products retrieved successfully", products, page, limit, total)
	}
}

func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.ResolveStockStatus()

		respondSuccess(c, http.StatusOK, "Product retrieved successfully", product)
	}
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		categoryID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.Category))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid category id")
			return
		}
		if *req.Price < 0 {
			respondError(c, http.StatusBadRequest, route, "price cannot be negative")
			return
		}
		if *req.Stock < 0 {
			respondError(c, http.StatusBadRequest, route, "stock cannot be negative")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"_id": categoryID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count == 0 {
			respondError(c, http.StatusNotFound, route, "category not found")
			return
		}

		threshold := req.LowStockThreshold
		if threshold <= 0 {
			threshold = 10
		}

		now := time.Now()
		product := models.Product{
			Name:                 strings.TrimSpace(req.Name),
			GenericName:          strings.TrimSpace(req.GenericName),
			Brand:                strings.TrimSpace(req.Brand),
			CategoryID:           categoryID,
			Description:          strings.TrimSpace(req.Description),
			DosageForm:           strings.TrimSpace(req.DosageForm),
			Strength:             strings.TrimSpace(req.Strength),
			Price:                *req.Price,
			Stock:                *req.Stock,
			LowStockThreshold:    threshold,
			PrescriptionRequired: req.PrescriptionRequired,
			Images:               req.Images,
			Manufacturer:         strings.TrimSpace(req.Manufacturer),
			IsActive:             true,
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}
		product.ResolveStockStatus()

		writeAuditLog(db, c, actor, models.AuditProductCreated, "Product", product.ID,
			bson.M{"name": product.Name})

		respondSuccess(c, http.StatusCreated, "Product created successfully", product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		categoryID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.Category))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid category id")
			return
		}
		if *req.Price < 0 {
			respondError(c, http.StatusBadRequest, route, "price cannot be negative")
			return
		}
		if *req.Stock < 0 {
			respondError(c, http.StatusBadRequest, route, "stock cannot be negative")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		set := bson.M{
			"name":                 strings.TrimSpace(req.Name),
			"genericName":          strings.TrimSpace(req.GenericName),
			"brand":                strings.TrimSpace(req.Brand),
			"category":             categoryID,
			"description":          strings.TrimSpace(req.Description),
			"dosageForm":           strings.TrimSpace(req.DosageForm),
			"strength":             strings.TrimSpace(req.Strength),
			"price":                *req.Price,
			"stock":                *req.Stock,
			"prescriptionRequired": req.PrescriptionRequired,
			"manufacturer":         strings.TrimSpace(req.Manufacturer),
			"updatedAt":            time.Now(),
		}
		if req.LowStockThreshold > 0 {
			set["lowStockThreshold"] = req.LowStockThreshold
		}
		if req.Images != nil {
			set["images"] = req.Images
		}

		var product models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.ResolveStockStatus()

		writeAuditLog(db, c, actor, models.AuditProductUpdated, "Product", product.ID,
			bson.M{"name": product.Name})

		respondSuccess(c, http.StatusOK, "Product updated successfully", product)
	}
}

// DeleteProduct deactivates the product; order history keeps referencing it.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
		).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		writeAuditLog(db, c, actor, models.AuditProductDeleted, "Product", productID,
			bson.M{"name": product.Name})

		respondSuccess(c, http.StatusOK, "Product deleted successfully", nil)
	}
}

// UpdateStock sets an absolute stock level (restock/correction by staff).
// Order flows never call this; they use guarded $inc mutations.
func UpdateStock(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/products/:id/stock"
		defer handlePanic(c, route)

		actor, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req struct {
			Stock *int `json:"stock" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if *req.Stock < 0 {
			respondError(c, http.StatusBadRequest, route, "invalid stock value")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{"$set": bson.M{"stock": *req.Stock, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.ResolveStockStatus()

		writeAuditLog(db, c, actor, models.AuditProductUpdated, "Product", product.ID,
			bson.M{"name": product.Name, "stockChange": bson.M{"to": *req.Stock}})

		respondSuccess(c, http.StatusOK, "Stock updated successfully", product)
	}
}

func GetLowStockProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/admin/low-stock"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{
			"isActive": bson.M{"$ne": false},
			"$expr":    bson.M{"$lte": bson.A{"$stock", "$lowStockThreshold"}},
		}

		cursor, err := db.Collection("products").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "stock", Value: 1}}))
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		for i := range products {
			products[i].ResolveStockStatus()
		}

		respondSuccess(c, http.StatusOK, "Low stock products retrieved successfully", products)
	}
}
