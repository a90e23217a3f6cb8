package handlers

import "backend/internal/models"

// orderSubtotal sums price×quantity over the line items.
func orderSubtotal(items []models.OrderItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal
}

// resolveDeliveryFee returns the explicit override when one is supplied,
// otherwise free delivery above the threshold or the flat fee below it.
func resolveDeliveryFee(subtotal float64, override *float64, freeThreshold, flatFee float64) float64 {
	if override != nil && *override >= 0 {
		return *override
	}
	if subtotal > freeThreshold {
		return 0
	}
	return flatFee
}

// computeOrderTotals is the single pricing path for both OTC checkout and
// pharmacist-priced prescription approval.
func computeOrderTotals(items []models.OrderItem, feeOverride *float64, freeThreshold, flatFee float64) (subtotal, deliveryFee, total float64) {
	subtotal = orderSubtotal(items)
	deliveryFee = resolveDeliveryFee(subtotal, feeOverride, freeThreshold, flatFee)
	return subtotal, deliveryFee, subtotal + deliveryFee
}
