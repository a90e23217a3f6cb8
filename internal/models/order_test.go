package models

import "testing"

func TestCanTransitionOrderHappyPath(t *testing.T) {
	path := []string{
		OrderStatusPaid,
		OrderStatusPreparing,
		OrderStatusReadyForDelivery,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransitionOrder(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionOrderRejectsSkips(t *testing.T) {
	cases := [][2]string{
		{OrderStatusPendingReview, OrderStatusDelivered},
		{OrderStatusPaid, OrderStatusOutForDelivery},
		{OrderStatusDelivered, OrderStatusPreparing},
		{OrderStatusCancelled, OrderStatusPaid},
		{OrderStatusRejected, OrderStatusApproved},
	}
	for _, tc := range cases {
		if CanTransitionOrder(tc[0], tc[1]) {
			t.Fatalf("expected %s -> %s to be rejected", tc[0], tc[1])
		}
	}
}

func TestCancelledNeverReachableViaStatusUpdate(t *testing.T) {
	for _, from := range []string{
		OrderStatusPendingReview,
		OrderStatusApproved,
		OrderStatusAwaitingPayment,
		OrderStatusPaid,
		OrderStatusPreparing,
	} {
		if CanTransitionOrder(from, OrderStatusCancelled) {
			t.Fatalf("CANCELLED must only be reachable through the cancel operation, got allowed from %s", from)
		}
	}
}

func TestOrderCancellable(t *testing.T) {
	for _, status := range []string{
		OrderStatusPendingReview,
		OrderStatusApproved,
		OrderStatusAwaitingPayment,
		OrderStatusPaid,
	} {
		if !OrderCancellable(status) {
			t.Fatalf("expected %s to be cancellable", status)
		}
	}
	for _, status := range []string{
		OrderStatusPreparing,
		OrderStatusReadyForDelivery,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRejected,
	} {
		if OrderCancellable(status) {
			t.Fatalf("expected %s to not be cancellable", status)
		}
	}
}

func TestValidOrderStatus(t *testing.T) {
	if !ValidOrderStatus(OrderStatusPreparing) {
		t.Fatal("expected PREPARING to be a valid status")
	}
	if ValidOrderStatus("SHIPPED") {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []string{PaymentMethodCOD, PaymentMethodOnline, PaymentMethodBankTransfer} {
		if !ValidPaymentMethod(m) {
			t.Fatalf("expected %s to be valid", m)
		}
	}
	if ValidPaymentMethod("CHEQUE") {
		t.Fatal("expected CHEQUE to be invalid")
	}
}
