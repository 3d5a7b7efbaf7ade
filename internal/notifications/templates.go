package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// OrderConfirmation renders the receipt sent after checkout.
func OrderConfirmation(order *models.Order, user *models.User) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Username)
	b.WriteString("Thank you for your order. Here are the details:\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n", order.ID)
	fmt.Fprintf(&b, "Payment Method: %s\n", order.PaymentMethod)
	fmt.Fprintf(&b, "Total Amount: %s\n", order.TotalAmount.StringFixed(2))
	if order.DiscountAmount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s", order.DiscountAmount.StringFixed(2))
		if order.CouponCode != nil {
			fmt.Fprintf(&b, " (%s)", *order.CouponCode)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "Amount Due: %s\n", order.PayableAmount.StringFixed(2))
	}
	writeAddress(&b, order)
	b.WriteString("\nItems:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s x %d @ %s = %s\n",
			item.Name, item.Quantity, item.UnitPrice.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	b.WriteString("\nWe will let you know when your order ships.\n")

	return Message{
		Kind:           KindOrderConfirmation,
		RecipientEmail: user.Email,
		Subject:        "Order Confirmation",
		Body:           b.String(),
	}
}

// DeliveryNotice tells the buyer the order reached them.
func DeliveryNotice(order *models.Order, user *models.User) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Username)
	fmt.Fprintf(&b, "Your order %s has been delivered.\n", order.ID)
	fmt.Fprintf(&b, "Total Amount: %s\n", order.PayableAmount.StringFixed(2))
	writeAddress(&b, order)
	b.WriteString("\nThank you for shopping with us.\n")

	return Message{
		Kind:           KindDeliveryNotice,
		RecipientEmail: user.Email,
		Subject:        "Order Delivered",
		Body:           b.String(),
	}
}

func Welcome(user *models.User) Message {
	return Message{
		Kind:           KindWelcome,
		RecipientEmail: user.Email,
		Subject:        "Welcome to Storefront",
		Body:           fmt.Sprintf("Hello %s,\n\nYour account has been created. Happy shopping!\n", user.Username),
	}
}

// PasswordReset carries the one-time link; it stays valid for ttlMinutes.
func PasswordReset(user *models.User, resetURL string, ttlMinutes int) Message {
	body := fmt.Sprintf(
		"Hello %s,\n\nYou requested a password reset. Use the link below within %d minutes:\n\n%s\n\nIf you did not request this, ignore this email.\n",
		user.Username, ttlMinutes, resetURL,
	)
	return Message{
		Kind:           KindPasswordReset,
		RecipientEmail: user.Email,
		Subject:        "Password Reset",
		Body:           body,
	}
}

func writeAddress(b *strings.Builder, order *models.Order) {
	lines := order.ShippingAddress.Lines()
	if len(lines) == 0 {
		return
	}
	b.WriteString("Shipping Address:\n")
	for _, line := range lines {
		fmt.Fprintf(b, "  %s\n", line)
	}
}
