package enums

import "fmt"

// PaymentMethodType identifies how a customer pays for an order.
type PaymentMethodType string

const (
	PaymentMethodTypePix        PaymentMethodType = "pix"
	PaymentMethodTypeCreditCard PaymentMethodType = "credit_card"
	PaymentMethodTypeCash       PaymentMethodType = "cash"
)

var validPaymentMethodTypes = []PaymentMethodType{
	PaymentMethodTypePix,
	PaymentMethodTypeCreditCard,
	PaymentMethodTypeCash,
}

// String implements fmt.Stringer.
func (p PaymentMethodType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethodType) IsValid() bool {
	for _, candidate := range validPaymentMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodType converts raw input into a PaymentMethodType.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	for _, candidate := range validPaymentMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method type %q", value)
}
