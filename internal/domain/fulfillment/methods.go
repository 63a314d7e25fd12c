package fulfillment

import "strings"

// PaymentMethod represents how the customer pays for an order
type PaymentMethod string

const (
	PaymentEfectivo      PaymentMethod = "efectivo"
	PaymentTransferencia PaymentMethod = "transferencia"
	PaymentTarjeta       PaymentMethod = "tarjeta"
	PaymentCredito       PaymentMethod = "credito"
)

// IsCash returns true for cash-on-hand payment
func (p PaymentMethod) IsCash() bool {
	return p == PaymentEfectivo
}

// DeliveryMethod represents how an order reaches the customer
type DeliveryMethod string

const (
	DeliveryRecogeBodega   DeliveryMethod = "recoge_bodega"
	DeliveryDomicilioLocal DeliveryMethod = "domicilio_local"
	DeliveryTransportadora DeliveryMethod = "transportadora"
)

// LocalCarrierCode is the fixed carrier assigned to local home deliveries
const LocalCarrierCode = "mensajeria_local"

// localDeliveryAliases are raw values that all denote local home delivery
var localDeliveryAliases = map[string]bool{
	"domicilio":        true,
	"domicilio_local":  true,
	"mensajeria_local": true,
	"mensajeria":       true,
}

// NormalizeDeliveryMethod canonicalizes a raw delivery method value.
// Every local home delivery variant collapses to domicilio_local.
func NormalizeDeliveryMethod(raw string) (DeliveryMethod, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if localDeliveryAliases[v] {
		return DeliveryDomicilioLocal, true
	}
	m := DeliveryMethod(v)
	switch m {
	case DeliveryRecogeBodega, DeliveryTransportadora:
		return m, true
	}
	return "", false
}

// IsPickup returns true for warehouse pickup
func (d DeliveryMethod) IsPickup() bool {
	return d == DeliveryRecogeBodega
}

// IsLocalDelivery returns true for local home delivery
func (d DeliveryMethod) IsLocalDelivery() bool {
	return d == DeliveryDomicilioLocal
}

// InitialStatus chooses the creation status from the delivery and payment
// combination:
//   - warehouse pickup paid by anything but cash goes through wallet review
//   - local home delivery paid in cash skips review, cash reconciles later
//   - everything else starts at billing
func InitialStatus(delivery DeliveryMethod, payment PaymentMethod) OrderStatus {
	switch {
	case delivery.IsPickup() && !payment.IsCash():
		return StatusRevisionCartera
	case delivery.IsLocalDelivery() && payment.IsCash():
		return StatusEnLogistica
	default:
		return StatusPendienteFacturacion
	}
}
