package fulfillment

import "strings"

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	StatusPendienteFacturacion    OrderStatus = "pendiente_facturacion"
	StatusRevisionCartera         OrderStatus = "revision_cartera"
	StatusEnLogistica             OrderStatus = "en_logistica"
	StatusPendienteEmpaque        OrderStatus = "pendiente_empaque"
	StatusEnEmpaque               OrderStatus = "en_empaque"
	StatusListoParaEntrega        OrderStatus = "listo_para_entrega"
	StatusEnReparto               OrderStatus = "en_reparto"
	StatusEntregadoTransportadora OrderStatus = "entregado_transportadora"
	StatusEntregadoCliente        OrderStatus = "entregado_cliente"
	StatusCancelado               OrderStatus = "cancelado"
)

// StatusListo is the logical "ready" target logistics may submit.
// It is never stored; ResolveTarget rewrites it to pendiente_empaque.
const StatusListo OrderStatus = "listo"

// legacyStatusAliases maps statuses produced by the previous system to
// their current equivalents. Accepted on input, never produced.
var legacyStatusAliases = map[string]OrderStatus{
	"pendiente":  StatusPendienteFacturacion,
	"confirmado": StatusEnLogistica,
	"enviado":    StatusEnReparto,
	"entregado":  StatusEntregadoCliente,
}

// AllStatuses returns the closed set of valid order statuses
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPendienteFacturacion,
		StatusRevisionCartera,
		StatusEnLogistica,
		StatusPendienteEmpaque,
		StatusEnEmpaque,
		StatusListoParaEntrega,
		StatusEnReparto,
		StatusEntregadoTransportadora,
		StatusEntregadoCliente,
		StatusCancelado,
	}
}

// IsValid checks if the status is a member of the closed status set
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPendienteFacturacion, StatusRevisionCartera, StatusEnLogistica,
		StatusPendienteEmpaque, StatusEnEmpaque, StatusListoParaEntrega,
		StatusEnReparto, StatusEntregadoTransportadora, StatusEntregadoCliente,
		StatusCancelado:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsDelivered returns true for the terminal delivered statuses
func (s OrderStatus) IsDelivered() bool {
	return s == StatusEntregadoCliente || s == StatusEntregadoTransportadora
}

// IsTerminal returns true if no further transitions are expected
func (s OrderStatus) IsTerminal() bool {
	return s.IsDelivered() || s == StatusCancelado
}

// IsPackagingStage returns true while the order is in the packaging queue
func (s OrderStatus) IsPackagingStage() bool {
	return s == StatusPendienteEmpaque || s == StatusEnEmpaque
}

// NormalizeStatus resolves a raw status string, accepting legacy aliases.
// Returns false if the value is outside the closed set.
func NormalizeStatus(raw string) (OrderStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := legacyStatusAliases[v]; ok {
		return alias, true
	}
	s := OrderStatus(v)
	if s == StatusListo {
		return StatusListo, true
	}
	if s.IsValid() {
		return s, true
	}
	return "", false
}
