package fulfillment

import (
	"fmt"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// Role identifies the department acting on an order
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleFacturacion Role = "facturacion"
	RoleCartera     Role = "cartera"
	RoleLogistica   Role = "logistica"
	RoleMensajero   Role = "mensajero"
	RoleEmpaque     Role = "empaque"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFacturacion, RoleCartera, RoleLogistica, RoleMensajero, RoleEmpaque:
		return true
	}
	return false
}

// CanManageOrders returns true for roles with unrestricted transitions
func (r Role) CanManageOrders() bool {
	return r == RoleAdmin || r == RoleFacturacion
}

// ResolveTarget rewrites logical transition targets before authorization.
// Logistics may never mark an order ready without routing it through
// packaging, so "listo"/"listo_para_entrega" becomes pendiente_empaque.
func ResolveTarget(role Role, target OrderStatus) OrderStatus {
	if role == RoleLogistica && (target == StatusListo || target == StatusListoParaEntrega) {
		return StatusPendienteEmpaque
	}
	return target
}

// AuthorizeTransition enforces the role/status transition table. The
// returned status is the effective target after logical rewrites.
func AuthorizeTransition(role Role, current, target OrderStatus) (OrderStatus, error) {
	target = ResolveTarget(role, target)

	if !target.IsValid() {
		return "", shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("%q is not a valid order status", target))
	}

	switch role {
	case RoleAdmin, RoleFacturacion:
		return target, nil

	case RoleMensajero:
		if !target.IsDelivered() {
			return "", shared.NewDomainError("PERMISSION_DENIED",
				"couriers may only mark orders as delivered")
		}
		if current != StatusEnReparto {
			return "", shared.NewDomainError("PERMISSION_DENIED",
				"couriers may only deliver orders that are out for delivery")
		}
		return target, nil

	case RoleLogistica:
		if current.IsDelivered() {
			return "", shared.NewDomainError("PERMISSION_DENIED",
				"delivered orders can no longer be changed by logistics")
		}
		return target, nil

	case RoleCartera:
		if current != StatusRevisionCartera {
			return "", shared.NewDomainError("PERMISSION_DENIED",
				"wallet review only acts on orders under review")
		}
		if target != StatusEnLogistica && target != StatusRevisionCartera {
			return "", shared.NewDomainError("PERMISSION_DENIED",
				"wallet review may only approve to logistics or keep the order under review")
		}
		return target, nil

	default:
		return "", shared.ErrPermissionDenied
	}
}
