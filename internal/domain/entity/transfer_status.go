package entity

// TransferStatus estado del ciclo de vida de un traslado entre tiendas.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// Acciones que disparan una transición.
const (
	TransferActionApprove = "approve"
	TransferActionReceive = "receive"
	TransferActionCancel  = "cancel"
)

// IsValid indica si el valor es uno de los estados conocidos.
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusInTransit, TransferStatusCompleted, TransferStatusCancelled:
		return true
	}
	return false
}

// IsTerminal completed y cancelled no admiten más transiciones.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusCancelled
}

// CanTransitionTo pending → in_transit → completed; cancelled desde pending o in_transit.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferStatusPending:
		return target == TransferStatusInTransit || target == TransferStatusCancelled
	case TransferStatusInTransit:
		return target == TransferStatusCompleted || target == TransferStatusCancelled
	}
	return false
}

// Label etiqueta legible del estado.
func (s TransferStatus) Label() string {
	switch s {
	case TransferStatusPending:
		return "Pendiente de aprobación"
	case TransferStatusInTransit:
		return "En tránsito"
	case TransferStatusCompleted:
		return "Completado"
	case TransferStatusCancelled:
		return "Cancelado"
	default:
		return "Desconocido"
	}
}

func (s TransferStatus) String() string { return string(s) }
