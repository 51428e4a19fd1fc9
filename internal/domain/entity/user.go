package entity

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// User datos mínimos del actor que solicita, aprueba, recibe o cancela un traslado.
type User struct {
	ID    string
	Name  string
	Email string
}
