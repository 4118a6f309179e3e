package entity

// PaymentMethod medio de pago (efectivo, tarjeta, transferencia).
type PaymentMethod struct {
	ID     string
	Name   string
	Active bool
}
