package entity

import "time"

// Branch sucursal de la barbería. Cada sucursal lleva su propio stock.
type Branch struct {
	ID        string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
