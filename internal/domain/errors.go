package domain

import (
	"errors"
	"fmt"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInactiveEntity      = errors.New("recurso inactivo")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidPricingInput = errors.New("datos de precio inválidos")
	ErrInvalidState        = errors.New("operación no permitida en el estado actual")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	// ErrPersistenceConflict es el único error que admite reintentar la orquestación completa.
	ErrPersistenceConflict = errors.New("conflicto de concurrencia en persistencia")
)

// InsufficientStockError detalla el ítem sin existencias. errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	Item      entity.StockItem
	BranchID  string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: %s en sucursal %s (solicitado %d, disponible %d)",
		ErrInsufficientStock.Error(), e.Item, e.BranchID, e.Requested, e.Available)
}

// Is permite comparar contra ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NotFound envuelve ErrNotFound indicando la entidad faltante.
func NotFound(entityName, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entityName, id)
}

// Inactive envuelve ErrInactiveEntity indicando la entidad deshabilitada.
func Inactive(entityName, id string) error {
	return fmt.Errorf("%w: %s %s", ErrInactiveEntity, entityName, id)
}
