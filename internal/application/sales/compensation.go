package sales

import (
	"context"
	"errors"
	"fmt"
)

// compensation acción inversa de un paso que ya mutó estado.
type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// compensationStack pila LIFO de acciones inversas de un intento de orquestación.
type compensationStack struct {
	steps []compensation
}

func (s *compensationStack) push(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

func (s *compensationStack) len() int {
	return len(s.steps)
}

// unwind ejecuta todas las acciones en orden inverso, aunque alguna falle, y vacía la pila.
// El contexto no se cancela para que la reversión corra completa.
func (s *compensationStack) unwind(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	s.steps = nil
	return errors.Join(errs...)
}
