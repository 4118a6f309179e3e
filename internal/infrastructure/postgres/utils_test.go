package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/barberia-api/internal/domain"
)

func TestWrapErr_TraduceCodigosDePostgres(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{codeSerializationFailure, domain.ErrPersistenceConflict},
		{codeDeadlockDetected, domain.ErrPersistenceConflict},
		{codeLockNotAvailable, domain.ErrPersistenceConflict},
		{codeUniqueViolation, domain.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tc.code, Message: "x"}
			err := wrapErr("insertar venta", fmt.Errorf("exec: %w", pgErr))

			assert.ErrorIs(t, err, tc.want)
			var got *pgconn.PgError
			assert.ErrorAs(t, err, &got, "el error original sigue accesible")
			assert.Contains(t, err.Error(), "insertar venta")
		})
	}
}

func TestWrapErr_OtrosErroresNoSeReintentan(t *testing.T) {
	err := wrapErr("leer stock", &pgconn.PgError{Code: "42P01"})
	assert.False(t, errors.Is(err, domain.ErrPersistenceConflict))
	assert.False(t, errors.Is(err, domain.ErrConflict))

	assert.NoError(t, wrapErr("nada", nil))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "C1", derefString(nullString("C1")))
	assert.Equal(t, "", derefString(nil))
}
