package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/store"
)

// Actor identifica a quien solicita un cambio de estado. El servicio solo lo
// usa para decidir qué transiciones le están permitidas; la política de
// autenticación vive en la capa HTTP.
type Actor struct {
	ID  int
	Rol string
}

// Citas gobierna el ciclo de vida de las citas fuera del cierre de encuentro
type Citas struct {
	almacen store.Almacen
}

// NewCitas crea el servicio de ciclo de vida de citas
func NewCitas(almacen store.Almacen) *Citas {
	return &Citas{almacen: almacen}
}

// CambiarEstado aplica una transición del ciclo de vida de la cita. Reglas:
//   - solo actores del lado del médico (medico, admin) aprueban o cancelan;
//   - un médico solo opera sobre sus propias citas;
//   - Completada nunca se alcanza por aquí: solo el cierre de encuentro la
//     produce, para que toda cita completada tenga su consulta;
//   - la escritura es un compare-and-set sobre el estado leído, así una
//     modificación concurrente no se pisa.
func (c *Citas) CambiarEstado(ctx context.Context, idMedico int, fechaHora time.Time, nuevoEstado string, actor Actor) (*models.Cita, error) {
	if !models.EstadoCitaValido(nuevoEstado) {
		return nil, fmt.Errorf("%w: estado desconocido %q", ErrTransicionInvalida, nuevoEstado)
	}
	if nuevoEstado == models.CitaCompletada {
		return nil, fmt.Errorf("%w: una cita solo se completa cerrando su encuentro", ErrTransicionInvalida)
	}
	if actor.Rol != models.RolMedico && actor.Rol != models.RolAdmin {
		return nil, ErrNoAutorizado
	}

	cita, err := c.almacen.ObtenerCita(ctx, idMedico, fechaHora)
	if err != nil {
		return nil, err
	}
	if actor.Rol == models.RolMedico && actor.ID != cita.IDMedico {
		return nil, ErrNoAutorizado
	}
	if !models.TransicionValida(cita.Estado, nuevoEstado) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTransicionInvalida, cita.Estado, nuevoEstado)
	}

	err = c.almacen.ActualizarEstadoCita(ctx, idMedico, fechaHora, cita.Estado, nuevoEstado)
	if errors.Is(err, store.ErrEstadoNoCoincide) {
		// alguien más movió la cita entre la lectura y la escritura
		return nil, fmt.Errorf("%w: la cita cambió de estado concurrentemente", ErrTransicionInvalida)
	}
	if err != nil {
		return nil, err
	}
	cita.Estado = nuevoEstado
	return cita, nil
}
