package services

import (
	"errors"
	"fmt"
)

// Errores de negocio de los servicios. Conflicto y transición inválida son
// resultados esperados que el llamador debe manejar, no excepciones a ocultar.
var (
	// ErrValidacion: la solicitud es inválida (slot desalineado, fuera de
	// horario, dato fuera de rango). No se reintenta.
	ErrValidacion = errors.New("solicitud inválida")
	// ErrConflicto: el slot ya está reservado; el llamador debe volver a
	// consultar la disponibilidad y elegir otro.
	ErrConflicto = errors.New("el horario ya está reservado")
	// ErrTransicionInvalida: el cambio de estado solicitado no está en la
	// tabla de transiciones. La cita queda sin cambios.
	ErrTransicionInvalida = errors.New("transición de estado no permitida")
	// ErrNoAutorizado: el actor no puede ejecutar esa transición.
	ErrNoAutorizado = errors.New("el actor no está autorizado para esta operación")
	// ErrCompensacionFallida: la compensación del cierre de encuentro falló.
	// Es la única condición que puede dejar datos inconsistentes: debe
	// escalarse para reconciliación manual.
	ErrCompensacionFallida = errors.New("la compensación del encuentro falló; se requiere reconciliación manual")
)

// Etapas del cierre de encuentro, usadas en EncuentroFallido
const (
	EtapaPrecondicion = "precondicion"
	EtapaConsulta     = "consulta"
	EtapaRecetas      = "recetas"
	EtapaBiometria    = "biometria"
	EtapaCierre       = "cierre"
)

// EncuentroFallido indica que el cierre de encuentro abortó y fue compensado:
// ninguna de sus escrituras sobrevive. El llamador puede reintentar el
// encuentro completo una vez que la causa desaparezca.
type EncuentroFallido struct {
	Etapa string
	Causa error
}

func (e *EncuentroFallido) Error() string {
	return fmt.Sprintf("encuentro fallido en etapa %s: %v", e.Etapa, e.Causa)
}

func (e *EncuentroFallido) Unwrap() error {
	return e.Causa
}
