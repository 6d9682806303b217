package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/store"
)

// DuracionSlot es la longitud fija de todo slot reservable, en minutos
const DuracionSlot = 20

// Agenda calcula los slots reservables de un médico y reserva citas. La
// reserva es un alta condicionada en el almacén: ante dos solicitudes
// simultáneas por el mismo slot exactamente una gana y la otra recibe
// ErrConflicto, sin candados en memoria.
type Agenda struct {
	almacen store.Almacen
	reloj   Reloj
}

// NewAgenda crea el servicio de agenda
func NewAgenda(almacen store.Almacen, reloj Reloj) *Agenda {
	return &Agenda{almacen: almacen, reloj: reloj}
}

// SolicitudCita es la entrada para reservar un slot
type SolicitudCita struct {
	IDMedico   int       `json:"id_medico"`
	IDPaciente int       `json:"id_paciente"`
	FechaHora  time.Time `json:"fecha_hora"`
	Tipo       string    `json:"tipo"`
	Motivo     string    `json:"motivo"`
}

// GenerarSlots produce la secuencia ordenada de inicios de slot candidatos
// para la fecha dada: cubre [inicio, fin) del horario del día en pasos de
// DuracionSlot, y el último slot debe caber completo antes del fin. Es una
// función pura de (horario, fecha); un día cerrado produce secuencia vacía.
func GenerarSlots(horario models.HorarioAtencion, fecha time.Time) []time.Time {
	rango, ok := horario.RangoDe(models.ClaveDia(fecha.Weekday()))
	if !ok {
		return nil
	}
	medianoche := time.Date(fecha.Year(), fecha.Month(), fecha.Day(), 0, 0, 0, 0, fecha.Location())
	var slots []time.Time
	for minuto := rango.Inicio; minuto+DuracionSlot <= rango.Fin; minuto += DuracionSlot {
		slots = append(slots, medianoche.Add(time.Duration(minuto)*time.Minute))
	}
	return slots
}

// SlotsDisponibles devuelve los slots del día aún reservables: los candidatos
// del horario menos los ya ocupados y los que quedaron en el pasado. Una cita
// cancelada sigue ocupando su clave, por lo que ese slot no vuelve a ofrecerse.
func (a *Agenda) SlotsDisponibles(ctx context.Context, idMedico int, fecha time.Time) ([]time.Time, error) {
	medico, err := a.almacen.ObtenerMedico(ctx, idMedico)
	if err != nil {
		return nil, err
	}
	if medico.Estado != models.MedicoActivo {
		return nil, nil
	}

	candidatos := GenerarSlots(medico.Horario, fecha)
	if len(candidatos) == 0 {
		return nil, nil
	}

	citas, err := a.almacen.CitasDelDia(ctx, idMedico, fecha)
	if err != nil {
		return nil, err
	}
	ocupados := make(map[time.Time]bool, len(citas))
	for _, cita := range citas {
		ocupados[cita.FechaHora.UTC()] = true
	}

	ahora := a.reloj.Ahora()
	var disponibles []time.Time
	for _, slot := range candidatos {
		if ocupados[slot.UTC()] || !slot.After(ahora) {
			continue
		}
		disponibles = append(disponibles, slot)
	}
	return disponibles, nil
}

// ReservarCita valida la solicitud contra el horario del médico y, si pasa,
// intenta el alta condicionada. La cita nueva nace Registrada.
func (a *Agenda) ReservarCita(ctx context.Context, solicitud SolicitudCita) (*models.Cita, error) {
	if !models.TipoCitaValido(solicitud.Tipo) {
		return nil, fmt.Errorf("%w: tipo de cita desconocido %q", ErrValidacion, solicitud.Tipo)
	}
	if !solicitud.FechaHora.After(a.reloj.Ahora()) {
		return nil, fmt.Errorf("%w: la fecha solicitada ya pasó", ErrValidacion)
	}

	medico, err := a.almacen.ObtenerMedico(ctx, solicitud.IDMedico)
	if err != nil {
		if errors.Is(err, store.ErrNoEncontrado) {
			return nil, fmt.Errorf("%w: médico %d no existe", ErrValidacion, solicitud.IDMedico)
		}
		return nil, err
	}
	if medico.Estado != models.MedicoActivo {
		return nil, fmt.Errorf("%w: el médico no está activo", ErrValidacion)
	}

	// el slot solicitado debe ser exactamente uno de los que el generador
	// produce para esa fecha: eso cubre alineación, horario y slot completo
	if !esSlotValido(medico.Horario, solicitud.FechaHora) {
		return nil, fmt.Errorf("%w: %s no es un slot válido del horario del médico",
			ErrValidacion, solicitud.FechaHora.Format("2006-01-02 15:04"))
	}

	cita := &models.Cita{
		IDMedico:   solicitud.IDMedico,
		FechaHora:  solicitud.FechaHora,
		IDPaciente: solicitud.IDPaciente,
		Tipo:       solicitud.Tipo,
		Motivo:     solicitud.Motivo,
		Estado:     models.CitaRegistrada,
	}
	if err := a.almacen.CrearCita(ctx, cita); err != nil {
		if errors.Is(err, store.ErrConflicto) {
			return nil, ErrConflicto
		}
		return nil, err
	}
	return cita, nil
}

func esSlotValido(horario models.HorarioAtencion, fechaHora time.Time) bool {
	for _, slot := range GenerarSlots(horario, fechaHora) {
		if slot.Equal(fechaHora) {
			return true
		}
	}
	return false
}
