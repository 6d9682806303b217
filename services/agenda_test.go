package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/store"
)

// horario de lunes a viernes de 09:00 a 17:00
func horarioEntreSemana() models.HorarioAtencion {
	rango := models.RangoHorario{Inicio: 540, Fin: 1020}
	return models.HorarioAtencion{
		models.DiaLunes:     rango,
		models.DiaMartes:    rango,
		models.DiaMiercoles: rango,
		models.DiaJueves:    rango,
		models.DiaViernes:   rango,
	}
}

func medicoPrueba(id int) *models.Medico {
	return &models.Medico{
		IDMedico:     id,
		Nombre:       "Dra. García",
		Especialidad: "Medicina General",
		Estado:       models.MedicoActivo,
		Horario:      horarioEntreSemana(),
	}
}

// lunes 7 de septiembre de 2026
var lunes = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func TestGenerarSlots(t *testing.T) {
	t.Run("dia laboral completo", func(t *testing.T) {
		slots := GenerarSlots(horarioEntreSemana(), lunes)
		require.Len(t, slots, 24) // 480 minutos / 20
		assert.Equal(t, lunes.Add(9*time.Hour), slots[0])
		assert.Equal(t, lunes.Add(16*time.Hour+40*time.Minute), slots[len(slots)-1])
		for i := 1; i < len(slots); i++ {
			assert.Equal(t, 20*time.Minute, slots[i].Sub(slots[i-1]))
		}
	})

	t.Run("dia cerrado no produce slots", func(t *testing.T) {
		domingo := lunes.AddDate(0, 0, -1)
		assert.Empty(t, GenerarSlots(horarioEntreSemana(), domingo))
	})

	t.Run("el ultimo slot debe caber completo", func(t *testing.T) {
		horario := models.HorarioAtencion{models.DiaLunes: {Inicio: 540, Fin: 590}}
		slots := GenerarSlots(horario, lunes)
		// 09:00 y 09:20 caben; 09:40 terminaría a las 10:00, después del cierre 09:50
		require.Len(t, slots, 2)
		assert.Equal(t, lunes.Add(9*time.Hour), slots[0])
		assert.Equal(t, lunes.Add(9*time.Hour+20*time.Minute), slots[1])
	})

	t.Run("rango menor a un slot no produce nada", func(t *testing.T) {
		horario := models.HorarioAtencion{models.DiaLunes: {Inicio: 540, Fin: 555}}
		assert.Empty(t, GenerarSlots(horario, lunes))
	})
}

func TestSlotsDisponibles(t *testing.T) {
	ctx := context.Background()
	almacen := store.NewMemoria()
	reloj := RelojFijo{Hora: lunes.Add(10 * time.Hour)} // lunes 10:00
	agenda := NewAgenda(almacen, reloj)
	require.NoError(t, almacen.GuardarMedico(ctx, medicoPrueba(1)))

	t.Run("excluye slots pasados y ocupados", func(t *testing.T) {
		require.NoError(t, almacen.CrearCita(ctx, &models.Cita{
			IDMedico:  1,
			FechaHora: lunes.Add(11 * time.Hour),
			Estado:    models.CitaRegistrada,
		}))

		slots, err := agenda.SlotsDisponibles(ctx, 1, lunes)
		require.NoError(t, err)
		// de 09:00 a 10:00 ya pasaron 4 slots (el de las 10:00 tampoco cuenta,
		// no está estrictamente en el futuro) y el de las 11:00 está ocupado
		assert.Len(t, slots, 19)
		assert.NotContains(t, slots, lunes.Add(11*time.Hour))
		assert.Equal(t, lunes.Add(10*time.Hour+20*time.Minute), slots[0])
	})

	t.Run("una cita cancelada sigue bloqueando su slot", func(t *testing.T) {
		require.NoError(t, almacen.ActualizarEstadoCita(ctx, 1,
			lunes.Add(11*time.Hour), models.CitaRegistrada, models.CitaCancelada))

		slots, err := agenda.SlotsDisponibles(ctx, 1, lunes)
		require.NoError(t, err)
		assert.NotContains(t, slots, lunes.Add(11*time.Hour))
	})

	t.Run("medico inactivo no ofrece slots", func(t *testing.T) {
		inactivo := medicoPrueba(2)
		inactivo.Estado = models.MedicoInactivo
		require.NoError(t, almacen.GuardarMedico(ctx, inactivo))

		slots, err := agenda.SlotsDisponibles(ctx, 2, lunes)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})
}

func TestReservarCita(t *testing.T) {
	ctx := context.Background()

	nuevaAgenda := func(t *testing.T) (*Agenda, *store.Memoria) {
		almacen := store.NewMemoria()
		require.NoError(t, almacen.GuardarMedico(ctx, medicoPrueba(1)))
		return NewAgenda(almacen, RelojFijo{Hora: lunes.Add(8 * time.Hour)}), almacen
	}

	solicitud := SolicitudCita{
		IDMedico:   1,
		IDPaciente: 7,
		FechaHora:  lunes.Add(9 * time.Hour),
		Tipo:       models.CitaPrimaria,
		Motivo:     "Dolor de cabeza",
	}

	t.Run("reserva valida nace Registrada", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		cita, err := agenda.ReservarCita(ctx, solicitud)
		require.NoError(t, err)
		assert.Equal(t, models.CitaRegistrada, cita.Estado)
		assert.Equal(t, solicitud.FechaHora, cita.FechaHora)
		assert.Equal(t, 7, cita.IDPaciente)
	})

	t.Run("el mismo slot dos veces es conflicto", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		_, err := agenda.ReservarCita(ctx, solicitud)
		require.NoError(t, err)
		otra := solicitud
		otra.IDPaciente = 8
		_, err = agenda.ReservarCita(ctx, otra)
		assert.ErrorIs(t, err, ErrConflicto)
	})

	t.Run("fuera del horario", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		s := solicitud
		s.FechaHora = lunes.Add(8*time.Hour + 40*time.Minute) // 08:40, abre a las 09:00
		_, err := agenda.ReservarCita(ctx, s)
		assert.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("desalineado de la malla de slots", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		s := solicitud
		s.FechaHora = lunes.Add(9*time.Hour + 10*time.Minute)
		_, err := agenda.ReservarCita(ctx, s)
		assert.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("dia cerrado", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		s := solicitud
		s.FechaHora = lunes.AddDate(0, 0, 6).Add(9 * time.Hour) // domingo
		_, err := agenda.ReservarCita(ctx, s)
		assert.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("fecha en el pasado", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		s := solicitud
		s.FechaHora = lunes.AddDate(0, 0, -7).Add(9 * time.Hour)
		_, err := agenda.ReservarCita(ctx, s)
		assert.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("tipo desconocido", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		s := solicitud
		s.Tipo = "Urgencia"
		_, err := agenda.ReservarCita(ctx, s)
		assert.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("medico inexistente", func(t *testing.T) {
		agenda, _ := nuevaAgenda(t)
		s := solicitud
		s.IDMedico = 99
		_, err := agenda.ReservarCita(ctx, s)
		assert.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("medico inactivo", func(t *testing.T) {
		agenda, almacen := nuevaAgenda(t)
		inactivo := medicoPrueba(1)
		inactivo.Estado = models.MedicoInactivo
		require.NoError(t, almacen.GuardarMedico(ctx, inactivo))
		_, err := agenda.ReservarCita(ctx, solicitud)
		assert.ErrorIs(t, err, ErrValidacion)
	})
}

func TestReservarCita_Concurrente(t *testing.T) {
	ctx := context.Background()
	almacen := store.NewMemoria()
	require.NoError(t, almacen.GuardarMedico(ctx, medicoPrueba(1)))
	agenda := NewAgenda(almacen, RelojFijo{Hora: lunes.Add(8 * time.Hour)})

	const pacientes = 20
	var wg sync.WaitGroup
	errores := make([]error, pacientes)
	for i := 0; i < pacientes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errores[i] = agenda.ReservarCita(ctx, SolicitudCita{
				IDMedico:   1,
				IDPaciente: i,
				FechaHora:  lunes.Add(9 * time.Hour),
				Tipo:       models.CitaPrimaria,
			})
		}(i)
	}
	wg.Wait()

	exitos := 0
	for _, err := range errores {
		if err == nil {
			exitos++
		} else {
			assert.ErrorIs(t, err, ErrConflicto)
		}
	}
	assert.Equal(t, 1, exitos, "exactamente un paciente gana el slot")
	assert.Equal(t, 1, almacen.NumCitas())
}
