package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/store"
)

func solicitudEncuentro(slot time.Time) SolicitudEncuentro {
	peso := 72.5
	return SolicitudEncuentro{
		IDMedico:      1,
		FechaHoraCita: slot,
		Consulta: DatosConsulta{
			Motivo:      "Dolor de cabeza",
			Diagnostico: "Migraña",
			Tratamiento: "Reposo e hidratación",
			Inicio:      slot,
			Fin:         slot.Add(20 * time.Minute),
		},
		Recetas: []DatosReceta{
			{Medicamento: "Paracetamol", Dosis: "500mg", Frecuencia: 8, TipoFrecuencia: models.FrecuenciaHoras, Vigencia: slot.AddDate(0, 0, 7)},
			{Medicamento: "Ibuprofeno", Dosis: "400mg", Frecuencia: 12, TipoFrecuencia: models.FrecuenciaHoras, Vigencia: slot.AddDate(0, 0, 7)},
		},
		Biometria: &models.Biometria{Peso: &peso},
	}
}

// verificar que el almacén quedó sin rastros del encuentro y la cita en el
// estado dado
func verificarSinRastros(t *testing.T, almacen *store.Memoria, slot time.Time, estadoCita string) {
	t.Helper()
	assert.Zero(t, almacen.NumConsultas())
	assert.Zero(t, almacen.NumRecetas())
	assert.Zero(t, almacen.NumBiometrias())

	cita, err := almacen.ObtenerCita(context.Background(), 1, slot)
	require.NoError(t, err)
	assert.Equal(t, estadoCita, cita.Estado)
}

func TestCompletarEncuentro(t *testing.T) {
	ctx := context.Background()
	reloj := RelojFijo{Hora: lunes.Add(10 * time.Hour)}

	t.Run("cierre completo", func(t *testing.T) {
		almacen, slot := almacenConCita(t, models.CitaAprobada)
		resultado, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitudEncuentro(slot))
		require.NoError(t, err)

		assert.Equal(t, models.CitaCompletada, resultado.Cita.Estado)
		assert.Equal(t, "Migraña", resultado.Consulta.Diagnostico)
		assert.Len(t, resultado.Recetas, 2)
		require.NotNil(t, resultado.Biometria)
		assert.Equal(t, 7, resultado.Biometria.IDPaciente, "la biometría hereda el paciente de la cita")
		assert.Equal(t, reloj.Hora, resultado.Biometria.Fecha, "sin fecha explícita usa la del reloj")

		assert.Equal(t, 1, almacen.NumConsultas())
		assert.Equal(t, 2, almacen.NumRecetas())
		assert.Equal(t, 1, almacen.NumBiometrias())

		cita, err := almacen.ObtenerCita(ctx, 1, slot)
		require.NoError(t, err)
		assert.Equal(t, models.CitaCompletada, cita.Estado)
	})

	t.Run("sin recetas ni biometria", func(t *testing.T) {
		almacen, slot := almacenConCita(t, models.CitaAprobada)
		solicitud := solicitudEncuentro(slot)
		solicitud.Recetas = nil
		solicitud.Biometria = nil

		resultado, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitud)
		require.NoError(t, err)
		assert.Empty(t, resultado.Recetas)
		assert.Nil(t, resultado.Biometria)
		assert.Equal(t, models.CitaCompletada, resultado.Cita.Estado)
	})

	t.Run("reintento con consulta ya escrita", func(t *testing.T) {
		// un intento previo dejó la consulta pero no llegó al commit
		almacen, slot := almacenConCita(t, models.CitaAprobada)
		require.NoError(t, almacen.CrearConsulta(ctx, &models.Consulta{
			IDMedico: 1, FechaHoraCita: slot, IDPaciente: 7, Diagnostico: "Cefalea tensional",
		}))

		solicitud := solicitudEncuentro(slot)
		solicitud.Recetas = nil
		solicitud.Biometria = nil
		resultado, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitud)
		require.NoError(t, err)
		assert.Equal(t, 1, almacen.NumConsultas())
		// el resultado trae la consulta persistida, no la del reintento
		assert.Equal(t, "Cefalea tensional", resultado.Consulta.Diagnostico)
	})
}

func TestCompletarEncuentro_Precondiciones(t *testing.T) {
	ctx := context.Background()
	reloj := RelojFijo{Hora: lunes.Add(10 * time.Hour)}

	t.Run("cita registrada no se cierra", func(t *testing.T) {
		almacen, slot := almacenConCita(t, models.CitaRegistrada)
		_, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitudEncuentro(slot))

		var fallido *EncuentroFallido
		require.ErrorAs(t, err, &fallido)
		assert.Equal(t, EtapaPrecondicion, fallido.Etapa)
		verificarSinRastros(t, almacen, slot, models.CitaRegistrada)
	})

	t.Run("cita inexistente", func(t *testing.T) {
		almacen := store.NewMemoria()
		_, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitudEncuentro(lunes.Add(9*time.Hour)))

		var fallido *EncuentroFallido
		require.ErrorAs(t, err, &fallido)
		assert.Equal(t, EtapaPrecondicion, fallido.Etapa)
		assert.ErrorIs(t, err, store.ErrNoEncontrado)
	})

	t.Run("receta sin medicamento", func(t *testing.T) {
		almacen, slot := almacenConCita(t, models.CitaAprobada)
		solicitud := solicitudEncuentro(slot)
		solicitud.Recetas[0].Medicamento = ""

		_, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitud)
		var fallido *EncuentroFallido
		require.ErrorAs(t, err, &fallido)
		assert.Equal(t, EtapaPrecondicion, fallido.Etapa)
		assert.ErrorIs(t, err, ErrValidacion)
		verificarSinRastros(t, almacen, slot, models.CitaAprobada)
	})

	t.Run("biometria fuera de rango", func(t *testing.T) {
		almacen, slot := almacenConCita(t, models.CitaAprobada)
		solicitud := solicitudEncuentro(slot)
		mal := 900.0
		solicitud.Biometria = &models.Biometria{Peso: &mal}

		_, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitud)
		var fallido *EncuentroFallido
		require.ErrorAs(t, err, &fallido)
		assert.Equal(t, EtapaPrecondicion, fallido.Etapa)
		verificarSinRastros(t, almacen, slot, models.CitaAprobada)
	})
}

func TestCompletarEncuentro_Compensacion(t *testing.T) {
	ctx := context.Background()
	reloj := RelojFijo{Hora: lunes.Add(10 * time.Hour)}
	fallaInyectada := errors.New("almacén no disponible")

	casos := []struct {
		nombre    string
		operacion string
		etapa     string
	}{
		{"falla al crear consulta", "CrearConsulta", EtapaConsulta},
		{"falla al crear receta", "CrearReceta", EtapaRecetas},
		{"falla al crear biometria", "CrearBiometria", EtapaBiometria},
		{"falla el commit", "ActualizarEstadoCita", EtapaCierre},
	}

	for _, caso := range casos {
		t.Run(caso.nombre, func(t *testing.T) {
			almacen, slot := almacenConCita(t, models.CitaAprobada)
			almacen.FallarEn[caso.operacion] = fallaInyectada

			_, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitudEncuentro(slot))

			var fallido *EncuentroFallido
			require.ErrorAs(t, err, &fallido)
			assert.Equal(t, caso.etapa, fallido.Etapa)
			assert.ErrorIs(t, err, fallaInyectada)
			verificarSinRastros(t, almacen, slot, models.CitaAprobada)
		})
	}

	t.Run("cancelacion concurrente gana el commit", func(t *testing.T) {
		// una cancelación movió la cita entre la lectura y el compare-and-set
		almacen, slot := almacenConCita(t, models.CitaAprobada)
		almacen.FallarEn["ActualizarEstadoCita"] = store.ErrEstadoNoCoincide

		_, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitudEncuentro(slot))

		var fallido *EncuentroFallido
		require.ErrorAs(t, err, &fallido)
		assert.Equal(t, EtapaCierre, fallido.Etapa)
		assert.ErrorIs(t, err, store.ErrEstadoNoCoincide)
		verificarSinRastros(t, almacen, slot, models.CitaAprobada)
	})

	t.Run("la compensacion misma falla", func(t *testing.T) {
		almacen, slot := almacenConCita(t, models.CitaAprobada)
		almacen.FallarEn["CrearBiometria"] = fallaInyectada
		almacen.FallarEn["EliminarReceta"] = errors.New("borrado rechazado")

		_, err := NewEncuentro(almacen, reloj).CompletarEncuentro(ctx, solicitudEncuentro(slot))
		assert.ErrorIs(t, err, ErrCompensacionFallida)

		// quedó rastro: eso es exactamente lo que este error señala
		assert.NotZero(t, almacen.NumRecetas())

		cita, err := almacen.ObtenerCita(ctx, 1, slot)
		require.NoError(t, err)
		assert.Equal(t, models.CitaAprobada, cita.Estado, "la cita jamás queda Completada tras una falla")
	})
}
