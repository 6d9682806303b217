package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/services"
	"github.com/medagenda/clinica-backend/store"
)

// lunes 7 de septiembre de 2026
var lunesPrueba = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

// appPrueba arma una app con el almacén en memoria y un middleware que simula
// al usuario autenticado
func appPrueba(t *testing.T, userID int, rol string) (*fiber.App, *store.Memoria) {
	t.Helper()
	almacen := store.NewMemoria()
	Inicializar(almacen, services.RelojFijo{Hora: lunesPrueba.Add(8 * time.Hour)})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", rol)
		c.Locals("user_email", "prueba@clinica.mx")
		return c.Next()
	})
	app.Get("/agenda/:medico_id/slots", ObtenerSlotsDisponibles)
	app.Post("/citas", CrearCita)
	app.Put("/citas/estado", CambiarEstadoCita)
	return app, almacen
}

func sembrarMedico(t *testing.T, almacen *store.Memoria, id int) {
	t.Helper()
	rango := models.RangoHorario{Inicio: 540, Fin: 1020}
	require.NoError(t, almacen.GuardarMedico(context.Background(), &models.Medico{
		IDMedico:     id,
		Nombre:       "Dra. García",
		Especialidad: "Medicina General",
		Estado:       models.MedicoActivo,
		Horario: models.HorarioAtencion{
			models.DiaLunes:  rango,
			models.DiaMartes: rango,
		},
	}))
}

func peticionJSON(metodo, ruta string, cuerpo interface{}) *http.Request {
	var buf bytes.Buffer
	if cuerpo != nil {
		_ = json.NewEncoder(&buf).Encode(cuerpo)
	}
	req := httptest.NewRequest(metodo, ruta, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodificar(t *testing.T, resp *http.Response) StandardResponse {
	t.Helper()
	cuerpo, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var sobre StandardResponse
	require.NoError(t, json.Unmarshal(cuerpo, &sobre))
	return sobre
}

func TestObtenerSlotsDisponibles(t *testing.T) {
	app, almacen := appPrueba(t, 7, models.RolPaciente)
	sembrarMedico(t, almacen, 1)

	t.Run("dia abierto devuelve la malla completa", func(t *testing.T) {
		resp, err := app.Test(peticionJSON("GET", "/agenda/1/slots?fecha=2026-09-07", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		sobre := decodificar(t, resp)
		assert.Equal(t, "S70", sobre.Body.IntCode)
		datos := sobre.Body.Data[0].(map[string]interface{})
		assert.Equal(t, float64(24), datos["total"])
	})

	t.Run("fecha mal formada", func(t *testing.T) {
		resp, err := app.Test(peticionJSON("GET", "/agenda/1/slots?fecha=07-09-2026", nil))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("medico inexistente", func(t *testing.T) {
		resp, err := app.Test(peticionJSON("GET", "/agenda/99/slots?fecha=2026-09-07", nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestCrearCita(t *testing.T) {
	cuerpo := fiber.Map{
		"id_medico":  1,
		"fecha_hora": lunesPrueba.Add(9 * time.Hour).Format(time.RFC3339),
		"tipo":       models.CitaPrimaria,
		"motivo":     "Revisión general",
	}

	t.Run("un paciente reserva para si mismo", func(t *testing.T) {
		app, almacen := appPrueba(t, 7, models.RolPaciente)
		sembrarMedico(t, almacen, 1)

		resp, err := app.Test(peticionJSON("POST", "/citas", cuerpo))
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)

		cita, err := almacen.ObtenerCita(context.Background(), 1, lunesPrueba.Add(9*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 7, cita.IDPaciente, "el paciente del token manda sobre el del cuerpo")
		assert.Equal(t, models.CitaRegistrada, cita.Estado)
	})

	t.Run("el slot ocupado responde 409", func(t *testing.T) {
		app, almacen := appPrueba(t, 7, models.RolPaciente)
		sembrarMedico(t, almacen, 1)

		resp, err := app.Test(peticionJSON("POST", "/citas", cuerpo))
		require.NoError(t, err)
		require.Equal(t, 201, resp.StatusCode)

		resp, err = app.Test(peticionJSON("POST", "/citas", cuerpo))
		require.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
		assert.Equal(t, 1, almacen.NumCitas())
	})

	t.Run("slot fuera del horario responde 400", func(t *testing.T) {
		app, almacen := appPrueba(t, 7, models.RolPaciente)
		sembrarMedico(t, almacen, 1)

		malo := fiber.Map{
			"id_medico":  1,
			"fecha_hora": lunesPrueba.Add(8 * time.Hour).Format(time.RFC3339),
			"tipo":       models.CitaPrimaria,
		}
		resp, err := app.Test(peticionJSON("POST", "/citas", malo))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestCambiarEstadoCita(t *testing.T) {
	slot := lunesPrueba.Add(9 * time.Hour)

	sembrarCita := func(t *testing.T, almacen *store.Memoria, estado string) {
		require.NoError(t, almacen.CrearCita(context.Background(), &models.Cita{
			IDMedico:   1,
			FechaHora:  slot,
			IDPaciente: 7,
			Tipo:       models.CitaPrimaria,
			Estado:     estado,
		}))
	}

	cambio := func(estado string) fiber.Map {
		return fiber.Map{
			"id_medico":  1,
			"fecha_hora": slot.Format(time.RFC3339),
			"estado":     estado,
		}
	}

	t.Run("el medico aprueba su cita", func(t *testing.T) {
		app, almacen := appPrueba(t, 1, models.RolMedico)
		sembrarCita(t, almacen, models.CitaRegistrada)

		resp, err := app.Test(peticionJSON("PUT", "/citas/estado", cambio(models.CitaAprobada)))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		cita, err := almacen.ObtenerCita(context.Background(), 1, slot)
		require.NoError(t, err)
		assert.Equal(t, models.CitaAprobada, cita.Estado)
	})

	t.Run("otro medico recibe 403", func(t *testing.T) {
		app, almacen := appPrueba(t, 2, models.RolMedico)
		sembrarCita(t, almacen, models.CitaRegistrada)

		resp, err := app.Test(peticionJSON("PUT", "/citas/estado", cambio(models.CitaAprobada)))
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})

	t.Run("una transicion ilegal recibe 409", func(t *testing.T) {
		app, almacen := appPrueba(t, 1, models.RolMedico)
		sembrarCita(t, almacen, models.CitaCancelada)

		resp, err := app.Test(peticionJSON("PUT", "/citas/estado", cambio(models.CitaAprobada)))
		require.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("completar directo recibe 409", func(t *testing.T) {
		app, almacen := appPrueba(t, 1, models.RolMedico)
		sembrarCita(t, almacen, models.CitaAprobada)

		resp, err := app.Test(peticionJSON("PUT", "/citas/estado", cambio(models.CitaCompletada)))
		require.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
	})
}
