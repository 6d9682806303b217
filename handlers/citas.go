package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medagenda/clinica-backend/middleware"
	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/services"
)

// CrearCita reserva un slot para un paciente. La unicidad del par
// (médico, fecha-hora) la garantiza el almacén: ante una carrera, una de las
// dos solicitudes recibe 409.
func CrearCita(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)

	var solicitud services.SolicitudCita
	if err := c.BodyParser(&solicitud); err != nil {
		return respuestaError(c, 400, "F10", "Datos inválidos")
	}

	// un paciente solo reserva para sí mismo
	if userRole == models.RolPaciente {
		solicitud.IDPaciente = userID
	}
	if solicitud.IDPaciente == 0 {
		return respuestaError(c, 400, "F10", "El ID del paciente es obligatorio")
	}
	if solicitud.IDMedico == 0 {
		return respuestaError(c, 400, "F10", "El ID del médico es obligatorio")
	}

	cita, err := agenda.ReservarCita(c.Context(), solicitud)
	if err != nil {
		return respuestaErrorNegocio(c, "F10", err)
	}

	middleware.LogCustomEvent(models.NivelSuccess, "Cita reservada", emailActual(c), userRole,
		map[string]interface{}{
			"medico_id":   cita.IDMedico,
			"paciente_id": cita.IDPaciente,
			"fecha_hora":  cita.FechaHora.Format(time.RFC3339),
			"action":      "cita_created",
		})

	return respuestaExito(c, 201, "S10", fiber.Map{"cita": cita, "mensaje": "Cita reservada exitosamente"})
}

// ObtenerMisCitas devuelve las citas del paciente autenticado
func ObtenerMisCitas(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)
	lista, err := almacen.CitasPorPaciente(c.Context(), userID)
	if err != nil {
		return respuestaErrorNegocio(c, "F11", err)
	}
	return respuestaExito(c, 200, "S11", fiber.Map{"citas": lista, "total": len(lista)})
}

// ObtenerCitasDelDia devuelve la agenda de un médico para una fecha
func ObtenerCitasDelDia(c *fiber.Ctx) error {
	idMedico, err := strconv.Atoi(c.Params("medico_id"))
	if err != nil {
		return respuestaError(c, 400, "F11", "ID de médico inválido")
	}

	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)
	if userRole == models.RolMedico && idMedico != userID {
		return respuestaError(c, 403, "F11", "No puedes ver la agenda de otro médico")
	}

	fecha, err := time.ParseInLocation("2006-01-02", c.Query("fecha"), time.UTC)
	if err != nil {
		return respuestaError(c, 400, "F11", "Fecha inválida, se espera YYYY-MM-DD")
	}

	lista, err := almacen.CitasDelDia(c.Context(), idMedico, fecha)
	if err != nil {
		return respuestaErrorNegocio(c, "F11", err)
	}
	return respuestaExito(c, 200, "S11", fiber.Map{"citas": lista, "total": len(lista)})
}

// CambioEstadoRequest identifica la cita y el estado destino
type CambioEstadoRequest struct {
	IDMedico  int       `json:"id_medico"`
	FechaHora time.Time `json:"fecha_hora"`
	Estado    string    `json:"estado"`
}

// CambiarEstadoCita aplica una transición del ciclo de vida (aprobar o
// cancelar; completar solo ocurre cerrando el encuentro)
func CambiarEstadoCita(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)

	var solicitud CambioEstadoRequest
	if err := c.BodyParser(&solicitud); err != nil {
		return respuestaError(c, 400, "F12", "Datos inválidos")
	}
	if solicitud.IDMedico == 0 || solicitud.FechaHora.IsZero() || solicitud.Estado == "" {
		return respuestaError(c, 400, "F12", "Médico, fecha y estado son requeridos")
	}

	actor := services.Actor{ID: userID, Rol: userRole}
	cita, err := citas.CambiarEstado(c.Context(), solicitud.IDMedico, solicitud.FechaHora, solicitud.Estado, actor)
	if err != nil {
		return respuestaErrorNegocio(c, "F12", err)
	}

	middleware.LogCustomEvent(models.NivelInfo, "Estado de cita actualizado", emailActual(c), userRole,
		map[string]interface{}{
			"medico_id":  cita.IDMedico,
			"fecha_hora": cita.FechaHora.Format(time.RFC3339),
			"estado":     cita.Estado,
			"action":     "cita_estado_updated",
		})

	return respuestaExito(c, 200, "S12", fiber.Map{"cita": cita, "mensaje": "Estado actualizado exitosamente"})
}
