package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medagenda/clinica-backend/middleware"
	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/services"
)

// CompletarEncuentro cierra la visita de una cita aprobada: crea la consulta,
// las recetas y la biometría opcional, y marca la cita como Completada, todo
// o nada. Solo el médico dueño de la cita puede cerrarla.
func CompletarEncuentro(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)

	if userRole != models.RolMedico {
		return respuestaError(c, 403, "F80", "Solo médicos pueden cerrar encuentros")
	}

	var solicitud services.SolicitudEncuentro
	if err := c.BodyParser(&solicitud); err != nil {
		return respuestaError(c, 400, "F80", "Datos inválidos")
	}
	if solicitud.IDMedico == 0 || solicitud.FechaHoraCita.IsZero() {
		return respuestaError(c, 400, "F80", "Médico y fecha de la cita son requeridos")
	}
	if solicitud.IDMedico != userID {
		return respuestaError(c, 403, "F80", "No puedes cerrar el encuentro de otro médico")
	}

	resultado, err := encuentros.CompletarEncuentro(c.Context(), solicitud)
	if err != nil {
		return respuestaErrorNegocio(c, "F80", err)
	}

	middleware.LogCustomEvent(models.NivelSuccess, "Encuentro completado", emailActual(c), userRole,
		map[string]interface{}{
			"medico_id":   resultado.Cita.IDMedico,
			"paciente_id": resultado.Cita.IDPaciente,
			"fecha_hora":  resultado.Cita.FechaHora.Format(time.RFC3339),
			"recetas":     len(resultado.Recetas),
			"action":      "encuentro_completed",
		})

	return respuestaExito(c, 201, "S80", fiber.Map{
		"resultado": resultado,
		"mensaje":   "Encuentro completado exitosamente",
	})
}

// ObtenerConsultaDeCita devuelve la consulta de una cita con sus recetas.
// Un médico solo ve las propias; un paciente, las suyas.
func ObtenerConsultaDeCita(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)

	idMedico, err := c.ParamsInt("medico_id")
	if err != nil {
		return respuestaError(c, 400, "F82", "ID de médico inválido")
	}
	fechaHora, err := time.Parse(time.RFC3339, c.Query("fecha_hora"))
	if err != nil {
		return respuestaError(c, 400, "F82", "Fecha inválida, se espera RFC3339")
	}
	if userRole == models.RolMedico && idMedico != userID {
		return respuestaError(c, 403, "F82", "No puedes ver las consultas de otro médico")
	}

	consulta, err := almacen.ObtenerConsulta(c.Context(), idMedico, fechaHora)
	if err != nil {
		return respuestaErrorNegocio(c, "F82", err)
	}
	if userRole == models.RolPaciente && consulta.IDPaciente != userID {
		return respuestaError(c, 403, "F82", "No puedes ver las consultas de otro paciente")
	}

	recetas, err := almacen.RecetasPorConsulta(c.Context(), idMedico, fechaHora)
	if err != nil {
		return respuestaErrorNegocio(c, "F82", err)
	}
	return respuestaExito(c, 200, "S82", fiber.Map{"consulta": consulta, "recetas": recetas})
}

// ObtenerConsultasPorPaciente devuelve el historial de consultas de un
// paciente. Un paciente solo ve el propio.
func ObtenerConsultasPorPaciente(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)

	idPaciente, err := c.ParamsInt("paciente_id")
	if err != nil {
		return respuestaError(c, 400, "F81", "ID de paciente inválido")
	}
	if userRole == models.RolPaciente && idPaciente != userID {
		return respuestaError(c, 403, "F81", "No puedes ver las consultas de otro paciente")
	}

	consultas, err := almacen.ConsultasPorPaciente(c.Context(), idPaciente)
	if err != nil {
		return respuestaErrorNegocio(c, "F81", err)
	}
	return respuestaExito(c, 200, "S81", fiber.Map{"consultas": consultas, "total": len(consultas)})
}
