package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/medagenda/clinica-backend/middleware"
	"github.com/medagenda/clinica-backend/models"
)

// CrearMedico da de alta un médico con su horario de atención
func CrearMedico(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	if userRole != models.RolAdmin {
		return respuestaError(c, 403, "F60", "Solo administradores pueden dar de alta médicos")
	}

	var medico models.Medico
	if err := c.BodyParser(&medico); err != nil {
		return respuestaError(c, 400, "F60", "Datos inválidos")
	}
	if medico.IDMedico == 0 || medico.Nombre == "" {
		return respuestaError(c, 400, "F60", "El ID de usuario y el nombre del médico son obligatorios")
	}
	if medico.Estado == "" {
		medico.Estado = models.MedicoActivo
	}
	if medico.Estado != models.MedicoActivo && medico.Estado != models.MedicoInactivo {
		return respuestaError(c, 400, "F60", "Estado de médico inválido")
	}

	if err := almacen.GuardarMedico(c.Context(), &medico); err != nil {
		return respuestaErrorNegocio(c, "F60", err)
	}

	middleware.LogCustomEvent(models.NivelSuccess, "Médico creado", emailActual(c), userRole,
		map[string]interface{}{
			"medico_id":    medico.IDMedico,
			"especialidad": medico.Especialidad,
			"action":       "medico_created",
		})

	return respuestaExito(c, 201, "S60", fiber.Map{"medico": medico, "mensaje": "Médico creado exitosamente"})
}

// ObtenerMedicos lista los médicos activos, opcionalmente por especialidad
func ObtenerMedicos(c *fiber.Ctx) error {
	especialidad := c.Query("especialidad")
	medicos, err := almacen.MedicosActivos(c.Context(), especialidad)
	if err != nil {
		return respuestaErrorNegocio(c, "F61", err)
	}
	return respuestaExito(c, 200, "S61", fiber.Map{"medicos": medicos, "total": len(medicos)})
}

// ObtenerMedicoPorID devuelve un médico con su horario de atención
func ObtenerMedicoPorID(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return respuestaError(c, 400, "F61", "ID inválido")
	}
	medico, err := almacen.ObtenerMedico(c.Context(), id)
	if err != nil {
		return respuestaErrorNegocio(c, "F61", err)
	}
	return respuestaExito(c, 200, "S61", fiber.Map{"medico": medico})
}

// ActualizarHorarioMedico reemplaza el horario semanal de atención del médico.
// Los rangos mal formados no se rechazan: el generador de slots los trata como
// día cerrado, igual que un médico a medio configurar.
func ActualizarHorarioMedico(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return respuestaError(c, 400, "F62", "ID inválido")
	}

	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)
	if userRole != models.RolAdmin && userRole != models.RolMedico {
		return respuestaError(c, 403, "F62", "Solo médicos y administradores pueden modificar horarios")
	}

	medico, err := almacen.ObtenerMedico(c.Context(), id)
	if err != nil {
		return respuestaErrorNegocio(c, "F62", err)
	}
	if userRole == models.RolMedico && medico.IDMedico != userID {
		return respuestaError(c, 403, "F62", "No puedes modificar el horario de otro médico")
	}

	var horario models.HorarioAtencion
	if err := c.BodyParser(&horario); err != nil {
		return respuestaError(c, 400, "F62", "Datos inválidos")
	}

	medico.Horario = horario
	if err := almacen.GuardarMedico(c.Context(), medico); err != nil {
		return respuestaErrorNegocio(c, "F62", err)
	}

	middleware.LogCustomEvent(models.NivelInfo, "Horario de atención actualizado", emailActual(c), userRole,
		map[string]interface{}{
			"medico_id": id,
			"action":    "horario_updated",
		})

	return respuestaExito(c, 200, "S62", fiber.Map{"medico": medico, "mensaje": "Horario actualizado exitosamente"})
}

// DesactivarMedico marca al médico como Inactivo. Los médicos nunca se
// eliminan para no dejar citas y consultas huérfanas.
func DesactivarMedico(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	if userRole != models.RolAdmin {
		return respuestaError(c, 403, "F63", "Solo administradores pueden desactivar médicos")
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return respuestaError(c, 400, "F63", "ID inválido")
	}

	medico, err := almacen.ObtenerMedico(c.Context(), id)
	if err != nil {
		return respuestaErrorNegocio(c, "F63", err)
	}
	medico.Estado = models.MedicoInactivo
	if err := almacen.GuardarMedico(c.Context(), medico); err != nil {
		return respuestaErrorNegocio(c, "F63", err)
	}

	middleware.LogCustomEvent(models.NivelWarning, "Médico desactivado", emailActual(c), userRole,
		map[string]interface{}{
			"medico_id": id,
			"action":    "medico_deactivated",
		})

	return respuestaExito(c, 200, "S63", fiber.Map{"mensaje": "Médico desactivado exitosamente"})
}

func emailActual(c *fiber.Ctx) string {
	if email, ok := c.Locals("user_email").(string); ok {
		return email
	}
	return ""
}
