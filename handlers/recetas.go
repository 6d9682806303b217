package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medagenda/clinica-backend/models"
)

// recetaConEstado adjunta el estado derivado (Activa/Vencida) a una receta.
// El estado no se almacena: se proyecta contra la hora actual al leer.
type recetaConEstado struct {
	models.Receta
	Estado string `json:"estado"`
}

// ObtenerRecetasPorPaciente devuelve las recetas de un paciente con su estado
// de vigencia calculado. Un paciente solo ve las propias.
func ObtenerRecetasPorPaciente(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)

	idPaciente, err := c.ParamsInt("paciente_id")
	if err != nil {
		return respuestaError(c, 400, "F40", "ID de paciente inválido")
	}
	if userRole == models.RolPaciente && idPaciente != userID {
		return respuestaError(c, 403, "F40", "No puedes ver las recetas de otro paciente")
	}

	recetas, err := almacen.RecetasPorPaciente(c.Context(), idPaciente)
	if err != nil {
		return respuestaErrorNegocio(c, "F40", err)
	}

	ahora := reloj.Ahora()
	lista := make([]recetaConEstado, 0, len(recetas))
	for _, receta := range recetas {
		lista = append(lista, recetaConEstado{Receta: receta, Estado: receta.Estado(ahora)})
	}
	return respuestaExito(c, 200, "S40", fiber.Map{"recetas": lista, "total": len(lista)})
}

// ObtenerBiometriasPorPaciente devuelve el historial de signos vitales de un
// paciente. Un paciente solo ve el propio.
func ObtenerBiometriasPorPaciente(c *fiber.Ctx) error {
	userRole := c.Locals("user_role").(string)
	userID := c.Locals("user_id").(int)

	idPaciente, err := c.ParamsInt("paciente_id")
	if err != nil {
		return respuestaError(c, 400, "F41", "ID de paciente inválido")
	}
	if userRole == models.RolPaciente && idPaciente != userID {
		return respuestaError(c, 403, "F41", "No puedes ver las biometrías de otro paciente")
	}

	biometrias, err := almacen.BiometriasPorPaciente(c.Context(), idPaciente)
	if err != nil {
		return respuestaErrorNegocio(c, "F41", err)
	}
	return respuestaExito(c, 200, "S41", fiber.Map{"biometrias": biometrias, "total": len(biometrias)})
}
