package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ObtenerSlotsDisponibles devuelve los slots aún reservables de un médico para
// una fecha (query param fecha=YYYY-MM-DD)
func ObtenerSlotsDisponibles(c *fiber.Ctx) error {
	idMedico, err := strconv.Atoi(c.Params("medico_id"))
	if err != nil {
		return respuestaError(c, 400, "F70", "ID de médico inválido")
	}

	fecha, err := time.ParseInLocation("2006-01-02", c.Query("fecha"), time.UTC)
	if err != nil {
		return respuestaError(c, 400, "F70", "Fecha inválida, se espera YYYY-MM-DD")
	}

	slots, err := agenda.SlotsDisponibles(c.Context(), idMedico, fecha)
	if err != nil {
		return respuestaErrorNegocio(c, "F70", err)
	}

	horarios := make([]string, 0, len(slots))
	for _, slot := range slots {
		horarios = append(horarios, slot.Format(time.RFC3339))
	}
	return respuestaExito(c, 200, "S70", fiber.Map{
		"medico_id": idMedico,
		"fecha":     c.Query("fecha"),
		"slots":     horarios,
		"total":     len(horarios),
	})
}
