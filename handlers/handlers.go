package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/medagenda/clinica-backend/services"
	"github.com/medagenda/clinica-backend/store"
)

// Servicios que consumen los handlers. Se inicializan una vez desde main.
var (
	almacen    store.Almacen
	agenda     *services.Agenda
	citas      *services.Citas
	encuentros *services.Encuentro
	reloj      services.Reloj
)

// Inicializar conecta los handlers con el almacén y el reloj dados
func Inicializar(a store.Almacen, r services.Reloj) {
	almacen = a
	reloj = r
	agenda = services.NewAgenda(a, r)
	citas = services.NewCitas(a)
	encuentros = services.NewEncuentro(a, r)
}

// BodyResponse es el cuerpo del sobre de respuesta estándar
type BodyResponse struct {
	IntCode string        `json:"intCode"`
	Data    []interface{} `json:"data"`
}

// StandardResponse es el sobre de respuesta estándar de la API
type StandardResponse struct {
	StatusCode int          `json:"statusCode"`
	Body       BodyResponse `json:"body"`
}

func respuestaExito(c *fiber.Ctx, status int, intCode string, data fiber.Map) error {
	return c.Status(status).JSON(StandardResponse{
		StatusCode: status,
		Body: BodyResponse{
			IntCode: intCode,
			Data:    []interface{}{data},
		},
	})
}

func respuestaError(c *fiber.Ctx, status int, intCode, mensaje string) error {
	return c.Status(status).JSON(StandardResponse{
		StatusCode: status,
		Body: BodyResponse{
			IntCode: intCode,
			Data:    []interface{}{fiber.Map{"error": mensaje}},
		},
	})
}

// respuestaErrorNegocio traduce los errores de los servicios al código HTTP
// que le corresponde a cada resultado de negocio
func respuestaErrorNegocio(c *fiber.Ctx, intCode string, err error) error {
	var fallido *services.EncuentroFallido

	switch {
	case errors.Is(err, services.ErrValidacion):
		return respuestaError(c, 400, intCode, err.Error())
	case errors.Is(err, services.ErrConflicto):
		return respuestaError(c, 409, intCode, err.Error())
	case errors.Is(err, services.ErrTransicionInvalida):
		return respuestaError(c, 409, intCode, err.Error())
	case errors.Is(err, services.ErrNoAutorizado):
		return respuestaError(c, 403, intCode, err.Error())
	case errors.Is(err, store.ErrNoEncontrado):
		return respuestaError(c, 404, intCode, "registro no encontrado")
	case errors.As(err, &fallido):
		return respuestaError(c, 422, intCode, fallido.Error())
	case errors.Is(err, services.ErrCompensacionFallida):
		return respuestaError(c, 500, intCode, err.Error())
	default:
		return respuestaError(c, 500, intCode, "error interno del servidor")
	}
}
