package store

import (
	"context"
	"errors"
	"time"

	"github.com/medagenda/clinica-backend/models"
)

// Errores que las implementaciones del almacén deben devolver para que los
// servicios distingan resultados de negocio de fallas de infraestructura.
var (
	// ErrConflicto: ya existe una cita para ese (médico, fecha-hora). Es el
	// resultado esperado cuando dos reservas compiten por el mismo slot.
	ErrConflicto = errors.New("ya existe una cita para ese médico y horario")
	// ErrYaExiste: alta condicionada sobre una clave que ya está ocupada.
	ErrYaExiste = errors.New("el registro ya existe")
	// ErrNoEncontrado: la clave solicitada no existe.
	ErrNoEncontrado = errors.New("registro no encontrado")
	// ErrEstadoNoCoincide: la actualización condicionada no encontró el estado
	// esperado; alguien más modificó la cita primero.
	ErrEstadoNoCoincide = errors.New("el estado actual de la cita no coincide con el esperado")
	// ErrNoDisponible: falla de infraestructura del almacén.
	ErrNoDisponible = errors.New("almacén no disponible")
)

// Almacen es el puerto de persistencia que consumen los servicios. Toda
// escritura sobre una cita es condicionada: el alta falla si la clave compuesta
// ya existe y el cambio de estado falla si el estado previo no es el esperado.
// Esa semántica, y no un mutex en memoria, es lo que vuelve seguras las
// carreras entre instancias del servicio.
type Almacen interface {
	// Médicos
	ObtenerMedico(ctx context.Context, idMedico int) (*models.Medico, error)
	GuardarMedico(ctx context.Context, medico *models.Medico) error
	MedicosActivos(ctx context.Context, especialidad string) ([]models.Medico, error)

	// Citas
	CrearCita(ctx context.Context, cita *models.Cita) error
	ObtenerCita(ctx context.Context, idMedico int, fechaHora time.Time) (*models.Cita, error)
	// ActualizarEstadoCita es el compare-and-set sobre la única fila mutable
	// compartida del modelo.
	ActualizarEstadoCita(ctx context.Context, idMedico int, fechaHora time.Time, esperado, nuevo string) error
	CitasDelDia(ctx context.Context, idMedico int, dia time.Time) ([]models.Cita, error)
	CitasPorPaciente(ctx context.Context, idPaciente int) ([]models.Cita, error)

	// Consultas
	CrearConsulta(ctx context.Context, consulta *models.Consulta) error
	ObtenerConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) (*models.Consulta, error)
	EliminarConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) error
	ConsultasPorPaciente(ctx context.Context, idPaciente int) ([]models.Consulta, error)

	// Recetas
	CrearReceta(ctx context.Context, receta *models.Receta) error
	EliminarReceta(ctx context.Context, idReceta string) error
	RecetasPorPaciente(ctx context.Context, idPaciente int) ([]models.Receta, error)
	RecetasPorConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) ([]models.Receta, error)

	// Biometrías
	CrearBiometria(ctx context.Context, biometria *models.Biometria) error
	EliminarBiometria(ctx context.Context, idBiometria string) error
	BiometriasPorPaciente(ctx context.Context, idPaciente int) ([]models.Biometria, error)
}
