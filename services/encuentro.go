package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/clinica-backend/models"
	"github.com/medagenda/clinica-backend/store"
)

// Encuentro orquesta el cierre de una visita: crear la consulta, sus recetas,
// la biometría opcional y marcar la cita como Completada, todo como una unidad
// lógica contra un almacén que solo ofrece escrituras condicionadas de una
// fila. El cambio de estado de la cita, que es irreversible y visible hacia
// afuera, se deja deliberadamente al final y condicionado a que siga Aprobada:
// lo único que puede quedar colgando ante una falla son filas compensables,
// nunca una cita falsamente completada.
type Encuentro struct {
	almacen store.Almacen
	reloj   Reloj
}

// NewEncuentro crea el orquestador de cierre de encuentros
func NewEncuentro(almacen store.Almacen, reloj Reloj) *Encuentro {
	return &Encuentro{almacen: almacen, reloj: reloj}
}

// DatosConsulta son los campos clínicos de la consulta a crear
type DatosConsulta struct {
	Motivo        string    `json:"motivo"`
	Diagnostico   string    `json:"diagnostico"`
	Tratamiento   string    `json:"tratamiento"`
	Observaciones string    `json:"observaciones"`
	Registro      string    `json:"registro"`
	Inicio        time.Time `json:"inicio"`
	Fin           time.Time `json:"fin"`
}

// DatosReceta son los campos de una receta a emitir en el cierre
type DatosReceta struct {
	Medicamento    string    `json:"medicamento"`
	Dosis          string    `json:"dosis"`
	FormatoDosis   string    `json:"formato_dosis"`
	Frecuencia     int       `json:"frecuencia"`
	TipoFrecuencia string    `json:"tipo_frecuencia"`
	Vigencia       time.Time `json:"vigencia"`
}

// SolicitudEncuentro identifica la cita aprobada y trae todo lo que el cierre
// debe persistir
type SolicitudEncuentro struct {
	IDMedico      int               `json:"id_medico"`
	FechaHoraCita time.Time         `json:"fecha_hora_cita"`
	Consulta      DatosConsulta     `json:"consulta"`
	Recetas       []DatosReceta     `json:"recetas"`
	Biometria     *models.Biometria `json:"biometria,omitempty"`
}

// ResultadoEncuentro es el estado persistido tras un cierre exitoso: la cita
// quedó Completada, existe exactamente una consulta para ella y cada receta y
// biometría solicitada fue escrita.
type ResultadoEncuentro struct {
	Cita      models.Cita       `json:"cita"`
	Consulta  models.Consulta   `json:"consulta"`
	Recetas   []models.Receta   `json:"recetas"`
	Biometria *models.Biometria `json:"biometria,omitempty"`
}

// CompletarEncuentro ejecuta el cierre como saga secuencial con compensación:
//
//  1. crear la Consulta (clave = médico + fecha de la cita; un reintento que
//     encuentra la fila la toma como propia y sigue);
//  2. crear cada Receta y la Biometría si viene;
//  3. pasar la cita de Aprobada a Completada con compare-and-set, el punto
//     de commit;
//  4. si el paso 3 pierde la condición (cancelación concurrente) o cualquier
//     paso previo falla, borrar en orden inverso lo creado y devolver
//     EncuentroFallido.
//
// Si la propia compensación falla devuelve ErrCompensacionFallida: es el único
// caso que puede dejar el modelo inconsistente y debe alertar a un operador.
func (e *Encuentro) CompletarEncuentro(ctx context.Context, solicitud SolicitudEncuentro) (*ResultadoEncuentro, error) {
	if err := validarSolicitud(solicitud); err != nil {
		return nil, &EncuentroFallido{Etapa: EtapaPrecondicion, Causa: err}
	}

	cita, err := e.almacen.ObtenerCita(ctx, solicitud.IDMedico, solicitud.FechaHoraCita)
	if err != nil {
		return nil, &EncuentroFallido{Etapa: EtapaPrecondicion, Causa: err}
	}
	if cita.Estado != models.CitaAprobada {
		return nil, &EncuentroFallido{
			Etapa: EtapaPrecondicion,
			Causa: fmt.Errorf("la cita está %s, se requiere %s", cita.Estado, models.CitaAprobada),
		}
	}

	// Paso 1: consulta. La clave compuesta vuelve idempotente el reintento.
	consulta := models.Consulta{
		IDMedico:      cita.IDMedico,
		FechaHoraCita: cita.FechaHora,
		IDPaciente:    cita.IDPaciente,
		Motivo:        solicitud.Consulta.Motivo,
		Diagnostico:   solicitud.Consulta.Diagnostico,
		Tratamiento:   solicitud.Consulta.Tratamiento,
		Observaciones: solicitud.Consulta.Observaciones,
		Registro:      solicitud.Consulta.Registro,
		Inicio:        solicitud.Consulta.Inicio,
		Fin:           solicitud.Consulta.Fin,
	}
	if err := e.almacen.CrearConsulta(ctx, &consulta); err != nil {
		if !errors.Is(err, store.ErrYaExiste) {
			return nil, &EncuentroFallido{Etapa: EtapaConsulta, Causa: err}
		}
		// un intento previo ya dejó la consulta; el resultado debe reflejar
		// la fila persistida, no lo que trae la solicitud del reintento
		previa, err := e.almacen.ObtenerConsulta(ctx, cita.IDMedico, cita.FechaHora)
		if err != nil {
			return nil, &EncuentroFallido{Etapa: EtapaConsulta, Causa: err}
		}
		consulta = *previa
	}

	// Paso 2a: recetas, en orden; cualquier falla compensa el encuentro
	// completo en vez de completarlo con recetas faltantes.
	recetas := make([]models.Receta, 0, len(solicitud.Recetas))
	for _, datos := range solicitud.Recetas {
		receta := models.Receta{
			IDReceta:       uuid.NewString(),
			IDMedico:       cita.IDMedico,
			FechaHoraCita:  cita.FechaHora,
			IDPaciente:     cita.IDPaciente,
			Medicamento:    datos.Medicamento,
			Dosis:          datos.Dosis,
			FormatoDosis:   datos.FormatoDosis,
			Frecuencia:     datos.Frecuencia,
			TipoFrecuencia: datos.TipoFrecuencia,
			Vigencia:       datos.Vigencia,
		}
		if err := e.almacen.CrearReceta(ctx, &receta); err != nil {
			return nil, e.abortar(ctx, EtapaRecetas, err, cita, recetas, nil)
		}
		recetas = append(recetas, receta)
	}

	// Paso 2b: biometría opcional
	var biometria *models.Biometria
	if solicitud.Biometria != nil {
		b := *solicitud.Biometria
		b.IDBiometria = uuid.NewString()
		b.IDPaciente = cita.IDPaciente
		if b.Fecha.IsZero() {
			b.Fecha = e.reloj.Ahora()
		}
		if err := e.almacen.CrearBiometria(ctx, &b); err != nil {
			return nil, e.abortar(ctx, EtapaBiometria, err, cita, recetas, nil)
		}
		biometria = &b
	}

	// Paso 3: el punto de commit. Solo si la cita sigue Aprobada; una
	// cancelación que ganó la carrera hace fallar la condición y el
	// encuentro completo se compensa.
	if err := e.almacen.ActualizarEstadoCita(ctx, cita.IDMedico, cita.FechaHora, models.CitaAprobada, models.CitaCompletada); err != nil {
		return nil, e.abortar(ctx, EtapaCierre, err, cita, recetas, biometria)
	}

	cita.Estado = models.CitaCompletada
	return &ResultadoEncuentro{
		Cita:      *cita,
		Consulta:  consulta,
		Recetas:   recetas,
		Biometria: biometria,
	}, nil
}

func validarSolicitud(solicitud SolicitudEncuentro) error {
	for i, receta := range solicitud.Recetas {
		if receta.Medicamento == "" || receta.Dosis == "" {
			return fmt.Errorf("%w: receta %d sin medicamento o dosis", ErrValidacion, i)
		}
		if receta.TipoFrecuencia != models.FrecuenciaHoras && receta.TipoFrecuencia != models.FrecuenciaDias {
			return fmt.Errorf("%w: receta %d con tipo de frecuencia desconocido %q", ErrValidacion, i, receta.TipoFrecuencia)
		}
	}
	if solicitud.Biometria != nil {
		if err := solicitud.Biometria.Validar(); err != nil {
			return fmt.Errorf("%w: %v", ErrValidacion, err)
		}
	}
	return nil
}

// abortar ejecuta la compensación en orden inverso al de creación y arma el
// error final. La cita no se toca: o nunca se modificó o la condición del
// compare-and-set ya la protegió.
func (e *Encuentro) abortar(ctx context.Context, etapa string, causa error, cita *models.Cita, recetas []models.Receta, biometria *models.Biometria) error {
	var fallas []error

	if biometria != nil {
		if err := e.almacen.EliminarBiometria(ctx, biometria.IDBiometria); err != nil && !errors.Is(err, store.ErrNoEncontrado) {
			fallas = append(fallas, fmt.Errorf("biometría %s: %v", biometria.IDBiometria, err))
		}
	}
	for i := len(recetas) - 1; i >= 0; i-- {
		if err := e.almacen.EliminarReceta(ctx, recetas[i].IDReceta); err != nil && !errors.Is(err, store.ErrNoEncontrado) {
			fallas = append(fallas, fmt.Errorf("receta %s: %v", recetas[i].IDReceta, err))
		}
	}
	if err := e.almacen.EliminarConsulta(ctx, cita.IDMedico, cita.FechaHora); err != nil && !errors.Is(err, store.ErrNoEncontrado) {
		fallas = append(fallas, fmt.Errorf("consulta: %v", err))
	}

	if len(fallas) > 0 {
		return fmt.Errorf("%w (etapa %s, causa original: %v): %v", ErrCompensacionFallida, etapa, causa, errors.Join(fallas...))
	}
	return &EncuentroFallido{Etapa: etapa, Causa: causa}
}
