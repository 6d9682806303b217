package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medagenda/clinica-backend/models"
)

// codigo de Postgres para violación de restricción de unicidad
const codigoUnicidad = "23505"

// Postgres implementa Almacen sobre un pool de pgx. La condición de alta única
// la da la llave primaria compuesta de Cita y la de consulta la suya propia;
// el compare-and-set de estado es un UPDATE con el estado esperado en el WHERE.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres crea un almacén respaldado por el pool dado
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func esViolacionUnicidad(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codigoUnicidad
}

func errAlmacen(err error) error {
	return fmt.Errorf("%w: %v", ErrNoDisponible, err)
}

// --- Médicos ---

func (p *Postgres) ObtenerMedico(ctx context.Context, idMedico int) (*models.Medico, error) {
	var medico models.Medico
	var horarioJSON []byte
	err := p.pool.QueryRow(ctx,
		`SELECT id_medico, nombre, especialidad, estado, horario_atencion, created_at, updated_at
		 FROM Medico WHERE id_medico = $1`, idMedico).Scan(
		&medico.IDMedico, &medico.Nombre, &medico.Especialidad,
		&medico.Estado, &horarioJSON, &medico.CreatedAt, &medico.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEncontrado
	}
	if err != nil {
		return nil, errAlmacen(err)
	}
	if len(horarioJSON) > 0 {
		if err := json.Unmarshal(horarioJSON, &medico.Horario); err != nil {
			return nil, errAlmacen(err)
		}
	}
	return &medico, nil
}

func (p *Postgres) GuardarMedico(ctx context.Context, medico *models.Medico) error {
	horarioJSON, err := json.Marshal(medico.Horario)
	if err != nil {
		return errAlmacen(err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO Medico (id_medico, nombre, especialidad, estado, horario_atencion, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (id_medico) DO UPDATE
		 SET nombre = EXCLUDED.nombre, especialidad = EXCLUDED.especialidad,
		     estado = EXCLUDED.estado, horario_atencion = EXCLUDED.horario_atencion,
		     updated_at = NOW()`,
		medico.IDMedico, medico.Nombre, medico.Especialidad, medico.Estado, horarioJSON)
	if err != nil {
		return errAlmacen(err)
	}
	return nil
}

func (p *Postgres) MedicosActivos(ctx context.Context, especialidad string) ([]models.Medico, error) {
	query := `SELECT id_medico, nombre, especialidad, estado, horario_atencion, created_at, updated_at
			  FROM Medico WHERE estado = $1`
	args := []interface{}{models.MedicoActivo}
	if especialidad != "" {
		query += " AND especialidad = $2"
		args = append(args, especialidad)
	}
	query += " ORDER BY nombre"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errAlmacen(err)
	}
	defer rows.Close()

	var medicos []models.Medico
	for rows.Next() {
		var medico models.Medico
		var horarioJSON []byte
		if err := rows.Scan(&medico.IDMedico, &medico.Nombre, &medico.Especialidad,
			&medico.Estado, &horarioJSON, &medico.CreatedAt, &medico.UpdatedAt); err != nil {
			return nil, errAlmacen(err)
		}
		if len(horarioJSON) > 0 {
			if err := json.Unmarshal(horarioJSON, &medico.Horario); err != nil {
				return nil, errAlmacen(err)
			}
		}
		medicos = append(medicos, medico)
	}
	return medicos, rows.Err()
}

// --- Citas ---

func (p *Postgres) CrearCita(ctx context.Context, cita *models.Cita) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO Cita (id_medico, fecha_hora, id_paciente, tipo, motivo, estado, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		cita.IDMedico, cita.FechaHora, cita.IDPaciente, cita.Tipo, cita.Motivo, cita.Estado)
	if esViolacionUnicidad(err) {
		return ErrConflicto
	}
	if err != nil {
		return errAlmacen(err)
	}
	return nil
}

func (p *Postgres) ObtenerCita(ctx context.Context, idMedico int, fechaHora time.Time) (*models.Cita, error) {
	var cita models.Cita
	err := p.pool.QueryRow(ctx,
		`SELECT id_medico, fecha_hora, id_paciente, tipo, motivo, estado, created_at, updated_at
		 FROM Cita WHERE id_medico = $1 AND fecha_hora = $2`, idMedico, fechaHora).Scan(
		&cita.IDMedico, &cita.FechaHora, &cita.IDPaciente, &cita.Tipo, &cita.Motivo,
		&cita.Estado, &cita.CreatedAt, &cita.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEncontrado
	}
	if err != nil {
		return nil, errAlmacen(err)
	}
	return &cita, nil
}

func (p *Postgres) ActualizarEstadoCita(ctx context.Context, idMedico int, fechaHora time.Time, esperado, nuevo string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE Cita SET estado = $4, updated_at = NOW()
		 WHERE id_medico = $1 AND fecha_hora = $2 AND estado = $3`,
		idMedico, fechaHora, esperado, nuevo)
	if err != nil {
		return errAlmacen(err)
	}
	if tag.RowsAffected() == 0 {
		// distinguir cita inexistente de estado cambiado por otro
		if _, err := p.ObtenerCita(ctx, idMedico, fechaHora); errors.Is(err, ErrNoEncontrado) {
			return ErrNoEncontrado
		}
		return ErrEstadoNoCoincide
	}
	return nil
}

func (p *Postgres) CitasDelDia(ctx context.Context, idMedico int, dia time.Time) ([]models.Cita, error) {
	inicio := time.Date(dia.Year(), dia.Month(), dia.Day(), 0, 0, 0, 0, dia.Location())
	fin := inicio.AddDate(0, 0, 1)
	rows, err := p.pool.Query(ctx,
		`SELECT id_medico, fecha_hora, id_paciente, tipo, motivo, estado, created_at, updated_at
		 FROM Cita WHERE id_medico = $1 AND fecha_hora >= $2 AND fecha_hora < $3
		 ORDER BY fecha_hora`, idMedico, inicio, fin)
	if err != nil {
		return nil, errAlmacen(err)
	}
	defer rows.Close()
	return escanearCitas(rows)
}

func (p *Postgres) CitasPorPaciente(ctx context.Context, idPaciente int) ([]models.Cita, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id_medico, fecha_hora, id_paciente, tipo, motivo, estado, created_at, updated_at
		 FROM Cita WHERE id_paciente = $1 ORDER BY fecha_hora DESC`, idPaciente)
	if err != nil {
		return nil, errAlmacen(err)
	}
	defer rows.Close()
	return escanearCitas(rows)
}

func escanearCitas(rows pgx.Rows) ([]models.Cita, error) {
	var citas []models.Cita
	for rows.Next() {
		var cita models.Cita
		if err := rows.Scan(&cita.IDMedico, &cita.FechaHora, &cita.IDPaciente, &cita.Tipo,
			&cita.Motivo, &cita.Estado, &cita.CreatedAt, &cita.UpdatedAt); err != nil {
			return nil, errAlmacen(err)
		}
		citas = append(citas, cita)
	}
	return citas, rows.Err()
}

// --- Consultas ---

func (p *Postgres) CrearConsulta(ctx context.Context, consulta *models.Consulta) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO Consulta (id_medico, fecha_hora_cita, id_paciente, motivo, diagnostico,
		                       tratamiento, observaciones, registro, inicio, fin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		consulta.IDMedico, consulta.FechaHoraCita, consulta.IDPaciente, consulta.Motivo,
		consulta.Diagnostico, consulta.Tratamiento, consulta.Observaciones, consulta.Registro,
		consulta.Inicio, consulta.Fin)
	if esViolacionUnicidad(err) {
		return ErrYaExiste
	}
	if err != nil {
		return errAlmacen(err)
	}
	return nil
}

func (p *Postgres) ObtenerConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) (*models.Consulta, error) {
	var consulta models.Consulta
	err := p.pool.QueryRow(ctx,
		`SELECT id_medico, fecha_hora_cita, id_paciente, motivo, diagnostico, tratamiento,
		        observaciones, registro, inicio, fin, created_at
		 FROM Consulta WHERE id_medico = $1 AND fecha_hora_cita = $2`, idMedico, fechaHoraCita).Scan(
		&consulta.IDMedico, &consulta.FechaHoraCita, &consulta.IDPaciente, &consulta.Motivo,
		&consulta.Diagnostico, &consulta.Tratamiento, &consulta.Observaciones, &consulta.Registro,
		&consulta.Inicio, &consulta.Fin, &consulta.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEncontrado
	}
	if err != nil {
		return nil, errAlmacen(err)
	}
	return &consulta, nil
}

func (p *Postgres) EliminarConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM Consulta WHERE id_medico = $1 AND fecha_hora_cita = $2`, idMedico, fechaHoraCita)
	if err != nil {
		return errAlmacen(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}

func (p *Postgres) ConsultasPorPaciente(ctx context.Context, idPaciente int) ([]models.Consulta, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id_medico, fecha_hora_cita, id_paciente, motivo, diagnostico, tratamiento,
		        observaciones, registro, inicio, fin, created_at
		 FROM Consulta WHERE id_paciente = $1 ORDER BY fecha_hora_cita DESC`, idPaciente)
	if err != nil {
		return nil, errAlmacen(err)
	}
	defer rows.Close()

	var consultas []models.Consulta
	for rows.Next() {
		var consulta models.Consulta
		if err := rows.Scan(&consulta.IDMedico, &consulta.FechaHoraCita, &consulta.IDPaciente,
			&consulta.Motivo, &consulta.Diagnostico, &consulta.Tratamiento, &consulta.Observaciones,
			&consulta.Registro, &consulta.Inicio, &consulta.Fin, &consulta.CreatedAt); err != nil {
			return nil, errAlmacen(err)
		}
		consultas = append(consultas, consulta)
	}
	return consultas, rows.Err()
}

// --- Recetas ---

func (p *Postgres) CrearReceta(ctx context.Context, receta *models.Receta) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO Receta (id_receta, id_medico, fecha_hora_cita, id_paciente, medicamento,
		                     dosis, formato_dosis, frecuencia, tipo_frecuencia, vigencia, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		receta.IDReceta, receta.IDMedico, receta.FechaHoraCita, receta.IDPaciente,
		receta.Medicamento, receta.Dosis, receta.FormatoDosis, receta.Frecuencia,
		receta.TipoFrecuencia, receta.Vigencia)
	if esViolacionUnicidad(err) {
		return ErrYaExiste
	}
	if err != nil {
		return errAlmacen(err)
	}
	return nil
}

func (p *Postgres) EliminarReceta(ctx context.Context, idReceta string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM Receta WHERE id_receta = $1`, idReceta)
	if err != nil {
		return errAlmacen(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}

func (p *Postgres) RecetasPorPaciente(ctx context.Context, idPaciente int) ([]models.Receta, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id_receta, id_medico, fecha_hora_cita, id_paciente, medicamento, dosis,
		        formato_dosis, frecuencia, tipo_frecuencia, vigencia, created_at
		 FROM Receta WHERE id_paciente = $1 ORDER BY created_at DESC`, idPaciente)
	if err != nil {
		return nil, errAlmacen(err)
	}
	defer rows.Close()
	return escanearRecetas(rows)
}

func (p *Postgres) RecetasPorConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) ([]models.Receta, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id_receta, id_medico, fecha_hora_cita, id_paciente, medicamento, dosis,
		        formato_dosis, frecuencia, tipo_frecuencia, vigencia, created_at
		 FROM Receta WHERE id_medico = $1 AND fecha_hora_cita = $2`, idMedico, fechaHoraCita)
	if err != nil {
		return nil, errAlmacen(err)
	}
	defer rows.Close()
	return escanearRecetas(rows)
}

func escanearRecetas(rows pgx.Rows) ([]models.Receta, error) {
	var recetas []models.Receta
	for rows.Next() {
		var receta models.Receta
		if err := rows.Scan(&receta.IDReceta, &receta.IDMedico, &receta.FechaHoraCita,
			&receta.IDPaciente, &receta.Medicamento, &receta.Dosis, &receta.FormatoDosis,
			&receta.Frecuencia, &receta.TipoFrecuencia, &receta.Vigencia, &receta.CreatedAt); err != nil {
			return nil, errAlmacen(err)
		}
		recetas = append(recetas, receta)
	}
	return recetas, rows.Err()
}

// --- Biometrías ---

func (p *Postgres) CrearBiometria(ctx context.Context, biometria *models.Biometria) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO Biometria (id_biometria, id_paciente, peso, estatura, temperatura,
		                        frecuencia_cardiaca, presion_sistolica, presion_diastolica, fecha)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		biometria.IDBiometria, biometria.IDPaciente, biometria.Peso, biometria.Estatura,
		biometria.Temperatura, biometria.FrecuenciaCardiaca, biometria.PresionSistolica,
		biometria.PresionDiastolica, biometria.Fecha)
	if esViolacionUnicidad(err) {
		return ErrYaExiste
	}
	if err != nil {
		return errAlmacen(err)
	}
	return nil
}

func (p *Postgres) EliminarBiometria(ctx context.Context, idBiometria string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM Biometria WHERE id_biometria = $1`, idBiometria)
	if err != nil {
		return errAlmacen(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}

func (p *Postgres) BiometriasPorPaciente(ctx context.Context, idPaciente int) ([]models.Biometria, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id_biometria, id_paciente, peso, estatura, temperatura, frecuencia_cardiaca,
		        presion_sistolica, presion_diastolica, fecha
		 FROM Biometria WHERE id_paciente = $1 ORDER BY fecha DESC`, idPaciente)
	if err != nil {
		return nil, errAlmacen(err)
	}
	defer rows.Close()

	var biometrias []models.Biometria
	for rows.Next() {
		var biometria models.Biometria
		if err := rows.Scan(&biometria.IDBiometria, &biometria.IDPaciente, &biometria.Peso,
			&biometria.Estatura, &biometria.Temperatura, &biometria.FrecuenciaCardiaca,
			&biometria.PresionSistolica, &biometria.PresionDiastolica, &biometria.Fecha); err != nil {
			return nil, errAlmacen(err)
		}
		biometrias = append(biometrias, biometria)
	}
	return biometrias, rows.Err()
}
