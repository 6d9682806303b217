package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/medagenda/clinica-backend/models"
)

// Memoria implementa Almacen sobre mapas protegidos con mutex. Reproduce la
// misma semántica condicionada que Postgres (alta única por clave, CAS de
// estado) y permite inyectar fallas por operación, lo que hace verificable la
// compensación del cierre de encuentro sin base de datos.
type Memoria struct {
	mu         sync.Mutex
	medicos    map[int]*models.Medico
	citas      map[string]*models.Cita
	consultas  map[string]*models.Consulta
	recetas    map[string]*models.Receta
	biometrias map[string]*models.Biometria

	// FallarEn asocia nombre de operación -> error a devolver en la próxima
	// llamada. La entrada se consume al dispararse.
	FallarEn map[string]error
}

// NewMemoria crea un almacén en memoria vacío
func NewMemoria() *Memoria {
	return &Memoria{
		medicos:    make(map[int]*models.Medico),
		citas:      make(map[string]*models.Cita),
		consultas:  make(map[string]*models.Consulta),
		recetas:    make(map[string]*models.Receta),
		biometrias: make(map[string]*models.Biometria),
		FallarEn:   make(map[string]error),
	}
}

func claveCita(idMedico int, fechaHora time.Time) string {
	return fmt.Sprintf("%d|%s", idMedico, fechaHora.UTC().Format(time.RFC3339))
}

// falla consume y devuelve el error inyectado para la operación, si lo hay.
// Debe llamarse con el mutex tomado.
func (m *Memoria) falla(operacion string) error {
	if err, ok := m.FallarEn[operacion]; ok {
		delete(m.FallarEn, operacion)
		return err
	}
	return nil
}

// --- Médicos ---

func (m *Memoria) ObtenerMedico(ctx context.Context, idMedico int) (*models.Medico, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("ObtenerMedico"); err != nil {
		return nil, err
	}
	medico, ok := m.medicos[idMedico]
	if !ok {
		return nil, ErrNoEncontrado
	}
	copia := *medico
	return &copia, nil
}

func (m *Memoria) GuardarMedico(ctx context.Context, medico *models.Medico) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("GuardarMedico"); err != nil {
		return err
	}
	copia := *medico
	m.medicos[medico.IDMedico] = &copia
	return nil
}

func (m *Memoria) MedicosActivos(ctx context.Context, especialidad string) ([]models.Medico, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("MedicosActivos"); err != nil {
		return nil, err
	}
	var medicos []models.Medico
	for _, medico := range m.medicos {
		if medico.Estado != models.MedicoActivo {
			continue
		}
		if especialidad != "" && medico.Especialidad != especialidad {
			continue
		}
		medicos = append(medicos, *medico)
	}
	sort.Slice(medicos, func(i, j int) bool { return medicos[i].Nombre < medicos[j].Nombre })
	return medicos, nil
}

// --- Citas ---

func (m *Memoria) CrearCita(ctx context.Context, cita *models.Cita) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("CrearCita"); err != nil {
		return err
	}
	clave := claveCita(cita.IDMedico, cita.FechaHora)
	if _, ok := m.citas[clave]; ok {
		return ErrConflicto
	}
	copia := *cita
	m.citas[clave] = &copia
	return nil
}

func (m *Memoria) ObtenerCita(ctx context.Context, idMedico int, fechaHora time.Time) (*models.Cita, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("ObtenerCita"); err != nil {
		return nil, err
	}
	cita, ok := m.citas[claveCita(idMedico, fechaHora)]
	if !ok {
		return nil, ErrNoEncontrado
	}
	copia := *cita
	return &copia, nil
}

func (m *Memoria) ActualizarEstadoCita(ctx context.Context, idMedico int, fechaHora time.Time, esperado, nuevo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("ActualizarEstadoCita"); err != nil {
		return err
	}
	cita, ok := m.citas[claveCita(idMedico, fechaHora)]
	if !ok {
		return ErrNoEncontrado
	}
	if cita.Estado != esperado {
		return ErrEstadoNoCoincide
	}
	cita.Estado = nuevo
	cita.UpdatedAt = time.Now()
	return nil
}

func (m *Memoria) CitasDelDia(ctx context.Context, idMedico int, dia time.Time) ([]models.Cita, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("CitasDelDia"); err != nil {
		return nil, err
	}
	inicio := time.Date(dia.Year(), dia.Month(), dia.Day(), 0, 0, 0, 0, dia.Location())
	fin := inicio.AddDate(0, 0, 1)
	var citas []models.Cita
	for _, cita := range m.citas {
		if cita.IDMedico != idMedico {
			continue
		}
		if cita.FechaHora.Before(inicio) || !cita.FechaHora.Before(fin) {
			continue
		}
		citas = append(citas, *cita)
	}
	sort.Slice(citas, func(i, j int) bool { return citas[i].FechaHora.Before(citas[j].FechaHora) })
	return citas, nil
}

func (m *Memoria) CitasPorPaciente(ctx context.Context, idPaciente int) ([]models.Cita, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("CitasPorPaciente"); err != nil {
		return nil, err
	}
	var citas []models.Cita
	for _, cita := range m.citas {
		if cita.IDPaciente == idPaciente {
			citas = append(citas, *cita)
		}
	}
	sort.Slice(citas, func(i, j int) bool { return citas[j].FechaHora.Before(citas[i].FechaHora) })
	return citas, nil
}

// --- Consultas ---

func (m *Memoria) CrearConsulta(ctx context.Context, consulta *models.Consulta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("CrearConsulta"); err != nil {
		return err
	}
	clave := claveCita(consulta.IDMedico, consulta.FechaHoraCita)
	if _, ok := m.consultas[clave]; ok {
		return ErrYaExiste
	}
	copia := *consulta
	m.consultas[clave] = &copia
	return nil
}

func (m *Memoria) ObtenerConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) (*models.Consulta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("ObtenerConsulta"); err != nil {
		return nil, err
	}
	consulta, ok := m.consultas[claveCita(idMedico, fechaHoraCita)]
	if !ok {
		return nil, ErrNoEncontrado
	}
	copia := *consulta
	return &copia, nil
}

func (m *Memoria) EliminarConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("EliminarConsulta"); err != nil {
		return err
	}
	clave := claveCita(idMedico, fechaHoraCita)
	if _, ok := m.consultas[clave]; !ok {
		return ErrNoEncontrado
	}
	delete(m.consultas, clave)
	return nil
}

func (m *Memoria) ConsultasPorPaciente(ctx context.Context, idPaciente int) ([]models.Consulta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("ConsultasPorPaciente"); err != nil {
		return nil, err
	}
	var consultas []models.Consulta
	for _, consulta := range m.consultas {
		if consulta.IDPaciente == idPaciente {
			consultas = append(consultas, *consulta)
		}
	}
	sort.Slice(consultas, func(i, j int) bool {
		return consultas[j].FechaHoraCita.Before(consultas[i].FechaHoraCita)
	})
	return consultas, nil
}

// --- Recetas ---

func (m *Memoria) CrearReceta(ctx context.Context, receta *models.Receta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("CrearReceta"); err != nil {
		return err
	}
	if _, ok := m.recetas[receta.IDReceta]; ok {
		return ErrYaExiste
	}
	copia := *receta
	m.recetas[receta.IDReceta] = &copia
	return nil
}

func (m *Memoria) EliminarReceta(ctx context.Context, idReceta string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("EliminarReceta"); err != nil {
		return err
	}
	if _, ok := m.recetas[idReceta]; !ok {
		return ErrNoEncontrado
	}
	delete(m.recetas, idReceta)
	return nil
}

func (m *Memoria) RecetasPorPaciente(ctx context.Context, idPaciente int) ([]models.Receta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("RecetasPorPaciente"); err != nil {
		return nil, err
	}
	var recetas []models.Receta
	for _, receta := range m.recetas {
		if receta.IDPaciente == idPaciente {
			recetas = append(recetas, *receta)
		}
	}
	sort.Slice(recetas, func(i, j int) bool { return recetas[i].IDReceta < recetas[j].IDReceta })
	return recetas, nil
}

func (m *Memoria) RecetasPorConsulta(ctx context.Context, idMedico int, fechaHoraCita time.Time) ([]models.Receta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("RecetasPorConsulta"); err != nil {
		return nil, err
	}
	var recetas []models.Receta
	for _, receta := range m.recetas {
		if receta.IDMedico == idMedico && receta.FechaHoraCita.Equal(fechaHoraCita) {
			recetas = append(recetas, *receta)
		}
	}
	sort.Slice(recetas, func(i, j int) bool { return recetas[i].IDReceta < recetas[j].IDReceta })
	return recetas, nil
}

// --- Biometrías ---

func (m *Memoria) CrearBiometria(ctx context.Context, biometria *models.Biometria) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("CrearBiometria"); err != nil {
		return err
	}
	if _, ok := m.biometrias[biometria.IDBiometria]; ok {
		return ErrYaExiste
	}
	copia := *biometria
	m.biometrias[biometria.IDBiometria] = &copia
	return nil
}

func (m *Memoria) EliminarBiometria(ctx context.Context, idBiometria string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("EliminarBiometria"); err != nil {
		return err
	}
	if _, ok := m.biometrias[idBiometria]; !ok {
		return ErrNoEncontrado
	}
	delete(m.biometrias, idBiometria)
	return nil
}

func (m *Memoria) BiometriasPorPaciente(ctx context.Context, idPaciente int) ([]models.Biometria, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.falla("BiometriasPorPaciente"); err != nil {
		return nil, err
	}
	var biometrias []models.Biometria
	for _, biometria := range m.biometrias {
		if biometria.IDPaciente == idPaciente {
			biometrias = append(biometrias, *biometria)
		}
	}
	sort.Slice(biometrias, func(i, j int) bool { return biometrias[i].IDBiometria < biometrias[j].IDBiometria })
	return biometrias, nil
}

// --- Conteos para pruebas ---

// NumCitas devuelve el total de citas almacenadas
func (m *Memoria) NumCitas() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.citas)
}

// NumConsultas devuelve el total de consultas almacenadas
func (m *Memoria) NumConsultas() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.consultas)
}

// NumRecetas devuelve el total de recetas almacenadas
func (m *Memoria) NumRecetas() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recetas)
}

// NumBiometrias devuelve el total de biometrías almacenadas
func (m *Memoria) NumBiometrias() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.biometrias)
}
