package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"assaylab/internal/domain"
	"assaylab/internal/port"
)

type labResultRepo struct {
	db *sqlx.DB
}

// NewLabResultRepo creates a new PostgreSQL-backed LabResultRepository.
func NewLabResultRepo(db *sqlx.DB) port.LabResultRepository {
	return &labResultRepo{db: db}
}

const resultColumns = `lr.id, lr.lab_request_id, lr.sample_id,
		COALESCE(to_char(lr.time_of_day, 'HH24:MI'), '') AS time_of_day,
		lr.mn, lr.sol_mn, lr.fe, lr.b, lr.mno2, lr.sio2, lr.al2o3, lr.mgo,
		lr.cao, lr.au, lr.h2o, lr.mg, lr.p, lr.arsenic,
		rq.job_number, rq.production_date, rq.date_reported, rq.plant_source_id,
		ps.plant_source_name, lr.is_active, lr.created_at`

const requestColumns = `rq.id, rq.job_number, rq.request_date, rq.production_date, rq.date_reported,
		rq.plant_source_id, ps.plant_source_name, rq.department_id, rq.client_id,
		COALESCE(rq.description, '') AS description, rq.number_of_samples,
		COALESCE(to_char(rq.time_received, 'HH24:MI'), '') AS time_received,
		rq.delivered_by_id, rq.received_by_id, rq.prepared_by_id, rq.weighed_by_id,
		rq.digested_by_id, rq.titrated_by_id, rq.entered_by_id,
		rq.is_active, rq.created_at, rq.updated_at`

// buildWhereClause constructs the WHERE clause shared by result and request queries.
// Production date is matched against the half-open range [From, Until).
func buildWhereClause(filter domain.ResultFilter) (clause string, args []interface{}) {
	args = []interface{}{filter.From, filter.Until}
	clause = "WHERE rq.production_date >= $1 AND rq.production_date < $2"
	argN := 3

	if len(filter.PlantIDs) > 0 {
		var in string
		in, args, argN = inList(filter.PlantIDs, args, argN)
		clause += " AND rq.plant_source_id IN (" + in + ")"
	}
	if filter.JobNumber != "" {
		clause += fmt.Sprintf(" AND rq.job_number = $%d", argN)
		args = append(args, filter.JobNumber)
		argN++ //nolint:ineffassign // argN kept incremented for consistency
	}

	return clause, args
}

// inList renders one positional placeholder per id, starting at argN.
func inList(ids []int64, args []interface{}, argN int) (placeholders string, outArgs []interface{}, nextN int) {
	ph := make([]string, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", argN)
		args = append(args, id)
		argN++
	}
	return strings.Join(ph, ", "), args, argN
}

func (r *labResultRepo) ListResults(ctx context.Context, filter domain.ResultFilter) ([]domain.LabResult, error) {
	whereClause, args := buildWhereClause(filter)

	query := fmt.Sprintf(`SELECT %s
	FROM lab_results lr
	JOIN lab_requests rq ON rq.id = lr.lab_request_id
	JOIN plant_sources ps ON ps.id = rq.plant_source_id
	%s
	ORDER BY rq.production_date, ps.plant_source_name, rq.job_number, lr.sample_id, lr.id`, resultColumns, whereClause)

	var rows []domain.LabResult
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("labResultRepo.ListResults: %w", err)
	}
	return rows, nil
}

func (r *labResultRepo) ListRequests(ctx context.Context, filter domain.ResultFilter) ([]domain.LabRequest, error) {
	whereClause, args := buildWhereClause(filter)

	query := fmt.Sprintf(`SELECT %s
	FROM lab_requests rq
	JOIN plant_sources ps ON ps.id = rq.plant_source_id
	%s
	ORDER BY rq.production_date, rq.id`, requestColumns, whereClause)

	var rows []domain.LabRequest
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("labResultRepo.ListRequests: %w", err)
	}
	return rows, nil
}

func (r *labResultRepo) ListPlantSources(ctx context.Context, ids []int64) ([]domain.PlantSource, error) {
	query := `SELECT id, plant_source_name,
		COALESCE(plant_source_description, '') AS plant_source_description,
		is_active, created_at, updated_at
	FROM plant_sources`

	var args []interface{}
	if len(ids) > 0 {
		var in string
		in, args, _ = inList(ids, nil, 1)
		query += " WHERE id IN (" + in + ")"
	}
	query += " ORDER BY plant_source_name, id"

	var rows []domain.PlantSource
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("labResultRepo.ListPlantSources: %w", err)
	}
	return rows, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *labResultRepo) SearchJobNumbers(ctx context.Context, term string, limit int) ([]string, error) {
	query := `SELECT DISTINCT job_number
	FROM lab_requests
	WHERE job_number ILIKE $1
	ORDER BY job_number
	LIMIT $2`

	var jobs []string
	if err := sqlx.SelectContext(ctx, r.db, &jobs, query, "%"+likeEscaper.Replace(term)+"%", limit); err != nil {
		return nil, fmt.Errorf("labResultRepo.SearchJobNumbers: %w", err)
	}
	return jobs, nil
}
