package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/facelog/internal/config"
	"github.com/your-org/facelog/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the cameras, persons and face_logs tables if they are
// missing. Production databases already have them; this is for local setups.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS cameras (
	name TEXT PRIMARY KEY,
	zone_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS persons (
	id BIGSERIAL PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS face_logs (
	id BIGSERIAL PRIMARY KEY,
	creation_time TIMESTAMP NOT NULL,
	age INT,
	"calibratedScore" DOUBLE PRECISION NOT NULL DEFAULT 0,
	camera_name TEXT NOT NULL,
	data TEXT,
	gender TEXT,
	image TEXT,
	out_time TIMESTAMP,
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	unknown_person_id BIGINT,
	zone_name TEXT NOT NULL,
	person BIGINT
);

CREATE INDEX IF NOT EXISTS face_logs_creation_time_idx ON face_logs (creation_time DESC);
`

// --- Cameras ---

func (s *PostgresStore) ListCameras(ctx context.Context) ([]models.Camera, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, zone_name FROM cameras ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []models.Camera
	for rows.Next() {
		var c models.Camera
		if err := rows.Scan(&c.Name, &c.ZoneName); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	return cameras, nil
}

// --- Persons ---

// ListPersonIDs returns every person id in ascending order, so the last
// element is the highest id.
func (s *PostgresStore) ListPersonIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM persons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	return ids, nil
}

// --- Face Logs ---

const insertFaceLog = `
	INSERT INTO face_logs
		(creation_time, age, "calibratedScore", camera_name, data, gender, image, out_time, score, unknown_person_id, zone_name, person)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// InsertFaceLog writes one face log in its own transaction and returns the
// number of rows affected.
func (s *PostgresStore) InsertFaceLog(ctx context.Context, fl *models.FaceLog) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin face log tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, insertFaceLog,
		fl.CreationTime, fl.Age, fl.CalibratedScore, fl.CameraName, fl.Data, fl.Gender,
		fl.Image, fl.OutTime, fl.Score, fl.UnknownPersonID, fl.ZoneName, fl.PersonID)
	if err != nil {
		return 0, fmt.Errorf("insert face log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit face log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FaceLogQuery filters RecentFaceLogs. A nil Known returns both kinds.
type FaceLogQuery struct {
	Limit    int
	Known    *bool
	ZoneName string
}

const (
	defaultFaceLogLimit = 50
	maxFaceLogLimit     = 500
)

func (q FaceLogQuery) limit() int {
	switch {
	case q.Limit <= 0:
		return defaultFaceLogLimit
	case q.Limit > maxFaceLogLimit:
		return maxFaceLogLimit
	default:
		return q.Limit
	}
}

// RecentFaceLogs returns face logs newest first.
func (s *PostgresStore) RecentFaceLogs(ctx context.Context, q FaceLogQuery) ([]models.FaceLog, error) {
	where := "WHERE TRUE"
	args := []interface{}{}
	argIdx := 1

	if q.Known != nil {
		if *q.Known {
			where += " AND person IS NOT NULL"
		} else {
			where += " AND person IS NULL"
		}
	}
	if q.ZoneName != "" {
		where += fmt.Sprintf(" AND zone_name = $%d", argIdx)
		args = append(args, q.ZoneName)
		argIdx++
	}

	query := fmt.Sprintf(
		`SELECT id, creation_time, age, "calibratedScore", camera_name, COALESCE(data, ''), gender,
		        COALESCE(image, ''), out_time, score, unknown_person_id, zone_name, person
		 FROM face_logs %s ORDER BY creation_time DESC, id DESC LIMIT $%d`,
		where, argIdx)
	args = append(args, q.limit())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query face logs: %w", err)
	}
	defer rows.Close()

	var logs []models.FaceLog
	for rows.Next() {
		var fl models.FaceLog
		var unknownID *int64
		if err := rows.Scan(&fl.ID, &fl.CreationTime, &fl.Age, &fl.CalibratedScore, &fl.CameraName,
			&fl.Data, &fl.Gender, &fl.Image, &fl.OutTime, &fl.Score, &unknownID, &fl.ZoneName, &fl.PersonID); err != nil {
			return nil, fmt.Errorf("scan face log: %w", err)
		}
		if unknownID != nil {
			fl.UnknownPersonID = *unknownID
		}
		logs = append(logs, fl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query face logs: %w", err)
	}
	return logs, nil
}
