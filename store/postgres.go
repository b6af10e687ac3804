// Copyright 2025 DreamTrip
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/lib/pq"

	"dreamtrip/platform/shared/types"
)

// PostgresStore implements PlanStore over PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewPostgresStore opens a pooled connection to PostgreSQL and verifies it
func NewPostgresStore(ctx context.Context, connectionURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionURL)
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}

	// Pool sizing mirrors the downstream call volume: four sub-result writes
	// per plan plus the read path.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}

	s := &PostgresStore{
		db:     db,
		logger: log.New(os.Stdout, "[STORE] ", log.LstdFlags),
	}
	s.logger.Printf("Connected to PostgreSQL (max_conns=25)")
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing connection (used by tests)
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.New(os.Stdout, "[STORE] ", log.LstdFlags),
	}
}

// schemaDDL creates the plan table and the four sub-result tables. The 1:1
// children (routes, ai_summaries) carry UNIQUE(trip_plan_id) so repeat saves
// upsert instead of duplicating.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS trip_plans (
	id BIGINT PRIMARY KEY,
	user_id BIGINT NOT NULL DEFAULT 1,
	origin VARCHAR(100) NOT NULL,
	destination VARCHAR(100) NOT NULL,
	preferences TEXT[] NOT NULL DEFAULT '{}',
	duration INTEGER NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_trip_plans_user ON trip_plans (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS routes (
	id BIGSERIAL PRIMARY KEY,
	trip_plan_id BIGINT NOT NULL UNIQUE REFERENCES trip_plans(id),
	origin VARCHAR(100) NOT NULL,
	destination VARCHAR(100) NOT NULL,
	distance VARCHAR(50),
	duration VARCHAR(50),
	steps TEXT[],
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS weather_forecasts (
	id BIGSERIAL PRIMARY KEY,
	trip_plan_id BIGINT NOT NULL REFERENCES trip_plans(id),
	location VARCHAR(100) NOT NULL,
	date VARCHAR(20) NOT NULL,
	temperature_min DOUBLE PRECISION,
	temperature_max DOUBLE PRECISION,
	condition VARCHAR(50),
	humidity INTEGER,
	wind_speed DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_weather_plan ON weather_forecasts (trip_plan_id);

CREATE TABLE IF NOT EXISTS pois (
	id BIGSERIAL PRIMARY KEY,
	trip_plan_id BIGINT NOT NULL REFERENCES trip_plans(id),
	name VARCHAR(200) NOT NULL,
	category VARCHAR(50),
	rating DOUBLE PRECISION,
	address TEXT,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	description TEXT,
	price_level INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pois_plan ON pois (trip_plan_id);

CREATE TABLE IF NOT EXISTS ai_summaries (
	id BIGSERIAL PRIMARY KEY,
	trip_plan_id BIGINT NOT NULL UNIQUE REFERENCES trip_plans(id),
	summary TEXT NOT NULL,
	recommendations TEXT,
	tips TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// InitSchema creates the tables if they do not exist
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return &StoreError{Op: "init schema", Err: err}
	}
	s.logger.Printf("Schema initialized")
	return nil
}

// Create inserts a new plan with status pending and returns its id
func (s *PostgresStore) Create(ctx context.Context, req types.TripRequest) (int64, error) {
	planID := NewPlanID()
	userID := req.UserID
	if userID == 0 {
		userID = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trip_plans (id, user_id, origin, destination, preferences, duration, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		planID, userID, req.Origin, req.Destination,
		pq.Array(req.Preferences), req.Duration, types.StatusPending)
	if err != nil {
		return 0, &StoreError{Op: "create plan", Err: err}
	}

	s.logger.Printf("Created trip plan %d (%s -> %s)", planID, req.Origin, req.Destination)
	return planID, nil
}

// UpdateStatus sets the plan status and bumps updated_at
func (s *PostgresStore) UpdateStatus(ctx context.Context, planID int64, status types.Status) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE trip_plans SET status = $2, updated_at = NOW() WHERE id = $1`,
		planID, status)
	if err != nil {
		return &StoreError{Op: "update status", Err: err}
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRoute upserts the route sub-result
func (s *PostgresStore) SaveRoute(ctx context.Context, planID int64, route types.Route) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO routes (trip_plan_id, origin, destination, distance, duration, steps)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (trip_plan_id) DO UPDATE SET
			origin = EXCLUDED.origin,
			destination = EXCLUDED.destination,
			distance = EXCLUDED.distance,
			duration = EXCLUDED.duration,
			steps = EXCLUDED.steps`,
		planID, route.Origin, route.Destination, route.Distance, route.Duration,
		pq.Array(route.Steps))
	if err != nil {
		return &StoreError{Op: "save route", Err: err}
	}
	return nil
}

// SaveWeather replaces the plan's forecast set inside one transaction
func (s *PostgresStore) SaveWeather(ctx context.Context, planID int64, location string, forecasts []types.WeatherForecast) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "save weather", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM weather_forecasts WHERE trip_plan_id = $1`, planID); err != nil {
		return &StoreError{Op: "save weather", Err: err}
	}

	for _, f := range forecasts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO weather_forecasts
				(trip_plan_id, location, date, temperature_min, temperature_max, condition, humidity, wind_speed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			planID, location, f.Date, f.TemperatureMin, f.TemperatureMax,
			f.Condition, f.Humidity, f.WindSpeed); err != nil {
			return &StoreError{Op: "save weather", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "save weather", Err: err}
	}
	return nil
}

// SavePOIs replaces the plan's POI set inside one transaction
func (s *PostgresStore) SavePOIs(ctx context.Context, planID int64, pois []types.POI) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "save pois", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pois WHERE trip_plan_id = $1`, planID); err != nil {
		return &StoreError{Op: "save pois", Err: err}
	}

	for _, p := range pois {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pois
				(trip_plan_id, name, category, rating, address, latitude, longitude, description, price_level)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			planID, p.Name, p.Category, p.Rating, p.Address,
			p.Latitude, p.Longitude, p.Description, p.PriceLevel); err != nil {
			return &StoreError{Op: "save pois", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "save pois", Err: err}
	}
	return nil
}

// SaveSummary upserts the AI summary sub-result
func (s *PostgresStore) SaveSummary(ctx context.Context, planID int64, summary types.AISummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_summaries (trip_plan_id, summary, recommendations, tips)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (trip_plan_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			recommendations = EXCLUDED.recommendations,
			tips = EXCLUDED.tips`,
		planID, summary.Summary, summary.Recommendations, summary.Tips)
	if err != nil {
		return &StoreError{Op: "save summary", Err: err}
	}
	return nil
}

// Get returns the plan aggregate with whichever sub-results exist.
//
// One query per table keeps the scanning straightforward; the plan row is
// read first so a missing plan short-circuits to ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, planID int64) (*types.TripAggregate, error) {
	agg := &types.TripAggregate{}
	var prefs pq.StringArray

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, origin, destination, preferences, duration, status, created_at
		 FROM trip_plans WHERE id = $1`, planID).Scan(
		&agg.TripID, &agg.UserID, &agg.Origin, &agg.Destination,
		&prefs, &agg.Duration, &agg.Status, &agg.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "get plan", Err: err}
	}
	agg.Preferences = prefs

	route, err := s.getRoute(ctx, planID)
	if err != nil {
		return nil, err
	}
	agg.Route = route

	weather, err := s.getWeather(ctx, planID)
	if err != nil {
		return nil, err
	}
	agg.Weather = weather

	pois, err := s.getPOIs(ctx, planID)
	if err != nil {
		return nil, err
	}
	agg.POIs = pois

	summary, err := s.getSummary(ctx, planID)
	if err != nil {
		return nil, err
	}
	agg.AISummary = summary

	return agg, nil
}

func (s *PostgresStore) getRoute(ctx context.Context, planID int64) (*types.Route, error) {
	var r types.Route
	var steps pq.StringArray
	err := s.db.QueryRowContext(ctx,
		`SELECT origin, destination, distance, duration, steps
		 FROM routes WHERE trip_plan_id = $1`, planID).Scan(
		&r.Origin, &r.Destination, &r.Distance, &r.Duration, &steps)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "get route", Err: err}
	}
	r.Steps = steps
	return &r, nil
}

func (s *PostgresStore) getWeather(ctx context.Context, planID int64) ([]types.WeatherForecast, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, temperature_min, temperature_max, condition, humidity, wind_speed
		 FROM weather_forecasts WHERE trip_plan_id = $1 ORDER BY date, id`, planID)
	if err != nil {
		return nil, &StoreError{Op: "get weather", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var forecasts []types.WeatherForecast
	for rows.Next() {
		var f types.WeatherForecast
		if err := rows.Scan(&f.Date, &f.TemperatureMin, &f.TemperatureMax,
			&f.Condition, &f.Humidity, &f.WindSpeed); err != nil {
			return nil, &StoreError{Op: "get weather", Err: err}
		}
		forecasts = append(forecasts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "get weather", Err: err}
	}
	return forecasts, nil
}

func (s *PostgresStore) getPOIs(ctx context.Context, planID int64) ([]types.POI, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, category, rating, address, latitude, longitude, description, price_level
		 FROM pois WHERE trip_plan_id = $1 ORDER BY rating DESC, id`, planID)
	if err != nil {
		return nil, &StoreError{Op: "get pois", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var pois []types.POI
	for rows.Next() {
		var p types.POI
		if err := rows.Scan(&p.Name, &p.Category, &p.Rating, &p.Address,
			&p.Latitude, &p.Longitude, &p.Description, &p.PriceLevel); err != nil {
			return nil, &StoreError{Op: "get pois", Err: err}
		}
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "get pois", Err: err}
	}
	return pois, nil
}

func (s *PostgresStore) getSummary(ctx context.Context, planID int64) (*types.AISummary, error) {
	var a types.AISummary
	err := s.db.QueryRowContext(ctx,
		`SELECT summary, recommendations, tips FROM ai_summaries WHERE trip_plan_id = $1`,
		planID).Scan(&a.Summary, &a.Recommendations, &a.Tips)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "get summary", Err: err}
	}
	return &a, nil
}

// ListByUser returns the user's plans, most recent first
func (s *PostgresStore) ListByUser(ctx context.Context, userID int64, limit int) ([]types.TripPlan, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, origin, destination, preferences, duration, status, created_at, updated_at
		 FROM trip_plans WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, &StoreError{Op: "list by user", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var plans []types.TripPlan
	for rows.Next() {
		var p types.TripPlan
		var prefs pq.StringArray
		if err := rows.Scan(&p.ID, &p.UserID, &p.Origin, &p.Destination,
			&prefs, &p.Duration, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, &StoreError{Op: "list by user", Err: err}
		}
		p.Preferences = prefs
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list by user", Err: err}
	}
	return plans, nil
}

// Ping reports whether the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
