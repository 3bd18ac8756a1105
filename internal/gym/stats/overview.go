package stats

import (
	"context"
	"database/sql"
	"fmt"

	"traintrack/internal/telemetry/tracing"
)

// Overview summarizes all logged history. Workouts without any sets do
// not count towards the workout and duration figures.
type Overview struct {
	TotalWorkouts        int64 `json:"totalWorkouts"`
	TotalDurationSeconds int64 `json:"totalDurationSeconds"`
	AvgDurationSeconds   int64 `json:"avgDurationSeconds"`
	TotalSets            int64 `json:"totalSets"`
	TotalRepetitions     int64 `json:"totalRepetitions"`
	AvgRepetitionsPerSet int64 `json:"avgRepetitionsPerSet"`
}

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{
		db: db,
	}
}

// Overview computes the summary over all workouts and sets. A workout's
// duration runs from its start to the creation of its latest set. With
// no counted workouts all figures are zero.
func (r *Repo) Overview(ctx context.Context) (_ Overview, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.stats.overview")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var o Overview

	rows, err := r.db.QueryContext(ctx, `
		SELECT w.started_utc_s, MAX(s.created_utc_s)
		FROM workout w
		JOIN exercise_set s ON s.workout_id = w.id
		GROUP BY w.id`,
	)
	if err != nil {
		return Overview{}, fmt.Errorf("stats overview, workout durations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var startedUTC, lastSetUTC int64
		if err := rows.Scan(&startedUTC, &lastSetUTC); err != nil {
			return Overview{}, fmt.Errorf("stats overview, scan row: %w", err)
		}
		o.TotalWorkouts++
		o.TotalDurationSeconds += lastSetUTC - startedUTC
	}
	if err := rows.Err(); err != nil {
		return Overview{}, fmt.Errorf("stats overview, rows: %w", err)
	}

	if o.TotalWorkouts == 0 {
		return Overview{}, nil
	}

	o.AvgDurationSeconds = o.TotalDurationSeconds / o.TotalWorkouts

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(repetitions), 0), COALESCE(CAST(AVG(repetitions) AS INTEGER), 0)
		FROM exercise_set`,
	).Scan(&o.TotalSets, &o.TotalRepetitions, &o.AvgRepetitionsPerSet)
	if err != nil {
		return Overview{}, fmt.Errorf("stats overview, set totals: %w", err)
	}

	return o, nil
}
