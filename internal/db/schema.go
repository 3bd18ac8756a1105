package db

// Schema contains all SQL statements for creating tables and indexes.
//
// Timestamps are stored as integer seconds since the unix epoch, in UTC.
// Deleting a workout cascades to its sets; deleting an exercise that is
// still referenced by sets is restricted.
const Schema = `
CREATE TABLE IF NOT EXISTS exercise (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workout (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_utc_s INTEGER NOT NULL,
    note TEXT
);

CREATE TABLE IF NOT EXISTS exercise_set (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    exercise_id INTEGER NOT NULL,
    workout_id INTEGER NOT NULL,
    created_utc_s INTEGER NOT NULL,
    repetitions INTEGER NOT NULL DEFAULT 0,
    weight INTEGER NOT NULL DEFAULT 0,
    note TEXT,

    FOREIGN KEY (exercise_id) REFERENCES exercise(id) ON DELETE RESTRICT,
    FOREIGN KEY (workout_id) REFERENCES workout(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_exercise_set_workout ON exercise_set(workout_id);
CREATE INDEX IF NOT EXISTS idx_exercise_set_exercise ON exercise_set(exercise_id);
CREATE INDEX IF NOT EXISTS idx_exercise_set_created ON exercise_set(created_utc_s);
CREATE INDEX IF NOT EXISTS idx_workout_started ON workout(started_utc_s);
`
