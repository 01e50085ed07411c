package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"

    "github.com/arclive/gym-occupancy/internal/model"
)

// openUniqueKey is the name of the uniqueness index scoped to open
// visits (device_id, is_open). A duplicate-key error on this index is
// the expected "already checked in" signal; a duplicate-key error on
// any other index indicates a schema or logic defect and is surfaced
// raw so it is treated as fatal rather than masked as a conflict.
const openUniqueKey = "uniq_open_visit_per_device"

// visitColumns is the canonical column list scanned into model.Visit.
const visitColumns = "id, device_id, check_in_time, check_out_time, exercise_type"

// VisitRepo provides data access to the visits table. It owns the
// lifecycle writes (create, close, expire) and the open-visit reads
// the occupancy endpoints need. All timestamps are stored and
// compared in UTC; the connection is opened with loc=UTC so the
// driver round-trips time.Time values consistently.
type VisitRepo struct {
    db *sql.DB
}

// NewVisitRepo returns a new VisitRepo bound to the given database.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

// Create inserts a new open visit for the device. The one-open-visit
// invariant is enforced by the partial uniqueness index, not by a
// read-then-write check: concurrent creates for the same device are
// serialized by the storage engine and all but one fail with a
// duplicate-key error, which is mapped to ErrDeviceCheckedIn.
func (r *VisitRepo) Create(ctx context.Context, deviceID uuid.UUID, exercise *model.ExerciseType, checkIn time.Time) (*model.Visit, error) {
    id := uuid.New()
    var ex interface{}
    if exercise != nil {
        ex = string(*exercise)
    }
    const q = `INSERT INTO visits (id, device_id, check_in_time, exercise_type) VALUES (?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, id.String(), deviceID.String(), checkIn.UTC(), ex)
    if err != nil {
        if isOpenVisitConflict(err) {
            return nil, ErrDeviceCheckedIn
        }
        return nil, err
    }
    v := &model.Visit{
        ID:           id,
        DeviceID:     deviceID,
        CheckInTime:  checkIn.UTC(),
        ExerciseType: exercise,
    }
    return v, nil
}

// FindOpenForUpdateTx locates the open visit for a device and acquires
// an exclusive row lock for the duration of the enclosing transaction.
// Concurrent closers of the same row block until the transaction
// commits or rolls back. Returns (nil, nil) when no open visit exists.
func (r *VisitRepo) FindOpenForUpdateTx(ctx context.Context, tx *sql.Tx, deviceID uuid.UUID) (*model.Visit, error) {
    const q = `SELECT ` + visitColumns + `
               FROM visits
               WHERE device_id = ? AND check_out_time IS NULL
               FOR UPDATE`
    v, err := scanVisit(tx.QueryRowContext(ctx, q, deviceID.String()))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return v, nil
}

// CloseTx sets the visit's check-out time. The caller must hold the
// row lock from FindOpenForUpdateTx. The check_out_time IS NULL guard
// makes the close a one-way transition even if the lock discipline is
// ever violated: zero rows affected means the visit was already
// closed, reported as ErrNoActiveVisit.
func (r *VisitRepo) CloseTx(ctx context.Context, tx *sql.Tx, visitID uuid.UUID, checkOut time.Time) error {
    const q = `UPDATE visits SET check_out_time = ? WHERE id = ? AND check_out_time IS NULL`
    res, err := tx.ExecContext(ctx, q, checkOut.UTC(), visitID.String())
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNoActiveVisit
    }
    return nil
}

// CheckOut closes the device's open visit at the given time inside a
// single transaction: the open row is locked with FindOpenForUpdateTx,
// closed with CloseTx and committed. Two concurrent check-outs for the
// same device serialize on the row lock; the one that loses the race
// observes the committed close and gets ErrNoActiveVisit, as does a
// check-out for a device with no open visit at all.
func (r *VisitRepo) CheckOut(ctx context.Context, deviceID uuid.UUID, checkOut time.Time) (*model.Visit, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    visit, err := r.FindOpenForUpdateTx(ctx, tx, deviceID)
    if err != nil {
        return nil, err
    }
    if visit == nil {
        return nil, ErrNoActiveVisit
    }
    if err := r.CloseTx(ctx, tx, visit.ID, checkOut); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    out := checkOut.UTC()
    visit.CheckOutTime = &out
    return visit, nil
}

// CountOpen returns the number of currently open visits. The query
// filters on the is_open generated column so the partial uniqueness
// index serves the scan instead of a full table walk.
func (r *VisitRepo) CountOpen(ctx context.Context) (int, error) {
    const q = `SELECT COUNT(*) FROM visits WHERE is_open = 'Y'`
    var n int
    if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// CountOpenByExercise returns open-visit counts grouped by exercise
// type. Open visits without an exercise type are omitted; the service
// layer zero-fills the known categories.
func (r *VisitRepo) CountOpenByExercise(ctx context.Context) (map[model.ExerciseType]int, error) {
    const q = `SELECT exercise_type, COUNT(*)
               FROM visits
               WHERE is_open = 'Y' AND exercise_type IS NOT NULL
               GROUP BY exercise_type`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    counts := make(map[model.ExerciseType]int)
    for rows.Next() {
        var ex string
        var n int
        if err := rows.Scan(&ex, &n); err != nil {
            return nil, err
        }
        counts[model.ExerciseType(ex)] = n
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return counts, nil
}

// ExpireBefore force-closes every open visit checked in before the
// cutoff, committing all closes as a single batch. Rows are locked
// before the update so a concurrent check-out of the same visit
// serializes with the sweep; the check_out_time IS NULL guard on the
// update means whichever close commits first wins and the other is a
// no-op. Returns the visits that were actually closed.
func (r *VisitRepo) ExpireBefore(ctx context.Context, cutoff, closedAt time.Time) ([]model.Visit, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const sel = `SELECT ` + visitColumns + `
                 FROM visits
                 WHERE check_out_time IS NULL AND check_in_time < ?
                 FOR UPDATE`
    rows, err := tx.QueryContext(ctx, sel, cutoff.UTC())
    if err != nil {
        return nil, err
    }
    stale, err := collectVisits(rows)
    if cerr := rows.Close(); err == nil {
        err = cerr
    }
    if err != nil {
        return nil, err
    }
    if len(stale) == 0 {
        // Nothing to do; commit to release the gap locks promptly.
        if err := tx.Commit(); err != nil {
            return nil, err
        }
        committed = true
        return []model.Visit{}, nil
    }

    query := `UPDATE visits SET check_out_time = ? WHERE check_out_time IS NULL AND id IN (`
    args := make([]interface{}, 0, len(stale)+1)
    args = append(args, closedAt.UTC())
    for i, v := range stale {
        if i > 0 {
            query += ","
        }
        query += "?"
        args = append(args, v.ID.String())
    }
    query += ")"
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    out := closedAt.UTC()
    for i := range stale {
        t := out
        stale[i].CheckOutTime = &t
    }
    return stale, nil
}

// isOpenVisitConflict reports whether err is a duplicate-key error on
// the open-visit uniqueness index, i.e. the device already has an open
// visit. A 1062 on any other index returns false so it surfaces raw.
func isOpenVisitConflict(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062 && strings.Contains(me.Message, openUniqueKey)
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanVisit.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

// scanVisit reads one visits row into a model.Visit, converting the
// CHAR(36) identifiers and nullable columns.
func scanVisit(row rowScanner) (*model.Visit, error) {
    var (
        idStr    string
        devStr   string
        checkIn  time.Time
        checkOut sql.NullTime
        exercise sql.NullString
    )
    if err := row.Scan(&idStr, &devStr, &checkIn, &checkOut, &exercise); err != nil {
        return nil, err
    }
    id, err := uuid.Parse(idStr)
    if err != nil {
        return nil, err
    }
    dev, err := uuid.Parse(devStr)
    if err != nil {
        return nil, err
    }
    v := &model.Visit{ID: id, DeviceID: dev, CheckInTime: checkIn.UTC()}
    if checkOut.Valid {
        t := checkOut.Time.UTC()
        v.CheckOutTime = &t
    }
    if exercise.Valid {
        ex := model.ExerciseType(exercise.String)
        v.ExerciseType = &ex
    }
    return v, nil
}

// collectVisits drains rows into a slice, closing nothing; the caller
// owns the rows' lifetime via defer.
func collectVisits(rows *sql.Rows) ([]model.Visit, error) {
    var visits []model.Visit
    for rows.Next() {
        v, err := scanVisit(rows)
        if err != nil {
            return nil, err
        }
        visits = append(visits, *v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return visits, nil
}
