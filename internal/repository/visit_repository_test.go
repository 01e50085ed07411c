package repository

import (
    "errors"
    "fmt"
    "testing"

    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/require"
)

func TestOpenVisitConflictDetected(t *testing.T) {
    err := &mysql.MySQLError{
        Number:  1062,
        Message: "Duplicate entry 'a1b2-...-Y' for key 'visits.uniq_open_visit_per_device'",
    }
    require.True(t, isOpenVisitConflict(err))
}

func TestOpenVisitConflictDetectedWhenWrapped(t *testing.T) {
    inner := &mysql.MySQLError{
        Number:  1062,
        Message: "Duplicate entry 'a1b2-...-Y' for key 'visits.uniq_open_visit_per_device'",
    }
    require.True(t, isOpenVisitConflict(fmt.Errorf("insert visit: %w", inner)))
}

func TestDuplicateKeyOnOtherIndexIsNotAConflict(t *testing.T) {
    // A 1062 on any index other than the open-visit one indicates a
    // schema or logic defect and must surface raw, not as a 409.
    err := &mysql.MySQLError{
        Number:  1062,
        Message: "Duplicate entry 'a1b2' for key 'visits.PRIMARY'",
    }
    require.False(t, isOpenVisitConflict(err))
}

func TestOtherMySQLErrorIsNotAConflict(t *testing.T) {
    err := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
    require.False(t, isOpenVisitConflict(err))
}

func TestNonDriverErrorIsNotAConflict(t *testing.T) {
    require.False(t, isOpenVisitConflict(errors.New("connection refused")))
    require.False(t, isOpenVisitConflict(nil))
}
