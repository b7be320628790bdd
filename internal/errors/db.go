package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// reKeyField extracts the column list from "Key (field)=(value) already exists.".
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// reReferencedFrom matches a parent row still in use.
	reReferencedFrom = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// reNotPresent matches a child row pointing at a missing parent.
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// Conflict messages shown for the unique constraints members can trip.
const (
	MsgUsernameTaken     = "This username is already taken. Please choose another."
	MsgAlreadyRegistered = "Already registered"
	MsgEmailTaken        = "An account with this email already exists."
	MsgOmangTaken        = "This Omang number is already registered."
	msgDefaultConflict   = "This value already exists. Please choose a different one."
	msgDefaultForeignKey = "Cannot complete operation because this item is in use."
	msgDatabaseError     = "A database error occurred. Please try again."
)

// uniqueConstraints maps constraint names to the field and message users see.
var uniqueConstraints = map[string]struct{ field, message string }{
	"profiles_username_key":            {"username", MsgUsernameTaken},
	"accounts_email_key":               {"email", MsgEmailTaken},
	"user_games_user_id_game_id_key":   {"game_id", MsgAlreadyRegistered},
	"user_events_user_id_event_id_key": {"event_id", MsgAlreadyRegistered},
	"gamers_omang_digest_key":          {"omang_number", MsgOmangTaken},
}

// MapDBError maps pgx and Postgres errors to AppError:
// pgx.ErrNoRows to NotFound, unique violations to Conflict, foreign keys to ForeignKey,
// check and not-null violations to Validation, and context errors to Timeout/Canceled.
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return mapUniqueViolation(pgErr)
	case pgerrcode.ForeignKeyViolation:
		return &AppError{Code: ErrCodeForeignKey, Message: foreignKeyMessage(pgErr), Cause: pgErr}
	case pgerrcode.CheckViolation:
		return validationFromPg(pgErr, "This field has an invalid value.", "Invalid data. Please check your input.")
	case pgerrcode.NotNullViolation:
		return validationFromPg(pgErr, "This field is required.", "Required field is missing. Please check your input.")
	default:
		return Wrap(pgErr, ErrCodeInternal, msgDatabaseError)
	}
}

func mapUniqueViolation(pgErr *pgconn.PgError) error {
	if known, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
		return &AppError{Code: ErrCodeConflict, Message: known.message, Field: known.field, Cause: pgErr}
	}

	field := pgErr.ColumnName
	if field == "" && pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	if field == "" {
		field = inferFieldFromConstraint(pgErr.ConstraintName)
	}
	return &AppError{Code: ErrCodeConflict, Message: msgDefaultConflict, Field: field, Cause: pgErr}
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := reReferencedFrom.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "Cannot delete because this item is in use by " + tableLabel(m[1]) + "."
	}
	if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "Cannot complete operation because the referenced " + tableLabel(m[1]) + " does not exist."
	}
	if pgErr.TableName != "" {
		return "Cannot complete operation because this item is in use by " + tableLabel(pgErr.TableName) + "."
	}
	return msgDefaultForeignKey
}

func validationFromPg(pgErr *pgconn.PgError, fieldMsg, genericMsg string) error {
	if pgErr.ColumnName != "" {
		return &AppError{Code: ErrCodeValidation, Message: fieldMsg, Field: pgErr.ColumnName, Cause: pgErr}
	}
	return &AppError{Code: ErrCodeValidation, Message: genericMsg, Cause: pgErr}
}

// inferFieldFromConstraint reads the middle segment of "table_field_key" style names.
// Multi-column and expression indexes yield "".
func inferFieldFromConstraint(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return ""
	}
	switch strings.ToLower(parts[1]) {
	case "lower", "upper", "trim", "md5":
		return ""
	}
	return parts[1]
}

var tableLabels = map[string]string{
	"profiles":      "Profile",
	"accounts":      "Account",
	"games":         "Game",
	"events":        "Event",
	"user_games":    "Game Registration",
	"user_events":   "Event Registration",
	"gamers":        "Gamer",
	"gamer_games":   "Gamer Registration",
	"activity_logs": "Activity Log",
}

func tableLabel(table string) string {
	t := strings.ToLower(strings.TrimSpace(table))
	if label, ok := tableLabels[t]; ok {
		return label
	}
	return strings.ReplaceAll(t, "_", " ")
}
