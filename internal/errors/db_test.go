package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextAndNoRows(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"deadline exceeded", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"no rows", pgx.ErrNoRows, ErrCodeNotFound},
		{"wrapped no rows", fmt.Errorf("get profile: %w", pgx.ErrNoRows), ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("cause not preserved")
			}
		})
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
		wantMsg   string
	}{
		{
			name:      "username taken",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "profiles_username_key"},
			wantField: "username",
			wantMsg:   MsgUsernameTaken,
		},
		{
			name:      "duplicate event registration",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "user_events_user_id_event_id_key"},
			wantField: "event_id",
			wantMsg:   MsgAlreadyRegistered,
		},
		{
			name:      "column metadata",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "slug"},
			wantField: "slug",
			wantMsg:   msgDefaultConflict,
		},
		{
			name: "detail parsing",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (title)=(Finals) already exists.",
			},
			wantField: "title",
			wantMsg:   msgDefaultConflict,
		},
		{
			name:      "constraint inference",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "games_name_key"},
			wantField: "name",
			wantMsg:   msgDefaultConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("expected conflict, got %v", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if got := Message(err, ""); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name         string
		pgErr        *pgconn.PgError
		wantContains string
	}{
		{
			name: "missing parent",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (game_id)=(abc) is not present in table "games".`,
			},
			wantContains: "referenced Game does not exist",
		},
		{
			name: "parent in use",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(abc) is still referenced from table "user_events".`,
			},
			wantContains: "in use by Event Registration",
		},
		{
			name:         "table fallback",
			pgErr:        &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "gamer_games"},
			wantContains: "Gamer Registration",
		},
		{
			name:         "generic",
			pgErr:        &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			wantContains: "in use",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsForeignKey(err) {
				t.Fatalf("expected foreign key, got %v", GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("message %q does not contain %q", err.Error(), tt.wantContains)
			}
		})
	}
}

func TestMapDBError_ValidationViolations(t *testing.T) {
	notNull := MapDBError(&pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "gamer_tag"})
	if !IsValidation(notNull) || GetField(notNull) != "gamer_tag" {
		t.Errorf("not null: code=%v field=%q", GetCode(notNull), GetField(notNull))
	}
	check := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
	if !IsValidation(check) || GetField(check) != "" {
		t.Errorf("check: code=%v field=%q", GetCode(check), GetField(check))
	}
}

func TestMapDBError_Passthrough(t *testing.T) {
	unknown := MapDBError(&pgconn.PgError{Code: pgerrcode.SerializationFailure})
	if !IsInternal(unknown) {
		t.Errorf("unknown pg error should be internal, got %v", GetCode(unknown))
	}
	plain := errors.New("boom")
	if got := MapDBError(plain); !errors.Is(got, plain) || GetCode(got) != "" {
		t.Errorf("plain error should pass through unchanged, got %v", got)
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := map[string]string{
		"games_name_key":                 "name",
		"profiles_lower_key":             "",
		"user_games_user_id_game_id_key": "",
		"":                               "",
	}
	for in, want := range tests {
		if got := inferFieldFromConstraint(in); got != want {
			t.Errorf("inferFieldFromConstraint(%q) = %q, want %q", in, got, want)
		}
	}
}
