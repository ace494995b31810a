// Package sync moves per-table deltas between mobile clients and the server
// database. Pulls gather rows created, updated, and soft-deleted since the
// client's last sync; pushes normalize incoming payloads and write them back
// inside one transaction.
package sync

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hikmahealth/healthsync/healthsync/entity"
	"github.com/hikmahealth/healthsync/healthsync/filters"
	"github.com/hikmahealth/healthsync/healthsync/session"
	"github.com/hikmahealth/healthsync/healthsync/strcase"
	"github.com/hikmahealth/healthsync/healthsync/uuidutil"
)

// Action identifies the kind of change a client pushes up.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// DeltaData carries the rows that changed since a client's last sync.
type DeltaData struct {
	Created []map[string]any
	Updated []map[string]any
	Deleted []string
}

func (d *DeltaData) IsEmpty() bool {
	return len(d.Created) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

// Transform converts a client payload into column values ready to persist.
// Returning nil data skips the record without error.
type Transform func(action Action, data map[string]any) (map[string]any, error)

// Puller reads server-side changes for one table.
type Puller struct {
	table string
}

func NewPuller(table string) *Puller {
	return &Puller{table: table}
}

// NewPullerFor derives the table from the entity.
func NewPullerFor(e entity.Entity) *Puller {
	return NewPuller(e.TableName())
}

// PullSince gathers the rows created, updated, and deleted after lastSync.
// Deleted entries carry only the row id.
func (p *Puller) PullSince(s session.DbSession, lastSync time.Time) (*DeltaData, error) {
	created, err := p.queryRecords(s, fmt.Sprintf(
		`SELECT * FROM %s WHERE server_created_at > $1 AND deleted_at IS NULL AND is_deleted = false`,
		p.table), lastSync)
	if err != nil {
		return nil, err
	}

	updated, err := p.queryRecords(s, fmt.Sprintf(
		`SELECT * FROM %s WHERE last_modified > $1 AND server_created_at < $2 AND deleted_at IS NULL AND is_deleted = false`,
		p.table), lastSync, lastSync)
	if err != nil {
		return nil, err
	}

	deleted, err := p.queryDeletedIDs(s, lastSync)
	if err != nil {
		return nil, err
	}

	return &DeltaData{Created: created, Updated: updated, Deleted: deleted}, nil
}

// Search reads live rows matching the given filter conditions.
func (p *Puller) Search(s session.DbSession, conditions []filters.Condition) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE is_deleted = false`, p.table)
	where, params := filters.Compile(conditions, 1)
	if where != "" {
		query += " AND " + where
	}
	return p.queryRecords(s, query, params...)
}

func (p *Puller) queryRecords(s session.DbSession, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.Connection().Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to query %s deltas", p.table)
	}
	defer rows.Close()

	columns := rows.Columns()
	var records []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read %s delta row", p.table)
		}

		record := make(map[string]any, len(columns))
		for i, column := range columns {
			if i < len(values) {
				record[column] = values[i]
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (p *Puller) queryDeletedIDs(s session.DbSession, lastSync time.Time) ([]string, error) {
	rows, err := s.Connection().Query(fmt.Sprintf(
		`SELECT id FROM %s WHERE deleted_at > $1 AND is_deleted = true`,
		p.table), lastSync)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to query %s deleted ids", p.table)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrapf(err, "unable to read %s deleted id", p.table)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Pusher applies client deltas to one table.
type Pusher struct {
	table  string
	logger *zap.Logger
}

func NewPusher(table string, logger *zap.Logger) *Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pusher{table: table, logger: logger}
}

// NewPusherFor derives the table from the entity.
func NewPusherFor(e entity.Entity, logger *zap.Logger) *Pusher {
	return NewPusher(e.TableName(), logger)
}

// Apply writes a client delta inside one transaction. Every record's keys
// are normalized to snake_case first; records without a valid UUID id are
// skipped with a warning. Per-record failures are collected so one bad row
// does not mask the others, and any failure rolls the transaction back.
func (p *Pusher) Apply(s session.DbSession, delta *DeltaData, transform Transform) error {
	if delta == nil || delta.IsEmpty() {
		return nil
	}

	return s.Atomic(func(tx session.Session) error {
		db, ok := tx.(session.DbSession)
		if !ok {
			return errors.Errorf("session %T does not provide a database connection", tx)
		}
		var errs *multierror.Error

		for _, record := range delta.Created {
			if err := p.applyRecord(db, ActionCreate, record, transform); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		for _, record := range delta.Updated {
			if err := p.applyRecord(db, ActionUpdate, record, transform); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		for _, id := range delta.Deleted {
			if !uuidutil.IsValid(id) {
				p.logger.Warn("skipping delete with invalid id",
					zap.String("table", p.table),
					zap.String("id", id))
				continue
			}
			if err := p.softDelete(db, id); err != nil {
				errs = multierror.Append(errs, err)
			}
		}

		return errs.ErrorOrNil()
	})
}

func (p *Pusher) applyRecord(s session.DbSession, action Action, record map[string]any, transform Transform) error {
	data, _ := strcase.SnakeCaseKeys(record).(map[string]any)

	id, _ := data["id"].(string)
	if !uuidutil.IsValid(id) {
		p.logger.Warn("skipping record with invalid id",
			zap.String("table", p.table),
			zap.String("action", string(action)),
			zap.String("id", id))
		return nil
	}

	if transform != nil {
		var err error
		data, err = transform(action, data)
		if err != nil {
			return errors.Wrapf(err, "unable to transform %s record %s", action, id)
		}
		if data == nil {
			return nil
		}
	}

	// Keys end up as identifiers in the statement text, so anything that is
	// not a plain column name makes the whole record untrusted.
	if column, ok := invalidColumn(data); ok {
		p.logger.Warn("skipping record with invalid column name",
			zap.String("table", p.table),
			zap.String("action", string(action)),
			zap.String("id", id),
			zap.String("column", column))
		return nil
	}

	switch action {
	case ActionCreate:
		return p.insert(s, data)
	case ActionUpdate:
		return p.update(s, id, data)
	}
	return nil
}

func (p *Pusher) insert(s session.DbSession, data map[string]any) error {
	columns := sortedColumns(data)
	placeholders := make([]string, len(columns))
	params := make([]any, len(columns))
	for i, column := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		params[i] = data[column]
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		p.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	_, err := s.Connection().Exec(query, params...)
	return errors.Wrapf(err, "unable to insert into %s", p.table)
}

func (p *Pusher) update(s session.DbSession, id string, data map[string]any) error {
	assignments := make([]string, 0, len(data))
	params := make([]any, 0, len(data)+1)
	for _, column := range sortedColumns(data) {
		if column == "id" {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(params)+1))
		params = append(params, data[column])
	}
	if len(assignments) == 0 {
		return nil
	}
	params = append(params, id)

	query := fmt.Sprintf(`UPDATE %s SET %s, last_modified = CURRENT_TIMESTAMP WHERE id = $%d`,
		p.table, strings.Join(assignments, ", "), len(params))

	_, err := s.Connection().Exec(query, params...)
	return errors.Wrapf(err, "unable to update %s record %s", p.table, id)
}

func (p *Pusher) softDelete(s session.DbSession, id string) error {
	query := fmt.Sprintf(
		`UPDATE %s SET is_deleted = true, deleted_at = CURRENT_TIMESTAMP, last_modified = CURRENT_TIMESTAMP WHERE id = $1`,
		p.table)

	_, err := s.Connection().Exec(query, id)
	return errors.Wrapf(err, "unable to delete %s record %s", p.table, id)
}

var columnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// invalidColumn reports the first key that cannot be used verbatim as a
// column identifier.
func invalidColumn(data map[string]any) (string, bool) {
	for _, column := range sortedColumns(data) {
		if !columnPattern.MatchString(column) {
			return column, true
		}
	}
	return "", false
}

func sortedColumns(data map[string]any) []string {
	columns := make([]string, 0, len(data))
	for column := range data {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
