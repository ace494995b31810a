package testutils

import (
	"context"
	"errors"
	"time"

	"github.com/hikmahealth/healthsync/healthsync/session"
	"github.com/hikmahealth/healthsync/healthsync/session/result"
)

// NewDbSessionStub builds an in-memory session that records every executed
// query. Each Query call consumes the next RowsStub in order; Exec calls
// consume nothing.
func NewDbSessionStub(rows ...*RowsStub) *DbSessionStub {
	stub := &DbSessionStub{rowsQueue: rows}
	stub.conn = &connectionStub{session: stub}
	return stub
}

type DbSessionStub struct {
	Queries   []string
	Params    [][]any
	rowsQueue []*RowsStub
	conn      *connectionStub
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

// LastQuery returns the most recent query, or "" when none ran.
func (s *DbSessionStub) LastQuery() string {
	if len(s.Queries) == 0 {
		return ""
	}
	return s.Queries[len(s.Queries)-1]
}

func (s *DbSessionStub) record(query string, args []any) {
	s.Queries = append(s.Queries, query)
	s.Params = append(s.Params, args)
}

func (s *DbSessionStub) nextRows() *RowsStub {
	if len(s.rowsQueue) == 0 {
		return NewRowsStub(nil)
	}
	rows := s.rowsQueue[0]
	s.rowsQueue = s.rowsQueue[1:]
	return rows
}

type connectionStub struct {
	session *DbSessionStub
}

func (c *connectionStub) Exec(query string, args ...any) (session.Result, error) {
	c.session.record(query, args)
	return result.NewResult(1), nil
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	c.session.record(query, args)
	return c.session.nextRows(), nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	c.session.record(query, args)
	return &RowStub{rows: c.session.nextRows()}
}

func NewRowsStub(columns []string, rows ...[]any) *RowsStub {
	return &RowsStub{
		columns: columns,
		rows:    rows,
		idx:     -1,
	}
}

type RowsStub struct {
	columns []string
	rows    [][]any
	idx     int
	Closed  bool
}

func (r *RowsStub) Close() error {
	r.Closed = true
	return nil
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *RowsStub) Columns() []string {
	return r.columns
}

func (r *RowsStub) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil, errors.New("no current row")
	}
	return r.rows[r.idx], nil
}

func (r *RowsStub) Scan(dest ...any) error {
	row, err := r.Values()
	if err != nil {
		return err
	}

	for i, val := range row {
		if i >= len(dest) {
			break
		}

		switch d := dest[i].(type) {
		case *string:
			*d = val.(string)
		case *bool:
			*d = val.(bool)
		case *int64:
			*d = val.(int64)
		case *float64:
			*d = val.(float64)
		case *time.Time:
			*d = val.(time.Time)
		case *[]byte:
			*d = val.([]byte)
		default:
			return errors.New("unsupported scan type")
		}
	}
	return nil
}

type RowStub struct {
	rows *RowsStub
	err  error
}

func (r *RowStub) Err() error {
	return r.err
}

func (r *RowStub) Scan(dest ...any) error {
	if !r.rows.Next() {
		r.err = errors.New("no rows in result set")
		return r.err
	}
	return r.rows.Scan(dest...)
}
