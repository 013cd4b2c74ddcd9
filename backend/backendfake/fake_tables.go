package backendfake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/sprinkler-crm/backend"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

var _ backend.Tables = (*FakeTables)(nil)

// timestampLayout sorts lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

type row = map[string]any

// FakeTables is an in-memory backend.Tables that stores rows as JSON objects.
// It assigns ids and timestamps the way the hosted database does.
type FakeTables struct {
	lock  sync.Mutex
	rows  map[string][]row
	fail  map[string]error
	clock time.Time
}

func NewFakeTables() *FakeTables {
	return &FakeTables{
		rows:  make(map[string][]row),
		fail:  make(map[string]error),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailNext makes the next call of op (select, insert, update, delete) return err.
func (f *FakeTables) FailNext(op string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.fail[op] = err
}

// Rows returns the number of rows in table.
func (f *FakeTables) Rows(table string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.rows[table])
}

// FailNextOn makes the next call of op against table return err.
func (f *FakeTables) FailNextOn(op, table string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.fail[op+" "+table] = err
}

func (f *FakeTables) failure(op, table string) error {
	for _, key := range []string{op + " " + table, op} {
		if err, ok := f.fail[key]; ok {
			delete(f.fail, key)
			return err
		}
	}
	return nil
}

func (f *FakeTables) tick() string {
	f.clock = f.clock.Add(time.Second)
	return f.clock.Format(timestampLayout)
}

func (f *FakeTables) Select(_ context.Context, q backend.Query, dest any) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.failure("select", q.Table); err != nil {
		return err
	}

	matched := f.match(q)
	sortRows(matched, q.Orders)
	if q.Single {
		if len(matched) != 1 {
			return notSingle(q.Table, len(matched))
		}
		return remarshal(matched[0], dest)
	}
	return remarshal(matched, dest)
}

func (f *FakeTables) Insert(_ context.Context, table string, rows any, dest any) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.failure("insert", table); err != nil {
		return err
	}

	single := !isSlice(rows)
	var incoming []row
	if single {
		var r row
		if err := remarshal(rows, &r); err != nil {
			return err
		}
		incoming = []row{r}
	} else if err := remarshal(rows, &incoming); err != nil {
		return err
	}

	for _, r := range incoming {
		if id, _ := r["id"].(string); id == "" {
			r["id"] = uuid.NewString()
		}
		ts := f.tick()
		if r["created_at"] == nil {
			r["created_at"] = ts
		}
		if r["updated_at"] == nil {
			r["updated_at"] = ts
		}
		f.rows[table] = append(f.rows[table], r)
	}

	if dest == nil {
		return nil
	}
	if single {
		return remarshal(incoming[0], dest)
	}
	return remarshal(incoming, dest)
}

func (f *FakeTables) Update(_ context.Context, q backend.Query, values any, dest any) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.failure("update", q.Table); err != nil {
		return err
	}

	var patch row
	if err := remarshal(values, &patch); err != nil {
		return err
	}
	matched := f.match(q)
	for _, r := range matched {
		for k, v := range patch {
			r[k] = v
		}
	}
	if dest == nil {
		return nil
	}
	if q.Single {
		if len(matched) != 1 {
			return notSingle(q.Table, len(matched))
		}
		return remarshal(matched[0], dest)
	}
	return remarshal(matched, dest)
}

func (f *FakeTables) Delete(_ context.Context, q backend.Query) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.failure("delete", q.Table); err != nil {
		return err
	}

	kept := f.rows[q.Table][:0]
	for _, r := range f.rows[q.Table] {
		if !matches(r, q.Filters) {
			kept = append(kept, r)
		}
	}
	f.rows[q.Table] = kept
	return nil
}

// match returns the live rows that satisfy q's filters.
func (f *FakeTables) match(q backend.Query) []row {
	var out []row
	for _, r := range f.rows[q.Table] {
		if matches(r, q.Filters) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r row, filters []backend.Filter) bool {
	for _, flt := range filters {
		if fmt.Sprint(r[flt.Column]) != flt.Value {
			return false
		}
	}
	return true
}

func sortRows(rows []row, orders []backend.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			a, b := fmt.Sprint(rows[i][o.Column]), fmt.Sprint(rows[j][o.Column])
			if a == b {
				continue
			}
			if o.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
}

func notSingle(table string, n int) error {
	return &apperrors.RemoteOperationError{
		Op:      "select",
		Table:   table,
		Status:  http.StatusNotAcceptable,
		Code:    "PGRST116",
		Message: fmt.Sprintf("JSON object requested, multiple (or no) rows returned: %d", n),
		Err:     apperrors.ErrNotFound,
	}
}

func remarshal(from, to any) error {
	if to == nil {
		return nil
	}
	b, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, to)
}

func isSlice(v any) bool {
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
