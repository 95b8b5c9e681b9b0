package storage

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// Store is the in-memory Evidence Store. It never changes after NewStore
// returns, so it is shared across goroutines without locking.
type Store struct {
	records      []types.PayRecord
	roster       []types.Employee
	competencies []string
	years        []int
	err          error
}

// NewStore validates records and builds a store over a private copy of them.
// Records are kept ordered by employee id, then competency. A duplicate
// (employee_id, competency) pair is a data-quality failure.
func NewStore(records []types.PayRecord) (*Store, error) {
	rows := make([]types.PayRecord, len(records))
	copy(rows, records)

	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		if r.EmployeeID == "" || r.Competency == "" {
			return nil, fmt.Errorf("%w: record %d is missing employee_id or competency", ErrInvalidRecord, i+1)
		}
		if seen[r.Key()] {
			return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateRecord, r.EmployeeID, r.Competency)
		}
		seen[r.Key()] = true
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].EmployeeID != rows[j].EmployeeID {
			return rows[i].EmployeeID < rows[j].EmployeeID
		}
		return rows[i].Competency < rows[j].Competency
	})

	s := &Store{records: rows}
	s.index()
	return s, nil
}

// NewUnavailableStore returns an empty store that reports err from Err.
func NewUnavailableStore(err error) *Store {
	switch {
	case err == nil:
		err = ErrDataUnavailable
	case !errors.Is(err, ErrDataUnavailable):
		err = fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	return &Store{err: err}
}

func (s *Store) index() {
	seenEmp := make(map[string]bool)
	seenComp := make(map[string]bool)
	seenYear := make(map[int]bool)

	for _, r := range s.records {
		if !seenEmp[r.EmployeeID] {
			seenEmp[r.EmployeeID] = true
			s.roster = append(s.roster, types.Employee{ID: r.EmployeeID, Name: r.Name})
		}
		if !seenComp[r.Competency] {
			seenComp[r.Competency] = true
			s.competencies = append(s.competencies, r.Competency)
		}
		if len(r.Competency) >= 4 {
			if y, err := strconv.Atoi(r.Competency[:4]); err == nil && !seenYear[y] {
				seenYear[y] = true
				s.years = append(s.years, y)
			}
		}
	}
	sort.Strings(s.competencies)
	sort.Ints(s.years)
}

// Err returns the load failure wrapped in ErrDataUnavailable, or nil.
func (s *Store) Err() error {
	return s.err
}

// Available reports whether the dataset loaded.
func (s *Store) Available() bool {
	return s.err == nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Roster returns the distinct employees in id order.
func (s *Store) Roster() []types.Employee {
	return append([]types.Employee(nil), s.roster...)
}

// Competencies returns the distinct pay periods, sorted.
func (s *Store) Competencies() []string {
	return append([]string(nil), s.competencies...)
}

// Years returns the distinct competency years, sorted.
func (s *Store) Years() []int {
	return append([]int(nil), s.years...)
}

// LatestYear returns the most recent competency year.
func (s *Store) LatestYear() (int, bool) {
	if len(s.years) == 0 {
		return 0, false
	}
	return s.years[len(s.years)-1], true
}

// DimensionValues returns the distinct non-empty values of dim, sorted.
func (s *Store) DimensionValues(dim Dimension) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.records {
		v := dim.Value(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Predicate selects records.
type Predicate func(types.PayRecord) bool

// ByEmployee matches one employee id.
func ByEmployee(id string) Predicate {
	return func(r types.PayRecord) bool { return r.EmployeeID == id }
}

// ByCompetency matches one pay period.
func ByCompetency(comp string) Predicate {
	return func(r types.PayRecord) bool { return r.Competency == comp }
}

// InCompetencies matches any pay period of the set.
func InCompetencies(comps ...string) Predicate {
	set := make(map[string]bool, len(comps))
	for _, c := range comps {
		set[c] = true
	}
	return func(r types.PayRecord) bool { return set[r.Competency] }
}

// ByDimension matches a department or role value, ignoring case and accents.
func ByDimension(dim Dimension, value string) Predicate {
	want := textnorm.Fold(value)
	return func(r types.PayRecord) bool {
		v := dim.Value(r)
		return v != "" && textnorm.Fold(v) == want
	}
}

// Filter returns copies of the records matching every predicate, in store
// order. No match yields an empty, non-nil slice.
func (s *Store) Filter(preds ...Predicate) []types.PayRecord {
	out := make([]types.PayRecord, 0)
	for _, r := range s.records {
		pass := true
		for _, p := range preds {
			if !p(r) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate reduces field over rows. ok is false for no rows or an unknown
// field or function.
func Aggregate(rows []types.PayRecord, field Field, fn AggregateFunc) (float64, bool) {
	if len(rows) == 0 {
		return 0, false
	}

	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, ok := field.Value(r)
		if !ok {
			return 0, false
		}
		values = append(values, v)
	}

	switch fn {
	case Sum:
		return sum(values), true
	case Mean:
		return sum(values) / float64(len(values)), true
	case Max:
		best := math.Inf(-1)
		for _, v := range values {
			best = math.Max(best, v)
		}
		return best, true
	case Min:
		best := math.Inf(1)
		for _, v := range values {
			best = math.Min(best, v)
		}
		return best, true
	}
	return 0, false
}

// ArgMax returns the row with the largest field value. Ties keep the first
// row in order.
func ArgMax(rows []types.PayRecord, field Field) (types.PayRecord, bool) {
	var best types.PayRecord
	bestVal := math.Inf(-1)
	found := false
	for _, r := range rows {
		v, ok := field.Value(r)
		if !ok {
			return types.PayRecord{}, false
		}
		if !found || v > bestVal {
			best, bestVal, found = r, v, true
		}
	}
	return best, found
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
