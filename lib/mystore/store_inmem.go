package mystore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	// Start transaction
	s.Lock()
	defer s.Unlock()

	// Within this block everything is transactional
	// Rollback is not supported: changes made before an error remain
	return f(context.WithValue(c, ctxTransactionKey{}, true))
}

func (s *InMemoryStore[T]) lock(c context.Context) func() {
	if c.Value(ctxTransactionKey{}) != nil {
		return func() {}
	}
	s.Lock()
	return s.Unlock
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	defer s.lock(c)()

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	defer s.lock(c)()

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) Delete(c context.Context, uid string) error {
	defer s.lock(c)()

	delete(s.Items, uid)

	return nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	defer s.lock(c)()

	// sorted by key so results do not depend on map order
	keys := make([]string, 0, len(s.Items))
	for k := range s.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]T, 0, len(s.Items))
	for _, k := range keys {
		result = append(result, s.Items[k])
	}

	return result, nil
}

// Query supports equality and less-than filters.
func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(all))
	for _, item := range all {
		match, err := matches(item, filters)
		if err != nil {
			return nil, err
		}
		if match {
			result = append(result, item)
		}
	}

	if orderByField != "" {
		sort.SliceStable(result, func(i, j int) bool {
			return less(fieldValue(result[i], orderByField), fieldValue(result[j], orderByField))
		})
	}

	return result, nil
}

func matches(item any, filters []Filter) (bool, error) {
	for _, f := range filters {
		v := fieldValue(item, f.Field)
		if !v.IsValid() {
			return false, nil
		}
		switch f.Compare {
		case Equal:
			if !reflect.DeepEqual(v.Interface(), f.Value) {
				return false, nil
			}
		case Before:
			other := reflect.ValueOf(f.Value)
			if other.Type() != v.Type() || !less(v, other) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported comparison '%s' on field %s", f.Compare, f.Field)
		}
	}
	return true, nil
}

func fieldValue(item any, field string) reflect.Value {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	return v.FieldByName(field)
}

func less(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return false
	}
	switch a.Kind() {
	case reflect.String:
		return a.String() < b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Bool:
		return !a.Bool() && b.Bool()
	}
	if t, ok := a.Interface().(time.Time); ok {
		return t.Before(b.Interface().(time.Time))
	}
	return false
}
