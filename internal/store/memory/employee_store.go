package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// EmployeeStore implements store.EmployeeStore using in-memory storage.
// This implementation is for testing and the ephemeral store type - data is lost on restart.
type EmployeeStore struct {
	mu sync.RWMutex

	employees []*models.Employee          // insertion order
	byEmail   map[string]*models.Employee // normalized email -> Employee
}

var _ store.EmployeeStore = (*EmployeeStore)(nil)

// NewEmployeeStore creates a new in-memory employee store.
func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{
		byEmail: make(map[string]*models.Employee),
	}
}

func (s *EmployeeStore) List(ctx context.Context) ([]*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		clone := *emp
		out = append(out, &clone)
	}
	return out, nil
}

func (s *EmployeeStore) Get(ctx context.Context, id string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByID(id)
	if i < 0 {
		return nil, store.ErrEmployeeNotFound
	}

	clone := *s.employees[i]
	return &clone, nil
}

func (s *EmployeeStore) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrEmployeeNotFound
	}

	clone := *emp
	return &clone, nil
}

func (s *EmployeeStore) Create(ctx context.Context, employee *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.NormalizeEmail(employee.Email)
	if _, exists := s.byEmail[key]; exists {
		return store.ErrEmployeeExists
	}

	clone := *employee
	s.employees = append(s.employees, &clone)
	s.byEmail[key] = &clone

	return nil
}

func (s *EmployeeStore) Update(ctx context.Context, employee *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(employee.ID)
	if i < 0 {
		return store.ErrEmployeeNotFound
	}

	key := models.NormalizeEmail(employee.Email)
	if other, exists := s.byEmail[key]; exists && other.ID != employee.ID {
		return store.ErrEmployeeExists
	}

	delete(s.byEmail, models.NormalizeEmail(s.employees[i].Email))

	clone := *employee
	s.employees[i] = &clone
	s.byEmail[key] = &clone

	return nil
}

func (s *EmployeeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		return store.ErrEmployeeNotFound
	}

	delete(s.byEmail, models.NormalizeEmail(s.employees[i].Email))
	s.employees = slices.Delete(s.employees, i, i+1)

	return nil
}

func (s *EmployeeStore) indexByID(id string) int {
	return slices.IndexFunc(s.employees, func(emp *models.Employee) bool { return emp.ID == id })
}
