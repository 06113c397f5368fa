package jsonfile

import (
	"context"

	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

const employeesFile = "employees.json"

// EmployeeStore implements store.EmployeeStore on employees.json.
type EmployeeStore struct {
	c *collection[models.Employee]
}

var _ store.EmployeeStore = (*EmployeeStore)(nil)

// NewEmployeeStore opens the employee collection in dir.
func NewEmployeeStore(dir string) (*EmployeeStore, error) {
	c, err := newCollection[models.Employee](dir, employeesFile)
	if err != nil {
		return nil, err
	}
	return &EmployeeStore{c: c}, nil
}

func (s *EmployeeStore) List(ctx context.Context) ([]*models.Employee, error) {
	return s.c.read()
}

func (s *EmployeeStore) Get(ctx context.Context, id string) (*models.Employee, error) {
	items, err := s.c.read()
	if err != nil {
		return nil, err
	}

	for _, emp := range items {
		if emp.ID == id {
			return emp, nil
		}
	}

	return nil, store.ErrEmployeeNotFound
}

func (s *EmployeeStore) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	items, err := s.c.read()
	if err != nil {
		return nil, err
	}

	if i := indexByEmail(items, email); i >= 0 {
		return items[i], nil
	}

	return nil, store.ErrEmployeeNotFound
}

func (s *EmployeeStore) Create(ctx context.Context, employee *models.Employee) error {
	return s.c.update(func(items []*models.Employee) ([]*models.Employee, error) {
		if indexByEmail(items, employee.Email) >= 0 {
			return nil, store.ErrEmployeeExists
		}

		clone := *employee
		return append(items, &clone), nil
	})
}

func (s *EmployeeStore) Update(ctx context.Context, employee *models.Employee) error {
	return s.c.update(func(items []*models.Employee) ([]*models.Employee, error) {
		for i, emp := range items {
			if emp.ID != employee.ID {
				continue
			}

			if j := indexByEmail(items, employee.Email); j >= 0 && j != i {
				return nil, store.ErrEmployeeExists
			}

			clone := *employee
			items[i] = &clone
			return items, nil
		}

		return nil, store.ErrEmployeeNotFound
	})
}

func (s *EmployeeStore) Delete(ctx context.Context, id string) error {
	return s.c.update(func(items []*models.Employee) ([]*models.Employee, error) {
		for i, emp := range items {
			if emp.ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}

		return nil, store.ErrEmployeeNotFound
	})
}

func indexByEmail(items []*models.Employee, email string) int {
	email = models.NormalizeEmail(email)
	for i, emp := range items {
		if models.NormalizeEmail(emp.Email) == email {
			return i
		}
	}
	return -1
}
