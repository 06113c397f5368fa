package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/sheetclock/internal/admin"
	"github.com/wolfeidau/sheetclock/internal/logger"
	"github.com/wolfeidau/sheetclock/internal/store"
	"gopkg.in/yaml.v3"
)

// SeedCmd creates employees listed in a YAML or JSON file. Employees whose email already
// exists are skipped.
type SeedCmd struct {
	File       string     `arg:"" help:"YAML or JSON file listing employees" type:"existingfile"`
	AdminEmail string     `help:"email of the admin account" default:"" env:"SHEETCLOCK_ADMIN_EMAIL"`
	Store      StoreFlags `embed:""`
}

type seedEmployee struct {
	Name       string  `yaml:"name" json:"name"`
	Email      string  `yaml:"email" json:"email"`
	Password   string  `yaml:"password" json:"password"`
	HourlyRate float64 `yaml:"hourlySalaryCZK" json:"hourlySalaryCZK"`
}

func (c *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	employees, err := readSeedFile(c.File)
	if err != nil {
		return err
	}

	stores, err := c.Store.open(ctx)
	if err != nil {
		return err
	}
	if stores.Close != nil {
		defer stores.Close()
	}

	svc := admin.NewService(stores.Employees, c.AdminEmail)

	var created, skipped int
	for _, emp := range employees {
		_, err := svc.Add(ctx, admin.AddInput{
			Name:       emp.Name,
			Email:      emp.Email,
			Password:   emp.Password,
			HourlyRate: emp.HourlyRate,
		})
		if errors.Is(err, store.ErrEmployeeExists) {
			log.Info().Str("email", emp.Email).Msg("Employee exists, skipping")
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", emp.Email, err)
		}
		created++
	}

	log.Info().Int("created", created).Int("skipped", skipped).Msg("Seed complete")
	return nil
}

func readSeedFile(path string) ([]seedEmployee, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var employees []seedEmployee
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &employees)
	default:
		err = yaml.Unmarshal(data, &employees)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	return employees, nil
}
