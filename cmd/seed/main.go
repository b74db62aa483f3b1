// Command seed loads grants and items from a YAML inventory file, creating
// missing records and updating existing ones matched by name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"shim/internal/config"
	"shim/internal/database"
	"shim/internal/models"
	"shim/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type inventoryFile struct {
	Grants []struct {
		Name              string `yaml:"name"`
		Description       string `yaml:"description"`
		Year              int    `yaml:"year"`
		ResponsiblePerson string `yaml:"responsible_person"`
	} `yaml:"grants"`
	Items []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Condition   string `yaml:"condition"`
		Price       *int64 `yaml:"price"`
		AcquiredAt  string `yaml:"acquired_at"`
		Status      string `yaml:"status"`
		Grant       string `yaml:"grant"`
	} `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		inventoryPath = flag.String("inventory", "configs/inventory.yaml", "path to inventory yaml")
		configPath    = flag.String("config", "configs/config.yaml", "path to service config")
	)
	flag.Parse()

	data, err := os.ReadFile(*inventoryPath)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}
	var inv inventoryFile
	if err = yaml.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("parse inventory: %w", err)
	}
	if len(inv.Items) == 0 && len(inv.Grants) == 0 {
		return fmt.Errorf("no grants or items in %s", *inventoryPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.NewDB(cfg.Database, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	grants := service.NewGrantService(db)
	items := service.NewItemService(db, &logger)

	grantIDs, err := seedGrants(ctx, grants, inv)
	if err != nil {
		return err
	}

	existing, err := items.GetItems(ctx, false)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	byName := make(map[string]*models.Item, len(existing))
	for _, it := range existing {
		byName[strings.ToLower(it.Name)] = it
	}

	created, updated := 0, 0
	for _, raw := range inv.Items {
		if strings.TrimSpace(raw.Name) == "" {
			continue
		}
		item := &models.Item{
			Name:        raw.Name,
			Description: raw.Description,
			Condition:   raw.Condition,
			Price:       raw.Price,
		}
		if raw.AcquiredAt != "" {
			if item.AcquiredAt, err = time.Parse("2006-01-02", raw.AcquiredAt); err != nil {
				return fmt.Errorf("item %s: acquired_at: %w", raw.Name, err)
			}
		}
		if raw.Grant != "" {
			id, ok := grantIDs[strings.ToLower(raw.Grant)]
			if !ok {
				return fmt.Errorf("item %s: unknown grant %q", raw.Name, raw.Grant)
			}
			item.GrantID = &id
		}

		if prev, ok := byName[strings.ToLower(strings.TrimSpace(raw.Name))]; ok {
			item.ID = prev.ID
			if err = items.UpdateItem(ctx, item); err != nil {
				return fmt.Errorf("update %s: %w", raw.Name, err)
			}
			updated++
			continue
		}
		if raw.Status != "" {
			if item.Status, err = models.ParseItemStatus(raw.Status); err != nil {
				return fmt.Errorf("item %s: %w", raw.Name, err)
			}
		}
		if err = items.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("create %s: %w", raw.Name, err)
		}
		created++
	}

	fmt.Printf("done: grants=%d created=%d updated=%d\n", len(grantIDs), created, updated)
	return nil
}

// seedGrants creates the grants that do not exist yet and returns every grant id by lowercase name.
func seedGrants(ctx context.Context, grants *service.GrantService, inv inventoryFile) (map[string]int64, error) {
	existing, err := grants.GetGrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	ids := make(map[string]int64, len(existing))
	for _, g := range existing {
		ids[strings.ToLower(g.Name)] = g.ID
	}

	for _, raw := range inv.Grants {
		key := strings.ToLower(strings.TrimSpace(raw.Name))
		if _, ok := ids[key]; ok {
			continue
		}
		g := &models.Grant{
			Name:              raw.Name,
			Description:       raw.Description,
			Year:              raw.Year,
			ResponsiblePerson: raw.ResponsiblePerson,
		}
		if err := grants.CreateGrant(ctx, g); err != nil {
			return nil, fmt.Errorf("create grant %s: %w", raw.Name, err)
		}
		ids[key] = g.ID
	}
	return ids, nil
}
