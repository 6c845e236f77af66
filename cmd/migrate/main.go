// Command migrate applies the SQL migrations and optionally seeds the
// database with demo accounts and the default menu.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"canteen-be/internal/config"
	"canteen-be/internal/db"
	"canteen-be/internal/user"

	"github.com/google/uuid"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up or down")
	seed := flag.Bool("seed", false, "insert demo users and menu items after migrating")
	flag.Parse()

	cfg := config.LoadConfig()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer database.Close()

	if err := run(database, *mode, "./migrations"); err != nil {
		log.Fatal(err)
	}

	if *seed && *mode == "up" {
		if err := seedData(database); err != nil {
			log.Fatal(err)
		}
	}
}

func run(database *sql.DB, mode, migrationsDir string) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)

	switch mode {
	case "up":
		return runMigrationsUp(database, files)
	case "down":
		return runMigrationsDown(database, files)
	default:
		return fmt.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
	}
}

func runMigrationsUp(database *sql.DB, files []string) error {
	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := database.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			fmt.Printf("skipping already applied migration: %s\n", version)
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		fmt.Printf("applying migration: %s\n", version)
		if _, err := database.Exec(extractMigrationPart(string(content), "Up")); err != nil {
			return fmt.Errorf("migration failed (%s): %w", version, err)
		}

		if _, err := database.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("failed to record migration version: %w", err)
		}
	}
	fmt.Println("all new migrations applied")
	return nil
}

func runMigrationsDown(database *sql.DB, files []string) error {
	var lastVersion string
	err := database.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC LIMIT 1`).Scan(&lastVersion)
	if err == sql.ErrNoRows {
		fmt.Println("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	fmt.Printf("rolling back migration: %s\n", lastVersion)
	if _, err := database.Exec(extractMigrationPart(string(content), "Down")); err != nil {
		return fmt.Errorf("rollback failed (%s): %w", filePath, err)
	}

	if _, err := database.Exec(`DELETE FROM schema_migrations WHERE version = $1`, lastVersion); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	fmt.Println("rollback successful")
	return nil
}

func extractMigrationPart(content, section string) string {
	var part strings.Builder
	var inPart bool

	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line)
			part.WriteString("\n")
		}
	}
	return part.String()
}

type seedItem struct {
	name        string
	description string
	price       int
	category    string
	total       int
}

var seedMenu = []seedItem{
	{"Chicken Biryani", "Fragrant rice with spiced chicken", 120, "lunch", 50},
	{"Vegetable Sandwich", "Grilled sandwich with fresh vegetables", 60, "snacks", 30},
	{"Masala Chai", "Spiced Indian tea", 15, "beverages", 100},
	{"Paneer Butter Masala", "Cottage cheese in rich tomato gravy", 100, "lunch", 25},
	{"Samosa", "Crispy fried pastry with potato filling", 20, "snacks", 40},
	{"Fresh Lime Soda", "Refreshing lime drink", 25, "beverages", 60},
	{"Aloo Paratha", "Stuffed potato flatbread with curd", 80, "breakfast", 20},
	{"Gulab Jamun", "Sweet milk dumplings in syrup", 40, "desserts", 35},
}

func seedData(database *sql.DB) error {
	accounts := []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"Canteen Admin", "admin@canteen.com", "admin123", "admin"},
		{"Demo User", "user@canteen.com", "user123", "user"},
	}

	for _, a := range accounts {
		hashed, err := user.HashPassword(a.password)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		_, err = database.Exec(`
			INSERT INTO users (id, name, email, password, role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO NOTHING
		`, uuid.NewString(), a.name, a.email, hashed, a.role, time.Now())
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", a.email, err)
		}
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM food_items`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count food items: %w", err)
	}
	if count > 0 {
		fmt.Println("food items already present, skipping menu seed")
		return nil
	}

	for _, it := range seedMenu {
		_, err := database.Exec(`
			INSERT INTO food_items (id, name, description, price, category,
				total_count, remaining_count, is_available, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6, TRUE, NOW(), NOW())
		`, uuid.NewString(), it.name, it.description, it.price, it.category, it.total)
		if err != nil {
			return fmt.Errorf("failed to seed food item %s: %w", it.name, err)
		}
	}

	fmt.Println("seed data inserted")
	return nil
}
