package main

import (
	"flag"
	"fmt"
	"log"

	"shopmall-be/internal/config"
	"shopmall-be/internal/db"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up or down")
	flag.Parse()

	cfg := config.LoadConfig()
	sqlDB := db.InitDB(cfg)
	defer sqlDB.Close()

	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(m, *mode); err != nil {
		log.Fatal(err)
	}
}

func run(m db.Runner, mode string) error {
	switch mode {
	case "up":
		if err := db.MigrateUp(m); err != nil {
			return err
		}
		fmt.Println("✅ All new migrations applied successfully.")
		return nil
	case "down":
		if err := db.MigrateDown(m); err != nil {
			return err
		}
		fmt.Println("✅ Rollback successful.")
		return nil
	default:
		return fmt.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
	}
}
