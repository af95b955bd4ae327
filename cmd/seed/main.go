package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sahilchouksey/eduplatform-api/config"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	log, err := logger.New(env.GO_ENV)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := database.StartGORM(env, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return err
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("EduPlatform - Database Seeding")
	fmt.Println(separator)

	if err := database.NewSeeder(store.DB(), log).SeedAll(); err != nil {
		return err
	}

	fmt.Println("Seeding completed.")
	fmt.Println("The admin account comes from ADMIN_EMAIL and ADMIN_PASSWORD, or the demo admin when they are unset.")
	return nil
}
