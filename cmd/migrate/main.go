// Command migrate applies the SQL migrations with goose.
//
//	go run ./cmd/migrate up|down|redo|status|version
package main

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/eduplatform-api/config"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := run(command); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", command, err)
		os.Exit(1)
	}
}

func run(command string) error {
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

	migrator, err := database.OpenMigrator(env, log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(command)
}
