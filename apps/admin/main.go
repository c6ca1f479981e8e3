package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/bolingo/apps/di"
	"github.com/trezcool/bolingo/core"
)

func main() {
	conf := core.NewConfig()

	logger, err := di.NewLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	c, err := di.New(conf, logger, di.WithoutMigrations())
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}

	cli := newCommandLine(c, os.Stdout)
	err = cli.run(os.Args)
	_ = c.Close()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
