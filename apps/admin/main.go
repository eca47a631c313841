package main

import (
	"log"
	"os"

	"github.com/trezcool/gradebook/core"
	logsvc "github.com/trezcool/gradebook/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// start CLI
	cli := newCommandLine(conf.Store.Path, logger)
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
