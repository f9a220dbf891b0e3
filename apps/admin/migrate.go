package main

import (
	"context"
	"fmt"

	"github.com/trezcool/semillero/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	ran, err := migrateFunc(context.Background(), cli.db)
	if err != nil {
		return err
	}
	if len(ran) == 0 {
		fmt.Fprintln(cli.out, "nothing to migrate")
		return nil
	}
	for _, version := range ran {
		fmt.Fprintf(cli.out, "applied %s\n", version)
	}
	return nil
}
