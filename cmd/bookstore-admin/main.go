// Command bookstore-admin provisions accounts and demo data against the
// configured store.
//
//	bookstore-admin create-account -username ana -password ... -customer 12
//	bookstore-admin create-account -username ops -password ... -role ADMIN
//	bookstore-admin seed
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/config"
	"github.com/MikeMC777/bookstore/internal/storage"
)

func main() {
	cfg := config.Load()
	log := cfg.Logger(os.Stderr)
	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout, log); err != nil {
		log.Error().Err(err).Msg("bookstore-admin")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer, log zerolog.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bookstore-admin create-account|seed [flags]")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch args[0] {
	case "create-account":
		fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
		fs.SetOutput(out)
		username := fs.String("username", "", "login name")
		password := fs.String("password", "", "password, at least 8 characters")
		role := fs.String("role", account.RoleCustomer, "CUSTOMER or ADMIN")
		customer := fs.Int64("customer", 0, "customer id the account buys as")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		store, release, err := storage.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer release()

		a, err := account.Register(ctx, store, *username, *password, *role, *customer)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created account %d (%s, %s, customer %d)\n", a.ID, a.Username, a.Role, a.CustomerID)
		return nil

	case "seed":
		cfg.SeedOnStart = true
		_, release, err := storage.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		release()
		fmt.Fprintf(out, "seeded; demo accounts use password %q\n", storage.SeedPassword)
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}
