// cmd/registry/main.go seeds and edits the postgres target registry.
//
//	registry put <name> <url> [keyword]
//	registry delete <name>
//	registry import <targets-file>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/hamed0406/urlwatchdog/internal/config"
	"github.com/hamed0406/urlwatchdog/internal/domain"
	"github.com/hamed0406/urlwatchdog/internal/repo/file"
	"github.com/hamed0406/urlwatchdog/internal/repo/postgres"
)

var errUsage = errors.New("usage: registry put <name> <url> [keyword] | delete <name> | import <file>")

type registryWriter interface {
	Load(ctx context.Context) ([]domain.Descriptor, error)
	Put(ctx context.Context, d domain.Descriptor, position int) error
	Delete(ctx context.Context, name string) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is empty; the file registry is edited by hand.")
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL, zap.NewNop())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = run(ctx, os.Args[1:], store, os.Stdout)
	store.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, store registryWriter, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "put":
		if len(args) < 3 || len(args) > 4 {
			return errUsage
		}
		d := domain.Descriptor{Name: args[1], URL: args[2]}
		if len(args) == 4 {
			d.Keyword = args[3]
		}
		existing, err := store.Load(ctx)
		if err != nil {
			return err
		}
		pos := len(existing)
		for i, e := range existing {
			if e.Name == d.Name {
				pos = i
			}
		}
		return put(ctx, store, out, d, pos)

	case "delete":
		if len(args) != 2 {
			return errUsage
		}
		if err := store.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(out, "deleted", args[1])
		return nil

	case "import":
		if len(args) != 2 {
			return errUsage
		}
		descs, err := file.New(args[1]).Load(ctx)
		if err != nil {
			return err
		}
		for i, d := range descs {
			if err := put(ctx, store, out, d, i); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, "imported", strconv.Itoa(len(descs)), "targets")
		return nil
	}
	return errUsage
}

func put(ctx context.Context, store registryWriter, out io.Writer, d domain.Descriptor, pos int) error {
	t, err := domain.Resolve(d)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, d, pos); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s → %s %s\n", t.TargetName(), t.Kind(), t.Address())
	return nil
}
