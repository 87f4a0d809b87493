package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"rcrao/internal/records/memory"
	"rcrao/internal/storage"
)

type seedCmd struct {
	app  *app
	from string
	db   string
}

func newSeedCmd(a *app) *cobra.Command {
	sc := &seedCmd{app: a}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load collections, expenses and receivables JSON files into the SQLite database",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.from, "from", "", "Directory holding collections.json, expenses.json and receivables.json")
	cmd.Flags().StringVar(&sc.db, "db", "", "SQLite database path (default SQLITE_DB_PATH)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (sc *seedCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	seed, err := memory.NewFromFiles(sc.from)
	if err != nil {
		return fmt.Errorf("read seed files: %w", err)
	}

	dbPath := sc.db
	if dbPath == "" {
		dbPath = sc.app.cfg.SQLiteDBPath
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	cols, exps, recs := seed.Snapshot()
	for _, c := range cols {
		if _, err := repo.InsertCollection(ctx, c); err != nil {
			return err
		}
	}
	for _, e := range exps {
		if _, err := repo.InsertExpense(ctx, e); err != nil {
			return err
		}
	}
	for _, r := range recs {
		if _, err := repo.InsertReceivable(ctx, r); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d collections, %d expenses, %d receivables\n",
		dbPath, len(cols), len(exps), len(recs))
	return nil
}
