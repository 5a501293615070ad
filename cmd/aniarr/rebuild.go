package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aniarr/aniarr/internal/library"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [filter]",
	Short: "Rebuild filter memberships from scratch",
	Long:  "Recomputes memberships from the stats snapshots, ignoring persisted state. Rebuilds every filter unless one is named.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRebuildCmd,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuildCmd(cmd *cobra.Command, args []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store := library.NewStore(db)
	engine, err := newEngine(cmd.Context(), db, store)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if len(args) == 1 {
		def, err := resolveFilter(store, args[0])
		if err != nil {
			return err
		}
		if err := engine.Rebuild(ctx, def.ID); err != nil {
			return err
		}
		engine.FlushDirty(ctx)
		fmt.Printf("Rebuilt filter %q\n", def.Name)
		return nil
	}

	if err := engine.RebuildAll(ctx); err != nil {
		return err
	}
	engine.FlushDirty(ctx)
	fmt.Printf("Rebuilt %d filters\n", len(engine.Filters()))
	return nil
}
