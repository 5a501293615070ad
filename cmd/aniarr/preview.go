package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aniarr/aniarr/internal/library"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Evaluate a definition without storing it",
	Long:  "Reads a filter definition from a JSON file and evaluates it against the library, printing what its members would be.",
	RunE:  runPreviewCmd,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringP("file", "f", "", "Definition file (required, - for stdin)")
	previewCmd.Flags().Int64P("user", "u", 0, "User ID (0 for the system view)")
	_ = previewCmd.MarkFlagRequired("file")
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	userID, _ := cmd.Flags().GetInt64("user")

	def, err := readDefinition(file)
	if err != nil {
		return err
	}
	if problems := def.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Printf("  error: %s\n", p)
		}
		return fmt.Errorf("definition invalid")
	}

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
	entityIDs, err := store.EntityIDs(ctx, def.TargetLevel)
	if err != nil {
		return err
	}

	var ids []int64
	for _, id := range entityIDs {
		ok, err := engine.EvaluateAdHoc(ctx, def, id, userID)
		if err != nil {
			return err
		}
		if ok {
			ids = append(ids, id)
		}
	}

	names, err := store.DisplayNames(ctx, def.TargetLevel, ids)
	if err != nil {
		return err
	}

	if jsonOutput {
		type member struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		out := make([]member, 0, len(ids))
		for _, id := range ids {
			out = append(out, member{ID: id, Name: names[id]})
		}
		printJSON(out)
		return nil
	}

	fmt.Printf("%s would match %d %s:\n", def.Name, len(ids), def.TargetLevel)
	for _, id := range ids {
		fmt.Printf("  %6d  %s\n", id, names[id])
	}
	return nil
}
