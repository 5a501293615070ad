package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aniarr/aniarr/internal/library"
)

var membersCmd = &cobra.Command{
	Use:   "members <filter>",
	Short: "Show a filter's members",
	Long:  "Evaluates a filter's persisted membership for a user and prints the ordered collection.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMembersCmd,
}

func init() {
	rootCmd.AddCommand(membersCmd)
	membersCmd.Flags().Int64P("user", "u", 0, "User ID (0 for the system view)")
}

func runMembersCmd(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetInt64("user")

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store := library.NewStore(db)
	def, err := resolveFilter(store, args[0])
	if err != nil {
		return err
	}

	engine, err := newEngine(cmd.Context(), db, store)
	if err != nil {
		return err
	}

	ids, err := engine.Evaluate(cmd.Context(), def.ID, userID)
	if err != nil {
		return err
	}

	names, err := store.DisplayNames(cmd.Context(), def.TargetLevel, ids)
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

	if len(ids) == 0 {
		fmt.Printf("Filter %q has no members for user %d\n", def.Name, userID)
		return nil
	}

	fmt.Printf("%s (%d %s):\n", def.Name, len(ids), def.TargetLevel)
	for _, id := range ids {
		fmt.Printf("  %6d  %s\n", id, names[id])
	}
	return nil
}
