package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aniarr/aniarr/internal/filter"
	"github.com/aniarr/aniarr/internal/library"
)

func init() {
	filtersCmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage filter definitions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List filters",
		RunE:  runFiltersList,
	}

	showCmd := &cobra.Command{
		Use:   "show <name-or-id>",
		Short: "Show a filter definition",
		Args:  cobra.ExactArgs(1),
		RunE:  runFiltersShow,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a filter from a JSON definition",
		Long:  "Reads a filter definition from a JSON file (or stdin with -f -) and stores it.",
		RunE:  runFiltersAdd,
	}
	addCmd.Flags().StringP("file", "f", "", "Definition file (required, - for stdin)")
	_ = addCmd.MarkFlagRequired("file")

	rmCmd := &cobra.Command{
		Use:   "rm <name-or-id>",
		Short: "Delete a filter",
		Long:  "Removes the filter definition and its persisted memberships. Library entities are untouched.",
		Args:  cobra.ExactArgs(1),
		RunE:  runFiltersRm,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a JSON definition without storing it",
		RunE:  runFiltersCheck,
	}
	checkCmd.Flags().StringP("file", "f", "", "Definition file (required, - for stdin)")
	_ = checkCmd.MarkFlagRequired("file")

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the filter tree",
		Long:  "Prints filters grouped under their parents. The tree is display-only; membership never rolls up through it.",
		RunE:  runFiltersTree,
	}

	filtersCmd.AddCommand(listCmd)
	filtersCmd.AddCommand(treeCmd)
	filtersCmd.AddCommand(showCmd)
	filtersCmd.AddCommand(addCmd)
	filtersCmd.AddCommand(rmCmd)
	filtersCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(filtersCmd)
}

func runFiltersList(cmd *cobra.Command, args []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	defs, err := library.NewStore(db).ListFilters()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(defs)
		return nil
	}

	if len(defs) == 0 {
		fmt.Println("No filters")
		return nil
	}

	fmt.Printf("  %-4s │ %-30s │ %-6s │ %-7s │ %s\n", "ID", "NAME", "LEVEL", "POLICY", "CONDITIONS")
	fmt.Println("──────┼────────────────────────────────┼────────┼─────────┼───────────")
	for _, d := range defs {
		name := d.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		flags := make([]string, 0, 2)
		if d.Hidden {
			flags = append(flags, "hidden")
		}
		if d.Locked {
			flags = append(flags, "locked")
		}
		extra := ""
		if len(flags) > 0 {
			extra = "  (" + strings.Join(flags, ", ") + ")"
		}
		fmt.Printf("  %-4d │ %-30s │ %-6s │ %-7s │ %d%s\n",
			d.ID, name, d.TargetLevel, d.BasePolicy, len(d.Conditions), extra)
	}
	return nil
}

func runFiltersTree(cmd *cobra.Command, args []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	defs, err := library.NewStore(db).ListFilters()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(defs)
		return nil
	}

	children := make(map[int64][]*filter.Definition)
	var roots []*filter.Definition
	for _, d := range defs {
		if d.ParentID == nil {
			roots = append(roots, d)
			continue
		}
		children[*d.ParentID] = append(children[*d.ParentID], d)
	}

	var print func(d *filter.Definition, depth int)
	print = func(d *filter.Definition, depth int) {
		fmt.Printf("%s%s (id %d, %s)\n", strings.Repeat("  ", depth), d.Name, d.ID, d.TargetLevel)
		for _, c := range children[d.ID] {
			print(c, depth+1)
		}
	}
	for _, d := range roots {
		print(d, 0)
	}
	return nil
}

func runFiltersShow(cmd *cobra.Command, args []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	def, err := resolveFilter(library.NewStore(db), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(def)
		return nil
	}

	fmt.Printf("Filter:  %s (id %d)\n", def.Name, def.ID)
	fmt.Printf("Level:   %s\n", def.TargetLevel)
	fmt.Printf("Policy:  %s\n", def.BasePolicy)
	if def.ParentID != nil {
		fmt.Printf("Parent:  %d\n", *def.ParentID)
	}
	if def.Hidden || def.Locked || def.StructuralOnly {
		var flags []string
		if def.Hidden {
			flags = append(flags, "hidden")
		}
		if def.Locked {
			flags = append(flags, "locked")
		}
		if def.StructuralOnly {
			flags = append(flags, "structural-only")
		}
		fmt.Printf("Flags:   %s\n", strings.Join(flags, ", "))
	}
	if len(def.Conditions) > 0 {
		fmt.Println("Conditions:")
		for _, c := range def.Conditions {
			if c.Parameter != "" {
				fmt.Printf("  - %s %s %q\n", c.Kind, c.Operator, c.Parameter)
			} else {
				fmt.Printf("  - %s %s\n", c.Kind, c.Operator)
			}
		}
	}
	if len(def.SortOrder) > 0 {
		fmt.Println("Sort:")
		for _, s := range def.SortOrder {
			fmt.Printf("  - %s %s\n", s.Field, s.Direction)
		}
	}
	return nil
}

func runFiltersAdd(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	def, err := readDefinition(file)
	if err != nil {
		return err
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := library.NewStore(db).AddFilter(def); err != nil {
		return err
	}

	fmt.Printf("Added filter %q (id %d)\n", def.Name, def.ID)
	return nil
}

func runFiltersRm(cmd *cobra.Command, args []string) error {
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

	if def.Locked {
		return fmt.Errorf("filter %q is locked", def.Name)
	}
	if err := store.DeleteFilter(def.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted filter %q (id %d)\n", def.Name, def.ID)
	return nil
}

func runFiltersCheck(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	def, err := readDefinition(file)
	if err != nil {
		return err
	}

	problems := def.Validate()
	bad := def.BadParameters()

	if len(problems) == 0 && len(bad) == 0 {
		fmt.Printf("Definition %q is valid\n", def.Name)
		return nil
	}

	for _, p := range problems {
		fmt.Printf("  error: %s\n", p)
	}
	for _, i := range bad {
		c := def.Conditions[i]
		fmt.Printf("  warning: condition %d (%s %s): parameter %q does not parse\n", i, c.Kind, c.Operator, c.Parameter)
	}
	if len(problems) > 0 {
		return fmt.Errorf("definition invalid")
	}
	return nil
}
