package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/spf13/cobra"
)

// resolveParent accepts "", "0" or "root" for the top level.
func resolveParent(cmd *cobra.Command, app *App, input string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", domain.RootParentID, "root":
		return domain.RootParentID, nil
	}
	return resolveArg(cmd, app, input)
}

func newCreateCmd(app *App) *cobra.Command {
	var (
		d               domain.OrgDraft
		parent, typeStr string
		main            bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization or department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := resolveParent(cmd, app, parent)
			if err != nil {
				return err
			}
			d.ParentID = parentID
			if typeStr != "" {
				if d.Type, err = domain.ParseOrgType(typeStr); err != nil {
					return err
				}
			}
			d.IsMainDepartment = main
			if strings.TrimSpace(d.Code) == "" && strings.TrimSpace(d.Name) != "" {
				d.Code = domain.SuggestCode(d.Name)
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Using suggested code "+d.Code))
			}

			id, err := app.Orgs.Create(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Created %s [%s] with id %s", d.Name, d.Code, id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&d.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&d.Code, "code", "", "Unique code (suggested from the name when omitted)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent id, code or name (default: top level)")
	cmd.Flags().StringVar(&typeStr, "type", "", "organization|department (default department)")
	cmd.Flags().StringVar(&d.LeaderID, "leader", "", "Leader user id")
	cmd.Flags().StringVar(&d.Description, "desc", "", "Description")
	cmd.Flags().StringVar(&d.Region, "region", "", "Region")
	cmd.Flags().IntVar(&d.SortOrder, "sort", 0, "Sort order among siblings")
	cmd.Flags().BoolVar(&main, "main", false, "Mark as the main department")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newUpdateCmd(app *App) *cobra.Command {
	var (
		name, code, parent, leader, desc, region, typeStr string
		sortOrder                                         int
		clearLeader, main                                 bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}

			var p domain.OrgPatch
			changed := cmd.Flags().Changed
			if changed("name") {
				p.Name = &name
			}
			if changed("code") {
				p.Code = &code
			}
			if changed("desc") {
				p.Description = &desc
			}
			if changed("region") {
				p.Region = &region
			}
			if changed("sort") {
				p.SortOrder = &sortOrder
			}
			if changed("main") {
				p.IsMainDepartment = &main
			}
			if changed("leader") {
				p.LeaderID = &leader
			}
			if clearLeader {
				p.LeaderID = domain.StrPtr("")
			}
			if changed("type") {
				t, err := domain.ParseOrgType(typeStr)
				if err != nil {
					return err
				}
				p.Type = &t
			}
			if changed("parent") {
				parentID, err := resolveParent(cmd, app, parent)
				if err != nil {
					return err
				}
				p.ParentID = &parentID
			}

			if err := app.Orgs.Update(cmd.Context(), id, p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("Updated "+orgName(app.Orgs.Store(), id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&code, "code", "", "New code")
	cmd.Flags().StringVar(&parent, "parent", "", "New parent id, code or name (0 for top level)")
	cmd.Flags().StringVar(&typeStr, "type", "", "organization|department")
	cmd.Flags().StringVar(&leader, "leader", "", "Leader user id")
	cmd.Flags().BoolVar(&clearLeader, "clear-leader", false, "Remove the leader")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&region, "region", "", "Region")
	cmd.Flags().IntVar(&sortOrder, "sort", 0, "Sort order among siblings")
	cmd.Flags().BoolVar(&main, "main", false, "Mark as the main department")
	cmd.MarkFlagsMutuallyExclusive("leader", "clear-leader")

	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	var (
		order  []string
		before string
		by     int
	)

	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Reorder an organization among its siblings",
		Long: "Reorder an organization among its siblings. Moving under another parent\n" +
			"is done with 'orgctl update ID --parent P'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}
			store := app.Orgs.Store()
			node, _ := store.Get(id)

			switch {
			case len(order) > 0:
				ids := make([]string, len(order))
				for i, ref := range order {
					if ids[i], err = resolveOrgID(store, ref); err != nil {
						return err
					}
				}
				err = app.Orgs.Move(ctx, id, node.ParentID, ids)
			case before != "":
				target, rErr := resolveOrgID(store, before)
				if rErr != nil {
					return rErr
				}
				err = app.Orgs.Reorder(ctx, id, target)
			default:
				err = app.Orgs.Shift(ctx, id, by)
			}
			if err != nil {
				return err
			}

			var names []string
			for _, n := range store.Siblings(id) {
				names = append(names, n.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("Order: "+strings.Join(names, ", ")))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&order, "order", nil, "Full sibling order (ids, codes or names)")
	cmd.Flags().StringVar(&before, "before", "", "Take the slot of this sibling")
	cmd.Flags().IntVar(&by, "by", 0, "Shift by N positions (negative moves up)")
	cmd.MarkFlagsMutuallyExclusive("order", "before", "by")
	cmd.MarkFlagsOneRequired("order", "before", "by")

	return cmd
}

func newEnableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enable ID",
		Short: "Enable an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Orgs.SetStatus(cmd.Context(), id, domain.OrgEnabled); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("Enabled "+orgName(app.Orgs.Store(), id)))
			return nil
		},
	}
}

func newDisableCmd(app *App) *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "disable ID",
		Short: "Disable an organization",
		Long: "Disable an organization. The service refuses while enabled sub-organizations\n" +
			"remain; --force disables them first, deepest first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}
			if err := confirmImpact(cmd, app, id, domain.ActionDeactivate, yes); err != nil {
				return err
			}

			targets := []string{id}
			if force {
				targets = enabledDescendantsDeepestFirst(app, id)
				targets = append(targets, id)
			}
			for _, target := range targets {
				if err := app.Orgs.SetStatus(ctx, target, domain.OrgDisabled); err != nil {
					return fmt.Errorf("disable %s: %w", orgName(app.Orgs.Store(), target), err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Disabled %s", formatter.Plural(len(targets), "organization"))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Disable enabled sub-organizations first")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the impact confirmation")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}
			name := orgName(app.Orgs.Store(), id)
			if err := confirmImpact(cmd, app, id, domain.ActionDelete, yes); err != nil {
				return err
			}
			if err := app.Orgs.Delete(cmd.Context(), id, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("Deleted "+name))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete even when sub-organizations exist")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the impact confirmation")
	return cmd
}

// confirmImpact prints the impact of a high-risk action and stops unless
// yes is set. Low-risk actions pass silently.
func confirmImpact(cmd *cobra.Command, app *App, id string, action domain.ImpactAction, yes bool) error {
	s, err := app.Orgs.Impact(cmd.Context(), id, action)
	if err != nil {
		return err
	}
	if !s.RequiresConfirmation() || yes {
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatImpact(s))
	return errConfirmationRequired
}

func enabledDescendantsDeepestFirst(app *App, id string) []string {
	store := app.Orgs.Store()
	var ids []string
	for _, n := range store.DescendantsOf(id) {
		if n.Enabled() {
			ids = append(ids, n.ID)
		}
	}
	slices.SortStableFunc(ids, func(a, b string) int {
		return len(store.PathOf(b)) - len(store.PathOf(a))
	})
	return ids
}
