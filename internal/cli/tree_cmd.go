package cli

import (
	"fmt"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// treeFlags are the fetch and display filters shared by tree and export.
type treeFlags struct {
	name       string
	status     string
	search     string
	region     string
	hasMembers string
	hasSub     string
	fuzzy      bool
	cached     bool
}

func (f *treeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Server-side name filter")
	fs.StringVar(&f.status, "status", "", "Server-side status filter (enabled|disabled)")
	fs.StringVar(&f.search, "search", "", "Search name, code and leader in the loaded tree")
	fs.BoolVar(&f.fuzzy, "fuzzy", false, "Fuzzy subsequence search")
	fs.StringVar(&f.region, "region", "", "Only nodes in this region")
	fs.StringVar(&f.hasMembers, "has-members", "", "Only nodes with (yes) or without (no) members")
	fs.StringVar(&f.hasSub, "has-sub", "", "Only nodes with (yes) or without (no) sub-organizations")
	fs.BoolVar(&f.cached, "cached", false, "Browse the last saved snapshot instead of the service")
}

func (f *treeFlags) parseStatus() (*domain.OrgStatus, error) {
	if f.status == "" {
		return nil, nil
	}
	s, err := domain.ParseOrgStatus(f.status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// query is the fetch filter. A cached snapshot cannot be queried, so
// name and status then move to the local filter.
func (f *treeFlags) query() (orgclient.TreeQuery, error) {
	status, err := f.parseStatus()
	if err != nil || f.cached {
		return orgclient.TreeQuery{}, err
	}
	return orgclient.TreeQuery{Name: f.name, Status: status}, nil
}

func (f *treeFlags) filter() (tree.Filter, error) {
	hasMembers, err := domain.ParseTriState(f.hasMembers)
	if err != nil {
		return tree.Filter{}, fmt.Errorf("--has-members: %w", err)
	}
	hasSub, err := domain.ParseTriState(f.hasSub)
	if err != nil {
		return tree.Filter{}, fmt.Errorf("--has-sub: %w", err)
	}
	filter := tree.Filter{
		Search:     f.search,
		Fuzzy:      f.fuzzy,
		Region:     f.region,
		HasMembers: hasMembers,
		HasSubOrgs: hasSub,
	}
	if f.cached {
		if filter.Search == "" {
			filter.Search = f.name
		}
		if filter.Status, err = f.parseStatus(); err != nil {
			return tree.Filter{}, err
		}
	}
	return filter, nil
}

// load fills the store from the service or the snapshot and returns a
// banner line for cached data.
func (f *treeFlags) load(cmd *cobra.Command, app *App) (string, error) {
	if f.cached {
		return loadCached(cmd.Context(), app)
	}
	q, err := f.query()
	if err != nil {
		return "", err
	}
	stop := startProgress(cmd, app, "Loading organization tree...")
	defer stop()
	return "", app.Orgs.Refresh(cmd.Context(), q)
}

func newTreeCmd(app *App) *cobra.Command {
	var (
		flags     treeFlags
		expandAll bool
		collapse  []string
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the organization tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			banner, err := flags.load(cmd, app)
			if err != nil {
				return err
			}

			store := app.Orgs.Store()
			p := tree.NewPresenter(store)
			if expandAll {
				p.ExpandAll()
			}
			for _, ref := range collapse {
				id, err := resolveOrgID(store, ref)
				if err != nil {
					return err
				}
				p.Collapse(id)
			}

			out := cmd.OutOrStdout()
			if banner != "" {
				fmt.Fprintln(out, formatter.StyleYellow.Render(banner))
			}
			fmt.Fprintln(out, formatter.FormatStats(store.Summarize()))
			if d := filter.Describe(); d != "" {
				fmt.Fprintln(out, formatter.Dim("filter: "+d))
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.FormatTree(p.Rows(filter)))
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "Expand every node")
	cmd.Flags().StringSliceVar(&collapse, "collapse", nil, "Collapse these nodes (id, code or name)")

	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one organization with its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}
			d, err := app.Orgs.SetActive(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDetail(d, app.Orgs.Store().PathOf(id)))
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the organization tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := treeFlags{cached: cached}
			banner, err := flags.load(cmd, app)
			if err != nil {
				return err
			}
			st := app.Orgs.Store().Summarize()
			out := cmd.OutOrStdout()
			if banner != "" {
				fmt.Fprintln(out, formatter.StyleYellow.Render(banner))
			}
			fmt.Fprint(out, formatter.RenderTable(
				[]string{"Metric", "Count"},
				[][]string{
					{"Nodes", fmt.Sprint(st.Total)},
					{"Organizations", fmt.Sprint(st.Organizations)},
					{"Departments", fmt.Sprint(st.Departments)},
					{"Enabled", fmt.Sprint(st.Enabled)},
					{"Disabled", fmt.Sprint(st.Disabled)},
					{"Members", fmt.Sprint(st.Members)},
					{"Without leader", fmt.Sprint(st.WithoutLeader)},
				},
				formatter.AlignRight(1),
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Use the last saved snapshot")
	return cmd
}

func newImpactCmd(app *App) *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "impact ID",
		Short: "Estimate what deleting or disabling a node affects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidImpactActions[action] {
				return fmt.Errorf("invalid --action %q (want delete|deactivate)", action)
			}
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}
			s, err := app.Orgs.Impact(cmd.Context(), id, domain.ImpactAction(action))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatImpact(s))
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", string(domain.ActionDelete), "Action to assess (delete|deactivate)")
	return cmd
}
