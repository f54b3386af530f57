package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
	"github.com/mikluko/xin/internal/sugar"
)

var (
	searchMax             uint64
	searchPage            string
	searchOldest          bool
	searchFilterJSON      string
	searchCollapseThreads bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search email using the sugar query language or a raw filter",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var query string
		if len(args) == 1 {
			query = args[0]
		}
		return runSearch(cmd, "search", query)
	},
}

var messagesSearchCmd = &cobra.Command{
	Use:   "messages",
	Short: "Message-level search commands",
}

var messagesSearchSubCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search without thread collapsing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var query string
		if len(args) == 1 {
			query = args[0]
		}
		return runSearch(cmd, "messages.search", query)
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, messagesSearchSubCmd} {
		c.Flags().Uint64Var(&searchMax, "max", 0, "maximum results per page (default 20, cap 200)")
		c.Flags().StringVar(&searchPage, "page", "", "opaque next-page cursor from a prior result")
		c.Flags().BoolVar(&searchOldest, "oldest", false, "sort oldest first (default newest first)")
		c.Flags().StringVar(&searchFilterJSON, "filter-json", "", "raw JMAP filter, as JSON or @path to a file, instead of a query string")
		c.Flags().BoolVar(&searchCollapseThreads, "collapse-threads", true, "collapse results to one hit per thread")
	}
	messagesSearchCmd.AddCommand(messagesSearchSubCmd)
}

func runSearch(cmd *cobra.Command, command, query string) error {
	filter, err := loadFilterJSON(searchFilterJSON)
	if err != nil {
		usageExit(command, err)
	}
	if query != "" && filter != nil {
		usageExit(command, fmt.Errorf("query and --filter-json are mutually exclusive"))
	}

	d := connectOrExit(command)
	ctx, cancel := cmdContext()
	defer cancel()

	env := dispatch.Search(ctx, d, dispatch.SearchArgs{
		Command:            command,
		Query:              query,
		FilterJSON:         filter,
		Limit:              searchMax,
		HasLimit:           cmd.Flags().Changed("max"),
		Oldest:             searchOldest,
		HasOldest:          cmd.Flags().Changed("oldest"),
		CollapseThreads:    searchCollapseThreads,
		HasCollapseThreads: cmd.Flags().Changed("collapse-threads"),
		Page:               searchPage,
	})
	return render(env)
}

// loadFilterJSON parses raw as a JSON filter object, or reads it from a file
// first when raw begins with "@", per spec.md's --filter-json @path form.
func loadFilterJSON(raw string) (sugar.Filter, error) {
	if raw == "" {
		return nil, nil
	}
	body := raw
	if strings.HasPrefix(raw, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading --filter-json file: %w", err)
		}
		body = string(b)
	}
	var f sugar.Filter
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		return nil, fmt.Errorf("parsing --filter-json: %w", err)
	}
	return f, nil
}
