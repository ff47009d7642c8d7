package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/frmr/tools"
)

// Run executes the tools command.
func (c *ToolsCmd) Run(deps *Dependencies) error {
	res := tools.SearchCatalog(deps.Tools.Tools(), c.Query, c.Category, c.Limit)
	if res.Total == 0 {
		fmt.Fprintln(deps.Stdout, "No tools found.")
		return nil
	}

	for _, e := range res.Results {
		fmt.Fprintf(deps.Stdout, "%-34s %-10s %s\n", e.Name, e.Category, e.Description)
		if len(e.Parameters) > 0 {
			fmt.Fprintf(deps.Stdout, "%-34s %-10s args: %s\n", "", "", strings.Join(e.Parameters, ", "))
		}
	}
	return nil
}
