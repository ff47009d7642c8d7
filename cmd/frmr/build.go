package main

import (
	"fmt"

	"github.com/fwojciec/frmr"
)

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	summary, err := deps.Index.Build(deps.Ctx, true)
	if err != nil {
		printError(deps, err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Indexed %d documents, %d KSI items, %d control mappings, %d markdown files\n",
		summary.Documents, summary.KsiItems, summary.Mappings, summary.MarkdownFiles)
	if summary.Revision != "" {
		fmt.Fprintf(deps.Stdout, "Revision: %s\n", summary.Revision)
	}
	fmt.Fprintf(deps.Stdout, "Build: %s\n", summary.BuildID)
	if summary.Errors > 0 {
		fmt.Fprintf(deps.Stdout, "%d files failed to load (see health_check)\n", summary.Errors)
	}
	return nil
}

// printError reports err and its hint on stderr.
func printError(deps *Dependencies, err error) {
	fmt.Fprintf(deps.Stderr, "error: %s\n", frmr.ErrorMessage(err))
	if hint := frmr.ErrorHint(err); hint != "" {
		fmt.Fprintf(deps.Stderr, "Hint: %s\n", hint)
	}
}
