package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/frmr/tools"
)

// Run executes the call command. Failures print the error envelope a
// protocol client would receive.
func (c *CallCmd) Run(deps *Dependencies) error {
	if _, err := deps.Index.Build(deps.Ctx, false); err != nil {
		_ = writeJSON(deps.Stdout, tools.ErrorResult(err))
		printError(deps, err)
		return err
	}

	res, err := deps.Tools.CallTool(deps.Ctx, c.Tool, json.RawMessage(c.Args))
	if err != nil {
		_ = writeJSON(deps.Stdout, tools.ErrorResult(err))
		printError(deps, err)
		return err
	}
	return writeJSON(deps.Stdout, res)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
