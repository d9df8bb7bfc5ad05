package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inventario/internal/workflow"
)

// resultJSON is the --json shape of a workflow outcome.
type resultJSON struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func toResultJSON(r workflow.Result) resultJSON {
	out := resultJSON{OK: r.OK, Message: r.Message}
	if !r.OK {
		out.Reason = r.Reason.String()
	}
	return out
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// report prints a workflow outcome, as JSON in --json mode or as text, and
// converts a failure into an exit error.
func report(cmd *cobra.Command, r workflow.Result, jsonValue any, text string) error {
	if flags.jsonMode {
		if err := printJSON(cmd, jsonValue); err != nil {
			return err
		}
	} else if r.OK {
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}
	return resultError(r)
}

// resultError maps a failed Result to an exit error. Storage failures are
// system errors; everything the operator can fix is a user error.
func resultError(r workflow.Result) error {
	if r.OK {
		return nil
	}
	err := errors.New(r.Message)
	if r.Reason == workflow.ReasonIO {
		return &exitError{code: exitSysError, err: err}
	}
	return &exitError{code: exitUserError, err: err}
}

// parseQuantity parses a quantity argument. Range checks are left to the
// workflows.
func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, userError("quantity %q is not a whole number", s)
	}
	return n, nil
}
