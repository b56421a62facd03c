package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sakif/ledger/internal/apperror"
)

const (
	ExitOK      = 0
	ExitFailure = 1 // bad input, missing records, usage errors
	ExitStorage = 2 // the database failed; the session cannot continue
)

// Execute runs the command line in args and returns the process exit code.
// Errors are reported on errOut.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root, a := newRoot(out, errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil && cerr != nil {
		err = apperror.Storage("closing database", cerr)
	}
	if err == nil {
		return ExitOK
	}

	code := ExitCode(err)
	if code == ExitStorage {
		fmt.Fprintf(errOut, "storage failure, stopping: %v\n", err)
	} else {
		fmt.Fprintf(errOut, "error: %s\n", userMessage(err))
	}
	return code
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, apperror.ErrStorage):
		return ExitStorage
	default:
		return ExitFailure
	}
}

// userMessage prefers the AppError message, which leaves out wrapping
// context meant for logs.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
