package main

import (
	"errors"
	"fmt"
	"os"

	"pagedkv/btree"
	"pagedkv/dberr"
	"pagedkv/pager"
)

// MetaCommandResult is the outcome of dispatching a "." line.
type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandUnrecognizedCommand
)

// handleMetaCommand dispatches ".exit" and ".btree". ".exit" flushes and
// closes pg before terminating the process, so a dirty page is never lost.
func handleMetaCommand(input string, tree *btree.Tree, pg *pager.Pager) MetaCommandResult {
	switch input {
	case ".exit":
		if err := pg.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	case ".btree":
		if err := tree.DumpShape(os.Stdout); err != nil {
			fmt.Println(errorKind(err))
		}
		return MetaCommandSuccess
	}
	return MetaCommandUnrecognizedCommand
}

// errUnrecognizedStatement and errSyntax are REPL-local; they never leave
// this package, unlike the dberr sentinels propagated from the core.
var (
	errUnrecognizedStatement = errors.New("unrecognized statement")
	errSyntax                = errors.New("syntax error")
)

// errorKind renders err as the "error.<Kind>" text the REPL prints for
// user-visible error rendering.
func errorKind(err error) string {
	switch {
	case errors.Is(err, errUnrecognizedStatement):
		return "error.UnrecognizedCommand"
	case errors.Is(err, errSyntax):
		return "error.SyntaxError"
	case errors.Is(err, dberr.DuplicateKey):
		return "error.DuplicateKey"
	case errors.Is(err, dberr.KeyTooLong):
		return "error.KeyTooLong"
	case errors.Is(err, dberr.ValueTooLong):
		return "error.ValueTooLong"
	case errors.Is(err, dberr.TableFull):
		return "error.TableFull"
	case errors.Is(err, dberr.OutOfBound):
		return "error.OutOfBound"
	case errors.Is(err, dberr.NullPage):
		return "error.NullPage"
	case errors.Is(err, dberr.Corrupted):
		return "error.Corrupted"
	default:
		return "error." + err.Error()
	}
}
