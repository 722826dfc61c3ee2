// Command vqlite is a line-oriented REPL: it tokenizes a handful of
// meta-commands and one insert/select grammar, and drives the pagedkv/btree
// tree that does all of the real work.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"pagedkv/btree"
	"pagedkv/internal/dblog"
	"pagedkv/pager"
	"pagedkv/row"
)

func executeStatement(tree *btree.Tree, stmt Statement) error {
	switch stmt.Type {
	case StatementInsert:
		return tree.Insert(stmt.RowToInsert)
	case StatementSelect:
		var rows []row.Row
		if err := tree.Select(&rows); err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Printf("(%d, %s, %s)\n", r.ID, r.Key(), r.Value())
		}
		return nil
	}
	return nil
}

func run(dbPath string, debug bool) error {
	log := dblog.Noop()
	if debug {
		log = dblog.New(true)
	}

	pg, err := pager.Open(dbPath, pager.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	tree, err := btree.New(pg, log)
	if err != nil {
		return fmt.Errorf("init tree: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		printPrompt()
		input, err := readInput(reader)
		if err != nil {
			if err == io.EOF {
				return pg.Close()
			}
			return err
		}

		if strings.HasPrefix(input, ".") {
			if handleMetaCommand(input, tree, pg) == MetaCommandUnrecognizedCommand {
				fmt.Println("error.UnrecognizedCommand")
			}
			continue
		}

		stmt, err := prepareStatement(input)
		if err != nil {
			fmt.Println(errorKind(err))
			continue
		}

		if err := executeStatement(tree, stmt); err != nil {
			fmt.Println(errorKind(err))
			continue
		}
		fmt.Println("Executed.")
	}
}

func main() {
	debug := flag.Bool("debug", false, "enable verbose structured logging")
	flag.Parse()

	dbPath := "vqlite.db"
	if flag.NArg() > 0 {
		dbPath = flag.Arg(0)
	}

	if err := run(dbPath, *debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
