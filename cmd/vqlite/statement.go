package main

import (
	"regexp"
	"strconv"

	"pagedkv/row"
)

// StatementType distinguishes the two statements this REPL understands: its
// own narrow grammar, not a general SQL parser.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

// Statement is a parsed, ready-to-execute line.
type Statement struct {
	Type        StatementType
	RowToInsert row.Row
}

// insertPattern matches `insert <id> '<key>' '<value>'`.
var insertPattern = regexp.MustCompile(`^insert\s+(\d+)\s+'([^']*)'\s+'([^']*)'\s*$`)

// prepareStatement parses input into a Statement. A row-construction
// failure (dberr.KeyTooLong/ValueTooLong) is returned as-is so the caller
// renders it the same way as any other core error.
func prepareStatement(input string) (Statement, error) {
	if input == "select" {
		return Statement{Type: StatementSelect}, nil
	}
	if len(input) >= len("insert") && input[:len("insert")] == "insert" {
		m := insertPattern.FindStringSubmatch(input)
		if m == nil {
			return Statement{}, errSyntax
		}
		id, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return Statement{}, errSyntax
		}
		r, err := row.New(uint32(id), []byte(m[2]), []byte(m[3]))
		if err != nil {
			return Statement{}, err
		}
		return Statement{Type: StatementInsert, RowToInsert: r}, nil
	}
	return Statement{}, errUnrecognizedStatement
}
