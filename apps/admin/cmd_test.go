package main

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := &commandLine{db: &sqlx.DB{}}

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			checkCLIErr(t, tt, err)
		})
	}
}

func Test_commandLine_unknownCommand(t *testing.T) {
	cli := &commandLine{}
	if err := cli.run([]string{"admin", "lol"}); err != errHelp {
		t.Errorf("err = %v; want %v", err, errHelp)
	}
	if err := cli.run([]string{"admin"}); err != errHelp {
		t.Errorf("err = %v; want %v", err, errHelp)
	}
}

func checkCLIErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("err = %v; want %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("err = %v; want %q", err, tt.wantErrStr)
		}
	default:
		if err != nil {
			t.Errorf("err = %v; want nil", err)
		}
	}
}
