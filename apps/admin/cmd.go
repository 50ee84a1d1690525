package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edusuite/gradebook/core/gradebook"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db    *sqlx.DB
	store gradebook.Store
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [up|down|status|...] - run database migrations")
	fmt.Println("  addassignment -site SITE_ID -name NAME [-points POINTS] [-category CATEGORY] - add an assignment to a site's gradebook")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAssignmentCmd := flag.NewFlagSet("addassignment", flag.ExitOnError)
	addAssignmentSite := addAssignmentCmd.String("site", "", "The site whose gradebook receives the assignment.")
	addAssignmentName := addAssignmentCmd.String("name", "", "The assignment's name.")
	addAssignmentPoints := addAssignmentCmd.Float64("points", 100, "The assignment's maximum points.")
	addAssignmentCategory := addAssignmentCmd.String("category", "", "An optional category.")

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "addassignment":
		if err := addAssignmentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAssignmentSite == "" || *addAssignmentName == "" {
			addAssignmentCmd.Usage()
			return errHelp
		}
		return cli.addAssignment(*addAssignmentSite, *addAssignmentName, *addAssignmentPoints, *addAssignmentCategory)
	default:
		cli.printUsage()
		return errHelp
	}
}
