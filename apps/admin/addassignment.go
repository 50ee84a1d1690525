package main

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core/gradebook"
)

func (cli *commandLine) addAssignment(siteID, name string, points float64, category string) error {
	ctx := context.Background()

	gb, err := cli.store.Gradebook(ctx, siteID)
	if err != nil {
		return err
	}
	added, err := cli.store.AddAssignment(ctx, gb.ID, gradebook.Assignment{
		Name:     name,
		Points:   points,
		Category: null.NewString(category, category != ""),
	})
	if err != nil {
		return err
	}
	logger.Printf("assignment %q created with id %s", added.Name, added.ID)
	return nil
}
