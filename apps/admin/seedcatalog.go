package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/bolingo/core/catalog"
)

// seedFile is the layout of the catalog seed file.
type seedFile struct {
	Skills    []catalog.NewEntry `yaml:"skills"`
	Interests []catalog.NewEntry `yaml:"interests"`
}

func (cli *commandLine) seedCatalogCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seedcatalog",
		Short: "Create the skills & interests listed in a YAML file. Existing names are skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			skills, interests, err := cli.seedCatalog(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%d skill(s) and %d interest(s) created\n", skills, interests)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", cli.c.Conf.CatalogSeedFile, "the seed file")
	return cmd
}

func (cli *commandLine) seedCatalog(ctx context.Context, file string) (skills, interests int, err error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return 0, 0, errors.Wrap(err, "reading seed file")
	}
	var seed seedFile
	if err = yaml.Unmarshal(raw, &seed); err != nil {
		return 0, 0, errors.Wrapf(err, "parsing %s", file)
	}

	c := cli.c
	if skills, err = c.SkillSvc.Seed(ctx, c.Validate, seed.Skills); err != nil {
		return skills, 0, errors.Wrap(err, "seeding skills")
	}
	if interests, err = c.InterestSvc.Seed(ctx, c.Validate, seed.Interests); err != nil {
		return skills, interests, errors.Wrap(err, "seeding interests")
	}
	return skills, interests, nil
}
