package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobeaver/folio/project"
)

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert projects from a YAML file",
		Long: `Insert the projects listed in a YAML file:

  projects:
    - name: folio
      description: Portfolio backend
      tags: [go, echo]
      status: active
      is_featured: true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			inputs, err := project.LoadSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			created, err := project.Seed(cmd.Context(), app.Projects, inputs)
			for _, p := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created project %d: %s\n", p.ID, p.Name)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "projects.yaml", "YAML file with projects to insert")

	return cmd
}
