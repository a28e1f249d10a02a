package main

import (
	"errors"
	"fmt"

	"github.com/gnps/groupselector/pkg/dashboard"
	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/spf13/cobra"
)

var ErrUnresolved = errors.New("link can not be built")

func newLinkCommand(g *globals) *cobra.Command {
	in := dashboard.Input{}

	cmd := &cobra.Command{
		Use:   "link",
		Short: "print the LCMS viewer URL for two groups",
		Long: `Resolves two groups of files of a GNPS task and prints the URL of the LCMS
viewer comparing them.

Groups are terms of a metadata column. Unspecified column and terms fall back
to the same defaults as the dashboard.

Example:
  groupselector link --task 2532c7a7069b4fa69db9c89b4e1431cb \
    --column ATTRIBUTE_type --group1 case --group2 control --feature 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := g.config()
			if err != nil {
				return err
			}
			client, err := gnps.NewClient(conf.GNPS.ApiRoot, gnps.WithTimeout(conf.GNPS.Timeout))
			if err != nil {
				return err
			}
			o := dashboard.New(
				client,
				dashboard.WithDefaultTask(conf.DefaultTask),
				dashboard.WithViewerRoot(conf.Viewer.Root),
				dashboard.WithLogger(g.logger),
			)

			st := o.Run(cmd.Context(), in)
			switch {
			case st.Errors.Metadata != nil:
				return fmt.Errorf("%w: %w", ErrUnresolved, st.Errors.Metadata)
			case st.Errors.Groups != nil:
				return fmt.Errorf("%w: %w", ErrUnresolved, st.Errors.Groups)
			case st.Columns.Empty():
				return fmt.Errorf("%w: task %s has no grouping column", ErrUnresolved, st.Task)
			case in.Feature != "" && st.Errors.Features != nil:
				return fmt.Errorf("%w: %w", ErrUnresolved, st.Errors.Features)
			case st.Errors.Select != nil:
				return fmt.Errorf("%w: feature %s: %w", ErrUnresolved, in.Feature, st.Errors.Select)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), st.Link)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Task, "task", "", "GNPS task id. (default: default_task of the configuration)")
	flags.StringVar(&in.Column, "column", "", "metadata column grouping files")
	flags.StringArrayVar(&in.Group1, "group1", nil, "term of group 1. repeatable")
	flags.StringArrayVar(&in.Group2, "group2", nil, "term of group 2. repeatable")
	flags.StringVar(&in.Feature, "feature", "", "cluster index of the feature to visualize")
	return cmd
}
