package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/stream"
)

var (
	runCity string
	runKind string
)

var runCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Enrich a single target and print its event stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnrich(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		target := model.Target{Name: args[0], Context: map[string]string{}}
		if runCity != "" {
			target.Context["city"] = runCity
		}
		if runKind != "" {
			target.Context["kind"] = runKind
		}

		em := stream.NewLineEmitter(os.Stdout)
		_, err = env.Orchestrator.Run(cmd.Context(), []model.Target{target}, em)
		return err
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the profile store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Migrate(cmd.Context())
	},
}

var getCmd = &cobra.Command{
	Use:   "get <slug>",
	Short: "Print a stored profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := st.GetProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if p == nil {
			return eris.Errorf("no profile for %q", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

func init() {
	runCmd.Flags().StringVar(&runCity, "city", "", "city context for the lookup")
	runCmd.Flags().StringVar(&runKind, "kind", "", "target kind: property, neighborhood, or landmark")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(getCmd)
}
