package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/greenpoints/internal/pointsync"
)

var (
	syncMaterialID int64
	syncAll        bool
)

var syncPointsCmd = &cobra.Command{
	Use:   "sync-points",
	Short: "Copy material default points onto every approved center",
	Long: `Overwrites each approved center's point config for a material with the
material's default points, enabled, at multiplier 1.0. Center customizations
for that material are replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncAll == (syncMaterialID != 0) {
			return errors.New("pass exactly one of --material or --all")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		syncer := pointsync.NewSyncer(db, cfg.SyncConcurrency, logger.With("component", "pointsync"))
		out := cmd.OutOrStdout()

		if syncAll {
			results, err := syncer.SyncAll(cmd.Context())
			for _, res := range results {
				fmt.Fprintf(out, "material %d: %d centers\n", res.MaterialID, len(res.Configs))
			}
			return err
		}

		res, err := syncer.SyncMaterial(cmd.Context(), syncMaterialID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "material %d: %d centers\n", res.MaterialID, len(res.Configs))
		return nil
	},
}

func init() {
	syncPointsCmd.Flags().Int64Var(&syncMaterialID, "material", 0, "material id to sync")
	syncPointsCmd.Flags().BoolVar(&syncAll, "all", false, "sync every active material")
	rootCmd.AddCommand(syncPointsCmd)
}
