package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	commonuuid "github.com/tansive/trackcatalog/internal/common/uuid"
	"github.com/tansive/trackcatalog/internal/loader/trackclient"
)

func newDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete GENOME_ID",
		Short: "Delete all tracks of a genome",
		Long: `Delete all tracks of a genome. Categories, types and sources are kept.

Example:
  trackloader delete 2284d28a-2cf7-41f0-bed6-0982601f7888`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genomeID := args[0]
			if !commonuuid.IsCanonical(genomeID) {
				return fmt.Errorf("invalid genome id %q", genomeID)
			}
			client, err := root.client()
			if err != nil {
				return err
			}
			status, err := client.DeleteGenomeTracks(cmd.Context(), genomeID)
			if err != nil {
				return err
			}
			msg := "Deleted tracks of genome " + genomeID
			if status == trackclient.NothingToDelete {
				msg = "No tracks found for genome " + genomeID
			}
			if root.jsonOutput {
				return root.printJSON(cmd, map[string]string{"genome_id": genomeID, "result": msg})
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
