package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tansive/trackcatalog/internal/deploy"
)

type deployOptions struct {
	basePath     string
	overwrite    bool
	skipExisting bool
	noVerify     bool
	noCreateDirs bool
}

func newDeployCmd(root *rootOptions) *cobra.Command {
	opts := &deployOptions{}
	cmd := &cobra.Command{
		Use:   "deploy JSON",
		Short: "Copy track files into the genome directory layout",
		Long: `Copy track files to {base}/{genome[:2]}/{genome}/{dataset}_{track}.{ext}.

JSON is either inline JSON or the path of a JSON file holding one object or a
list of objects with source_file, track_name, dataset_uuid and genome_uuid.

Example:
  trackloader deploy batch.json --base-path /srv/tracks --skip-existing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := deploy.ReadItems(args[0])
			if err != nil {
				return err
			}
			res := deploy.Deploy(cmd.Context(), items, deploy.Options{
				BasePath:     opts.basePath,
				CreateDirs:   !opts.noCreateDirs,
				Overwrite:    opts.overwrite,
				SkipExisting: opts.skipExisting,
				Verify:       !opts.noVerify,
			})
			if root.jsonOutput {
				if err := root.printJSON(cmd, res); err != nil {
					return err
				}
			} else {
				printDeployResults(cmd, res)
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d files failed to deploy", len(res.Failed), len(items))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.basePath, "base-path", "", "Base directory for track files")
	f.BoolVar(&opts.overwrite, "overwrite", false, "Overwrite existing files")
	f.BoolVar(&opts.skipExisting, "skip-existing", false, "Skip files that already exist at the destination")
	f.BoolVar(&opts.noVerify, "no-verify", false, "Do not compare checksums of existing files with --skip-existing")
	f.BoolVar(&opts.noCreateDirs, "no-create-dirs", false, "Do not create destination directories")
	_ = cmd.MarkFlagRequired("base-path")
	return cmd
}

func printDeployResults(cmd *cobra.Command, res *deploy.Results) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Copy completed:")
	fmt.Fprintf(out, "  Copied: %d files\n", len(res.Copied))
	fmt.Fprintf(out, "  Verified: %d files\n", len(res.Verified))
	fmt.Fprintf(out, "  Skipped: %d files\n", len(res.Skipped))
	fmt.Fprintf(out, "  Failed: %d files\n", len(res.Failed))
	if len(res.Copied) > 0 {
		fmt.Fprintln(out, "\nCopied files:")
		for _, p := range res.Copied {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}
	if len(res.Failed) > 0 {
		fmt.Fprintln(out, "\nFailed files:")
		for _, f := range res.Failed {
			fmt.Fprintf(out, "  - %s: %s\n", f.Item.SourceFile, f.Error)
		}
	}
}
