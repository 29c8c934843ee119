package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/tansive/trackcatalog/pkg/api"
	"sigs.k8s.io/yaml"
)

func newTypesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage track types",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "register DIR",
		Short: "Register the track types defined in a directory",
		Long: `Register the track types defined in the YAML or JSON files of a directory.
A file holds a single definition, a list of definitions or a document with a
"types" list. Existing types are updated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := ReadTypeDefinitions(args[0])
			if err != nil {
				return err
			}
			client, err := root.client()
			if err != nil {
				return err
			}
			names, err := client.RegisterTypes(cmd.Context(), defs)
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return root.printJSON(cmd, api.RegisterTypesRsp{Registered: names})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d track types\n", len(names))
			return nil
		},
	})
	return cmd
}

var typeFileExts = []string{".yaml", ".yml", ".json"}

// ReadTypeDefinitions reads every definition file in dir in name order.
func ReadTypeDefinitions(dir string) ([]api.TypeDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read type directory: %w", err)
	}
	var defs []api.TypeDefinition
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(typeFileExts, filepath.Ext(e.Name())) {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		fileDefs, err := parseTypeDefinitions(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		defs = append(defs, fileDefs...)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no type definitions found in %s", dir)
	}
	return defs, nil
}

func parseTypeDefinitions(b []byte) ([]api.TypeDefinition, error) {
	j, err := yaml.YAMLToJSON(b)
	if err != nil {
		return nil, err
	}
	j = bytes.TrimSpace(j)
	if len(j) > 0 && j[0] == '[' {
		var defs []api.TypeDefinition
		err := json.Unmarshal(j, &defs)
		return defs, err
	}
	var doc struct {
		Types []api.TypeDefinition `json:"types"`
	}
	if err := json.Unmarshal(j, &doc); err != nil {
		return nil, err
	}
	if doc.Types != nil {
		return doc.Types, nil
	}
	var def api.TypeDefinition
	if err := json.Unmarshal(j, &def); err != nil {
		return nil, err
	}
	return []api.TypeDefinition{def}, nil
}
