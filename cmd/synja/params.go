package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/justyntemme/synja/pkg/framework/state"
)

var paramsCmd = &cobra.Command{
	Use:   "params [filter]",
	Short: "List parameters with their current values",
	Long: `List every parameter after --patch and --set are applied. An optional
filter keeps names containing it, ignoring case.

Examples:
  synja params
  synja params filter --patch bass.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParams,
}

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Manage patch banks",
}

var patchSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save the current parameters as a patch bank",
	Long: `Write the parameters, after --patch and --set are applied, to a JSON
patch bank holding one preset.

Example:
  synja patch save pad.json --name Pad --set FilterCutoff="600 Hz" --set AmpEnvAttack="400 ms"`,
	Args: cobra.ExactArgs(1),
	RunE: runPatchSave,
}

var patchName string

func init() {
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(patchCmd)
	patchCmd.AddCommand(patchSaveCmd)
	patchSaveCmd.Flags().StringVar(&patchName, "name", "Init", "Preset name")
}

func runParams(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}
	if err := applyOverrides(params); err != nil {
		return err
	}

	var filter string
	if len(args) == 1 {
		filter = strings.ToLower(args[0])
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE\tDEFAULT\tRANGE")
	for _, p := range params.All() {
		if filter != "" && !strings.Contains(strings.ToLower(p.Name), filter) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s .. %s\n",
			p.Name, p.String(),
			p.FormatValue(p.Normalize(p.DefaultValue)),
			p.FormatValue(0), p.FormatValue(1))
	}
	return tw.Flush()
}

func runPatchSave(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}
	if err := applyOverrides(params); err != nil {
		return err
	}

	path, err := homedir.Expand(args[0])
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := state.NewManager(params.Registry).Save(f, patchName); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("saved preset %q to %s\n", patchName, args[0])
	return nil
}
