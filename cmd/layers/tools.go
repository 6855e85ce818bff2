package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joeblew999/plat-layers/internal/config"
	"github.com/joeblew999/plat-layers/internal/layertree"
	"github.com/joeblew999/plat-layers/internal/service"
)

// toolCommands are the offline commands that work on layer files and tokens
// without a running server.
func toolCommands() []*cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode <layers.yaml>",
		Short: "Print the permalink token of a YAML layer list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reverse, _ := cmd.Flags().GetBool("reverse")
			return encodeFile(cmd.OutOrStdout(), args[0], reverse)
		},
	}
	encodeCmd.Flags().Bool("reverse", false, "List the bottom layer first")

	decodeCmd := &cobra.Command{
		Use:   "decode <token>",
		Short: "Decode a permalink token into JSON layer parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reverse, _ := cmd.Flags().GetBool("reverse")
			return decodeToken(cmd.OutOrStdout(), args[0], reverse)
		},
	}
	decodeCmd.Flags().Bool("reverse", false, "Token lists the bottom layer first")

	wmsCmd := &cobra.Command{
		Use:   "wms-params <layers.yaml>",
		Short: "Print the WMS request parameters of each top-level layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wmsParamsFile(cmd.OutOrStdout(), args[0])
		},
	}

	return []*cobra.Command{encodeCmd, decodeCmd, wmsCmd}
}

func readLayers(path string) ([]*layertree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	layers, err := service.ParseLayers(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	used := layertree.NewUUIDSet()
	for i, l := range layers {
		layers[i] = layertree.AssignIdentities(layertree.EnforceExclusivity(l), used)
	}
	return layers, nil
}

func encodeFile(w io.Writer, path string, reverse bool) error {
	layers, err := readLayers(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, layertree.EncodeLayers(layers, layertree.CodecOptions{ReverseOrder: reverse}))
	return err
}

func decodeToken(w io.Writer, token string, reverse bool) error {
	params := layertree.DecodeLayers(token, layertree.CodecOptions{ReverseOrder: reverse})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(params)
}

func wmsParamsFile(w io.Writer, path string) error {
	layers, err := readLayers(path)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLAYERS\tOPACITIES\tSTYLES")
	for _, l := range layers {
		if l.Type != layertree.TypeWMS && l.Type != layertree.TypeTheme {
			continue
		}
		p := layertree.BuildWMSParams(l)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Name, p.Layers, p.Opacities, p.Styles)
	}
	return tw.Flush()
}

func listThemes(w io.Writer, dataDir, configFile string) error {
	cfg, err := config.Load(config.Resolve(configFile, dataDir))
	if err != nil {
		return err
	}
	themes, err := service.NewThemeService(cfg.ThemesPath(dataDir))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLAYERS\tBACKGROUNDS")
	for _, t := range themes.List() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", t.ID, t.Title, t.Layers, t.Backgrounds)
	}
	return tw.Flush()
}
