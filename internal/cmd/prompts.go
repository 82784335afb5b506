package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/coinlens/coinlens/internal/ailink/prompt"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List estimation prompts",
	Long:  "List the built-in prompts plus any overrides from ailink.prompts_dir.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		registry, err := prompt.LoadRegistry(cfg.AILink.PromptsDir)
		if err != nil {
			return err
		}

		prompts := registry.List()
		if len(prompts) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No prompts found.")
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Slug", "Version", "Images", "Source", "Description"})
		for _, p := range prompts {
			if p == nil {
				continue
			}
			images := "-"
			if p.Config.Input.AcceptsImages {
				images = strings.Join(p.Config.Input.ImageTypes, ",")
			}
			t.AppendRow(table.Row{p.Config.Slug, p.Config.Version, images, p.Source, p.Config.Description})
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return err
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Print a prompt's templates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		registry, err := prompt.LoadRegistry(cfg.AILink.PromptsDir)
		if err != nil {
			return err
		}
		p, err := registry.Get(strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "# %s (%s)\n\n", p.Config.Slug, p.Config.Version)
		_, _ = fmt.Fprintf(out, "## system\n\n%s\n\n", strings.TrimSpace(p.Config.SystemTemplate))
		_, err = fmt.Fprintf(out, "## user\n\n%s\n", strings.TrimSpace(p.Config.UserTemplate))
		return err
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
	promptsCmd.AddCommand(promptsShowCmd)
}
