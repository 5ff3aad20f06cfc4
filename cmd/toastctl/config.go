package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	godbus "github.com/godbus/dbus/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/layout"
)

var configOpts struct {
	output  string
	persist bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the toastd configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration file with defaults applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalOpts.configPath)
		if err != nil {
			return err
		}
		return printConfig(cmd.OutOrStdout(), cfg, configOpts.output)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file and templates directory paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := globalOpts.configPath
		if path == "" {
			path = config.Path()
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		fmt.Fprintln(cmd.OutOrStdout(), config.TemplatesDir())
		return nil
	},
}

var configTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the built-in content templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range layout.ListEmbeddedTemplates() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var configSetTemplateCmd = &cobra.Command{
	Use:   "set-template LOCATION",
	Short: "Change the content template used for new toasts",
	Long: `Change the content template used for new toasts. LOCATION is the name
of a built-in or user template, or a path to an XML file. Toasts already
on screen keep their content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location := args[0]
		if err := withClient(func(c *dbus.Client) error {
			return c.SetContentTemplate(location)
		}); err != nil {
			return err
		}
		if configOpts.persist {
			return persist(config.Partial{Template: &location})
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE...",
	Short: "Change settings on the running daemon",
	Long: `Change settings on the running daemon. Keys are width, height, padding,
offset_x, offset_y, max_visible, display_time, content_ready,
animation_duration, animation_step, icon and template. Durations take
values such as 150ms or 5s.

Changing a size or offset moves the toasts on screen to their new slots.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := parseSettings(args)
		if err != nil {
			return err
		}
		// Validate locally so typos fail before reaching the daemon.
		p, err := dbus.PartialFromVariants(settings)
		if err != nil {
			return err
		}

		if err := withClient(func(c *dbus.Client) error {
			return c.SetConfiguration(settings)
		}); err != nil {
			return err
		}
		if configOpts.persist {
			return persist(p)
		}
		return nil
	},
}

func init() {
	configShowCmd.Flags().StringVarP(&configOpts.output, "output", "o", "toml",
		"Output format: toml or yaml")
	for _, cmd := range []*cobra.Command{configSetTemplateCmd, configSetCmd} {
		cmd.Flags().BoolVar(&configOpts.persist, "persist", false,
			"Also write the change to the config file")
	}

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configTemplatesCmd)
	configCmd.AddCommand(configSetTemplateCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func printConfig(w io.Writer, cfg *config.Config, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "toml":
		data, err = toml.Marshal(cfg)
	case "yaml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// parseSettings converts KEY=VALUE arguments to SetConfiguration variants.
// Integers are sent as int32 and everything else as strings.
func parseSettings(args []string) (map[string]godbus.Variant, error) {
	settings := make(map[string]godbus.Variant, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid setting %q, want KEY=VALUE", arg)
		}
		if n, err := strconv.ParseInt(value, 10, 32); err == nil {
			settings[key] = godbus.MakeVariant(int32(n))
		} else {
			settings[key] = godbus.MakeVariant(value)
		}
	}
	return settings, nil
}

// persist merges p into the config file.
func persist(p config.Partial) error {
	cfg, err := config.Load(globalOpts.configPath)
	if err != nil {
		return err
	}
	next, err := cfg.Merge(p)
	if err != nil {
		return err
	}
	return next.Save(globalOpts.configPath)
}
