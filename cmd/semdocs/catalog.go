package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semdocs/catalog"
)

type catalogFlags struct {
	jsonOutput bool
	resources  bool
	family     string
	sortBy     string
	metricsOut string
}

func catalogCmd(global *globalFlags) *cobra.Command {
	flags := &catalogFlags{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Build the content catalog and list its components",
		Long: `Aggregate the playbook's content sources, classify every file and
print the resulting components and versions. With --resources each
classified resource is listed with its published URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.family != "" && !catalog.Family(flags.family).IsValid() {
				return fmt.Errorf("unknown family %q", flags.family)
			}
			logger := newLogger(global.logLevel)
			cfg, err := loadPlaybook(global.playbook, logger)
			if err != nil {
				return err
			}
			b, err := newBuilder(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			c, buildErr := b.build(ctx)
			if err := b.writeMetrics(flags.metricsOut); err != nil {
				return err
			}
			if buildErr != nil {
				return buildErr
			}

			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				return writeCatalogJSON(out, c, flags)
			}
			writeCatalogText(out, c, flags)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the catalog as JSON")
	cmd.Flags().BoolVar(&flags.resources, "resources", false, "List resources as well as components")
	cmd.Flags().StringVar(&flags.family, "family", "", "Only list resources of this family (implies --resources)")
	cmd.Flags().StringVar(&flags.sortBy, "sort", "", "Sort components by name or title (default: playbook order)")
	cmd.Flags().StringVar(&flags.metricsOut, "metrics-out", "", "Write build metrics to this file in the prometheus text format")

	return cmd
}

// catalogReport is the JSON form of a catalog build.
type catalogReport struct {
	BuildID       string               `json:"buildId"`
	SiteStartPage string               `json:"siteStartPage,omitempty"`
	Components    []*catalog.Component `json:"components"`
	Resources     []resourceReport     `json:"resources,omitempty"`
	Stats         statsReport          `json:"stats"`
	Warnings      []warningReport      `json:"warnings,omitempty"`
}

type resourceReport struct {
	ID        string `json:"id"`
	Family    string `json:"family"`
	MediaType string `json:"mediaType,omitempty"`
	Out       string `json:"out,omitempty"`
	URL       string `json:"url,omitempty"`
}

type statsReport struct {
	Components  int            `json:"components"`
	Versions    int            `json:"versions"`
	Resources   int            `json:"resources"`
	Unpublished int            `json:"unpublished"`
	Rejected    int            `json:"rejected"`
	Families    map[string]int `json:"families"`
}

type warningReport struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (f *catalogFlags) listResources() bool {
	return f.resources || f.family != ""
}

// selectResources returns the resources to list, in catalog order.
func selectResources(c *catalog.Catalog, flags *catalogFlags) []*catalog.Resource {
	if !flags.listResources() {
		return nil
	}
	if flags.family == "" {
		return c.GetAll()
	}
	return c.FindBy(catalog.Filter{Family: catalog.Family(flags.family)})
}

func newResourceReport(r *catalog.Resource) resourceReport {
	report := resourceReport{
		ID:        r.ID().String(),
		Family:    string(r.Src.Family),
		MediaType: r.MediaType,
	}
	if r.Out != nil {
		report.Out = r.Out.Path
	}
	if r.Pub != nil {
		report.URL = r.Pub.URL
	}
	return report
}

func newCatalogReport(c *catalog.Catalog, flags *catalogFlags) catalogReport {
	stats := c.Stats()
	report := catalogReport{
		BuildID:    c.BuildID(),
		Components: c.GetComponentsSortedBy(flags.sortBy),
		Stats: statsReport{
			Components:  stats.Components,
			Versions:    stats.Versions,
			Resources:   stats.Resources,
			Unpublished: stats.Unpublished,
			Rejected:    stats.Rejected,
			Families:    make(map[string]int, len(stats.Families)),
		},
	}
	for family, n := range stats.Families {
		report.Stats.Families[string(family)] = n
	}
	if page := c.GetSiteStartPage(); page != nil && page.Pub != nil {
		report.SiteStartPage = page.Pub.URL
	}
	for _, r := range selectResources(c, flags) {
		report.Resources = append(report.Resources, newResourceReport(r))
	}
	for _, w := range c.Warnings() {
		report.Warnings = append(report.Warnings, warningReport{Kind: w.Kind, Message: w.Message})
	}
	return report
}

func writeCatalogJSON(w io.Writer, c *catalog.Catalog, flags *catalogFlags) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newCatalogReport(c, flags))
}

func writeCatalogText(w io.Writer, c *catalog.Catalog, flags *catalogFlags) {
	report := newCatalogReport(c, flags)

	fmt.Fprintf(w, "%-24s %-16s %-20s %s\n", "COMPONENT", "VERSION", "DISPLAY VERSION", "URL")
	for _, component := range report.Components {
		for _, cv := range component.Versions {
			version := cv.Version
			if version == "" {
				version = "~"
			}
			if cv.Prerelease.IsSet() {
				version += " (pre)"
			}
			fmt.Fprintf(w, "%-24s %-16s %-20s %s\n", component.Name, version, cv.DisplayVersion, cv.URL)
		}
	}

	if len(report.Resources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-60s %s\n", "RESOURCE", "URL")
		for _, r := range report.Resources {
			url := r.URL
			if url == "" {
				url = "-"
			}
			fmt.Fprintf(w, "%-60s %s\n", r.ID, url)
		}
	}

	fmt.Fprintln(w)
	if report.SiteStartPage != "" {
		fmt.Fprintf(w, "Site start page: %s\n", report.SiteStartPage)
	}
	fmt.Fprintf(w, "%d components, %d versions, %d resources (%d unpublished, %d rejected, %d warnings)\n",
		report.Stats.Components, report.Stats.Versions, report.Stats.Resources,
		report.Stats.Unpublished, report.Stats.Rejected, len(report.Warnings))
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning.Message)
	}
}
