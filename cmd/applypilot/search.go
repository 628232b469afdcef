package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"applypilot/internal/domain"
	"applypilot/internal/logging"
	"applypilot/internal/platform"
)

var (
	searchKeywords  string
	searchLocation  string
	searchRemote    bool
	searchLimit     int
	searchPlatforms []string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search job postings with a quick-apply flow",
	Long: `Scrapes quick-apply job listings from the configured platforms and
prints them with their URLs, ready to hand to 'applypilot apply'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context())
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchKeywords, "keywords", "k", "", "search keywords")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "location filter")
	searchCmd.Flags().BoolVar(&searchRemote, "remote", false, "remote roles only")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 25, "maximum results per platform")
	searchCmd.Flags().StringSliceVarP(&searchPlatforms, "platform", "p", nil, "platforms to search (default: all)")
	_ = searchCmd.MarkFlagRequired("keywords")
}

func runSearch(ctx context.Context) error {
	cfg := loadedConfig

	reg, surfaces := newRegistry(cfg)
	defer func() {
		for _, s := range surfaces {
			s.Close()
		}
	}()

	targets, err := searchTargets(reg)
	if err != nil {
		return err
	}

	filter := domain.SearchFilter{
		Keywords:   searchKeywords,
		Location:   searchLocation,
		Remote:     searchRemote,
		MaxResults: searchLimit,
	}

	// Each adapter owns its own surface, so platforms search in parallel.
	var (
		mu   sync.Mutex
		jobs []domain.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range targets {
		adapter := adapter
		g.Go(func() error {
			found, err := adapter.SearchJobs(gctx, filter, func(stage string, percent int) {
				logging.SearchDebug("%s: %s (%d%%)", adapter.Platform(), stage, percent)
			})
			if err != nil {
				// One dead platform must not sink the others.
				logging.SearchDebug("%s search failed: %v", adapter.Platform(), err)
				fmt.Printf("Warning: %s search failed: %v\n", adapter.Platform(), err)
				return nil
			}
			mu.Lock()
			jobs = append(jobs, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printJobs(jobs)
	return nil
}

// searchTargets resolves the --platform selection against the registry.
func searchTargets(reg *platform.Registry) ([]platform.Adapter, error) {
	if len(searchPlatforms) == 0 {
		var out []platform.Adapter
		for _, p := range reg.Platforms() {
			a, _ := reg.Get(p)
			out = append(out, a)
		}
		return out, nil
	}

	var out []platform.Adapter
	for _, name := range searchPlatforms {
		a, err := reg.Get(domain.Platform(strings.ToLower(name)))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func printJobs(jobs []domain.Job) {
	if len(jobs) == 0 {
		fmt.Println("No matching quick-apply jobs found.")
		return
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].Platform != jobs[j].Platform {
			return jobs[i].Platform < jobs[j].Platform
		}
		return jobs[i].Title < jobs[j].Title
	})

	fmt.Printf("Found %d jobs:\n\n", len(jobs))
	for _, j := range jobs {
		fmt.Printf("  [%s] %s — %s", j.Platform, j.Title, j.Company)
		if j.Location != "" {
			fmt.Printf(" (%s)", j.Location)
		}
		fmt.Printf("\n      %s\n", j.URL)
	}
}
