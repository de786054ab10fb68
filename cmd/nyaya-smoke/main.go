// Smoke check against a live backend: probes the hosts, optionally logs in,
// then reads one small page of every list resource and reports what came back.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/session"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "nyaya-smoke",
		Short:         "Check a live backend end to end",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVar(&baseURL, "base-url", "", "backend URL (default: built-in)")
	root.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Nyaya Backend Smoke Check ===")
	fmt.Println()

	cfg := model.DefaultConfig()
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	client, err := api.NewClient(cfg, session.New(session.NewMemoryStore()))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	base, err := client.Probe(ctx)
	if err != nil {
		return fmt.Errorf("no backend reachable: %w", err)
	}
	fmt.Printf("✓ Backend: %s\n", base)

	// Data routes need a user; NYAYA_EMAIL and NYAYA_PASSWORD supply one
	if email, password := os.Getenv("NYAYA_EMAIL"), os.Getenv("NYAYA_PASSWORD"); email != "" && password != "" {
		if _, err := client.Login(ctx, email, password); err != nil {
			return fmt.Errorf("login as %s: %w", email, err)
		}
		fmt.Printf("✓ Logged in as %s\n", email)
	}
	fmt.Println()

	failed := 0
	check := func(name string, fn func() (int, bool, error)) {
		fmt.Printf("%s\n%s\n", name, strings.Repeat("-", 60))
		n, more, err := fn()
		if err != nil {
			failed++
			fmt.Printf("  ✗ %v\n\n", err)
			return
		}
		fmt.Printf("  ✓ %d rows (has more: %t)\n\n", n, more)
	}

	for _, court := range []model.CourtType{model.CourtHigh, model.CourtSupreme} {
		check("Judgments ("+string(court)+")", func() (int, bool, error) {
			page, err := client.ListJudgements(ctx, court, api.JudgementQuery{
				Filters: model.DefaultFilters(court.FilterKind()),
				Limit:   5,
			})
			if err != nil {
				return 0, false, err
			}
			for _, j := range page.Data {
				fmt.Printf("    %d  %s\n", j.ID, j.Title())
			}
			return len(page.Data), page.HasMore(), nil
		})
	}

	for _, t := range model.MappingTypes {
		check("Mappings ("+string(t)+")", func() (int, bool, error) {
			page, err := client.GetLawMappings(ctx, api.MappingQuery{
				Filters: model.MappingFilters{MappingType: t},
				Limit:   5,
			})
			if err != nil {
				return 0, false, err
			}
			return len(page.Data), page.HasMore(), nil
		})
	}

	for _, t := range []model.ActType{model.ActCentral, model.ActState} {
		check("Acts ("+string(t)+")", func() (int, bool, error) {
			page, err := client.ListActs(ctx, api.ActQuery{
				Filters: model.ActFilters{Type: t},
				Limit:   5,
			})
			if err != nil {
				return 0, false, err
			}
			return len(page.Data), page.HasMore(), nil
		})
	}

	fmt.Println("=== Check Complete ===")
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}
