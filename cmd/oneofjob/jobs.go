package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/oneofjob/internal/display"
	"github.com/amishk599/oneofjob/internal/filter"
	"github.com/amishk599/oneofjob/internal/model"
)

var jobsFlags struct {
	companies []string
	careers   []string
	keyword   string
	sort      string
	page      int
	id        string
	asJSON    bool
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs once and exit",
	Long:  "Fetches the listing from the upstream API, applies the filters, prints one page and exits. Does not touch the cache.",
	RunE:  runJobs,
}

func init() {
	f := jobsCmd.Flags()
	f.StringSliceVar(&jobsFlags.companies, "company", nil, "company filter (repeatable)")
	f.StringSliceVar(&jobsFlags.careers, "career", nil, "career level filter: 신입, 경력, 인턴 (repeatable)")
	f.StringVarP(&jobsFlags.keyword, "keyword", "k", "", "match title or company")
	f.StringVarP(&jobsFlags.sort, "sort", "s", string(filter.SortRecent), "recent, deadline or company")
	f.IntVarP(&jobsFlags.page, "page", "p", 1, "page number")
	f.StringVar(&jobsFlags.id, "id", "", "show a single job")
	f.BoolVar(&jobsFlags.asJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client := newUpstreamClient(cfg, logger)
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Upstream.Timeout)
	defer cancel()
	now := time.Now().In(cfg.Cache.Location)

	if jobsFlags.id != "" {
		job, err := client.FetchJob(ctx, jobsFlags.id)
		if err != nil {
			return fmt.Errorf("fetch job %s: %w", jobsFlags.id, err)
		}
		if jobsFlags.asJSON {
			return printJSON(display.NewJobView(job, now))
		}
		printJobDetail(job, now)
		return nil
	}

	jobs, err := client.FetchJobsWhere(ctx, upstreamQuery(jobsFlags.companies, jobsFlags.careers))
	if err != nil {
		return fmt.Errorf("fetch jobs: %w", err)
	}

	criteria := filter.Criteria{Companies: jobsFlags.companies, Keyword: jobsFlags.keyword}
	for _, c := range jobsFlags.careers {
		criteria.Careers = append(criteria.Careers, model.CareerLevel(c))
	}
	sorted := filter.Sort(filter.Apply(jobs, criteria), filter.ParseSort(jobsFlags.sort))
	page := filter.Paginate(sorted, jobsFlags.page, cfg.Listing.PageSize)

	if jobsFlags.asJSON {
		return printJSON(filter.Page[display.JobView]{
			Items:    display.Views(page.Items, now),
			Total:    page.Total,
			Page:     page.Page,
			PageSize: page.PageSize,
			HasMore:  page.HasMore,
		})
	}

	fmt.Printf("%-10s %-12s %-12s %-40s\n", "ID", "Company", "Deadline", "Title")
	fmt.Println(strings.Repeat("─", 78))
	for _, j := range page.Items {
		fmt.Printf("%-10s %-12s %-12s %-40s\n",
			display.Truncate(j.ID, 10),
			display.Truncate(j.Company, 12),
			display.DeadlineLabel(j, now),
			display.Truncate(j.Title, 40))
	}
	fmt.Printf("\nPage %d · %d of %d jobs", page.Page, len(page.Items), page.Total)
	if page.HasMore {
		fmt.Printf(" · next: --page %d", page.Page+1)
	}
	fmt.Println()
	return nil
}

// upstreamQuery lets the API narrow the listing when each dimension has a
// single value. Multi-value filters are OR within a dimension, which the API
// does not support, so those are applied locally only.
func upstreamQuery(companies, careers []string) url.Values {
	q := url.Values{}
	if len(companies) == 1 {
		q.Set("company", companies[0])
	}
	if len(careers) == 1 {
		q.Set("career", careers[0])
	}
	return q
}

func printJobDetail(job model.Job, now time.Time) {
	v := display.NewJobView(job, now)
	fmt.Printf("%s\n%s\n\n", v.Title, strings.Repeat("─", 40))
	fmt.Printf("%-12s %s\n", "Company", v.Company)
	fmt.Printf("%-12s %s\n", "Career", display.CareerList(v.Careers))
	if v.EmploymentType != "" {
		fmt.Printf("%-12s %s\n", "Employment", v.EmploymentType)
	}
	fmt.Printf("%-12s %s\n", "Period", v.DateRange)
	fmt.Printf("%-12s %s\n", "Deadline", v.Deadline)
	fmt.Printf("%-12s %s\n", "URL", v.URL)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
