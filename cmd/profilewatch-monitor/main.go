// Command profilewatch-monitor is a terminal client for a running
// profilewatch service: it renders a profile's posts page, tracks extraction
// jobs live over the event stream, and exposes one-shot task queries.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/profilewatch/profile-ui-api/internal/api"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	"github.com/profilewatch/profile-ui-api/internal/stream"
	"github.com/profilewatch/profile-ui-api/internal/util"
	"github.com/profilewatch/profile-ui-api/internal/view"
)

const defaultBaseURL = "http://localhost:8080"

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx     context.Context
	Logger  *slog.Logger
	BaseURL string
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	baseURL := strings.TrimSpace(os.Getenv("APP_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	cmdCtx := &commandContext{
		Ctx:     context.Background(),
		Logger:  logger,
		BaseURL: baseURL,
	}
	if err := cmd.run(cmdCtx, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmdName, err)
		os.Exit(1) //nolint:forbidigo // CLI must signal command failure to shell scripts
	}
}

func commands() map[string]command {
	cmds := []command{
		{"posts", "print one page of a profile's posts", runPosts},
		{"watch", "live view of a profile's posts and extraction jobs", runWatch},
		{"fetch", "schedule a posts-extraction job for a profile", runFetch},
		{"workers", "list extraction workers and their current jobs", runWorkers},
		{"failed", "list permanently failed tasks", runFailed},
	}
	out := make(map[string]command, len(cmds))
	for _, c := range cmds {
		out[c.name] = c
	}
	return out
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: profilewatch-monitor <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, cmds[name].description)
	}
	_ = w.Flush()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "The service base URL is taken from APP_BASE_URL (default "+defaultBaseURL+").")
}

func newClient(cmdCtx *commandContext) (*api.Client, error) {
	return api.NewClient(api.Config{BaseURL: cmdCtx.BaseURL})
}

func runPosts(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("posts", flag.ContinueOnError)
	profileID := fs.Int64("profile", 0, "profile id (required)")
	page := fs.Int("page", 1, "page number")
	rpp := fs.Int("rpp", 10, "results per page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *profileID <= 0 {
		return errors.New("-profile is required and must be positive")
	}

	client, err := newClient(cmdCtx)
	if err != nil {
		return err
	}
	posts, err := client.ProfilePosts(cmdCtx.Ctx, *profileID, *page, *rpp)
	if err != nil {
		return err
	}

	fmt.Printf("%s on %s, %d posts total\n\n", posts.Username, posts.SiteName, posts.TotalCount)
	writePosts(os.Stdout, posts.Posts)
	return nil
}

func runFetch(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	profileID := fs.Int64("profile", 0, "profile id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *profileID <= 0 {
		return errors.New("-profile is required and must be positive")
	}

	client, err := newClient(cmdCtx)
	if err != nil {
		return err
	}
	if err := client.EnqueuePostsFetch(cmdCtx.Ctx, *profileID); err != nil {
		return err
	}
	fmt.Printf("posts fetch scheduled for profile %d\n", *profileID)
	return nil
}

func runWorkers(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("workers", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(cmdCtx)
	if err != nil {
		return err
	}
	workers, err := client.Workers(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if len(workers) == 0 {
		fmt.Println("no workers registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHOST\tJOB\tPROFILE\tPROGRESS\tELAPSED")
	for _, worker := range workers {
		job := worker.CurrentJob
		if job == nil {
			fmt.Fprintf(w, "%s\t%s\tidle\t-\t-\t-\n", worker.Name, worker.Hostname)
			continue
		}
		elapsed := "-"
		if job.StartedAt != nil {
			elapsed = util.FormatElapsed(time.Since(*job.StartedAt))
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%d\t%.0f%%\t%s\n",
			worker.Name, worker.Hostname, job.Type, job.Status, job.ProfileID, job.Progress*100, elapsed)
	}
	return w.Flush()
}

func runFailed(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("failed", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(cmdCtx)
	if err != nil {
		return err
	}
	failed, err := client.FailedTasks(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		fmt.Println("no failed tasks")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tPROFILE\tFAILED AT\tERROR")
	for _, task := range failed {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			task.ID, task.Type, task.ProfileID, task.FailedAt.Format(time.RFC3339), task.Error)
	}
	return w.Flush()
}

func runWatch(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	profileID := fs.String("profile", "", "profile id (required)")
	page := fs.String("page", "", "page number")
	rpp := fs.String("rpp", "", "results per page")
	interval := fs.Duration("interval", 2*time.Second, "render interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newClient(cmdCtx)
	if err != nil {
		return err
	}
	subscriber, err := stream.NewSubscriber(stream.Options{
		URL:    strings.TrimSuffix(cmdCtx.BaseURL, "/") + "/api/events/stream",
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := subscriber.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	postsView, err := view.New(view.Options{
		ProfileID:    *profileID,
		Page:         *page,
		RPP:          *rpp,
		API:          client,
		PostsEvents:  subscriber.PostsEvents(),
		WorkerEvents: subscriber.WorkerEvents(),
		Logger:       cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	postsView.Mount(ctx)
	defer postsView.Unmount()

	group.Go(func() error {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				renderState(os.Stdout, postsView.State())
			}
		}
	})

	return group.Wait()
}

func renderState(w io.Writer, s view.State) {
	fmt.Fprintln(w, strings.Repeat("-", 72))

	header := fmt.Sprintf("%s on %s", s.Username, s.SiteName)
	if s.Username == "" {
		header = "loading profile"
	}
	if s.Loading {
		header += " (loading)"
	}
	fmt.Fprintln(w, header)

	if s.Error != "" {
		fmt.Fprintf(w, "error: %s\n", s.Error)
	}
	if s.FailedPostsFetch {
		fmt.Fprintln(w, "warning: a posts fetch for this profile has failed")
	}

	for _, job := range s.RunningJobs {
		fmt.Fprintf(w, "job %s: %s, page %d, %.0f%%\n", job.ID, job.Status, job.Current, job.Progress*100)
	}

	fmt.Fprintf(w, "page %d of %d (%d posts)\n\n", s.Pager.Page, s.Pager.TotalPages, s.Pager.TotalCount)
	writePosts(w, s.Posts)
}

func writePosts(w io.Writer, posts []model.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "no posts")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, post := range posts {
		fmt.Fprintf(tw, "%s\t%s\n", post.PostedAt.Format("2006-01-02 15:04"), oneLine(post.Content, 96))
	}
	_ = tw.Flush()
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit-3] + "..."
	}
	return s
}
