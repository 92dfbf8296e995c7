package migrate

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mx-space/migrator/internal/modules/source"
)

// Outcome of one content item.
type Outcome string

const (
	OutcomeMigrated Outcome = "migrated"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeErrored  Outcome = "errored"
)

// Counts aggregates outcomes for one content kind.
type Counts struct {
	Migrated int
	Skipped  int
	Errored  int
}

func (c Counts) Total() int { return c.Migrated + c.Skipped + c.Errored }

// Entry records a skipped or errored item.
type Entry struct {
	Kind     source.Kind
	SourceID int64
	Slug     string
	Outcome  Outcome
	Reason   string
}

// Flag is something an operator should review after the run.
type Flag struct {
	Kind     string
	SourceID int64
	Detail   string
}

// Result is produced incrementally during a run and returned at the end.
type Result struct {
	RunID    string
	TenantID string
	DryRun   bool
	State    State

	Posts Counts
	Pages Counts

	Entries []Entry
	Flags   []Flag

	AssetsRewritten   int
	LinksRewritten    int
	AssetsFailed      int
	UploadedBytes     int64
	ReferencesCreated int
	ParentsLinked     int

	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Result) counts(kind source.Kind) *Counts {
	if kind == source.KindPage {
		return &r.Pages
	}
	return &r.Posts
}

func (r *Result) record(item source.ContentItem, slug string, outcome Outcome, reason string) {
	c := r.counts(item.Kind)
	switch outcome {
	case OutcomeMigrated:
		c.Migrated++
		return
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeErrored:
		c.Errored++
	}
	r.Entries = append(r.Entries, Entry{
		Kind:     item.Kind,
		SourceID: item.ID,
		Slug:     slug,
		Outcome:  outcome,
		Reason:   reason,
	})
}

func (r *Result) flag(kind string, sourceID int64, format string, args ...interface{}) {
	r.Flags = append(r.Flags, Flag{Kind: kind, SourceID: sourceID, Detail: fmt.Sprintf(format, args...)})
}

func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// WriteSummary prints the operator report.
func (r *Result) WriteSummary(w io.Writer) {
	mode := "live"
	if r.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "migration %s (%s) for tenant %s in %s\n",
		r.State, mode, r.TenantID, r.Duration().Round(time.Millisecond))
	if r.RunID != "" {
		fmt.Fprintf(w, "  run record: %s\n", r.RunID)
	}
	fmt.Fprintf(w, "  %-8s %10s %10s %10s\n", "", "migrated", "skipped", "errored")
	fmt.Fprintf(w, "  %-8s %10s %10s %10s\n", "articles",
		humanize.Comma(int64(r.Posts.Migrated)), humanize.Comma(int64(r.Posts.Skipped)), humanize.Comma(int64(r.Posts.Errored)))
	fmt.Fprintf(w, "  %-8s %10s %10s %10s\n", "pages",
		humanize.Comma(int64(r.Pages.Migrated)), humanize.Comma(int64(r.Pages.Skipped)), humanize.Comma(int64(r.Pages.Errored)))
	fmt.Fprintf(w, "  assets rewritten: %s (failed %s, uploaded %s)\n",
		humanize.Comma(int64(r.AssetsRewritten)), humanize.Comma(int64(r.AssetsFailed)), humanize.Bytes(uint64(r.UploadedBytes)))
	fmt.Fprintf(w, "  links rewritten: %s, references created: %s, page parents linked: %s\n",
		humanize.Comma(int64(r.LinksRewritten)), humanize.Comma(int64(r.ReferencesCreated)), humanize.Comma(int64(r.ParentsLinked)))

	for _, e := range r.Entries {
		fmt.Fprintf(w, "  %s %s #%d %q: %s\n", e.Outcome, e.Kind, e.SourceID, e.Slug, e.Reason)
	}
	if len(r.Flags) > 0 {
		fmt.Fprintf(w, "  %s for review:\n", humanize.Comma(int64(len(r.Flags))))
		for _, f := range r.Flags {
			fmt.Fprintf(w, "    [%s] #%d %s\n", f.Kind, f.SourceID, f.Detail)
		}
	}
	if r.Err != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Err)
	}
}
