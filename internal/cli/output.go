package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"timeTracker/internal/models/task"
	"timeTracker/internal/service"
	"timeTracker/internal/tasklist"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02 15:04"

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func printTask(out io.Writer, t *task.Task) {
	fmt.Fprintf(out, "%s\t%s\t%s\n", shortID(t.UUID), tasklist.Classify(t), t.Description)
}

func printList(out io.Writer, view service.ListView) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tСТАТУС\tНАЧАЛО\tДЛИТЕЛЬНОСТЬ\tОПИСАНИЕ")

	for _, lane := range []struct {
		title   string
		entries []service.EntryView
	}{
		{"Текущие", view.Ongoing},
		{"Очередь", view.Queued},
		{"По рангу", view.Ranked},
	} {
		if len(lane.entries) == 0 {
			continue
		}
		fmt.Fprintf(tw, "# %s (%d)\t\t\t\t\n", lane.title, len(lane.entries))
		for _, e := range lane.entries {
			marker := ""
			if view.RunningID != nil && *view.RunningID == e.Task.UUID {
				marker = "*"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\n",
				shortID(e.Task.UUID), marker, e.Status, started(e.Task), duration(e.Task), e.Task.Description)
		}
	}

	tw.Flush()
	fmt.Fprintf(out, "в очереди: %d\n", view.QueueCount)
}

func printSettings(out io.Writer, s service.Settings) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "show_queued_tasks\t%t\n", s.Visibility.ShowQueued)
	fmt.Fprintf(tw, "show_ranked_tasks\t%t\n", s.Visibility.ShowRanked)
	fmt.Fprintf(tw, "show_closed_tasks\t%t\n", s.Visibility.ShowClosed)
	fmt.Fprintf(tw, "retention_days\t%d\n", s.Visibility.RetentionDays)
	fmt.Fprintf(tw, "auto_open_editor_on_create\t%t\n", s.AutoOpenEditor)
	tw.Flush()
}

func started(t *task.Task) string {
	if t.StartedAt == nil {
		return "-"
	}
	return t.StartedAt.Local().Format(timeLayout)
}

func duration(t *task.Task) string {
	if t.StartedAt == nil {
		return "-"
	}
	end := time.Now()
	if t.EndedAt != nil {
		end = *t.EndedAt
	}
	return end.Sub(*t.StartedAt).Round(time.Minute).String()
}
