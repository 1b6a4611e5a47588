package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"timeTracker/internal/models/task"
	"timeTracker/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errAmbiguousID = errors.New("префикс подходит к нескольким задачам")

func (s *session) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать список задач",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printList(s.out, s.service.View())
			return nil
		},
	}
}

func (s *session) newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [description]",
		Short: "Создать задачу",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := service.CreateParams{Description: strings.Join(args, " ")}
			params.StartNow, _ = cmd.Flags().GetBool("start")
			params.StopOthers, _ = cmd.Flags().GetBool("stop-others")
			params.FetchSimilarTags, _ = cmd.Flags().GetBool("similar-tags")
			if cmd.Flags().Changed("rank") {
				rank, _ := cmd.Flags().GetInt("rank")
				params.Rank = &rank
			}

			created, err := s.service.Dispatch(cmd.Context(), service.Command{Type: service.CommandCreate, Create: params})
			return s.report(created, err)
		},
	}
	cmd.Flags().BoolP("start", "s", false, "сразу запустить")
	cmd.Flags().Bool("stop-others", false, "остановить остальные запущенные задачи")
	cmd.Flags().Bool("similar-tags", false, "взять теги недавних задач")
	cmd.Flags().Int("rank", 0, "ранг задачи")
	return cmd
}

func (s *session) startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [id]",
		Short: "Запустить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			stopOthers, _ := cmd.Flags().GetBool("stop-others")
			started, err := s.service.Dispatch(cmd.Context(), service.Command{
				Type:       service.CommandStart,
				TaskID:     id,
				StopOthers: stopOthers,
			})
			return s.report(started, err)
		},
	}
	cmd.Flags().Bool("stop-others", false, "остановить остальные запущенные задачи")
	return cmd
}

func (s *session) stopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [id]",
		Short: "Остановить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}

			var end time.Time
			if at, _ := cmd.Flags().GetString("at"); at != "" {
				end, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("неверное время --at: %w", err)
				}
			}

			stopped, err := s.service.Dispatch(cmd.Context(), service.Command{
				Type:    service.CommandStop,
				TaskID:  id,
				EndTime: end,
			})
			return s.report(stopped, err)
		},
	}
	cmd.Flags().String("at", "", "время окончания в RFC3339, по умолчанию сейчас")
	return cmd
}

func (s *session) resumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [id]",
		Short: "Продолжить задачу в новой записи",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			resumed, err := s.service.Dispatch(cmd.Context(), service.Command{
				Type:   service.CommandResume,
				TaskID: id,
				Resume: resumeParams(cmd),
			})
			return s.report(resumed, err)
		},
	}
	addResumeFlags(cmd)
	return cmd
}

func (s *session) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Удалить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			if _, err := s.service.Dispatch(cmd.Context(), service.Command{Type: service.CommandDelete, TaskID: id}); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "удалена %s\n", shortID(id))
			return nil
		},
	}
}

func (s *session) toggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Остановить или продолжить последнюю запущенную задачу",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			toggled, err := s.service.Dispatch(cmd.Context(), service.Command{
				Type:   service.CommandToggleLast,
				Resume: resumeParams(cmd),
			})
			return s.report(toggled, err)
		},
	}
	addResumeFlags(cmd)
	return cmd
}

func (s *session) suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Описания недавно закрытых задач",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range s.service.Suggestions() {
				fmt.Fprintln(s.out, d)
			}
			return nil
		},
	}
}

func (s *session) noteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note [id] [text]",
		Short: "Добавить заметку к задаче",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			if _, err := s.service.AddNote(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "заметка добавлена к %s\n", shortID(id))
			return nil
		},
	}
}

func (s *session) tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag [id] [name]",
		Short: "Привязать тег к задаче",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			tag, err := s.service.AttachTag(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "тег %s привязан к %s\n", tag.Name, shortID(id))
			return nil
		},
	}
}

func (s *session) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Показать или изменить настройки списка",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var params service.VisibilityParams
			changed := false
			for name, dst := range map[string]**bool{
				"show-queued": &params.ShowQueued,
				"show-ranked": &params.ShowRanked,
				"show-closed": &params.ShowClosed,
				"auto-editor": &params.AutoOpenEditor,
			} {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetBool(name)
					*dst = &v
					changed = true
				}
			}
			if cmd.Flags().Changed("retention-days") {
				days, _ := cmd.Flags().GetInt("retention-days")
				params.RetentionDays = &days
				changed = true
			}

			settings := s.service.Settings()
			if changed {
				var err error
				if settings, err = s.service.SetVisibility(cmd.Context(), params); err != nil {
					return err
				}
			}
			printSettings(s.out, settings)
			return nil
		},
	}
	cmd.Flags().Bool("show-queued", true, "показывать задачи в очереди")
	cmd.Flags().Bool("show-ranked", true, "показывать задачи с рангом")
	cmd.Flags().Bool("show-closed", true, "показывать закрытые задачи")
	cmd.Flags().Bool("auto-editor", false, "открывать редактор при создании")
	cmd.Flags().Int("retention-days", 7, "сколько дней хранить в списке")
	return cmd
}

func addResumeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("notes", false, "перенести заметки")
	cmd.Flags().Bool("tags", true, "перенести теги")
	cmd.Flags().Bool("hide-parent", false, "скрыть исходную задачу")
	cmd.Flags().Bool("stop-others", false, "остановить остальные запущенные задачи")
}

func resumeParams(cmd *cobra.Command) service.ResumeParams {
	var p service.ResumeParams
	p.BringNotes, _ = cmd.Flags().GetBool("notes")
	p.BringTags, _ = cmd.Flags().GetBool("tags")
	p.HideParent, _ = cmd.Flags().GetBool("hide-parent")
	p.StopOthers, _ = cmd.Flags().GetBool("stop-others")
	return p
}

// resolveID принимает полный id или уникальный префикс среди задач списка
func (s *session) resolveID(arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	view := s.service.View()
	var found []uuid.UUID
	for _, lane := range [][]service.EntryView{view.Ongoing, view.Queued, view.Ranked} {
		for _, e := range lane {
			if strings.HasPrefix(e.Task.UUID.String(), strings.ToLower(arg)) {
				found = append(found, e.Task.UUID)
			}
		}
	}

	switch len(found) {
	case 0:
		return uuid.Nil, service.NewNotFound("задача", arg)
	case 1:
		return found[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%q: %w", arg, errAmbiguousID)
	}
}

func (s *session) report(t *task.Task, err error) error {
	if err != nil {
		return err
	}
	if t == nil {
		fmt.Fprintln(s.out, "без изменений")
		return nil
	}
	printTask(s.out, t)
	return nil
}
