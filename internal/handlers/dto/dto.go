package dto

import (
	"time"

	"timeTracker/internal/models/task"
	"timeTracker/internal/service"
	"timeTracker/internal/tasklist"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Description      string     `json:"description"`
	StartNow         bool       `json:"start_now"`
	ParentID         *uuid.UUID `json:"parent_id,omitempty"`
	BringNotes       bool       `json:"bring_notes"`
	BringTags        bool       `json:"bring_tags"`
	FetchSimilarTags bool       `json:"fetch_similar_tags"`
	HideParent       bool       `json:"hide_parent"`
	StopOthers       bool       `json:"stop_others"`
	Rank             *int       `json:"rank,omitempty"`
}

func (r CreateTaskRequest) Params() service.CreateParams {
	return service.CreateParams{
		Description:      r.Description,
		StartNow:         r.StartNow,
		ParentID:         r.ParentID,
		BringNotes:       r.BringNotes,
		BringTags:        r.BringTags,
		FetchSimilarTags: r.FetchSimilarTags,
		HideParent:       r.HideParent,
		StopOthers:       r.StopOthers,
		Rank:             r.Rank,
	}
}

type UpdateTaskRequest struct {
	Description *string    `json:"description,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Rank        *int       `json:"rank,omitempty"`
	ClearRank   bool       `json:"clear_rank,omitempty"`
	StillOpen   *bool      `json:"still_open,omitempty"`
	Reminder    *time.Time `json:"reminder,omitempty"`
}

func (r UpdateTaskRequest) Empty() bool {
	return r.Description == nil && r.StartedAt == nil && r.EndedAt == nil &&
		r.Rank == nil && !r.ClearRank && r.StillOpen == nil && r.Reminder == nil
}

func (r UpdateTaskRequest) Options() []task.TaskOption {
	var opts []task.TaskOption
	if r.Description != nil {
		opts = append(opts, task.WithDescription(*r.Description))
	}
	if r.StartedAt != nil {
		opts = append(opts, task.WithStartedAt(*r.StartedAt))
	}
	if r.EndedAt != nil {
		opts = append(opts, task.WithEndedAt(*r.EndedAt))
	}
	if r.Rank != nil {
		opts = append(opts, task.WithRank(*r.Rank))
	}
	if r.ClearRank {
		opts = append(opts, task.WithoutRank())
	}
	if r.StillOpen != nil {
		opts = append(opts, task.WithStillOpen(*r.StillOpen))
	}
	if r.Reminder != nil {
		opts = append(opts, task.WithReminder(*r.Reminder))
	}
	return opts
}

type StartRequest struct {
	StopOthers bool `json:"stop_others"`
}

type StopRequest struct {
	EndedAt *time.Time `json:"ended_at,omitempty"`
}

type ResumeRequest struct {
	BringNotes bool `json:"bring_notes"`
	BringTags  bool `json:"bring_tags"`
	HideParent bool `json:"hide_parent"`
	StopOthers bool `json:"stop_others"`
}

func (r ResumeRequest) Params() service.ResumeParams {
	return service.ResumeParams{
		BringNotes: r.BringNotes,
		BringTags:  r.BringTags,
		HideParent: r.HideParent,
		StopOthers: r.StopOthers,
	}
}

type NoteRequest struct {
	Text string `json:"text"`
}

type TagRequest struct {
	Name string `json:"name"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type SettingsRequest struct {
	ShowQueued     *bool `json:"show_queued_tasks,omitempty"`
	ShowRanked     *bool `json:"show_ranked_tasks,omitempty"`
	ShowClosed     *bool `json:"show_closed_tasks,omitempty"`
	RetentionDays  *int  `json:"retention_days,omitempty"`
	AutoOpenEditor *bool `json:"auto_open_editor_on_create,omitempty"`
}

func (r SettingsRequest) Params() service.VisibilityParams {
	return service.VisibilityParams{
		ShowQueued:     r.ShowQueued,
		ShowRanked:     r.ShowRanked,
		ShowClosed:     r.ShowClosed,
		RetentionDays:  r.RetentionDays,
		AutoOpenEditor: r.AutoOpenEditor,
	}
}

type TaskResponse struct {
	UUID        uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Rank        *int       `json:"rank,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	StillOpen   bool       `json:"still_open"`
	Reminder    *time.Time `json:"reminder,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Duration    string     `json:"duration,omitempty"`
}

func FromTask(t *task.Task) TaskResponse {
	res := TaskResponse{
		UUID:        t.UUID,
		Description: t.Description,
		Status:      string(tasklist.Classify(t)),
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		EndedAt:     t.EndedAt,
		Rank:        t.Rank,
		ParentID:    t.ParentID,
		StillOpen:   t.StillOpen,
		Reminder:    t.Reminder,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.StartedAt != nil && t.EndedAt != nil {
		res.Duration = t.EndedAt.Sub(*t.StartedAt).String()
	}
	return res
}

type EntryResponse struct {
	TaskResponse
	Expanded bool `json:"expanded"`
	First    bool `json:"first"`
}

type ListResponse struct {
	Ongoing    []EntryResponse `json:"ongoing"`
	Queued     []EntryResponse `json:"queued"`
	Ranked     []EntryResponse `json:"ranked"`
	Counts     tasklist.Counts `json:"counts"`
	QueueCount int             `json:"queue_count"`
	RunningID  *uuid.UUID      `json:"running_id,omitempty"`
}

func FromListView(v service.ListView) ListResponse {
	return ListResponse{
		Ongoing:    fromEntries(v.Ongoing),
		Queued:     fromEntries(v.Queued),
		Ranked:     fromEntries(v.Ranked),
		Counts:     v.Counts,
		QueueCount: v.QueueCount,
		RunningID:  v.RunningID,
	}
}

func fromEntries(entries []service.EntryView) []EntryResponse {
	res := make([]EntryResponse, len(entries))
	for i, e := range entries {
		res[i] = EntryResponse{TaskResponse: FromTask(e.Task), Expanded: e.Expanded, First: e.First}
	}
	return res
}

type DetailsResponse struct {
	Task  TaskResponse    `json:"task"`
	Notes []*task.Note    `json:"notes"`
	Tags  []*task.TaskTag `json:"tags"`
}

func FromDetails(d *service.TaskDetails) DetailsResponse {
	return DetailsResponse{Task: FromTask(d.Task), Notes: d.Notes, Tags: d.Tags}
}

type SettingsResponse struct {
	ShowQueued     bool `json:"show_queued_tasks"`
	ShowRanked     bool `json:"show_ranked_tasks"`
	ShowClosed     bool `json:"show_closed_tasks"`
	RetentionDays  int  `json:"retention_days"`
	AutoOpenEditor bool `json:"auto_open_editor_on_create"`
}

func FromSettings(s service.Settings) SettingsResponse {
	return SettingsResponse{
		ShowQueued:     s.Visibility.ShowQueued,
		ShowRanked:     s.Visibility.ShowRanked,
		ShowClosed:     s.Visibility.ShowClosed,
		RetentionDays:  s.Visibility.RetentionDays,
		AutoOpenEditor: s.AutoOpenEditor,
	}
}
