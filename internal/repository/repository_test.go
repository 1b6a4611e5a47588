package repository_test

import (
	"testing"
	"time"

	"timeTracker/internal/models/task"
	"timeTracker/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestWhereClause(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	desc := "write report"

	tests := []struct {
		name        string
		filter      task.Filter
		placeholder func(int) string
		wantSQL     string
		wantArgs    []any
	}{
		{
			name:        "empty filter",
			filter:      task.Filter{},
			placeholder: repository.Dollar,
			wantSQL:     "",
			wantArgs:    nil,
		},
		{
			name:        "working set postgres",
			filter:      task.Filter{CreatedSince: &since, IncludeUnstarted: true},
			placeholder: repository.Dollar,
			wantSQL:     " WHERE (created_at >= $1 OR started_at IS NULL)",
			wantArgs:    []any{since},
		},
		{
			name:        "description and running sqlite",
			filter:      task.Filter{CreatedSince: &since, Description: &desc, OnlyRunning: true},
			placeholder: repository.Question,
			wantSQL:     " WHERE created_at >= ? AND description = ? AND started_at IS NOT NULL AND ended_at IS NULL",
			wantArgs:    []any{since, desc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := repository.WhereClause(tt.filter, tt.placeholder)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
