package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/taskbot/pkg/model"
	"github.com/harrisonrobin/taskbot/pkg/remind"
)

// ---------------------------------------------------------------------------
// row primitives

// listRaw fetches a whole worksheet and splits it into a header index and
// data rows.
func (s *Store) listRaw(ctx context.Context, sheet string) (header, [][]interface{}, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, sheet+"!A:Z").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read %s: %w", sheet, err)
	}
	if len(resp.Values) == 0 {
		return header{}, nil, nil
	}
	return headerIndex(resp.Values[0]), resp.Values[1:], nil
}

func (s *Store) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, sheet+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to append to %s: %w", sheet, err)
	}
	return nil
}

// updateCell writes one value. rowNum is the 1-based sheet row, colIdx the
// 0-based column.
func (s *Store) updateCell(ctx context.Context, sheet string, rowNum, colIdx int, value string) error {
	ref := fmt.Sprintf("%s!%c%d", sheet, rune('A'+colIdx), rowNum)
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, ref, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to update %s: %w", ref, err)
	}
	return nil
}

// deleteRow removes one sheet row. rowIdx is 0-based and includes the header
// row; following rows shift up, which is why bulk deletes run bottom-up.
func (s *Store) deleteRow(ctx context.Context, sheet string, rowIdx int) error {
	_, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    s.sheetIDs[sheet],
					Dimension:  "ROWS",
					StartIndex: int64(rowIdx),
					EndIndex:   int64(rowIdx + 1),
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to delete row %d of %s: %w", rowIdx, sheet, err)
	}
	return nil
}

func columnIndex(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// tasks

// CreateTask appends the task as a new row.
func (s *Store) CreateTask(ctx context.Context, t model.Task) error {
	started := time.Now()
	if err := s.appendRow(ctx, s.tasksSheet, taskToRow(t)); err != nil {
		return err
	}
	slog.Info("task created", "task_id", t.ID, "title", t.Title, "ms", time.Since(started).Milliseconds())
	return nil
}

// ListTasks returns every task row in sheet order.
func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	started := time.Now()
	h, rows, err := s.listRaw(ctx, s.tasksSheet)
	if err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, taskFromRow(h, row))
	}
	slog.Debug("tasks listed", "total", len(tasks), "ms", time.Since(started).Milliseconds())
	return tasks, nil
}

// FindTask returns the task with the given id, or model.ErrNotFound.
func (s *Store) FindTask(ctx context.Context, id string) (model.Task, error) {
	h, rows, err := s.listRaw(ctx, s.tasksSheet)
	if err != nil {
		return model.Task{}, err
	}
	for _, row := range rows {
		if cell(h, row, "ID") == id {
			return taskFromRow(h, row), nil
		}
	}
	return model.Task{}, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
}

// UpdateFields writes the given header-named columns of one task and
// refreshes UpdatedAt. Unknown field names are ignored.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	h, rows, err := s.listRaw(ctx, s.tasksSheet)
	if err != nil {
		return err
	}
	rowNum := 0
	for i, row := range rows {
		if cell(h, row, "ID") == id {
			rowNum = i + 2 // 1-based, after the header row
			break
		}
	}
	if rowNum == 0 {
		slog.Warn("task not found", "task_id", id)
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	for name, value := range fields {
		col := columnIndex(taskHeaders, name)
		if col < 0 {
			continue
		}
		if err := s.updateCell(ctx, s.tasksSheet, rowNum, col, value); err != nil {
			return err
		}
	}
	updatedAt := formatTimestamp(time.Now())
	if err := s.updateCell(ctx, s.tasksSheet, rowNum, columnIndex(taskHeaders, "UpdatedAt"), updatedAt); err != nil {
		return err
	}
	slog.Info("task updated", "task_id", id, "fields", len(fields))
	return nil
}

// UpdateStatus sets the task status.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	return s.UpdateFields(ctx, id, map[string]string{"Status": status})
}

// AssignTask sets the task assignee.
func (s *Store) AssignTask(ctx context.Context, id, assignee string) error {
	return s.UpdateFields(ctx, id, map[string]string{"Assignee": assignee})
}

// SetDue sets the task due date (YYYY-MM-DD; callers validate the format).
func (s *Store) SetDue(ctx context.Context, id, due string) error {
	return s.UpdateFields(ctx, id, map[string]string{"Due": due})
}

// ---------------------------------------------------------------------------
// thread bindings

// BindThread maps label to a forum topic, overwriting an existing binding.
func (s *Store) BindThread(ctx context.Context, label string, threadID int) error {
	h, rows, err := s.listRaw(ctx, s.threadsSheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(h, row, "Label") == label {
			if err := s.updateCell(ctx, s.threadsSheet, i+2, columnIndex(threadHeaders, "ThreadID"), formatInt(threadID)); err != nil {
				return err
			}
			slog.Info("thread rebound", "label", label, "thread_id", threadID)
			return nil
		}
	}
	if err := s.appendRow(ctx, s.threadsSheet, []interface{}{label, formatInt(threadID), formatTimestamp(time.Now())}); err != nil {
		return err
	}
	slog.Info("thread bound", "label", label, "thread_id", threadID)
	return nil
}

// GetThreadID resolves a label to its bound topic. The second result is
// false when the label is unbound or its stored id is not a number.
func (s *Store) GetThreadID(ctx context.Context, label string) (int, bool, error) {
	if label == "" {
		return 0, false, nil
	}
	h, rows, err := s.listRaw(ctx, s.threadsSheet)
	if err != nil {
		return 0, false, err
	}
	for _, row := range rows {
		if cell(h, row, "Label") != label {
			continue
		}
		id := parseInt(cell(h, row, "ThreadID"))
		if id == 0 {
			slog.Warn("thread binding has no usable id", "label", label)
			return 0, false, nil
		}
		return id, true, nil
	}
	return 0, false, nil
}

// ListThreads returns every binding in sheet order.
func (s *Store) ListThreads(ctx context.Context) ([]model.ThreadBinding, error) {
	h, rows, err := s.listRaw(ctx, s.threadsSheet)
	if err != nil {
		return nil, err
	}
	bindings := make([]model.ThreadBinding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, threadFromRow(h, row))
	}
	return bindings, nil
}

// ---------------------------------------------------------------------------
// reminders (remind.Store implementation)

// AppendReminder stores a reminder as a new row.
func (s *Store) AppendReminder(ctx context.Context, r model.Reminder) error {
	return s.appendRow(ctx, s.remindersSheet, reminderToRow(r))
}

// ListReminders returns every reminder with its current data-row index.
func (s *Store) ListReminders(ctx context.Context) ([]remind.Row, error) {
	h, rows, err := s.listRaw(ctx, s.remindersSheet)
	if err != nil {
		return nil, err
	}
	out := make([]remind.Row, 0, len(rows))
	for i, row := range rows {
		out = append(out, remind.Row{Reminder: reminderFromRow(h, row), Index: i})
	}
	return out, nil
}

// DeleteReminderRow removes the reminder at the given data-row index.
func (s *Store) DeleteReminderRow(ctx context.Context, index int) error {
	// +1 skips the header row of the worksheet.
	return s.deleteRow(ctx, s.remindersSheet, index+1)
}
