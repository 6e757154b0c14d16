package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/bod-watchlist/internal/model"
)

type taskRow struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	AccountableID   int64     `db:"accountable_id"`
	Priority        string    `db:"priority"`
	Status          string    `db:"status"`
	MeetingDate     string    `db:"meeting_date"`
	DueDate         string    `db:"due_date"`
	OriginalDueDate string    `db:"original_due_date"`
	CreatedBy       int64     `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
}

type partyRow struct {
	TaskID int64  `db:"task_id"`
	UserID int64  `db:"user_id"`
	Kind   string `db:"kind"`
}

type updateRow struct {
	ID               string    `db:"id"`
	TaskID           int64     `db:"task_id"`
	UserID           int64     `db:"user_id"`
	Content          string    `db:"content"`
	Mentions         string    `db:"mentions"`
	SuggestedStatus  string    `db:"suggested_status"`
	EvidenceBase64   string    `db:"evidence_base64"`
	EvidenceFileName string    `db:"evidence_file_name"`
	CreatedAt        time.Time `db:"created_at"`
}

const taskColumns = `id, title, description, accountable_id, priority, status,
	meeting_date, due_date, original_due_date, created_by, created_at`

// likeEscaper makes a search term match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const (
	partyResponsible = "R"
	partyConsulted   = "C"
	partyInformed    = "I"
)

// CreateTasks inserts a batch of mandates atomically. Every mandate starts
// ON TRACK with no updates; the accountable and every party must exist.
func (s *SQLiteStore) CreateTasks(
	ctx context.Context,
	inputs []model.NewTaskInput,
	createdBy int64,
	now time.Time,
) ([]model.Task, error) {
	if len(inputs) == 0 {
		return []model.Task{}, nil
	}

	users, err := s.userIndex(ctx)
	if err != nil {
		return nil, err
	}
	for i, in := range inputs {
		if err := validateInput(in, users); err != nil {
			return nil, fmt.Errorf("task %d: %w: %w", i, ErrInvalidInput, err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(inputs))
	for _, in := range inputs {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (
				title, description, accountable_id, priority, status,
				meeting_date, due_date, original_due_date, created_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, '', ?, ?)`,
			strings.TrimSpace(in.Title), in.Description, in.AccountableID,
			string(in.Priority), string(model.StatusOnTrack),
			in.MeetingDate, in.DueDate, createdBy, now.UTC(),
		)
		if err != nil {
			return nil, fmt.Errorf("creating task %q: %w", in.Title, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading id of task %q: %w", in.Title, err)
		}

		parties := []struct {
			kind string
			ids  []int64
		}{
			{partyResponsible, in.ResponsibleIDs},
			{partyConsulted, in.ConsultedIDs},
			{partyInformed, in.InformedIDs},
		}
		for _, p := range parties {
			for pos, userID := range p.ids {
				_, err := tx.ExecContext(ctx,
					"INSERT INTO task_parties (task_id, user_id, kind, position) VALUES (?, ?, ?, ?)",
					id, userID, p.kind, pos,
				)
				if err != nil {
					return nil, fmt.Errorf("adding party %d to task %d: %w", userID, id, err)
				}
			}
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing tasks: %w", err)
	}

	query, args, err := sqlx.In("SELECT "+taskColumns+" FROM tasks WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, fmt.Errorf("building created task query: %w", err)
	}
	return s.loadTasks(ctx, s.db.Rebind(query), args...)
}

func validateInput(in model.NewTaskInput, users map[int64]model.User) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if !in.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", in.Priority)
	}
	if _, ok := users[in.AccountableID]; !ok {
		return fmt.Errorf("accountable %d: %w", in.AccountableID, ErrNotFound)
	}
	for _, date := range []string{in.MeetingDate, in.DueDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			return fmt.Errorf("invalid date %q", date)
		}
	}
	for _, group := range [][]int64{in.ResponsibleIDs, in.ConsultedIDs, in.InformedIDs} {
		for _, id := range group {
			if _, ok := users[id]; !ok {
				return fmt.Errorf("party %d: %w", id, ErrNotFound)
			}
		}
	}
	return nil
}

// GetTasks retrieves mandates matching the filter, oldest first.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
	}
	if filter.AccountableID != 0 {
		conditions = append(conditions, "accountable_id = ?")
		args = append(args, filter.AccountableID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	tasks, err := s.loadTasks(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single mandate with its parties and updates.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	tasks, err := s.loadTasks(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("getting task %d: %w", id, ErrNotFound)
	}
	return &tasks[0], nil
}

// SetAccountable replaces the accountable party.
func (s *SQLiteStore) SetAccountable(ctx context.Context, taskID, userID int64) error {
	return updateTask(ctx, s.db, taskID, "accountable_id = ?", userID)
}

// AppendUpdateWithStatus adds an entry to a mandate's feed and, when
// status is set, moves the mandate to it. Both writes commit together.
func (s *SQLiteStore) AppendUpdateWithStatus(
	ctx context.Context,
	taskID int64,
	update model.TaskUpdate,
	status model.Status,
) (model.TaskUpdate, error) {
	if status != "" && !status.Valid() {
		return model.TaskUpdate{}, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}

	var saved model.TaskUpdate
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if saved, err = appendUpdate(ctx, tx, taskID, update); err != nil {
			return err
		}
		if status == "" {
			return nil
		}
		return updateTask(ctx, tx, taskID, "status = ?", string(status))
	})
	if err != nil {
		return model.TaskUpdate{}, err
	}
	return saved, nil
}

// AmendDueDateWithNote moves the due date and records note in the feed.
// The pre-amendment due date is kept in original_due_date on the first
// amendment only.
func (s *SQLiteStore) AmendDueDateWithNote(
	ctx context.Context,
	taskID int64,
	newDate string,
	note model.TaskUpdate,
) (model.TaskUpdate, error) {
	if _, err := time.Parse(model.DateLayout, newDate); err != nil {
		return model.TaskUpdate{}, fmt.Errorf("%w: date %q", ErrInvalidInput, newDate)
	}

	var saved model.TaskUpdate
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := updateTask(ctx, tx, taskID, `
			original_due_date = CASE WHEN original_due_date = '' THEN due_date ELSE original_due_date END,
			due_date = ?`, newDate)
		if err != nil {
			return err
		}
		saved, err = appendUpdate(ctx, tx, taskID, note)
		return err
	})
	if err != nil {
		return model.TaskUpdate{}, err
	}
	return saved, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func updateTask(ctx context.Context, db sqlx.ExecerContext, taskID int64, set string, args ...interface{}) error {
	args = append(args, taskID)
	result, err := db.ExecContext(ctx, "UPDATE tasks SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", taskID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// appendUpdate inserts an entry into a mandate's feed. Generates a UUID and
// a timestamp when missing.
func appendUpdate(
	ctx context.Context,
	db sqlx.ExtContext,
	taskID int64,
	update model.TaskUpdate,
) (model.TaskUpdate, error) {
	var exists int
	if err := sqlx.GetContext(ctx, db, &exists, "SELECT COUNT(*) FROM tasks WHERE id = ?", taskID); err != nil {
		return model.TaskUpdate{}, fmt.Errorf("checking task %d: %w", taskID, err)
	}
	if exists == 0 {
		return model.TaskUpdate{}, fmt.Errorf("appending update to task %d: %w", taskID, ErrNotFound)
	}

	if update.ID == "" {
		update.ID = uuid.New().String()
	}
	if update.Date.IsZero() {
		update.Date = time.Now().UTC()
	}
	if update.Mentions == nil {
		update.Mentions = []int64{}
	}

	mentions, err := json.Marshal(update.Mentions)
	if err != nil {
		return model.TaskUpdate{}, fmt.Errorf("marshaling mentions: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO task_updates (
			id, task_id, user_id, content, mentions, suggested_status,
			evidence_base64, evidence_file_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		update.ID, taskID, update.User.ID, update.Content, string(mentions),
		string(update.SuggestedStatus), update.EvidenceBase64,
		update.EvidenceFileName, update.Date.UTC(),
	)
	if err != nil {
		return model.TaskUpdate{}, fmt.Errorf("appending update to task %d: %w", taskID, err)
	}
	return update, nil
}

// loadTasks runs a task query and attaches the RACI parties and update
// feed of every returned row.
func (s *SQLiteStore) loadTasks(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.Task{}, nil
	}

	users, err := s.userIndex(ctx)
	if err != nil {
		return nil, err
	}
	lookup := func(id int64) model.User {
		if u, ok := users[id]; ok {
			return u
		}
		return model.User{ID: id}
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	var parties []partyRow
	q, qargs, err := sqlx.In(`
		SELECT task_id, user_id, kind FROM task_parties
		WHERE task_id IN (?) ORDER BY task_id, kind, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("building party query: %w", err)
	}
	if err := s.db.SelectContext(ctx, &parties, s.db.Rebind(q), qargs...); err != nil {
		return nil, fmt.Errorf("loading task parties: %w", err)
	}

	var updates []updateRow
	q, qargs, err = sqlx.In(`
		SELECT id, task_id, user_id, content, mentions, suggested_status,
			evidence_base64, evidence_file_name, created_at
		FROM task_updates
		WHERE task_id IN (?) ORDER BY created_at, rowid`, ids)
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	if err := s.db.SelectContext(ctx, &updates, s.db.Rebind(q), qargs...); err != nil {
		return nil, fmt.Errorf("loading task updates: %w", err)
	}

	tasks := make([]model.Task, len(rows))
	pos := make(map[int64]int, len(rows))
	for i, r := range rows {
		tasks[i] = model.Task{
			ID:              r.ID,
			Title:           r.Title,
			Description:     r.Description,
			RACI:            model.RACIMatrix{Accountable: lookup(r.AccountableID), Responsible: []model.User{}, Consulted: []model.User{}, Informed: []model.User{}},
			Priority:        model.Priority(r.Priority),
			Status:          model.Status(r.Status),
			MeetingDate:     r.MeetingDate,
			DueDate:         r.DueDate,
			OriginalDueDate: r.OriginalDueDate,
			CreatedAt:       r.CreatedAt,
			CreatedBy:       lookup(r.CreatedBy),
			Updates:         []model.TaskUpdate{},
		}
		tasks[i].Normalize()
		pos[r.ID] = i
	}

	for _, p := range parties {
		t := &tasks[pos[p.TaskID]]
		u := lookup(p.UserID)
		switch p.Kind {
		case partyResponsible:
			t.RACI.Responsible = append(t.RACI.Responsible, u)
		case partyConsulted:
			t.RACI.Consulted = append(t.RACI.Consulted, u)
		case partyInformed:
			t.RACI.Informed = append(t.RACI.Informed, u)
		}
	}

	for _, u := range updates {
		var mentions []int64
		if u.Mentions != "" {
			if err := json.Unmarshal([]byte(u.Mentions), &mentions); err != nil {
				return nil, fmt.Errorf("unmarshaling mentions of update %s: %w", u.ID, err)
			}
		}
		if mentions == nil {
			mentions = []int64{}
		}
		t := &tasks[pos[u.TaskID]]
		t.Updates = append(t.Updates, model.TaskUpdate{
			ID:               u.ID,
			Date:             u.CreatedAt,
			Content:          u.Content,
			User:             lookup(u.UserID),
			Mentions:         mentions,
			SuggestedStatus:  model.Status(u.SuggestedStatus),
			EvidenceBase64:   u.EvidenceBase64,
			EvidenceFileName: u.EvidenceFileName,
		})
	}

	return tasks, nil
}
