package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/view"
)

func (a *app) listCmd() *cobra.Command {
	var (
		filter view.Filter
		sortBy string
		desc   bool
		page   int
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Long: `List one page of todos.

--status with a real status and --category are sent to the server;
--search, --priority and --status overdue are applied to the fetched page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := filter.Validate(); err != nil {
				return err
			}
			var sorter *view.Sort
			if sortBy != "" {
				field, err := view.ParseSortField(sortBy)
				if err != nil {
					return err
				}
				sorter = &view.Sort{Field: field, Desc: desc}
			}

			ctx := ctxOf(cmd)
			var (
				resp *models.TodoListResponse
				err  error
			)
			switch {
			case models.Status(filter.Status).Valid():
				resp, err = a.api.ListByStatus(ctx, models.Status(filter.Status), page, limit)
			case filter.Category != "" && filter.Category != view.All:
				resp, err = a.api.ListByCategory(ctx, filter.Category, page, limit)
			default:
				if err = a.store.LoadPage(ctx, page, limit); err == nil {
					st := a.store.Snapshot()
					resp = &models.TodoListResponse{Todos: st.Todos, Pagination: *st.Pagination}
				}
			}
			if err != nil {
				return err
			}

			resp.Todos = filter.Apply(resp.Todos, time.Now())
			if sorter != nil {
				resp.Todos = sorter.Apply(resp.Todos)
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), resp)
			}
			renderTodos(cmd.OutOrStdout(), resp.Todos, time.Now())
			printf(cmd.OutOrStdout(), "Page %d of %d (%d todos)\n",
				resp.Pagination.Page, max(resp.Pagination.TotalPages, 1), resp.Pagination.Total)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.Status, "status", "", "todo, in-progress, completed or overdue")
	f.StringVar(&filter.Category, "category", "", "category name")
	f.StringVar(&filter.Priority, "priority", "", "low, medium or high")
	f.StringVar(&filter.Search, "search", "", "case-insensitive text search")
	f.StringVar(&sortBy, "sort", "", "dueDate, priority, createdAt or title (default: server order, newest first)")
	f.BoolVar(&desc, "desc", false, "reverse the sort order")
	f.IntVar(&page, "page", models.DefaultPage, "page number")
	f.IntVar(&limit, "limit", models.DefaultLimit, "todos per page (max 100)")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.api.Get(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return a.printTodo(cmd, t)
		},
	}
}

func (a *app) printTodo(cmd *cobra.Command, t *models.Todo) error {
	if a.json {
		return a.printJSON(cmd.OutOrStdout(), t)
	}
	renderDetail(cmd.OutOrStdout(), t, time.Now())
	return nil
}

func (a *app) addCmd() *cobra.Command {
	var (
		priority    string
		category    string
		description string
		due         string
		status      string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.CreateTodoRequest{
				Title:    args[0],
				Priority: models.Priority(priority),
				Category: category,
			}
			flags := cmd.Flags()
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("due") {
				req.DueDate = &due
			}
			if flags.Changed("status") {
				s := models.Status(status)
				req.Status = &s
			}

			created, err := a.store.Create(ctxOf(cmd), req)
			if err != nil {
				return err
			}
			return a.printTodo(cmd, created)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&priority, "priority", "p", string(models.PriorityMedium), "low, medium or high")
	f.StringVarP(&category, "category", "c", "Personal", "category name")
	f.StringVarP(&description, "description", "d", "", "longer description")
	f.StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	f.StringVarP(&status, "status", "s", "", "todo, in-progress or completed")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var (
		title, status, priority, category, description, due string
		completed                                           bool
		clearDescription, clearDue                          bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("description") && clearDescription {
				return errors.New("--description and --clear-description cannot be combined")
			}
			if flags.Changed("due") && clearDue {
				return errors.New("--due and --clear-due cannot be combined")
			}

			var req models.UpdateTodoRequest
			if flags.Changed("title") {
				req.Title = models.Some(title)
			}
			if flags.Changed("status") {
				req.Status = models.Some(models.Status(status))
			}
			if flags.Changed("completed") {
				req.Completed = models.Some(completed)
			}
			if flags.Changed("priority") {
				req.Priority = models.Some(models.Priority(priority))
			}
			if flags.Changed("category") {
				req.Category = models.Some(category)
			}
			switch {
			case clearDescription:
				req.Description = models.Null[string]()
			case flags.Changed("description"):
				req.Description = models.Some(description)
			}
			switch {
			case clearDue:
				req.DueDate = models.Null[string]()
			case flags.Changed("due"):
				req.DueDate = models.Some(due)
			}
			if req.Empty() {
				return fmt.Errorf("nothing to update; pass at least one of %s", strings.Join([]string{
					"--title", "--status", "--completed", "--priority", "--category", "--description", "--due",
				}, ", "))
			}

			updated, err := a.update(cmd, args[0], req)
			if err != nil {
				return err
			}
			return a.printTodo(cmd, updated)
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&status, "status", "", "todo, in-progress or completed")
	f.BoolVar(&completed, "completed", false, "mark completed (true) or reopen (false)")
	f.StringVar(&priority, "priority", "", "low, medium or high")
	f.StringVar(&category, "category", "", "category name")
	f.StringVar(&description, "description", "", "new description")
	f.BoolVar(&clearDescription, "clear-description", false, "remove the description")
	f.StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	f.BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}

// update は一覧を読み込んでからストア経由で更新します。
// 拒否された場合はストアが一覧を読み直し、取り消したことを stderr に出力します。
func (a *app) update(cmd *cobra.Command, id string, req models.UpdateTodoRequest) (*models.Todo, error) {
	ctx := ctxOf(cmd)
	if err := a.store.Load(ctx); err != nil {
		return nil, err
	}
	updated, err := a.store.Update(ctx, id, req)
	if err != nil {
		a.reportReverted(cmd)
		return nil, err
	}
	return updated, nil
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := a.update(cmd, args[0], models.UpdateTodoRequest{Completed: models.Some(true)})
			if err != nil {
				return err
			}
			return a.printTodo(cmd, updated)
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			if err := a.store.Load(ctx); err != nil {
				return err
			}
			if err := a.store.Delete(ctx, args[0]); err != nil {
				a.reportReverted(cmd)
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			printf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// statsOutput は stats --json の出力です。
type statsOutput struct {
	Stats      view.Stats           `json:"stats"`
	Categories []view.CategoryCount `json:"categories"`
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize all todos by status and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := ctxOf(cmd)
			var all []*models.Todo
			for page := 1; ; page++ {
				resp, err := a.api.List(ctx, page, models.MaxLimit)
				if err != nil {
					return err
				}
				all = append(all, resp.Todos...)
				if page >= resp.Pagination.TotalPages {
					break
				}
			}

			out := statsOutput{
				Stats:      view.ComputeStats(all, time.Now()),
				Categories: view.CategoryCounts(all),
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), out)
			}
			renderStats(cmd.OutOrStdout(), out.Stats, out.Categories)
			return nil
		},
	}
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.api.Health(ctxOf(cmd))
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), h)
			}
			printf(cmd.OutOrStdout(), "%s: %s\n", h.Status, h.Message)
			return nil
		},
	}
}
