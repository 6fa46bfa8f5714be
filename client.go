package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"prism-todos/config"
	"prism-todos/domain"
	"prism-todos/remote"
	"prism-todos/store"
	"prism-todos/tui"
	"prism-todos/view"
)

var (
	tuiFlags struct {
		dark bool
	}
	listFlags struct {
		filter string
		search string
		page   int
	}
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive todo list",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadClientConfig()
		logger := log.StandardLogger()
		// Log lines would corrupt the alternate screen.
		logger.SetOutput(io.Discard)

		st := newStore(cfg, logger)
		m := tui.New(st, tui.Options{PageSize: cfg.PageSize, Dark: tuiFlags.dark, Timeout: cfg.RequestTimeout, Logger: logger})
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		st.Close()
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of the todo list",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := domain.ParseFilterMode(listFlags.filter)
		if !ok {
			return fmt.Errorf("invalid filter %q: want all, completed or incomplete", listFlags.filter)
		}
		cfg := loadClientConfig()
		v, err := mountView(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer v.Unmount()

		v.SetSearch(listFlags.search)
		v.SetFilter(mode)
		v.SetPage(listFlags.page)
		printPage(cmd.OutOrStdout(), v)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip the completed flag of a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		v, err := mountView(cmd.Context(), loadClientConfig())
		if err != nil {
			return err
		}
		defer v.Unmount()
		task, ok := findTask(v, id)
		if !ok {
			return fmt.Errorf("todo %d not found", id)
		}
		return v.ToggleComplete(cmd.Context(), task)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		v, err := mountView(cmd.Context(), loadClientConfig())
		if err != nil {
			return err
		}
		defer v.Unmount()
		if _, ok := findTask(v, id); !ok {
			return fmt.Errorf("todo %d not found", id)
		}
		_, err = v.Delete(cmd.Context(), id)
		return err
	},
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiFlags.dark, "dark", false, "start in dark mode")
	listCmd.Flags().StringVar(&listFlags.filter, "filter", "all", "all, completed or incomplete")
	listCmd.Flags().StringVar(&listFlags.search, "search", "", "case-insensitive title search")
	listCmd.Flags().IntVar(&listFlags.page, "page", 1, "1-based page number")
}

func newStore(cfg config.Client, logger *log.Logger) *store.Store {
	client := remote.New(cfg.BaseURL, cfg.RequestTimeout, logger)
	return store.New(client, store.Options{
		FetchLimit:         cfg.FetchLimit,
		SerializeMutations: cfg.SerializeMutations,
		Logger:             logger,
	})
}

// mountView loads the collection for the one-shot commands. Notifications go
// to the log and confirmations are implied by the command itself.
func mountView(ctx context.Context, cfg config.Client) (*view.ListView, error) {
	logger := log.StandardLogger()
	st := newStore(cfg, logger)
	v := view.NewListView(st, view.LogNotifier{Logger: logger}, view.AlwaysConfirm, cfg.PageSize)
	if err := v.Mount(ctx); err != nil {
		v.Unmount()
		return nil, fmt.Errorf("%s: %w", view.LoadFailed, err)
	}
	return v, nil
}

func findTask(v *view.ListView, id int) (domain.Task, bool) {
	for _, t := range v.DisplayOrder() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printPage(w io.Writer, v *view.ListView) {
	c := v.Counts()
	fmt.Fprintf(w, "Total %d  Completed %d  Incomplete %d\n", c.Total, c.Completed, c.Incomplete)
	fmt.Fprintln(w, strings.Repeat("-", 40))
	items := v.PageItems()
	if len(items) == 0 {
		fmt.Fprintln(w, v.EmptyMessage())
		return
	}
	for _, t := range items {
		check := " "
		if t.Completed {
			check = "x"
		}
		fmt.Fprintf(w, "[%s] %4d  %s\n", check, t.ID, t.Title)
	}
	fmt.Fprintf(w, "Page %d of %d\n", v.Page(), v.PageCount())
}
