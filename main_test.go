package main

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"prism-todos/config"
	"prism-todos/domain"
	"prism-todos/mockapi"
)

func startMock(t *testing.T, tasks []domain.Task) (*mockapi.MemoryBackend, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	backend := mockapi.NewMemoryBackend(tasks)
	ts := httptest.NewServer(mockapi.NewServer(backend, mockapi.Options{}, logger).Echo)
	t.Cleanup(ts.Close)
	return backend, ts.URL
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, name := range []string{"TODOS_API_BASE_URL", "TODOS_FETCH_LIMIT", "TODOS_PAGE_SIZE", "TODOS_REQUEST_TIMEOUT", "TODOS_SERIALIZE_MUTATIONS", "DEBUG"} {
		t.Setenv(name, "")
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		rootFlags.baseURL = ""
		listFlags.filter, listFlags.search, listFlags.page = "all", "", 1
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListCommandPrintsFilteredPage(t *testing.T) {
	_, url := startMock(t, []domain.Task{
		{ID: 1, Title: "Buy milk"},
		{ID: 2, Title: "Pay bills", Completed: true},
	})

	out, err := runCLI(t, "list", "--base-url", url, "--filter", "completed")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "[x]    2  Pay bills") || strings.Contains(out, "Buy milk") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Total 2  Completed 1  Incomplete 1") {
		t.Fatalf("expected whole collection counts:\n%s", out)
	}
}

func TestListCommandRejectsUnknownFilter(t *testing.T) {
	if _, err := runCLI(t, "list", "--filter", "someday"); err == nil {
		t.Fatalf("expected invalid filter error")
	}
}

func TestToggleAndDeleteCommands(t *testing.T) {
	backend, url := startMock(t, mockapi.SeedTasks(3))

	if _, err := runCLI(t, "toggle", "1", "--base-url", url); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got, _ := backend.GetTask(t.Context(), 1)
	want := mockapi.SeedTasks(1)[0]
	if got.Completed == want.Completed {
		t.Fatalf("expected completion flipped, got %#v", got)
	}

	if _, err := runCLI(t, "delete", "2", "--base-url", url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := backend.GetTask(t.Context(), 2); err == nil {
		t.Fatalf("expected task 2 deleted")
	}

	if _, err := runCLI(t, "delete", "99", "--base-url", url); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestApplyServeFlags(t *testing.T) {
	cfg := config.Mock{ListenAddr: ":8080", Backend: config.BackendMemory, SeedCount: 200}
	if err := serveMockCmd.Flags().Parse([]string{"--addr", ":9999", "--seed", "5"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	applyServeFlags(serveMockCmd, &cfg)
	if cfg.ListenAddr != ":9999" || cfg.SeedCount != 5 || cfg.Backend != config.BackendMemory {
		t.Fatalf("unexpected config %#v", cfg)
	}
}
