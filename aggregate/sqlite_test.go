package aggregate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"storewatch/models"
	"storewatch/storage"
)

// seedDB writes a known day of monitoring data through the production
// writer, then opens a read client on the same file.
func seedDB(t *testing.T) *SQLiteClient {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "status.db")
	ctx := context.Background()

	policy := storage.DefaultRetryPolicy()
	policy.Sleep = func(time.Duration) {}
	store, err := storage.NewSQLite(dbPath, policy)
	if err != nil {
		t.Fatalf("failed to open writer: %v", err)
	}

	alpha, err := store.ResolveStore(ctx, "https://food.grab.com/ph/en/restaurant/alpha",
		func() string { return "Alpha" })
	if err != nil {
		t.Fatalf("resolve alpha: %v", err)
	}
	beta, err := store.ResolveStore(ctx, "https://www.foodpanda.ph/restaurant/b1/beta",
		func() string { return "Beta" })
	if err != nil {
		t.Fatalf("resolve beta: %v", err)
	}

	// Three runs on 2025-06-01 in the reporting zone (UTC+8):
	// 10:00 local, 10:30 local, 11:00 local.
	run1 := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	run2 := time.Date(2025, 6, 1, 2, 30, 0, 0, time.UTC)
	run3 := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

	ms := int64(150)
	runs := []struct {
		at          time.Time
		alphaOnline bool
		betaOnline  bool
	}{
		{run1, true, true},
		{run2, true, false},
		{run3, false, true},
	}
	for _, r := range runs {
		online := 0
		for _, up := range []bool{r.alphaOnline, r.betaOnline} {
			if up {
				online++
			}
		}
		checks := []models.StatusCheck{
			{StoreID: alpha.ID, IsOnline: r.alphaOnline, CheckedAt: r.at, ResponseTimeMS: &ms},
			{StoreID: beta.ID, IsOnline: r.betaOnline, CheckedAt: r.at.Add(time.Second)},
		}
		if err := store.RecordRun(ctx, checks, models.NewSummary(online, 2-online, r.at)); err != nil {
			t.Fatalf("record run at %s: %v", r.at, err)
		}
	}

	// A run from the previous reporting day must stay outside the window.
	prev := time.Date(2025, 5, 31, 15, 0, 0, 0, time.UTC) // 23:00 local, May 31
	prevChecks := []models.StatusCheck{
		{StoreID: alpha.ID, IsOnline: false, CheckedAt: prev},
	}
	if err := store.RecordRun(ctx, prevChecks, models.NewSummary(0, 1, prev)); err != nil {
		t.Fatalf("record previous-day run: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	client, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("failed to open read client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func queryDay() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, ReportZone)
}

func TestLatestStatuses(t *testing.T) {
	client := seedDB(t)

	statuses, err := client.LatestStatuses(context.Background())
	if err != nil {
		t.Fatalf("latest statuses failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	// Sorted by name, each carrying only its newest check.
	if statuses[0].Name != "Alpha" || statuses[1].Name != "Beta" {
		t.Fatalf("unexpected order: %s, %s", statuses[0].Name, statuses[1].Name)
	}
	if statuses[0].IsOnline {
		t.Fatal("alpha's latest check is offline")
	}
	if !statuses[1].IsOnline {
		t.Fatal("beta's latest check is online")
	}
	if statuses[0].Platform != models.PlatformGrabFood {
		t.Fatalf("unexpected alpha platform %s", statuses[0].Platform)
	}
	if statuses[0].ResponseTimeMS == nil || *statuses[0].ResponseTimeMS != 150 {
		t.Fatalf("expected alpha response time 150, got %v", statuses[0].ResponseTimeMS)
	}
	if statuses[1].ResponseTimeMS != nil {
		t.Fatalf("expected beta response time nil, got %d", *statuses[1].ResponseTimeMS)
	}
}

func TestHourlyRollup(t *testing.T) {
	client := seedDB(t)

	slots, err := client.HourlyRollup(context.Background(), queryDay())
	if err != nil {
		t.Fatalf("hourly rollup failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}

	// Hour 10 local averages runs of 100 and 50; hour 11 has one run at 50.
	if slots[0].Hour != 10 || slots[0].Runs != 2 {
		t.Fatalf("unexpected first slot %+v", slots[0])
	}
	if slots[0].OnlinePct != 75 || slots[0].OfflinePct != 25 {
		t.Fatalf("unexpected first slot percentages %+v", slots[0])
	}
	if slots[1].Hour != 11 || slots[1].Runs != 1 {
		t.Fatalf("unexpected second slot %+v", slots[1])
	}
	if slots[1].OnlinePct != 50 {
		t.Fatalf("unexpected second slot percentage %+v", slots[1])
	}
}

func TestDailyUptime(t *testing.T) {
	client := seedDB(t)

	uptimes, err := client.DailyUptime(context.Background(), queryDay())
	if err != nil {
		t.Fatalf("daily uptime failed: %v", err)
	}
	if len(uptimes) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(uptimes))
	}

	// Both stores are 2 of 3 online today; the previous-day offline check on
	// alpha must not drag its number down. Ties order by name.
	for i, want := range []string{"Alpha", "Beta"} {
		u := uptimes[i]
		if u.Name != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, u.Name)
		}
		if u.ChecksToday != 3 || u.OnlineChecks != 2 {
			t.Fatalf("%s: expected 2/3 online, got %d/%d", u.Name, u.OnlineChecks, u.ChecksToday)
		}
		if u.UptimePct != 67 {
			t.Fatalf("%s: expected 67%%, got %d%%", u.Name, u.UptimePct)
		}
	}
}

func TestQueriesOnEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "status.db")

	policy := storage.DefaultRetryPolicy()
	store, err := storage.NewSQLite(dbPath, policy)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	store.Close()

	client, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("failed to open read client: %v", err)
	}
	defer client.Close()
	ctx := context.Background()

	statuses, err := client.LatestStatuses(ctx)
	if err != nil {
		t.Fatalf("latest statuses failed: %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("expected no statuses, got %d", len(statuses))
	}

	slots, err := client.HourlyRollup(ctx, queryDay())
	if err != nil {
		t.Fatalf("hourly rollup failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}

	uptimes, err := client.DailyUptime(ctx, queryDay())
	if err != nil {
		t.Fatalf("daily uptime failed: %v", err)
	}
	if len(uptimes) != 0 {
		t.Fatalf("expected no uptimes, got %d", len(uptimes))
	}
}
