package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"game-rewards-engine/models"
)

func TestCreditClampsToDailyCap(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		amount     int64
		credited   int64
		capReached bool
	}{
		{700, 700, false},
		{900, 900, false},
		{600, 400, true},
		{300, 0, true},
	}
	var total int64
	for i, tt := range tests {
		res, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: tt.amount, Source: models.SourceGameReward})
		if err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
		if res.Credited != tt.credited || res.CapReached != tt.capReached {
			t.Errorf("credit %d of %d: credited %d capReached %t, want %d %t",
				i, tt.amount, res.Credited, res.CapReached, tt.credited, tt.capReached)
		}
		if res.Capped != (tt.credited < tt.amount) {
			t.Errorf("credit %d: capped = %t", i, res.Capped)
		}
		total += res.Credited
		f.clock.Advance(time.Second)
	}
	if total != 2000 {
		t.Errorf("total credited = %d, want 2000", total)
	}

	// The zero credit left no entry behind.
	entries := f.entries(t, "u1")
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	var running int64
	for _, e := range entries {
		running += e.Amount
		if e.BalanceAfter != running {
			t.Errorf("entry %s balance_after = %d, want %d", e.ID, e.BalanceAfter, running)
		}
	}

	balance, _ := f.ledger.Balance("u1")
	if balance != 2000 {
		t.Errorf("balance = %d, want 2000", balance)
	}
}

func TestCreditScenarioNearCap(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: 1950, Source: models.SourceGameReward}); err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	res, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: 100, Source: models.SourceGameReward, CountGame: true})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if res.Requested != 100 || res.Credited != 50 {
		t.Errorf("requested/credited = %d/%d, want 100/50", res.Requested, res.Credited)
	}
	if res.Daily.PointsEarned != 2000 || !res.CapReached {
		t.Errorf("daily = %+v capReached=%t, want 2000 and reached", res.Daily, res.CapReached)
	}
	if res.Daily.GamesPlayed != 1 {
		t.Errorf("games played = %d, want 1", res.Daily.GamesPlayed)
	}
}

func TestNonEarnSourcesBypassCap(t *testing.T) {
	f := newFixture(t)
	f.ledger.Credit(CreditRequest{UserID: "u1", Amount: 2000, Source: models.SourceGameReward})

	res, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: 5000, Source: models.SourceAdminAdjust})
	if err != nil {
		t.Fatalf("admin adjust: %v", err)
	}
	if res.Credited != 5000 || res.Balance != 7000 {
		t.Errorf("credited %d balance %d, want 5000 7000", res.Credited, res.Balance)
	}
	if res.Daily.PointsEarned != 2000 {
		t.Errorf("admin adjust moved daily earnings to %d", res.Daily.PointsEarned)
	}

	if _, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: -8000, Source: models.SourceAdminAdjust}); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("overdraw err = %v, want ErrInsufficientBalance", err)
	}
	if balance, _ := f.ledger.Balance("u1"); balance != 7000 {
		t.Errorf("balance after rejected debit = %d, want 7000", balance)
	}
}

func TestCreditRejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	tests := map[string]CreditRequest{
		"negative earn":  {UserID: "u1", Amount: -5, Source: models.SourceGameReward},
		"unknown source": {UserID: "u1", Amount: 5, Source: "bonus"},
		"no user":        {Amount: 5, Source: models.SourceAdminAdjust},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := f.ledger.Credit(req); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("err = %v, want ErrInvalidAmount", err)
			}
		})
	}
}

func TestCreditReferenceIsOnceOnly(t *testing.T) {
	f := newFixture(t)
	req := CreditRequest{UserID: "u1", Amount: 40, Source: models.SourceGameReward, Reference: "session-1"}
	if _, err := f.ledger.Credit(req); err != nil {
		t.Fatalf("first credit: %v", err)
	}
	if _, err := f.ledger.Credit(req); !errors.Is(err, ErrDuplicateCredit) {
		t.Fatalf("second credit err = %v, want ErrDuplicateCredit", err)
	}
	// Same reference under a different source is a different entry.
	if _, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: -10, Source: models.SourceGameWager, Reference: "session-1"}); err != nil {
		t.Errorf("wager with shared reference: %v", err)
	}
	if balance, _ := f.ledger.Balance("u1"); balance != 30 {
		t.Errorf("balance = %d, want 30", balance)
	}
}

func TestDailyCapResetsAtDayBoundary(t *testing.T) {
	f := newFixture(t)
	f.ledger.Credit(CreditRequest{UserID: "u1", Amount: 2500, Source: models.SourceGameReward})

	f.clock.Advance(12 * time.Hour) // 2026-03-15 00:00 UTC
	res, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: 300, Source: models.SourceGameReward})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if res.Credited != 300 || res.Daily.Day != "2026-03-15" {
		t.Errorf("credited %d on %s, want 300 on 2026-03-15", res.Credited, res.Daily.Day)
	}
	if res.Balance != 2300 {
		t.Errorf("balance = %d, want 2300", res.Balance)
	}
}

func TestDayFollowsConfiguredZone(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("UTC+14", 14*60*60)
	f.ledger.Location = loc
	// 12:00 UTC is already 02:00 the next day at UTC+14.
	if got := f.ledger.Day(f.clock.Now()); got != "2026-03-15" {
		t.Errorf("Day = %s, want 2026-03-15", got)
	}
}

func TestConcurrentCreditsRespectCap(t *testing.T) {
	f := newFixture(t)

	const workers = 20
	var wg sync.WaitGroup
	credited := make([]int64, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.ledger.Credit(CreditRequest{UserID: "u1", Amount: 150, Source: models.SourceGameReward})
			errs[i] = err
			if err == nil {
				credited[i] = res.Credited
			}
		}(i)
	}
	wg.Wait()

	var sum int64
	for i := range credited {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		sum += credited[i]
	}
	if sum != 2000 {
		t.Errorf("sum credited = %d, want exactly the cap 2000", sum)
	}
	stats, _ := f.ledger.TodayStats("u1", f.clock.Now())
	if stats.PointsEarned != 2000 {
		t.Errorf("daily points = %d, want 2000", stats.PointsEarned)
	}
}

func TestHistoryPages(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.ledger.Credit(CreditRequest{UserID: "u1", Amount: int64(i + 1), Source: models.SourceAdminAdjust})
		f.clock.Advance(time.Second)
	}

	page, total, err := f.ledger.History("u1", 1, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("total %d, page %d, want 5 and 2", total, len(page))
	}
	if page[0].Amount != 5 || page[1].Amount != 4 {
		t.Errorf("first page amounts = %d,%d, want newest first 5,4", page[0].Amount, page[1].Amount)
	}

	since, err := f.ledger.Since("u1", page[1].CreatedAt)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(since) != 2 || since[0].Amount != 4 || since[1].Amount != 5 {
		t.Errorf("Since = %+v, want the two newest entries oldest first", since)
	}
}
