package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

func TestEntryUseCase_GetEntriesByFreeze(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 1000)
	f := l.freeze(t, "acc-1", 300, "activation:1")
	if _, err := l.settlement.Commit(context.Background(), f.ID); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	uc := usecase.NewEntryUseCase(l.entries, l.accounts, l.freezes)

	entries, err := uc.GetEntriesByFreeze(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected freeze and commit entries, got %d", len(entries))
	}
	if entries[0].Kind != domain.EntryKindFreeze || entries[1].Kind != domain.EntryKindCommit {
		t.Errorf("unexpected kinds %s, %s", entries[0].Kind, entries[1].Kind)
	}
	if !entries[1].BalanceAfter.Equal(l.account(t, "acc-1").Balance) {
		t.Errorf("commit entry balance %s does not match account", entries[1].BalanceAfter)
	}
}

func TestEntryUseCase_GetEntriesByAccountPaginates(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 1000)
	for _, ref := range []string{"a:1", "a:2", "a:3"} {
		l.freeze(t, "acc-1", 10, ref)
	}

	uc := usecase.NewEntryUseCase(l.entries, l.accounts, l.freezes)

	page, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{AccountID: "acc-1", Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}
	if !page[0].FrozenAfter.Equal(l.account(t, "acc-1").FrozenBalance) {
		t.Errorf("newest entry should carry the current frozen balance, got %s", page[0].FrozenAfter)
	}

	rest, _ := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{AccountID: "acc-1", Limit: 2, Offset: 2})
	if len(rest) != 1 {
		t.Errorf("expected 1 remaining entry, got %d", len(rest))
	}
}

func TestEntryUseCase_UnknownTargets(t *testing.T) {
	l := newTestLedger(t)
	uc := usecase.NewEntryUseCase(l.entries, l.accounts, l.freezes)

	if _, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{AccountID: "ghost"}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := uc.GetEntriesByFreeze(context.Background(), "frz-ghost"); !errors.Is(err, domain.ErrFreezeNotFound) {
		t.Errorf("expected ErrFreezeNotFound, got %v", err)
	}
}
