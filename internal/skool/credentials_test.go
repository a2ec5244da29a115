// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import (
	"context"
	"errors"
	"testing"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/models"
)

type fakeChecker struct {
	admins  map[string]bool
	failing map[string]error
	checked []string
}

func (f *fakeChecker) CheckMembership(ctx context.Context, cred models.Credential, community string) (bool, error) {
	f.checked = append(f.checked, cred.Handle)
	if err, ok := f.failing[cred.Handle]; ok {
		return false, err
	}
	return f.admins[cred.Handle], nil
}

type fakeMeta struct {
	last     string
	readErr  error
	writeErr error
	writes   []string
}

func (f *fakeMeta) LastSuccessfulAccount(ctx context.Context, orgID string) (string, error) {
	return f.last, f.readErr
}

func (f *fakeMeta) SetLastSuccessfulAccount(ctx context.Context, orgID, handle string) error {
	f.writes = append(f.writes, handle)
	if f.writeErr != nil {
		return f.writeErr
	}
	f.last = handle
	return nil
}

func selectorAccounts() []config.AccountConfig {
	return []config.AccountConfig{
		{Handle: "alpha", Token: "t-alpha"},
		{Handle: "bravo", Token: "t-bravo"},
		{Handle: "charlie", Token: "t-charlie"},
	}
}

func TestSelectTriesLastSuccessfulFirst(t *testing.T) {
	checker := &fakeChecker{admins: map[string]bool{"bravo": true}}
	meta := &fakeMeta{last: "bravo"}
	sel := NewCredentialSelector(selectorAccounts(), checker, meta)

	cred, err := sel.Select(context.Background(), "org-1", "ai-builders")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if cred.Handle != "bravo" || cred.Token != "t-bravo" {
		t.Errorf("Select() = %+v, want bravo credential", cred)
	}
	if len(checker.checked) != 1 || checker.checked[0] != "bravo" {
		t.Errorf("verification order = %v, want [bravo] only", checker.checked)
	}
	if len(meta.writes) != 0 {
		t.Errorf("metadata writes = %v, want none when the hint still holds", meta.writes)
	}
}

func TestSelectFallsBackInConfigOrderWhenHintDemoted(t *testing.T) {
	checker := &fakeChecker{admins: map[string]bool{"alpha": true}}
	meta := &fakeMeta{last: "charlie"}
	sel := NewCredentialSelector(selectorAccounts(), checker, meta)

	cred, err := sel.Select(context.Background(), "org-1", "ai-builders")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if cred.Handle != "alpha" {
		t.Errorf("Select() handle = %q, want alpha", cred.Handle)
	}
	want := []string{"charlie", "alpha"}
	if len(checker.checked) != len(want) || checker.checked[0] != want[0] || checker.checked[1] != want[1] {
		t.Errorf("verification order = %v, want %v", checker.checked, want)
	}
	if len(meta.writes) != 1 || meta.writes[0] != "alpha" {
		t.Errorf("metadata writes = %v, want [alpha]", meta.writes)
	}
}

func TestSelectSkipsFailingCandidates(t *testing.T) {
	checker := &fakeChecker{
		admins:  map[string]bool{"charlie": true},
		failing: map[string]error{"alpha": errors.New("token expired")},
	}
	meta := &fakeMeta{}
	sel := NewCredentialSelector(selectorAccounts(), checker, meta)

	cred, err := sel.Select(context.Background(), "org-1", "ai-builders")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if cred.Handle != "charlie" {
		t.Errorf("Select() handle = %q, want charlie", cred.Handle)
	}
	if len(checker.checked) != 3 {
		t.Errorf("verification attempts = %v, want all three candidates tried", checker.checked)
	}
}

func TestSelectReturnsErrNoCredentialWhenAllFail(t *testing.T) {
	checker := &fakeChecker{admins: map[string]bool{}}
	sel := NewCredentialSelector(selectorAccounts(), checker, &fakeMeta{})

	_, err := sel.Select(context.Background(), "org-1", "ai-builders")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Select() error = %v, want ErrNoCredential", err)
	}
}

func TestSelectSurvivesMetadataFailures(t *testing.T) {
	checker := &fakeChecker{admins: map[string]bool{"alpha": true}}
	meta := &fakeMeta{readErr: errors.New("identity service down"), writeErr: errors.New("still down")}
	sel := NewCredentialSelector(selectorAccounts(), checker, meta)

	cred, err := sel.Select(context.Background(), "org-1", "ai-builders")
	if err != nil {
		t.Fatalf("Select() error = %v, want selection to proceed without metadata", err)
	}
	if cred.Handle != "alpha" {
		t.Errorf("Select() handle = %q, want alpha", cred.Handle)
	}
}

func TestCandidatesIgnoresUnconfiguredHint(t *testing.T) {
	sel := NewCredentialSelector(selectorAccounts(), nil, nil)
	got := sel.candidates("deleted-account")
	if len(got) != 3 || got[0].Handle != "alpha" {
		t.Errorf("candidates() = %v, want plain configuration order", got)
	}
}
