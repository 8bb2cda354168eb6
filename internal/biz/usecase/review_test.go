package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aibisolutions/secretary/internal/biz/domain"
	"github.com/aibisolutions/secretary/internal/biz/repo"
)

type memDraftRepo struct {
	drafts map[string]*domain.Draft
}

func newMemDraftRepo() *memDraftRepo {
	return &memDraftRepo{drafts: make(map[string]*domain.Draft)}
}

func (r *memDraftRepo) Save(ctx context.Context, draft *domain.Draft) error {
	cp := *draft
	r.drafts[draft.ChatID] = &cp
	return nil
}

func (r *memDraftRepo) GetByChat(ctx context.Context, chatID string) (*domain.Draft, error) {
	d, ok := r.drafts[chatID]
	if !ok {
		return nil, repo.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDraftRepo) ListPending(ctx context.Context) ([]*domain.Draft, error) {
	var out []*domain.Draft
	for _, d := range r.drafts {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memDraftRepo) Delete(ctx context.Context, chatID string) error {
	delete(r.drafts, chatID)
	return nil
}

func (r *memDraftRepo) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for id, d := range r.drafts {
		if d.CreatedAt.Before(before) {
			delete(r.drafts, id)
			n++
		}
	}
	return n, nil
}

type fakeDeliverer struct {
	fail  bool
	sends []string
}

func (f *fakeDeliverer) Send(ctx context.Context, chatID, text string) (*domain.DeliveryResult, error) {
	if f.fail {
		return &domain.DeliveryResult{}, &DeliveryError{Attempts: []domain.DeliveryAttempt{
			{Transport: domain.TransportPrimary, Outcome: domain.OutcomeError, Err: "boom"},
			{Transport: domain.TransportSecondary, Outcome: domain.OutcomeError, Err: "boom"},
		}}
	}
	f.sends = append(f.sends, chatID+": "+text)
	return &domain.DeliveryResult{Delivered: true, Transport: domain.TransportPrimary}, nil
}

func newTestReview(fail bool) (*ReviewUsecase, *memDraftRepo, *fakeDeliverer) {
	drafts := newMemDraftRepo()
	deliverer := &fakeDeliverer{fail: fail}
	return NewReviewUsecase(drafts, deliverer), drafts, deliverer
}

func mustCreateDraft(t *testing.T, uc *ReviewUsecase, chatID, text string) *domain.Draft {
	t.Helper()
	draft, err := uc.CreateDraft(context.Background(), chatID, "Client", text, 72)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	return draft
}

func TestCreateDraftReplacesExisting(t *testing.T) {
	uc, drafts, _ := newTestReview(false)
	first := mustCreateDraft(t, uc, "c1", "old text")
	second := mustCreateDraft(t, uc, "c1", "new text")

	stored, err := drafts.GetByChat(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetByChat: %v", err)
	}
	if stored.ID == first.ID {
		t.Error("old draft survived replacement")
	}
	if stored.ID != second.ID || stored.Text != "new text" {
		t.Errorf("stored = %+v, want the new draft", stored)
	}
}

func TestApproveDeliversAndRemovesDraft(t *testing.T) {
	uc, drafts, deliverer := newTestReview(false)
	mustCreateDraft(t, uc, "c1", "see you at three")

	res := uc.Approve(context.Background(), "c1")
	if !res.OK {
		t.Fatalf("Approve failed: %s", res.Status)
	}
	if len(deliverer.sends) != 1 || deliverer.sends[0] != "c1: see you at three" {
		t.Errorf("sends = %v", deliverer.sends)
	}
	if _, err := drafts.GetByChat(context.Background(), "c1"); err == nil {
		t.Error("draft still stored after successful delivery")
	}
}

func TestApproveWithoutDraftFails(t *testing.T) {
	uc, _, _ := newTestReview(false)

	res := uc.Approve(context.Background(), "c1")
	if res.OK {
		t.Error("Approve succeeded with no draft")
	}
	if !strings.Contains(res.Status, "no active draft") {
		t.Errorf("status = %q", res.Status)
	}
}

func TestFailedDeliveryRetainsDraft(t *testing.T) {
	uc, drafts, _ := newTestReview(true)
	mustCreateDraft(t, uc, "c1", "candidate")

	res := uc.Approve(context.Background(), "c1")
	if res.OK {
		t.Fatal("Approve reported success on failed delivery")
	}
	if !strings.Contains(res.Status, "draft retained") {
		t.Errorf("status = %q", res.Status)
	}

	stored, err := drafts.GetByChat(context.Background(), "c1")
	if err != nil {
		t.Fatalf("draft lost after failed delivery: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("status = %s, want %s", stored.Status, domain.StatusPending)
	}
	if stored.LastError == "" {
		t.Error("LastError empty after failed delivery")
	}
}

func TestRetryAfterFailedDelivery(t *testing.T) {
	uc, drafts, deliverer := newTestReview(true)
	mustCreateDraft(t, uc, "c1", "candidate")

	if res := uc.Approve(context.Background(), "c1"); res.OK {
		t.Fatal("first approve succeeded, want failure")
	}

	deliverer.fail = false
	res := uc.Approve(context.Background(), "c1")
	if !res.OK {
		t.Fatalf("retry failed: %s", res.Status)
	}
	if _, err := drafts.GetByChat(context.Background(), "c1"); err == nil {
		t.Error("draft still stored after successful retry")
	}
}

func TestSubmitEditSendsReplacementText(t *testing.T) {
	uc, _, deliverer := newTestReview(false)
	mustCreateDraft(t, uc, "c1", "candidate")

	if res := uc.RequestEdit(context.Background(), "c1"); !res.OK {
		t.Fatalf("RequestEdit: %s", res.Status)
	}
	res := uc.SubmitEdit(context.Background(), "c1", "hand-written reply")
	if !res.OK {
		t.Fatalf("SubmitEdit: %s", res.Status)
	}
	if deliverer.sends[0] != "c1: hand-written reply" {
		t.Errorf("sends = %v", deliverer.sends)
	}
}

func TestSubmitEditWithoutRequestEditStillLands(t *testing.T) {
	uc, _, deliverer := newTestReview(false)
	mustCreateDraft(t, uc, "c1", "candidate")

	res := uc.SubmitEdit(context.Background(), "c1", "direct edit")
	if !res.OK {
		t.Fatalf("SubmitEdit: %s", res.Status)
	}
	if deliverer.sends[0] != "c1: direct edit" {
		t.Errorf("sends = %v", deliverer.sends)
	}
}

func TestSubmitEditRejectsEmptyText(t *testing.T) {
	uc, drafts, _ := newTestReview(false)
	mustCreateDraft(t, uc, "c1", "candidate")

	res := uc.SubmitEdit(context.Background(), "c1", "   ")
	if res.OK {
		t.Fatal("empty edit accepted")
	}

	stored, err := drafts.GetByChat(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetByChat: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("status = %s, want unchanged %s", stored.Status, domain.StatusPending)
	}
	if stored.Text != "candidate" {
		t.Errorf("text = %q, want unchanged", stored.Text)
	}
}

func TestDiscardIsIdempotent(t *testing.T) {
	uc, _, deliverer := newTestReview(false)
	mustCreateDraft(t, uc, "c1", "candidate")

	first := uc.Discard(context.Background(), "c1")
	if !first.OK || first.Status != "draft discarded" {
		t.Fatalf("first discard = %+v", first)
	}
	second := uc.Discard(context.Background(), "c1")
	if !second.OK || second.Status != "already discarded" {
		t.Errorf("second discard = %+v", second)
	}
	if len(deliverer.sends) != 0 {
		t.Errorf("discard triggered delivery: %v", deliverer.sends)
	}
}

func TestApproveTwiceSecondFails(t *testing.T) {
	uc, _, deliverer := newTestReview(false)
	mustCreateDraft(t, uc, "c1", "candidate")

	if res := uc.Approve(context.Background(), "c1"); !res.OK {
		t.Fatalf("first approve: %s", res.Status)
	}
	if res := uc.Approve(context.Background(), "c1"); res.OK {
		t.Error("second approve succeeded after draft removal")
	}
	if len(deliverer.sends) != 1 {
		t.Errorf("sends = %d, want 1", len(deliverer.sends))
	}
}
