package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/aibisolutions/secretary/internal/biz/domain"
)

func clientMsg(id, text string) domain.Message {
	return domain.Message{
		ID:        id,
		SenderID:  "client-1",
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func operatorMsg(id, text string) domain.Message {
	return domain.Message{
		ID:         id,
		SenderID:   "owner",
		Text:       text,
		CreatedAt:  time.Now(),
		IsOperator: true,
	}
}

func TestShouldRespondFalseForUnknownChat(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	if uc.ShouldRespond("never-seen") {
		t.Error("ShouldRespond = true for a chat with no history")
	}
}

func TestShouldRespondFalseWhenOperatorSpokeLast(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	uc.Ingest("c1", "Client", clientMsg("m1", "are you free tomorrow?"))
	uc.Ingest("c1", "Client", operatorMsg("m2", "yes, after lunch"))

	if uc.ShouldRespond("c1") {
		t.Error("ShouldRespond = true after the operator replied")
	}
}

func TestShouldRespondTrueWhenClientSpokeLast(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	uc.Ingest("c1", "Client", operatorMsg("m1", "hello"))
	uc.Ingest("c1", "Client", clientMsg("m2", "what does a logo cost?"))

	if !uc.ShouldRespond("c1") {
		t.Error("ShouldRespond = false with an unanswered client message")
	}
}

func TestUnansweredGroupStopsAtOperatorReply(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	uc.Ingest("c1", "Client", clientMsg("m1", "hi"))
	uc.Ingest("c1", "Client", operatorMsg("m2", "hi there"))
	uc.Ingest("c1", "Client", clientMsg("m3", "one more thing"))
	uc.Ingest("c1", "Client", clientMsg("m4", "can we move to friday?"))

	group := uc.UnansweredMessages("c1")
	if len(group) != 2 {
		t.Fatalf("unanswered group len = %d, want 2", len(group))
	}
	if group[0].ID != "m3" || group[1].ID != "m4" {
		t.Errorf("group = [%s %s], want [m3 m4]", group[0].ID, group[1].ID)
	}
}

func TestUnansweredGroupCoversWholeBufferWithoutOperator(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	uc.Ingest("c1", "Client", clientMsg("m1", "hello"))
	uc.Ingest("c1", "Client", clientMsg("m2", "anyone here?"))

	if got := len(uc.UnansweredMessages("c1")); got != 2 {
		t.Errorf("unanswered group len = %d, want 2", got)
	}
}

func TestUnansweredTextJoinsBurstIntoOneBlock(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	uc.Ingest("c1", "Client", clientMsg("m1", "hi"))
	uc.Ingest("c1", "Client", clientMsg("m2", "need a banner"))
	uc.Ingest("c1", "Client", clientMsg("m3", "by monday"))

	text, unreadable := uc.UnansweredText("c1")
	if text != "hi\nneed a banner\nby monday" {
		t.Errorf("text = %q", text)
	}
	if unreadable {
		t.Error("hasUnreadable = true without unreadable files")
	}
}

func TestUnansweredTextFlagsUnreadableFiles(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	msg := clientMsg("m1", "see attached")
	msg.HasUnreadableFile = true
	uc.Ingest("c1", "Client", msg)

	_, unreadable := uc.UnansweredText("c1")
	if !unreadable {
		t.Error("hasUnreadable = false for a message with an unreadable file")
	}
}

func TestIngestEvictsOldestBeyondCapacity(t *testing.T) {
	uc := NewAccumulatorUsecase(3)
	for i := 0; i < 5; i++ {
		uc.Ingest("c1", "Client", clientMsg(fmt.Sprintf("m%d", i), "text"))
	}

	group := uc.UnansweredMessages("c1")
	if len(group) != 3 {
		t.Fatalf("buffer len = %d, want 3", len(group))
	}
	if group[0].ID != "m2" {
		t.Errorf("oldest kept = %s, want m2", group[0].ID)
	}
}

func TestOperatorStyleSampleChronologicalAndBounded(t *testing.T) {
	uc := NewAccumulatorUsecase(50)
	uc.Ingest("c1", "Client", operatorMsg("m1", "first"))
	uc.Ingest("c1", "Client", clientMsg("m2", "client noise"))
	uc.Ingest("c1", "Client", operatorMsg("m3", "second"))
	uc.Ingest("c1", "Client", operatorMsg("m4", "third"))

	sample := uc.OperatorStyleSample("c1", 2)
	if len(sample) != 2 {
		t.Fatalf("sample len = %d, want 2", len(sample))
	}
	if sample[0] != "second" || sample[1] != "third" {
		t.Errorf("sample = %v, want [second third]", sample)
	}
}

func TestPruneInactiveRemovesIdleChats(t *testing.T) {
	uc := NewAccumulatorUsecase(50)

	old := clientMsg("m1", "long ago")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	uc.Ingest("stale", "Old", old)
	uc.Ingest("fresh", "New", clientMsg("m2", "just now"))

	removed := uc.PruneInactive(time.Now().Add(-time.Hour))
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if uc.ShouldRespond("stale") {
		t.Error("pruned chat still responds")
	}
	if !uc.ShouldRespond("fresh") {
		t.Error("active chat was pruned")
	}
}
