package screens

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/internal/api"
	"github.com/mrsinham/retinascan/internal/model"
	"github.com/mrsinham/retinascan/internal/records"
)

// fakeRecordsClient is the minimal remote side for the workspace tests.
type fakeRecordsClient struct {
	history      []model.RecordSummary
	historyCalls int
	deleteErr    error
}

func (f *fakeRecordsClient) History(ctx context.Context) ([]model.RecordSummary, error) {
	f.historyCalls++
	return append([]model.RecordSummary(nil), f.history...), nil
}

func (f *fakeRecordsClient) PatientDetail(ctx context.Context, id string) (*model.DiagnosisRecord, error) {
	return nil, &api.NotFoundError{ID: id}
}

func (f *fakeRecordsClient) DeletePatient(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.history {
		if r.ID == id {
			f.history = append(f.history[:i], f.history[i+1:]...)
			return nil
		}
	}
	return &api.NotFoundError{ID: id}
}

func testRecordsScreen(t *testing.T, fc *fakeRecordsClient) (*RecordsScreen, *records.Store) {
	t.Helper()
	store := records.NewStore(fc, zerolog.Nop())
	mgr := records.NewManager(fc, store, zerolog.Nop())
	s := NewRecordsScreen(fc, store, mgr, t.TempDir(), zerolog.Nop())

	// Drive the initial fetch the way the event loop would.
	msg := s.refresh()()
	s.Update(msg)
	return s, store
}

func twoSummaries() []model.RecordSummary {
	date := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return []model.RecordSummary{
		{ID: "r1", Name: "Jane Doe", Age: 54, Gender: model.GenderFemale, Phone: "0123456789", Date: date, Diagnosis: "Mild DR", Severity: model.SeverityMild},
		{ID: "r2", Name: "John Smith", Age: 61, Gender: model.GenderMale, Phone: "5550001111", Date: date, Diagnosis: "Severe DR", Severity: model.SeveritySevere},
	}
}

// The delete command runs off the event loop; every store change has to
// wait until its outcome and the follow-up list fetch come back as
// messages.
func TestRecords_DeleteMutatesStoreOnlyViaMessages(t *testing.T) {
	fc := &fakeRecordsClient{history: twoSummaries()}
	s, store := testRecordsScreen(t, fc)
	if len(store.Records()) != 2 {
		t.Fatalf("setup: expected 2 records, got %d", len(store.Records()))
	}

	cmd := s.startDelete("r2")
	if !s.deleting {
		t.Error("interaction must be frozen while the delete is pending")
	}

	// Execute the command as the runtime would, in its own goroutine's
	// stead. The remote delete happens here; the cache must not move.
	done := cmd()
	if len(store.Records()) != 2 {
		t.Fatalf("cache changed outside the event loop: %d records", len(store.Records()))
	}

	_, next := s.Update(done)
	if s.deleting {
		t.Error("deleting flag must clear once the outcome is applied")
	}
	if s.notice != "Record deleted." {
		t.Errorf("notice = %q, want deletion notice", s.notice)
	}
	if next == nil {
		t.Fatal("a successful delete must schedule a list resync")
	}

	s.Update(next())
	for _, r := range store.Records() {
		if r.ID == "r2" {
			t.Error("deleted record still cached after the resync")
		}
	}
	if len(s.visible) != 1 {
		t.Errorf("visible rows = %d, want 1 after the resync", len(s.visible))
	}
}

func TestRecords_FailedDeleteKeepsRecordAndSkipsResync(t *testing.T) {
	fc := &fakeRecordsClient{history: twoSummaries()}
	s, store := testRecordsScreen(t, fc)

	fc.deleteErr = &api.ServerError{Status: 500, Message: "database unavailable"}
	cmd := s.startDelete("r1")

	_, next := s.Update(cmd())
	if next != nil {
		t.Error("a failed delete must not schedule a resync")
	}
	if s.errMsg == "" {
		t.Error("the failure must be surfaced to the operator")
	}
	if len(store.Records()) != 2 {
		t.Errorf("records = %d, failed delete must leave the cache intact", len(store.Records()))
	}
}

func pngDataURI(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRecords_DetailViewRendersStoredImages(t *testing.T) {
	fc := &fakeRecordsClient{history: twoSummaries()}
	s, store := testRecordsScreen(t, fc)

	rec := &model.DiagnosisRecord{
		ID: "r2", Name: "John Smith", Age: 61, Gender: model.GenderMale,
		Phone: "5550001111", Date: time.Now(), Diagnosis: "Severe DR",
		Severity: model.SeveritySevere, Confidence: 97.4,
		Image:   pngDataURI(t, color.RGBA{R: 200, A: 255}),
		Heatmap: pngDataURI(t, color.RGBA{B: 200, A: 255}),
	}
	seq := store.BeginDetail(rec.ID)
	store.FinishDetail(seq, rec, nil)
	s.detailOpen = true
	s.detailID = rec.ID

	out := s.View()
	if !strings.Contains(out, "Original Scan") {
		t.Error("detail view must label the original scan image")
	}
	if !strings.Contains(out, "AI Heatmap") {
		t.Error("detail view must label the heatmap image")
	}
	if !strings.Contains(out, "▀") {
		t.Error("detail view must render the image cells")
	}
}

func TestRecords_DetailViewFallsBackOnBadImagePayload(t *testing.T) {
	fc := &fakeRecordsClient{history: twoSummaries()}
	s, store := testRecordsScreen(t, fc)

	rec := &model.DiagnosisRecord{
		ID: "r1", Name: "Jane Doe", Age: 54, Phone: "0123456789",
		Date: time.Now(), Diagnosis: "Mild DR",
		Image: "data:image/png;base64,not-base64!",
	}
	seq := store.BeginDetail(rec.ID)
	store.FinishDetail(seq, rec, nil)
	s.detailOpen = true
	s.detailID = rec.ID

	out := s.View()
	if !strings.Contains(out, "could not render image") {
		t.Error("an undecodable payload must fall back to a note")
	}
	if strings.Contains(out, "▀") {
		t.Error("no image cells may be drawn for a broken payload")
	}
}
