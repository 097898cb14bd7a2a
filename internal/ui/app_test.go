package ui

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fieldreport/internal/api"
	"fieldreport/internal/capture"
	"fieldreport/internal/db"
	"fieldreport/internal/model"
	"fieldreport/internal/report"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeBackend struct {
	mu         sync.Mutex
	deliveries []model.Delivery
	listErr    error
	updateErr  error
	payloads   []report.Payload
}

func (f *fakeBackend) ListDeliveries(ctx context.Context) ([]model.Delivery, error) {
	return f.deliveries, f.listErr
}

func (f *fakeBackend) UpdateDelivery(ctx context.Context, p report.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.updateErr
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakePermissions struct {
	decision capture.Decision
	decided  map[capture.Source]bool
}

func (f *fakePermissions) Decision(source capture.Source) (capture.Decision, error) {
	return f.decision, nil
}

func (f *fakePermissions) Decide(source capture.Source, granted bool) error {
	if f.decided == nil {
		f.decided = map[capture.Source]bool{}
	}
	f.decided[source] = granted
	return nil
}

func sampleDelivery() model.Delivery {
	return model.Delivery{
		DeliveryID:      "42",
		PurchaseOrderID: "PO-7",
		Products: []model.Product{
			{ID: "1", Name: "Crate", Quantity: 5},
			{ID: "2", Name: "Pallet", Quantity: 2},
		},
	}
}

func newTestModel(t *testing.T, backend *fakeBackend, perms capture.Permissions, delivery *model.Delivery) Model {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if perms == nil {
		perms = &fakePermissions{decision: capture.Granted}
	}
	gallery := filepath.Join(dir, "gallery")
	if err := os.MkdirAll(gallery, 0o700); err != nil {
		t.Fatal(err)
	}

	m := New(Options{
		DB:          database,
		Backend:     backend,
		Camera:      capture.NewCamera("", filepath.Join(dir, "captures")),
		Gallery:     capture.NewGallery(gallery),
		Permissions: perms,
		DataDir:     dir,
		Delivery:    delivery,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

// drain runs cmd and returns the messages it produces, expanding batches.
// Commands that do not return quickly (cursor blinks, spinner frames) are
// skipped.
func drain(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		ch := make(chan tea.Msg, 1)
		go func() { ch <- c() }()
		select {
		case msg := <-ch:
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, c := range batch {
					run(c)
				}
				return
			}
			if msg != nil {
				out = append(out, msg)
			}
		case <-time.After(50 * time.Millisecond):
		}
	}
	run(cmd)
	return out
}

// send delivers msg and feeds every resulting message back until the model
// settles. Spinner ticks are not fed back.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for i := 0; len(queue) > 0; i++ {
		if i > 50 {
			t.Fatal("model did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		updated, cmd := m.Update(next)
		m = updated.(Model)
		for _, out := range drain(cmd) {
			if _, ok := out.(spinner.TickMsg); ok {
				continue
			}
			queue = append(queue, out)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter  = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc    = tea.KeyMsg{Type: tea.KeyEsc}
	keySubmit = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyGal    = tea.KeyMsg{Type: tea.KeyCtrlG}
	keyCam    = tea.KeyMsg{Type: tea.KeyCtrlT}
)

func TestReport_OverQuantityClampsAndAlerts(t *testing.T) {
	d := sampleDelivery()
	m := newTestModel(t, &fakeBackend{}, nil, &d)

	m = send(t, m, runes("7"))

	if m.alert == nil {
		t.Fatal("expected clamp alert")
	}
	want := "You cannot report more damages than the delivered quantity (5)."
	if m.alert.body != want {
		t.Errorf("alert body = %q, want %q", m.alert.body, want)
	}
	if got := m.report.inputs[0].Value(); got != "5" {
		t.Errorf("input shows %q, want clamped 5", got)
	}
	if n, _ := m.report.Composer().Counts().Get("1"); n != 5 {
		t.Errorf("count = %d, want 5", n)
	}
	if _, ok := m.report.Composer().Counts().Get("2"); ok {
		t.Error("other product count changed")
	}

	m = send(t, m, keyEnter)
	if m.alert != nil {
		t.Error("alert should be dismissed")
	}
}

func TestReport_SubmitSuccessAcknowledgedResetsAndNavigates(t *testing.T) {
	d := sampleDelivery()
	backend := &fakeBackend{}
	m := newTestModel(t, backend, nil, &d)

	m = send(t, m, runes("3"))
	m = send(t, m, keySubmit)

	if backend.calls() != 1 {
		t.Fatalf("UpdateDelivery calls = %d, want 1", backend.calls())
	}
	p := backend.payloads[0]
	if p.DeliveryID != "42" || p.Notes != report.NoComment {
		t.Errorf("payload = %+v", p)
	}
	if p.Damages[0].NoOfDamages != "3" || p.Damages[1].NoOfDamages != "0" {
		t.Errorf("damages = %+v", p.Damages)
	}

	if m.alert == nil || m.alert.body != alertSubmitted {
		t.Fatalf("expected success alert, got %+v", m.alert)
	}
	if m.screen != model.ScreenReport {
		t.Error("should stay on report until acknowledged")
	}

	m = send(t, m, keyEnter)
	if m.screen != model.ScreenDeliveries {
		t.Errorf("screen = %v, want deliveries", m.screen)
	}
	if m.report != nil {
		t.Error("report should be closed after acknowledgement")
	}

	subs, err := db.ListSubmissions(m.db)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].Status != model.SubmissionSucceeded || subs[0].DamagedUnits != 3 {
		t.Errorf("recorded submissions = %+v", subs)
	}
}

func TestReport_SecondSubmitWhileInFlightIsIgnored(t *testing.T) {
	d := sampleDelivery()
	backend := &fakeBackend{}
	m := newTestModel(t, backend, nil, &d)

	// Deliver the key without resolving the request.
	updated, cmd := m.Update(keySubmit)
	m = updated.(Model)
	if cmd == nil || !m.report.Composer().Submitting() {
		t.Fatal("expected submission to start")
	}

	updated, again := m.Update(keySubmit)
	m = updated.(Model)
	if again != nil {
		t.Error("second submit should produce no command")
	}

	for _, msg := range drain(cmd) {
		if _, ok := msg.(spinner.TickMsg); ok {
			continue
		}
		m = send(t, m, msg)
	}
	if backend.calls() != 1 {
		t.Errorf("UpdateDelivery calls = %d, want 1", backend.calls())
	}
	if m.report.Composer().Submitting() {
		t.Error("submission should be finished")
	}
}

func TestReport_SubmitFailureKeepsState(t *testing.T) {
	d := sampleDelivery()
	backend := &fakeBackend{updateErr: &api.StatusError{Code: 500, Body: "boom"}}
	m := newTestModel(t, backend, nil, &d)

	m = send(t, m, runes("2"))
	m = send(t, m, keySubmit)

	if m.alert == nil || m.alert.body != alertFailed {
		t.Fatalf("expected failure alert, got %+v", m.alert)
	}
	m = send(t, m, keyEnter)

	if m.screen != model.ScreenReport || m.report == nil {
		t.Fatal("failure should keep the report open")
	}
	if n, _ := m.report.Composer().Counts().Get("1"); n != 2 {
		t.Errorf("count = %d, want 2 preserved", n)
	}
	if m.report.Composer().Submitting() {
		t.Error("submitting flag should be cleared")
	}

	subs, err := db.ListSubmissions(m.db)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].Status != model.SubmissionFailed {
		t.Errorf("recorded submissions = %+v", subs)
	}
}

func TestReport_MalformedDeliveryNeverCallsBackend(t *testing.T) {
	var d model.Delivery
	if err := json.Unmarshal([]byte(`{"delivery_id": 9, "products": "oops"}`), &d); err != nil {
		t.Fatal(err)
	}
	backend := &fakeBackend{}
	m := newTestModel(t, backend, nil, &d)

	m = send(t, m, keySubmit)

	if backend.calls() != 0 {
		t.Errorf("UpdateDelivery calls = %d, want 0", backend.calls())
	}
	if m.alert == nil || m.alert.body != alertMalformed {
		t.Fatalf("expected malformed alert, got %+v", m.alert)
	}
	if m.report.Composer().Submitting() {
		t.Error("rejected submission must not stay in flight")
	}
}

func TestCapture_DeniedPermissionAlerts(t *testing.T) {
	d := sampleDelivery()
	m := newTestModel(t, &fakeBackend{}, &fakePermissions{decision: capture.Denied}, &d)

	m = send(t, m, keyGal)

	if m.alert == nil || m.alert.title != "Gallery access denied" {
		t.Fatalf("expected denial alert, got %+v", m.alert)
	}
	if m.flows.Active() != nil {
		t.Error("flow should be finished")
	}
	if m.report.Composer().Photos().Len() != 0 {
		t.Error("photos changed on denial")
	}
}

func TestCapture_PromptRefusalIsStored(t *testing.T) {
	d := sampleDelivery()
	perms := &fakePermissions{decision: capture.Undecided}
	m := newTestModel(t, &fakeBackend{}, perms, &d)

	m = send(t, m, keyCam)
	if m.confirm == nil {
		t.Fatal("expected permission prompt")
	}

	m = send(t, m, runes("n"))
	if granted, ok := perms.decided[capture.SourceCamera]; !ok || granted {
		t.Errorf("decision = %v/%v, want stored denial", granted, ok)
	}
	if m.alert == nil || m.alert.title != "Camera access denied" {
		t.Fatalf("expected denial alert, got %+v", m.alert)
	}
}

func TestCapture_EscOnPromptCancelsWithoutDeciding(t *testing.T) {
	d := sampleDelivery()
	perms := &fakePermissions{decision: capture.Undecided}
	m := newTestModel(t, &fakeBackend{}, perms, &d)

	m = send(t, m, keyGal)
	m = send(t, m, keyEsc)

	if m.flows.Active() != nil {
		t.Error("flow should be cancelled")
	}
	if len(perms.decided) != 0 {
		t.Errorf("esc stored a decision: %v", perms.decided)
	}
	if m.screen != model.ScreenReport {
		t.Errorf("screen = %v, want report", m.screen)
	}
}

func TestCapture_CameraUnavailableShowsFailure(t *testing.T) {
	d := sampleDelivery()
	m := newTestModel(t, &fakeBackend{}, nil, &d)

	m = send(t, m, keyCam)

	if m.alert == nil || m.alert.body != "Unable to take photo. Please try again." {
		t.Fatalf("expected camera failure alert, got %+v", m.alert)
	}
	if m.report.Composer().Photos().Len() != 0 {
		t.Error("photos changed on failure")
	}
}

func TestCapture_GalleryPickAddsPhotoAndDropsStaleResults(t *testing.T) {
	d := sampleDelivery()
	m := newTestModel(t, &fakeBackend{}, nil, &d)
	img := filepath.Join(m.gallery.Dir(), "dent.jpg")
	if err := os.WriteFile(img, []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}

	m = send(t, m, keyGal)
	if m.screen != model.ScreenGallery || m.picker == nil {
		t.Fatalf("expected gallery picker, screen = %v", m.screen)
	}
	flowID := m.picker.flowID

	// A second request while the picker is open does not start a new flow.
	m = send(t, m, captureRequestMsg{source: capture.SourceCamera})
	if m.flows.Active() == nil || m.flows.Active().ID != flowID {
		t.Fatal("active flow replaced")
	}

	m = send(t, m, captureResultMsg{
		flowID: flowID + 1,
		result: capture.Result{Source: capture.SourceGallery, Ref: img},
	})
	if m.report.Composer().Photos().Len() != 0 {
		t.Fatal("stale result was applied")
	}

	m = send(t, m, m.picker.result(img)())
	if m.screen != model.ScreenReport {
		t.Errorf("screen = %v, want report", m.screen)
	}
	if got := m.report.Composer().Photos().Refs(); len(got) != 1 || got[0] != img {
		t.Errorf("photos = %v, want [%s]", got, img)
	}
	if m.flows.Active() != nil {
		t.Error("flow should be finished")
	}
}

func TestCapture_GalleryEscAddsNothing(t *testing.T) {
	d := sampleDelivery()
	m := newTestModel(t, &fakeBackend{}, nil, &d)

	m = send(t, m, keyGal)
	m = send(t, m, keyEsc)

	if m.screen != model.ScreenReport {
		t.Errorf("screen = %v, want report", m.screen)
	}
	if m.report.Composer().Photos().Len() != 0 {
		t.Error("cancelled pick added a photo")
	}
	if m.info != "No photo added" {
		t.Errorf("info = %q", m.info)
	}
}

func TestDeliveries_OfflineFallsBackToCache(t *testing.T) {
	backend := &fakeBackend{deliveries: []model.Delivery{sampleDelivery()}}
	m := newTestModel(t, backend, nil, nil)

	m = send(t, m, loadDeliveriesCmd(backend, m.db)())
	if m.offline || m.deliveries.Len() != 1 {
		t.Fatalf("online load: offline=%v rows=%d", m.offline, m.deliveries.Len())
	}

	backend.listErr = errors.New("no route to host")
	m = send(t, m, loadDeliveriesCmd(backend, m.db)())
	if !m.offline {
		t.Error("expected offline banner")
	}
	if m.deliveries.Len() != 1 {
		t.Errorf("cached rows = %d, want 1", m.deliveries.Len())
	}

	m = send(t, m, keyEnter)
	if m.screen != model.ScreenReport || m.report == nil {
		t.Fatal("enter should open the report")
	}
	if m.report.Composer().Delivery().DeliveryID != "42" {
		t.Errorf("opened delivery %q", m.report.Composer().Delivery().DeliveryID)
	}

	m = send(t, m, keyEsc)
	if m.screen != model.ScreenDeliveries || m.report != nil {
		t.Error("esc should return to the list")
	}
}

func TestDeliveries_LeadingZeroIDStaysListedAfterSubmit(t *testing.T) {
	d := sampleDelivery()
	d.DeliveryID = "007"
	backend := &fakeBackend{deliveries: []model.Delivery{d}}
	m := newTestModel(t, backend, nil, nil)

	m = send(t, m, loadDeliveriesCmd(backend, m.db)())
	if m.error != "" || m.deliveries.Len() != 1 {
		t.Fatalf("load: error=%q rows=%d", m.error, m.deliveries.Len())
	}

	m = send(t, m, keyEnter)
	m = send(t, m, runes("1"))
	m = send(t, m, keySubmit)
	m = send(t, m, keyEnter)

	if backend.calls() != 1 || backend.payloads[0].DeliveryID != "007" {
		t.Fatalf("payloads = %+v", backend.payloads)
	}
	if m.screen != model.ScreenDeliveries {
		t.Fatalf("screen = %v, want deliveries", m.screen)
	}
	if m.error != "" {
		t.Errorf("error = %q", m.error)
	}
	if m.deliveries.Len() != 1 {
		t.Fatalf("rows after submit = %d, want 1", m.deliveries.Len())
	}
	if got, _ := m.deliveries.Selected(); got.DeliveryID != "007" {
		t.Errorf("listed delivery %q", got.DeliveryID)
	}
}

// focusPhotos tabs from the first product past the comment to the photo strip.
func focusPhotos(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; i < len(m.report.inputs)+1; i++ {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	if m.report.focusedField != m.report.photosField() {
		t.Fatalf("focused field = %d, want photos", m.report.focusedField)
	}
	return m
}

func TestReport_PhotoViewerDismissLeavesFormUnchanged(t *testing.T) {
	d := sampleDelivery()
	m := newTestModel(t, &fakeBackend{}, nil, &d)

	m = send(t, m, runes("3"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(t, m, runes("dented lid"))
	m.report.AddPhoto("/tmp/a.jpg")
	m.report.AddPhoto("/tmp/b.jpg")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})

	m = send(t, m, keyEnter)
	if m.screen != model.ScreenPhotoViewer || m.viewer == nil {
		t.Fatalf("screen = %v, want photo viewer", m.screen)
	}

	m = send(t, m, keyEsc)
	if m.screen != model.ScreenReport || m.viewer != nil {
		t.Fatalf("screen = %v, want report", m.screen)
	}
	if m.report == nil {
		t.Fatal("report closed by viewer dismissal")
	}

	c := m.report.Composer()
	if got := c.Photos().Refs(); len(got) != 2 || got[0] != "/tmp/a.jpg" || got[1] != "/tmp/b.jpg" {
		t.Errorf("photos = %v", got)
	}
	if n, _ := c.Counts().Get("1"); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if c.Comment() != "dented lid" {
		t.Errorf("comment = %q", c.Comment())
	}
	if m.report.photoCursor != 0 {
		t.Errorf("photo cursor = %d, want 0", m.report.photoCursor)
	}
}

func TestReport_RemovePhotoKeyShiftsAndClampsCursor(t *testing.T) {
	d := sampleDelivery()
	m := newTestModel(t, &fakeBackend{}, nil, &d)
	m.report.AddPhoto("a.jpg")
	m.report.AddPhoto("b.jpg")
	m.report.AddPhoto("c.jpg")
	m = focusPhotos(t, m)

	// Cursor starts on the newest photo; step back to the middle one.
	m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = send(t, m, runes("x"))
	if got := m.report.Composer().Photos().Refs(); len(got) != 2 || got[0] != "a.jpg" || got[1] != "c.jpg" {
		t.Fatalf("photos after removing middle = %v", got)
	}
	if m.report.photoCursor != 1 {
		t.Errorf("cursor = %d, want 1", m.report.photoCursor)
	}

	m = send(t, m, runes("x"))
	if got := m.report.Composer().Photos().Refs(); len(got) != 1 || got[0] != "a.jpg" {
		t.Fatalf("photos after removing last = %v", got)
	}
	if m.report.photoCursor != 0 {
		t.Errorf("cursor = %d, want clamped to 0", m.report.photoCursor)
	}

	m = send(t, m, runes("x"))
	if n := m.report.Composer().Photos().Len(); n != 0 {
		t.Fatalf("photos left = %d", n)
	}
	if m.report.photoCursor != 0 {
		t.Errorf("cursor = %d on empty strip", m.report.photoCursor)
	}
	if m.screen != model.ScreenReport || m.error != "" {
		t.Errorf("screen = %v error = %q", m.screen, m.error)
	}
}
