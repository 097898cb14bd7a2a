package ui

import (
	"fmt"
	"os"
	"strings"

	"fieldreport/internal/capture"
	"fieldreport/internal/logging"
	"fieldreport/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// Capture flow steps. Each message carries the id of the flow it belongs to;
// messages for a flow that is no longer current are dropped.
type permissionCheckedMsg struct {
	flowID   int
	decision capture.Decision
	err      error
}

type permissionDecidedMsg struct {
	flowID  int
	granted bool
	err     error
}

type galleryReadyMsg struct {
	flowID int
	err    error
}

type captureResultMsg struct {
	flowID int
	result capture.Result
	err    error
}

type captureCancelledMsg struct {
	flowID int
}

func (m Model) startCapture(source capture.Source) (Model, tea.Cmd) {
	if m.report == nil || m.report.Composer().Submitting() {
		return m, nil
	}
	flow, ok := m.flows.Start(source)
	if !ok {
		m.info = "A photo request is already in progress (esc to cancel)"
		return m, nil
	}
	m.info = ""
	return m, checkPermissionCmd(m.perms, flow)
}

func checkPermissionCmd(perms capture.Permissions, flow *capture.Flow) tea.Cmd {
	return func() tea.Msg {
		if err := flow.Context().Err(); err != nil {
			return permissionCheckedMsg{flowID: flow.ID, err: err}
		}
		decision, err := perms.Decision(flow.Source)
		return permissionCheckedMsg{flowID: flow.ID, decision: decision, err: err}
	}
}

func decidePermissionCmd(perms capture.Permissions, flow *capture.Flow, granted bool) tea.Cmd {
	return func() tea.Msg {
		if err := flow.Context().Err(); err != nil {
			return permissionDecidedMsg{flowID: flow.ID, err: err}
		}
		err := perms.Decide(flow.Source, granted)
		return permissionDecidedMsg{flowID: flow.ID, granted: granted, err: err}
	}
}

func openGalleryCmd(gallery *capture.Gallery, flow *capture.Flow) tea.Cmd {
	return func() tea.Msg {
		if err := flow.Context().Err(); err != nil {
			return galleryReadyMsg{flowID: flow.ID, err: err}
		}
		return galleryReadyMsg{flowID: flow.ID, err: gallery.Available()}
	}
}

func (m Model) handlePermissionChecked(msg permissionCheckedMsg) (Model, tea.Cmd) {
	if !m.flows.Current(msg.flowID) {
		return m, nil
	}
	flow := m.flows.Active()
	if msg.err != nil {
		return m.failCapture(flow, "check permission", msg.err)
	}

	switch msg.decision {
	case capture.Granted:
		return m.launchCapture(flow)
	case capture.Denied:
		return m.denyCapture(flow)
	default:
		m.confirm = m.permissionPrompt(flow)
		return m, nil
	}
}

func (m Model) handlePermissionDecided(msg permissionDecidedMsg) (Model, tea.Cmd) {
	if !m.flows.Current(msg.flowID) {
		return m, nil
	}
	flow := m.flows.Active()
	if msg.err != nil {
		// The answer still applies to this request even if it was not stored.
		logging.LogError(m.logger, "ui", "handlePermissionDecided", "store permission", string(flow.Source), msg.err)
	}
	if !msg.granted {
		return m.denyCapture(flow)
	}
	return m.launchCapture(flow)
}

func (m Model) permissionPrompt(flow *capture.Flow) *confirmModel {
	id := flow.ID
	return &confirmModel{
		title:    "Allow " + strings.ToLower(flow.Source.Label()) + " access?",
		body:     fmt.Sprintf("fieldreport would like to use the %s to attach photos to damage reports.", strings.ToLower(flow.Source.Label())),
		yesLabel: "Allow",
		noLabel:  "Don't Allow",
		focusYes: true,
		onYes:    decidePermissionCmd(m.perms, flow, true),
		onNo:     decidePermissionCmd(m.perms, flow, false),
		onCancel: func() tea.Msg { return captureCancelledMsg{flowID: id} },
	}
}

func (m Model) launchCapture(flow *capture.Flow) (Model, tea.Cmd) {
	switch flow.Source {
	case capture.SourceCamera:
		cmd, out, err := m.camera.Prepare()
		if err != nil {
			return m.failCapture(flow, "prepare camera", err)
		}
		id, camera := flow.ID, m.camera
		return m, tea.ExecProcess(cmd, func(runErr error) tea.Msg {
			res, err := camera.Collect(out, runErr)
			return captureResultMsg{flowID: id, result: res, err: err}
		})
	case capture.SourceGallery:
		return m, openGalleryCmd(m.gallery, flow)
	}
	return m.failCapture(flow, "launch capture", fmt.Errorf("unknown source %q", flow.Source))
}

func (m Model) handleGalleryReady(msg galleryReadyMsg) (Model, tea.Cmd) {
	if !m.flows.Current(msg.flowID) {
		return m, nil
	}
	if msg.err != nil {
		return m.failCapture(m.flows.Active(), "open gallery", msg.err)
	}
	m.picker = NewGalleryModel(msg.flowID, m.gallery, m.height-4)
	m.screen = model.ScreenGallery
	return m, m.picker.Init()
}

func (m Model) handleCaptureResult(msg captureResultMsg) (Model, tea.Cmd) {
	if m.picker != nil && m.picker.flowID == msg.flowID {
		m.picker = nil
		m.screen = model.ScreenReport
	}

	if !m.flows.Current(msg.flowID) {
		// A capture that finished after its flow was cancelled is discarded.
		if msg.result.Source == capture.SourceCamera && msg.result.Ref != "" {
			_ = os.Remove(msg.result.Ref)
		}
		return m, nil
	}
	flow := m.flows.Active()

	if msg.err != nil {
		return m.failCapture(flow, "capture photo", msg.err)
	}
	m.flows.Finish(msg.flowID)
	if msg.result.Cancelled {
		m.info = "No photo added"
		return m, nil
	}
	if m.report == nil {
		return m, nil
	}
	m.report.AddPhoto(msg.result.Ref)
	m.info = "Photo added"
	return m, nil
}

func (m Model) handleCaptureCancelled(msg captureCancelledMsg) (Model, tea.Cmd) {
	if !m.flows.Current(msg.flowID) {
		return m, nil
	}
	m.flows.Cancel()
	m.info = "Photo request cancelled"
	return m, nil
}

func (m Model) denyCapture(flow *capture.Flow) (Model, tea.Cmd) {
	m.flows.Finish(flow.ID)
	m.alert = newAlert(flow.Source.DeniedMessage(), "", nil)
	return m, nil
}

func (m Model) failCapture(flow *capture.Flow, context string, err error) (Model, tea.Cmd) {
	source := flow.Source
	m.flows.Finish(flow.ID)
	logging.LogError(m.logger, "ui", "capture", context, string(source), err)
	m.alert = newAlert("Error", source.FailureMessage(), nil)
	return m, nil
}
