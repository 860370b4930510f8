// Package events provides an in-process event trail for LabInstance
// lifecycle transitions.
//
// The store keeps only current state and the condition trail keeps only one
// entry per phase, so neither answers "what happened, in order, across all
// instances". The events package does: a Recorder subscribes to the watcher
// like any other handler, detects phase transitions by comparing each
// delivered instance against the last phase it saw for that UID, and keeps
// the resulting events in a bounded in-memory ring.
//
// Architecture:
//
//   - Recorder: watcher handler that turns phase transitions into events
//   - MessageTemplateEngine: message templating per event reason
//   - Event type and reason definitions
//
// Events are observations, not commands. Nothing in the control loop reads
// them back; they exist for operators, the status surface of the serve
// command and the shutdown summary. A restarted process starts with an
// empty ring and records one synthetic observation per instance as the
// watcher replays current state.
//
// Usage:
//
//	recorder := events.NewRecorder(events.RecorderOptions{})
//	w.AddHandler("events", recorder.HandleEvent)
//	...
//	for _, ev := range recorder.List(50) {
//		fmt.Println(ev.Message)
//	}
package events
