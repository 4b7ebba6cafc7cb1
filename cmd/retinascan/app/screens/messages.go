package screens

// Navigation messages emitted by screens and handled by the app
// orchestrator.

// GotoScanMsg asks for the New Patient Scan workspace.
type GotoScanMsg struct{}

// GotoRecordsMsg asks for the Patient Records workspace.
type GotoRecordsMsg struct{}

// LogoutMsg asks the app to clear the session and return to login.
type LogoutMsg struct{}
