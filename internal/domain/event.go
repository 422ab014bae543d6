package domain

// ReconciledEvent is published after an attendance submission was applied.
type ReconciledEvent struct {
	CourseCode string `json:"course_code"`
	Department string `json:"department"`
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	NewSession bool   `json:"new_session"`
}
