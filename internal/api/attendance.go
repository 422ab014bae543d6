package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"college/internal/apperr"
	"college/internal/attendance"
	"college/internal/domain"
	"college/internal/queue"
)

type attendanceRequest struct {
	Date          string   `json:"date" binding:"required"`
	CourseID      string   `json:"course_id" binding:"required"`
	AbsenteesList []string `json:"absentees_list"`
	TimeSlot      string   `json:"time_slot" binding:"required"`
	Department    string   `json:"department" binding:"required"`
	// Count is accepted for older clients and ignored.
	Count *int `json:"count"`
}

type attendanceResponse struct {
	CourseID     string   `json:"course_id"`
	Date         string   `json:"date"`
	TimeSlot     string   `json:"time_slot"`
	Absentees    []string `json:"absentees"`
	Added        int      `json:"added"`
	Removed      int      `json:"removed"`
	TotalClasses int      `json:"total_classes"`
	NewSession   bool     `json:"new_session"`
}

func (h *handler) submitAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Attendance.Reconcile(c.Request.Context(), attendance.Submission{
		CourseCode: req.CourseID,
		Department: req.Department,
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		Absentees:  req.AbsenteesList,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.publishReconciled(c, req.Department, res)

	absentees := res.Absentees
	if absentees == nil {
		absentees = []string{}
	}
	c.JSON(http.StatusOK, attendanceResponse{
		CourseID:     res.CourseCode,
		Date:         res.Date,
		TimeSlot:     res.TimeSlot,
		Absentees:    absentees,
		Added:        res.Added,
		Removed:      res.Removed,
		TotalClasses: res.TotalClasses,
		NewSession:   res.NewSession,
	})
}

// publishReconciled is best effort; the submission is already committed.
func (h *handler) publishReconciled(c *gin.Context, department string, res attendance.Result) {
	if h.Events == nil {
		return
	}
	msg, err := queue.NewMessage(queue.TypeReconciled, domain.ReconciledEvent{
		CourseCode: res.CourseCode,
		Department: department,
		Date:       res.Date,
		TimeSlot:   res.TimeSlot,
		NewSession: res.NewSession,
	})
	if err == nil {
		err = h.Events.Publish(c.Request.Context(), msg)
	}
	if err != nil {
		log.Printf("queue publish %s for %s failed: %v", queue.TypeReconciled, res.CourseCode, err)
	}
}

func (h *handler) listAbsentees(c *gin.Context) {
	courseID, date, timeSlot := c.Query("course_id"), c.Query("date"), c.Query("time_slot")
	if courseID == "" || date == "" || timeSlot == "" {
		writeError(c, fmt.Errorf("course_id, date and time_slot are required: %w", apperr.ErrInvalidField))
		return
	}

	rollNos, err := h.Attendance.Absentees(c.Request.Context(), courseID, date, timeSlot)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course_id": courseID, "date": date, "time_slot": timeSlot, "absentees": rollNos})
}

func (h *handler) attendanceSummary(c *gin.Context) {
	courseID, department := c.Query("course_id"), c.Query("department")
	if courseID == "" || department == "" {
		writeError(c, fmt.Errorf("course_id and department are required: %w", apperr.ErrInvalidField))
		return
	}

	summary, err := h.Attendance.Summary(c.Request.Context(), courseID, department)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
