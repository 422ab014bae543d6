package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"college/internal/apperr"
	"college/internal/domain"
)

type timetableBody struct {
	ID         string  `json:"id,omitempty"`
	Semester   int     `json:"semester"`
	Department string  `json:"department"`
	Day        string  `json:"day"`
	Slot1      *string `json:"slot_1"`
	Slot2      *string `json:"slot_2"`
	Slot3      *string `json:"slot_3"`
	Slot4      *string `json:"slot_4"`
	Slot5      *string `json:"slot_5"`
	Slot6      *string `json:"slot_6"`
	Slot7      *string `json:"slot_7"`
}

func (b timetableBody) entry() domain.TimetableEntry {
	return domain.TimetableEntry{
		Semester:   b.Semester,
		Department: b.Department,
		Day:        b.Day,
		Slots:      [domain.SlotCount]*string{b.Slot1, b.Slot2, b.Slot3, b.Slot4, b.Slot5, b.Slot6, b.Slot7},
	}
}

func timetableFrom(e domain.TimetableEntry) timetableBody {
	return timetableBody{
		ID:         e.ID,
		Semester:   e.Semester,
		Department: e.Department,
		Day:        e.Day,
		Slot1:      e.Slots[0],
		Slot2:      e.Slots[1],
		Slot3:      e.Slots[2],
		Slot4:      e.Slots[3],
		Slot5:      e.Slots[4],
		Slot6:      e.Slots[5],
		Slot7:      e.Slots[6],
	}
}

func (h *handler) createTimetable(c *gin.Context) {
	var body timetableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	created, err := h.Timetables.ValidateAndCreate(c.Request.Context(), body.entry())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, timetableFrom(created))
}

func (h *handler) listTimetables(c *gin.Context) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil {
		writeError(c, fmt.Errorf("semester must be an integer: %w", apperr.ErrInvalidField))
		return
	}

	entries, err := h.Timetables.List(c.Request.Context(), semester, c.Query("department"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]timetableBody, 0, len(entries))
	for _, e := range entries {
		out = append(out, timetableFrom(e))
	}
	c.JSON(http.StatusOK, gin.H{"timetables": out})
}
