package domain

// SlotCount is the number of periods in a timetable day.
const SlotCount = 7

type TimetableEntry struct {
	ID         string
	Semester   int
	Department string
	Day        string
	Slots      [SlotCount]*string
}
