package domain

// Course is a course currently being taught, with the running count of
// classes held for it.
type Course struct {
	CourseCode   string
	TotalClasses int
	FacultyName  string
	Semester     int
	Department   string
}
