package models

// Course is a catalog entry offered by a department in a given season.
type Course struct {
	Code         string  `db:"code" json:"code"`
	Title        string  `db:"title" json:"title"`
	Credits      int     `db:"credits" json:"credits"`
	DepartmentID string  `db:"department_id" json:"department_id"`
	Term         Season  `db:"term" json:"term"`
	Mandatory    bool    `db:"mandatory" json:"mandatory"`
	TeacherID    *string `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName  *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// Teacher returns the teacher id or "" when the course is unstaffed.
func (c Course) Teacher() string {
	if c.TeacherID == nil {
		return ""
	}
	return *c.TeacherID
}
