package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/Schoolmate-Ai/schoolmateai-backend/config"
	"github.com/Schoolmate-Ai/schoolmateai-backend/handlers"
	"github.com/Schoolmate-Ai/schoolmateai-backend/middlewares"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

// Register wires all HTTP routes.
func Register(e *echo.Echo, cfg *config.Config) {
	auth := handlers.NewAuthHandler(cfg)
	sa := handlers.NewSuperAdminHandler(auth)
	dir := handlers.NewDirectoryHandler()
	subj := handlers.NewSubjectHandler()
	tch := handlers.NewTeacherAssignmentHandler()
	att := handlers.NewAttendanceHandler()

	e.GET("/health", handlers.Health)

	// Public auth
	e.POST("/superadmins", sa.Register)
	e.POST("/superadmins/login", sa.Login)
	e.POST("/school/login", auth.SchoolLogin)

	authMW := middlewares.RequireAuth(cfg.JWTSecret)
	superMW := middlewares.RequireSuperAdmin(cfg.JWTSecret)

	admins := middlewares.RequireRole(models.RoleSchoolAdmin, models.RoleSchoolSuperAdmin)
	adminsOrTeacher := middlewares.RequireRole(
		models.RoleSchoolAdmin, models.RoleSchoolSuperAdmin, models.RoleTeacher)
	teacherOnly := middlewares.RequireRole(models.RoleTeacher)

	// Platform (no tenant)
	super := e.Group("/superadmins", superMW)
	super.POST("/register-school", sa.RegisterSchool)
	super.GET("/schools", sa.ListSchools)
	super.POST("/register-school-superadmin", sa.RegisterSchoolSuperAdmin)

	// Directory (tenant-scoped)
	school := e.Group("/school", authMW)
	school.POST("/register-admin", dir.RegisterAdmin, middlewares.RequireRole(models.RoleSchoolSuperAdmin))
	school.POST("/register-teacher", dir.RegisterTeacher, admins)
	school.POST("/register-student", dir.RegisterStudent, admins)
	school.POST("/register-parent", dir.RegisterParent, admins)
	school.POST("/add-class", dir.AddClass, admins)
	school.POST("/add-subject", dir.AddSubject, admins)
	school.GET("/teachers", dir.ListTeachers, adminsOrTeacher)
	school.GET("/students", dir.ListStudents, adminsOrTeacher)
	school.GET("/classes", dir.ListClasses, adminsOrTeacher)
	school.GET("/subjects", dir.ListSubjects, adminsOrTeacher)

	// Subject mappings and enrollments
	subjects := e.Group("/subjects", authMW)
	subjects.POST("/map-to-class", subj.MapToClass, adminsOrTeacher)
	subjects.POST("/bulk-map-to-class/:class_id", subj.BulkMapToClass, adminsOrTeacher)
	subjects.GET("/by-class/:class_id", subj.ByClass)
	subjects.DELETE("/remove-from-class/:mapping_id", subj.RemoveFromClass, admins)
	subjects.POST("/assign-teacher", subj.AssignTeacher, admins)
	subjects.POST("/enroll-optional", subj.EnrollOptional, adminsOrTeacher)
	subjects.POST("/bulk-enroll/:class_subject_id", subj.BulkEnroll, adminsOrTeacher)
	subjects.DELETE("/unenroll/:enrollment_id", subj.Unenroll, adminsOrTeacher)
	subjects.GET("/student/:student_id", subj.StudentSubjects)

	// Class-teacher assignments
	teachers := e.Group("/teachers", authMW)
	teachers.POST("/assign-class-teacher", tch.AssignClassTeacher, admins)
	teachers.DELETE("/remove-assignment/:class_id", tch.RemoveAssignment, admins)
	teachers.GET("/school-class-teachers", tch.SchoolClassTeachers)
	teachers.GET("/teacher-class/:teacher_id", tch.TeacherClass)
	teachers.GET("/my-assignments", tch.MyAssignments, teacherOnly)

	// Attendance
	attendance := e.Group("/attendance", authMW)
	attendance.POST("/daily", att.RecordDaily, teacherOnly)
	attendance.GET("/by-class", att.ByClass, adminsOrTeacher)
	attendance.GET("/student/:student_id", att.StudentHistory, adminsOrTeacher)
	attendance.GET("/export-excel", att.ExportExcel, adminsOrTeacher)
}
