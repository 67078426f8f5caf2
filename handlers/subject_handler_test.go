package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

type subjectFixture struct {
	db     *gorm.DB
	school models.School
	class  models.Class
	admin  models.User
}

func newSubjectFixture(t *testing.T) subjectFixture {
	t.Helper()
	db := setupDB(t)
	school := seedSchool(t, db)
	return subjectFixture{
		db:     db,
		school: school,
		class:  seedClass(t, db, school.ID, "7th", "A"),
		admin:  seedUser(t, db, school.ID, models.RoleSchoolAdmin, "Admin", nil),
	}
}

func (f subjectFixture) mapSubject(t *testing.T, subjectID uuid.UUID, optional bool) models.ClassSubject {
	t.Helper()
	m := models.ClassSubject{ClassID: f.class.ID, SubjectID: subjectID, IsOptional: optional}
	require.NoError(t, f.db.Create(&m).Error)
	return m
}

func TestMapToClassDuplicate(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "Science")

	body := mapToClassReq{ClassID: f.class.ID, SubjectID: subject.ID}
	c, rec := newTestContext(t, http.MethodPost, "/subjects/map-to-class", body, claimsFor(f.admin))
	require.NoError(t, h.MapToClass(c))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	c, rec = newTestContext(t, http.MethodPost, "/subjects/map-to-class", body, claimsFor(f.admin))
	require.NoError(t, h.MapToClass(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_MAPPED", errCode(t, rec))

	var count int64
	require.NoError(t, f.db.Model(&models.ClassSubject{}).
		Where("class_id = ? AND subject_id = ?", f.class.ID, subject.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMapToClassWrongTenantSubject(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	otherSchool := seedSchool(t, f.db)
	foreign := seedSubject(t, f.db, otherSchool.ID, "Foreign Subject")

	body := mapToClassReq{ClassID: f.class.ID, SubjectID: foreign.ID}
	c, rec := newTestContext(t, http.MethodPost, "/subjects/map-to-class", body, claimsFor(f.admin))
	require.NoError(t, h.MapToClass(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SUBJECT_NOT_FOUND", errCode(t, rec))
}

func TestBulkMapToClassPartitions(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()

	fresh := seedSubject(t, f.db, f.school.ID, "Geography")
	mapped := seedSubject(t, f.db, f.school.ID, "History")
	f.mapSubject(t, mapped.ID, false)
	otherSchool := seedSchool(t, f.db)
	foreign := seedSubject(t, f.db, otherSchool.ID, "Foreign")
	unknown := uuid.New()

	items := []bulkMapItem{
		{SubjectID: fresh.ID, IsOptional: true},
		{SubjectID: fresh.ID},
		{SubjectID: mapped.ID},
		{SubjectID: foreign.ID},
		{SubjectID: unknown},
	}
	c, rec := newTestContext(t, http.MethodPost,
		"/subjects/bulk-map-to-class/"+f.class.ID.String(), items, claimsFor(f.admin))
	c.SetParamNames("class_id")
	c.SetParamValues(f.class.ID.String())
	require.NoError(t, h.BulkMapToClass(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Applied []models.ClassSubject `json:"applied"`
		Skipped []skippedItem         `json:"skipped"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Applied, 1)
	assert.Equal(t, fresh.ID, resp.Applied[0].SubjectID)
	assert.True(t, resp.Applied[0].IsOptional)

	reasons := make(map[uuid.UUID]string, len(resp.Skipped))
	for _, s := range resp.Skipped {
		reasons[s.ID] = s.Reason
	}
	assert.Equal(t, "DUPLICATE_IN_REQUEST", reasons[fresh.ID])
	assert.Equal(t, "ALREADY_MAPPED", reasons[mapped.ID])
	assert.Equal(t, "WRONG_TENANT", reasons[foreign.ID])
	assert.Equal(t, "SUBJECT_NOT_FOUND", reasons[unknown])

	var count int64
	require.NoError(t, f.db.Model(&models.ClassSubject{}).
		Where("class_id = ?", f.class.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestEnrollOptional(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "Music")
	mapping := f.mapSubject(t, subject.ID, true)
	student := seedUser(t, f.db, f.school.ID, models.RoleStudent, "Student", &f.class.ID)

	body := enrollReq{StudentID: student.ID, ClassSubjectID: mapping.ID}
	c, rec := newTestContext(t, http.MethodPost, "/subjects/enroll-optional", body, claimsFor(f.admin))
	require.NoError(t, h.EnrollOptional(c))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Enrolling twice conflicts and leaves exactly one row.
	c, rec = newTestContext(t, http.MethodPost, "/subjects/enroll-optional", body, claimsFor(f.admin))
	require.NoError(t, h.EnrollOptional(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_ENROLLED", errCode(t, rec))

	var count int64
	require.NoError(t, f.db.Model(&models.StudentSubject{}).
		Where("student_id = ? AND class_subject_id = ?", student.ID, mapping.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnrollOptionalRejectsCompulsory(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "English")
	mapping := f.mapSubject(t, subject.ID, false)
	student := seedUser(t, f.db, f.school.ID, models.RoleStudent, "Student", &f.class.ID)

	body := enrollReq{StudentID: student.ID, ClassSubjectID: mapping.ID}
	c, rec := newTestContext(t, http.MethodPost, "/subjects/enroll-optional", body, claimsFor(f.admin))
	require.NoError(t, h.EnrollOptional(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_OPTIONAL", errCode(t, rec))
}

func TestEnrollOptionalWrongClass(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "Drama")
	mapping := f.mapSubject(t, subject.ID, true)
	otherClass := seedClass(t, f.db, f.school.ID, "7th", "B")
	student := seedUser(t, f.db, f.school.ID, models.RoleStudent, "Student", &otherClass.ID)

	body := enrollReq{StudentID: student.ID, ClassSubjectID: mapping.ID}
	c, rec := newTestContext(t, http.MethodPost, "/subjects/enroll-optional", body, claimsFor(f.admin))
	require.NoError(t, h.EnrollOptional(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "WRONG_CLASS", errCode(t, rec))
}

func TestBulkEnrollPartitions(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "Computer Science")
	mapping := f.mapSubject(t, subject.ID, true)

	inClass := seedUser(t, f.db, f.school.ID, models.RoleStudent, "In Class", &f.class.ID)
	enrolled := seedUser(t, f.db, f.school.ID, models.RoleStudent, "Enrolled", &f.class.ID)
	require.NoError(t, f.db.Create(&models.StudentSubject{
		StudentID: enrolled.ID, ClassSubjectID: mapping.ID,
	}).Error)
	otherClass := seedClass(t, f.db, f.school.ID, "8th", "A")
	wrongClass := seedUser(t, f.db, f.school.ID, models.RoleStudent, "Wrong Class", &otherClass.ID)
	notStudent := seedUser(t, f.db, f.school.ID, models.RoleTeacher, "Not Student", nil)

	body := bulkEnrollReq{StudentIDs: []uuid.UUID{
		inClass.ID, inClass.ID, enrolled.ID, wrongClass.ID, notStudent.ID,
	}}
	c, rec := newTestContext(t, http.MethodPost,
		"/subjects/bulk-enroll/"+mapping.ID.String(), body, claimsFor(f.admin))
	c.SetParamNames("class_subject_id")
	c.SetParamValues(mapping.ID.String())
	require.NoError(t, h.BulkEnroll(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Applied []models.StudentSubject `json:"applied"`
		Skipped []skippedItem           `json:"skipped"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Applied, 1)
	assert.Equal(t, inClass.ID, resp.Applied[0].StudentID)

	reasons := make(map[uuid.UUID]string, len(resp.Skipped))
	for _, s := range resp.Skipped {
		reasons[s.ID] = s.Reason
	}
	assert.Equal(t, "DUPLICATE_IN_REQUEST", reasons[inClass.ID])
	assert.Equal(t, "ALREADY_ENROLLED", reasons[enrolled.ID])
	assert.Equal(t, "WRONG_CLASS", reasons[wrongClass.ID])
	assert.Equal(t, "NOT_A_STUDENT_HERE", reasons[notStudent.ID])
}

func TestRemoveFromClassBlockedByEnrollments(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "French")
	mapping := f.mapSubject(t, subject.ID, true)
	student := seedUser(t, f.db, f.school.ID, models.RoleStudent, "Student", &f.class.ID)
	enrollment := models.StudentSubject{StudentID: student.ID, ClassSubjectID: mapping.ID}
	require.NoError(t, f.db.Create(&enrollment).Error)

	c, rec := newTestContext(t, http.MethodDelete,
		"/subjects/remove-from-class/"+mapping.ID.String(), nil, claimsFor(f.admin))
	c.SetParamNames("mapping_id")
	c.SetParamValues(mapping.ID.String())
	require.NoError(t, h.RemoveFromClass(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "HAS_ENROLLMENTS", errCode(t, rec))

	// After the enrollment goes, removal succeeds.
	require.NoError(t, f.db.Delete(&enrollment).Error)
	c, rec = newTestContext(t, http.MethodDelete,
		"/subjects/remove-from-class/"+mapping.ID.String(), nil, claimsFor(f.admin))
	c.SetParamNames("mapping_id")
	c.SetParamValues(mapping.ID.String())
	require.NoError(t, h.RemoveFromClass(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, f.db.Model(&models.ClassSubject{}).
		Where("id = ?", mapping.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRemoveFromClassWrongTenant(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "Latin")
	mapping := f.mapSubject(t, subject.ID, false)

	otherSchool := seedSchool(t, f.db)
	outsider := seedUser(t, f.db, otherSchool.ID, models.RoleSchoolAdmin, "Outsider", nil)

	c, rec := newTestContext(t, http.MethodDelete,
		"/subjects/remove-from-class/"+mapping.ID.String(), nil, claimsFor(outsider))
	c.SetParamNames("mapping_id")
	c.SetParamValues(mapping.ID.String())
	require.NoError(t, h.RemoveFromClass(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errCode(t, rec))
}

func TestAssignTeacherLastWriteWins(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "Physics")
	mapping := f.mapSubject(t, subject.ID, false)
	first := seedUser(t, f.db, f.school.ID, models.RoleTeacher, "First", nil)
	second := seedUser(t, f.db, f.school.ID, models.RoleTeacher, "Second", nil)

	for _, teacher := range []models.User{first, second} {
		body := assignTeacherReq{TeacherID: teacher.ID, ClassSubjectID: mapping.ID}
		c, rec := newTestContext(t, http.MethodPost, "/subjects/assign-teacher", body, claimsFor(f.admin))
		require.NoError(t, h.AssignTeacher(c))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var got models.ClassSubject
	require.NoError(t, f.db.First(&got, "id = ?", mapping.ID).Error)
	require.NotNil(t, got.TeacherID)
	assert.Equal(t, second.ID, *got.TeacherID)
}

func TestByClassListsMappings(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	teacher := seedUser(t, f.db, f.school.ID, models.RoleTeacher, "Mapped Teacher", nil)
	math := seedSubject(t, f.db, f.school.ID, "Mathematics")
	art := seedSubject(t, f.db, f.school.ID, "Art")
	require.NoError(t, f.db.Create(&models.ClassSubject{
		ClassID: f.class.ID, SubjectID: math.ID, TeacherID: &teacher.ID,
	}).Error)
	f.mapSubject(t, art.ID, true)

	c, rec := newTestContext(t, http.MethodGet,
		"/subjects/by-class/"+f.class.ID.String(), nil, claimsFor(f.admin))
	c.SetParamNames("class_id")
	c.SetParamValues(f.class.ID.String())
	require.NoError(t, h.ByClass(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []classSubjectDetailOut
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "Art", rows[0].SubjectName)
	assert.True(t, rows[0].IsOptional)
	assert.Equal(t, "Mathematics", rows[1].SubjectName)
	assert.Equal(t, "Mapped Teacher", rows[1].TeacherName)
}

func TestUnenrollAndStudentSubjects(t *testing.T) {
	f := newSubjectFixture(t)
	h := NewSubjectHandler()
	subject := seedSubject(t, f.db, f.school.ID, "Sanskrit")
	mapping := f.mapSubject(t, subject.ID, true)
	student := seedUser(t, f.db, f.school.ID, models.RoleStudent, "Student", &f.class.ID)
	enrollment := models.StudentSubject{StudentID: student.ID, ClassSubjectID: mapping.ID}
	require.NoError(t, f.db.Create(&enrollment).Error)

	c, rec := newTestContext(t, http.MethodGet,
		"/subjects/student/"+student.ID.String(), nil, claimsFor(f.admin))
	c.SetParamNames("student_id")
	c.SetParamValues(student.ID.String())
	require.NoError(t, h.StudentSubjects(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []studentSubjectDetailOut
	decodeBody(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sanskrit", rows[0].SubjectName)

	c, rec = newTestContext(t, http.MethodDelete,
		"/subjects/unenroll/"+enrollment.ID.String(), nil, claimsFor(f.admin))
	c.SetParamNames("enrollment_id")
	c.SetParamValues(enrollment.ID.String())
	require.NoError(t, h.Unenroll(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, f.db.Model(&models.StudentSubject{}).
		Where("id = ?", enrollment.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
