package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/model"
	"schoolattend/internal/schedule"
)

// Manila wall clock without depending on the host tzdata.
var manila = time.FixedZone("PST-8", 8*60*60)

type fakeDirectory struct {
	users map[string]*model.User
	err   error
}

func (f *fakeDirectory) GetUser(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func (f *fakeDirectory) ListByRoles(_ context.Context, roles ...model.Role) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.User
	for _, u := range f.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

type fakeRecords struct {
	rows      map[string]*model.AttendanceRecord // keyed userID+"|"+day
	failUsers map[string]error
	inserts   int
	findCalls int
	blindOnce bool // first FindForDay sees nothing, like a racing login
}

func key(userID, day string) string { return userID + "|" + day }

func (f *fakeRecords) FindForDay(_ context.Context, userID, day string) (*model.AttendanceRecord, error) {
	f.findCalls++
	if f.blindOnce && f.findCalls == 1 {
		return nil, nil
	}
	return f.rows[key(userID, day)], nil
}

func (f *fakeRecords) InsertOnce(_ context.Context, rec model.AttendanceRecord) (*model.AttendanceRecord, error) {
	if err := f.failUsers[rec.UserID]; err != nil {
		return nil, err
	}
	k := key(rec.UserID, rec.Day)
	if _, ok := f.rows[k]; ok {
		return nil, nil
	}
	rec.ID = "rec-" + k
	f.rows[k] = &rec
	f.inserts++
	return &rec, nil
}

func newFakes() (*fakeDirectory, *fakeRecords) {
	classID := "c2"
	grade2 := model.Class{ID: classID, Grade: 2, Section: "A"}
	grade5 := model.Class{ID: "c5", Grade: 5, Section: "B"}
	dir := &fakeDirectory{users: map[string]*model.User{
		"stu": {ID: "stu", Role: model.RoleStudent, ClassID: &classID, Class: &grade2},
		"tea": {ID: "tea", Role: model.RoleTeacher, Teaching: []model.Class{grade2, grade5}},
		"adm": {ID: "adm", Role: model.RoleAdmin},
		"nox": {ID: "nox", Role: model.RoleStudent}, // student without class
	}}
	recs := &fakeRecords{rows: map[string]*model.AttendanceRecord{}, failUsers: map[string]error{}}
	return dir, recs
}

func at(t *testing.T, day string, hhmm string) func() time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", day+" "+hhmm, manila)
	require.NoError(t, err)
	return func() time.Time { return ts }
}

// 2025-06-02 is a Monday, 2025-06-07 a Saturday.
const monday = "2025-06-02"

func newService(dir *fakeDirectory, recs *fakeRecords, now func() time.Time) *Service {
	return NewService(dir, recs, schedule.Default(), manila, now)
}

func TestRecordOnLoginBeforeStartIsPresent(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:29"))

	res, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	assert.True(t, res.Recorded)
	assert.Equal(t, "Attendance recorded as PRESENT", res.Message)
	require.NotNil(t, res.Attendance)
	assert.Equal(t, model.StatusPresent, res.Attendance.Status)
	require.NotNil(t, res.Attendance.TimeIn)
	assert.Equal(t, "07:29", *res.Attendance.TimeIn)
	assert.Equal(t, monday, res.Attendance.Day)
}

func TestRecordOnLoginAtStartIsPresent(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:30"))

	res, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	require.NotNil(t, res.Attendance)
	assert.Equal(t, model.StatusPresent, res.Attendance.Status)
}

func TestRecordOnLoginAfterStartIsLate(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:31"))

	res, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	assert.True(t, res.Recorded)
	assert.Equal(t, "Attendance recorded as LATE", res.Message)
	require.NotNil(t, res.Attendance)
	assert.Equal(t, model.StatusLate, res.Attendance.Status)
	assert.Equal(t, "07:31", *res.Attendance.TimeIn)
}

func TestRecordOnLoginWeekendWritesNothing(t *testing.T) {
	dir, recs := newFakes()
	for _, hhmm := range []string{"07:00", "12:00", "23:59"} {
		svc := newService(dir, recs, at(t, "2025-06-07", hhmm)) // Saturday
		res, err := svc.RecordOnLogin(context.Background(), "stu")
		require.NoError(t, err)
		assert.False(t, res.Recorded)
		assert.Equal(t, "No attendance recording on weekends", res.Message)
	}
	svc := newService(dir, recs, at(t, "2025-06-08", "08:00")) // Sunday
	res, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	assert.False(t, res.Recorded)
	assert.Equal(t, 0, recs.inserts)
}

func TestRecordOnLoginSecondCallIsIdempotent(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:20"))

	first, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	require.True(t, first.Recorded)

	second, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	assert.False(t, second.Recorded)
	assert.Equal(t, "Attendance already recorded for today", second.Message)
	require.NotNil(t, second.Attendance)
	assert.Equal(t, first.Attendance.ID, second.Attendance.ID)
	assert.Equal(t, 1, recs.inserts)
}

func TestRecordOnLoginUnknownUser(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:20"))

	res, err := svc.RecordOnLogin(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, res.Recorded)
	assert.Equal(t, "User not found", res.Message)
}

func TestRecordOnLoginNoSchedule(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:20"))

	for _, id := range []string{"adm", "nox"} {
		res, err := svc.RecordOnLogin(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, res.Recorded, "user %s", id)
		assert.Equal(t, "No schedule found for user", res.Message)
	}
	assert.Equal(t, 0, recs.inserts)
}

// A teacher assigned to grade 2 and grade 5 classes follows the first
// assigned class only, so the MORNING window applies. Known ambiguity
// for multi-class teachers, kept from the original policy.
func TestTeacherUsesFirstAssignedClass(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "08:00"))

	res, err := svc.RecordOnLogin(context.Background(), "tea")
	require.NoError(t, err)
	require.True(t, res.Recorded)
	// 08:00 is after MORNING start 07:30 but well before AFTERNOON
	// start; first-class resolution makes this LATE.
	assert.Equal(t, model.StatusLate, res.Attendance.Status)
}

// A concurrent login that lands between the existence check and the
// insert must not produce a second row; the loser reports the winner's.
func TestRecordOnLoginConflictReturnsWinner(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:00"))
	first, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	require.True(t, first.Recorded)

	recs.blindOnce = true
	recs.findCalls = 0
	res, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)
	assert.False(t, res.Recorded)
	assert.Equal(t, "Attendance already recorded for today", res.Message)
	require.NotNil(t, res.Attendance)
	assert.Equal(t, first.Attendance.ID, res.Attendance.ID)
	assert.Equal(t, 1, recs.inserts)
}

func TestMarkAbsentFillsGapsOnly(t *testing.T) {
	dir, recs := newFakes()
	login := newService(dir, recs, at(t, monday, "07:25"))
	_, err := login.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)

	sweep := newService(dir, recs, at(t, monday, "18:00"))
	marked, err := sweep.MarkAbsent(context.Background())
	require.NoError(t, err)
	// "tea" and "nox" had no record; "stu" did, "adm" is not swept.
	assert.Equal(t, 2, marked)

	stu := recs.rows[key("stu", monday)]
	require.NotNil(t, stu)
	assert.Equal(t, model.StatusPresent, stu.Status, "sweep must not overwrite login records")

	tea := recs.rows[key("tea", monday)]
	require.NotNil(t, tea)
	assert.Equal(t, model.StatusAbsent, tea.Status)
	assert.Nil(t, tea.TimeIn)
}

func TestMarkAbsentIsIdempotent(t *testing.T) {
	dir, recs := newFakes()
	sweep := newService(dir, recs, at(t, monday, "18:00"))

	first, err := sweep.MarkAbsent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first)

	second, err := sweep.MarkAbsent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second)
	assert.Equal(t, 3, recs.inserts)
}

func TestMarkAbsentSkipsWeekends(t *testing.T) {
	dir, recs := newFakes()
	sweep := newService(dir, recs, at(t, "2025-06-07", "18:00"))

	marked, err := sweep.MarkAbsent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
	assert.Equal(t, 0, recs.inserts)
}

func TestMarkAbsentIsolatesFailures(t *testing.T) {
	dir, recs := newFakes()
	recs.failUsers["tea"] = errors.New("connection reset")
	sweep := newService(dir, recs, at(t, monday, "18:00"))

	marked, err := sweep.MarkAbsent(context.Background())
	require.NoError(t, err)
	// The failing teacher is skipped; both students still get rows.
	assert.Equal(t, 2, marked)
	assert.NotNil(t, recs.rows[key("stu", monday)])
	assert.NotNil(t, recs.rows[key("nox", monday)])
	assert.Nil(t, recs.rows[key("tea", monday)])
}

func TestTimeInRoundTrip(t *testing.T) {
	dir, recs := newFakes()
	svc := newService(dir, recs, at(t, monday, "07:29"))

	res, err := svc.RecordOnLogin(context.Background(), "stu")
	require.NoError(t, err)

	stored, err := recs.FindForDay(context.Background(), "stu", monday)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, *res.Attendance.TimeIn, *stored.TimeIn)
	assert.Equal(t, "07:29", *stored.TimeIn)
	assert.Equal(t, stored.OccurredAt.In(manila).Format("15:04"), *stored.TimeIn)
}
