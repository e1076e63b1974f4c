// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/session"
	"github.com/olegiv/seniorid/internal/store"
	"github.com/olegiv/seniorid/internal/testutil"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Dispatch(_ context.Context, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type auditEntry struct {
	level, category, message, userID string
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) LogEvent(_ context.Context, level, category, message, userID string, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{level, category, message, userID})
	return nil
}

type fixture struct {
	reg      *Registry
	notifier *recordingNotifier
	audit    *recordingAudit
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sm := testutil.TestSessionManager()
	f := &fixture{
		notifier: &recordingNotifier{},
		audit:    &recordingAudit{},
		ctx:      testutil.SessionContext(t, sm),
	}
	f.reg = New(testutil.TestDB(t), Config{
		Sessions: session.NewSlot(sm),
		Events:   f.audit,
		Notifier: f.notifier,
		Logger:   testutil.TestLoggerSilent(),
	})
	return f
}

func person(first, last string) model.Person {
	return model.Person{
		FirstName:        first,
		LastName:         last,
		DOB:              "1950-03-14",
		Gender:           model.GenderMale,
		Address:          "Brgy. Alipaoy, Paluan",
		ContactNumber:    "09171234567",
		EmergencyContact: "Maria " + last,
		EmergencyPhone:   "09181234567",
		Photo:            testImage,
		Signature:        testImage,
	}
}

func submit(t *testing.T, f *fixture, first, last string) model.Application {
	t.Helper()
	app, err := f.reg.SaveApplication(f.ctx, model.Application{Person: person(first, last)})
	require.NoError(t, err)
	return app
}

func TestSaveSeniorThenGet(t *testing.T) {
	f := newFixture(t)

	saved, err := f.reg.SaveSenior(f.ctx, model.Senior{Person: person("Juan", "Dela Cruz")})
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Regexp(t, `^PLN-\d{4}-\d{5}$`, saved.ControlNumber)
	assert.Equal(t, model.SeniorActive, saved.Status)
	assert.Equal(t, int64(1), saved.Version)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := f.reg.GetSenior(f.ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	byControl, err := f.reg.GetSenior(f.ctx, saved.ControlNumber)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byControl.ID)

	assert.Equal(t, []string{model.EventSeniorCreated}, f.notifier.Events())
}

func TestSaveSeniorValidation(t *testing.T) {
	f := newFixture(t)

	p := person("", "Santos")
	p.DOB = "14/03/1950"
	p.Gender = "unknown"
	_, err := f.reg.SaveSenior(f.ctx, model.Senior{Person: p})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "first_name")
	assert.Contains(t, ve.Fields, "dob")
	assert.Contains(t, ve.Fields, "gender")

	list, err := f.reg.ListSeniors(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveSeniorUpdate(t *testing.T) {
	f := newFixture(t)

	s, err := f.reg.SaveSenior(f.ctx, model.Senior{Person: person("Pedro", "Reyes")})
	require.NoError(t, err)

	s.Status = model.SeniorSuspended
	s.ControlNumber = ""
	updated, err := f.reg.SaveSenior(f.ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, model.SeniorSuspended, updated.Status)
	assert.NotEmpty(t, updated.ControlNumber, "control number kept when omitted")
	assert.Equal(t, s.CreatedAt, updated.CreatedAt)

	// s still carries version 1.
	s.Status = model.SeniorInactive
	s.Version = 1
	_, err = f.reg.SaveSenior(f.ctx, s)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := f.reg.GetSenior(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SeniorSuspended, got.Status)
}

func TestDeleteSeniorKeepsOrder(t *testing.T) {
	f := newFixture(t)

	var ids []string
	for i := range 4 {
		s, err := f.reg.SaveSenior(f.ctx, model.Senior{Person: person("Senior"+strconv.Itoa(i), "Test")})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	require.NoError(t, f.reg.DeleteSenior(f.ctx, ids[1]))
	assert.ErrorIs(t, f.reg.DeleteSenior(f.ctx, ids[1]), ErrNotFound)

	list, err := f.reg.ListSeniors(f.ctx)
	require.NoError(t, err)
	var got []string
	for _, s := range list {
		got = append(got, s.ID)
	}
	assert.Equal(t, []string{ids[0], ids[2], ids[3]}, got)
}

func TestSearchSeniors(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.SaveSenior(f.ctx, model.Senior{Person: person("José", "Peña")})
	require.NoError(t, err)
	other, err := f.reg.SaveSenior(f.ctx, model.Senior{ControlNumber: "PLN-2024-55555", Person: person("Ana", "Cruz")})
	require.NoError(t, err)

	found, err := f.reg.SearchSeniors(f.ctx, "jose pena")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "José", found[0].FirstName)

	found, err = f.reg.SearchSeniors(f.ctx, "pln-2024-555")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, other.ID, found[0].ID)

	found, err = f.reg.SearchSeniors(f.ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestGetSenior_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.GetSenior(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.reg.GetSenior(f.ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateIdentifiers(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r := New(testutil.TestDB(t), Config{Now: func() time.Time { return fixed }})

	control := regexp.MustCompile(`^PLN-2026-(\d{5})$`)
	app := regexp.MustCompile(`^APP-(\d{6})$`)
	for range 50 {
		m := control.FindStringSubmatch(r.GenerateControlNumber())
		require.NotNil(t, m)
		n, _ := strconv.Atoi(m[1])
		assert.GreaterOrEqual(t, n, 10000)

		m = app.FindStringSubmatch(r.GenerateApplicationID())
		require.NotNil(t, m)
		n, _ = strconv.Atoi(m[1])
		assert.GreaterOrEqual(t, n, 100000)
	}
}

func TestSaveApplication(t *testing.T) {
	f := newFixture(t)

	app, err := f.reg.SaveApplication(f.ctx, model.Application{
		ID:         "chosen-by-client",
		Status:     model.ApplicationApproved,
		ReviewedBy: "1",
		Person:     person("Lola", "Basyang"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, "chosen-by-client", app.ID)
	assert.Regexp(t, `^APP-\d{6}$`, app.ApplicationID)
	assert.Equal(t, model.ApplicationPending, app.Status)
	assert.Empty(t, app.ReviewedBy)
	assert.Nil(t, app.ReviewedAt)

	p := person("No", "Photo")
	p.Photo = ""
	p.Signature = ""
	_, err = f.reg.SaveApplication(f.ctx, model.Application{Person: p})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "photo")
	assert.Contains(t, ve.Fields, "signature")

	assert.Equal(t, []string{model.EventApplicationSubmitted}, f.notifier.Events())
}

func TestApproveApplication(t *testing.T) {
	f := newFixture(t)
	app := submit(t, f, "Carlos", "Garcia")

	senior, err := f.reg.ApproveApplication(f.ctx, app.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, app.ID, senior.ID)
	assert.Equal(t, model.SeniorActive, senior.Status)
	assert.Regexp(t, `^PLN-\d{4}-\d{5}$`, senior.ControlNumber)
	assert.Equal(t, app.Person, senior.Person)

	got, err := f.reg.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationApproved, got.Status)
	assert.Equal(t, "1", got.ReviewedBy)
	require.NotNil(t, got.ReviewedAt)

	stored, err := f.reg.GetSenior(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, senior.ControlNumber, stored.ControlNumber)

	_, err = f.reg.ApproveApplication(f.ctx, app.ID, "1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Contains(t, f.notifier.Events(), model.EventApplicationApproved)
	assert.Contains(t, f.notifier.Events(), model.EventSeniorCreated)
}

func TestApproveApplication_UnknownIDChangesNothing(t *testing.T) {
	f := newFixture(t)
	app := submit(t, f, "Rosa", "Lim")

	_, err := f.reg.ApproveApplication(f.ctx, "nope", "1")
	assert.ErrorIs(t, err, ErrNotFound)

	apps, err := f.reg.ListApplications(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, app, apps[0])

	seniors, err := f.reg.ListSeniors(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, seniors)
}

func TestApproveApplication_DuplicateSeniorRollsBack(t *testing.T) {
	f := newFixture(t)
	app := submit(t, f, "Elena", "Tan")

	_, err := f.reg.SaveSenior(f.ctx, model.Senior{ID: app.ID, Person: person("Other", "Person")})
	require.NoError(t, err)

	_, err = f.reg.ApproveApplication(f.ctx, app.ID, "1")
	assert.ErrorIs(t, err, ErrDuplicateID)

	got, err := f.reg.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationPending, got.Status)
}

func TestRejectApplication(t *testing.T) {
	f := newFixture(t)
	app := submit(t, f, "Mario", "Santos")

	rejected, err := f.reg.RejectApplication(f.ctx, app.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationRejected, rejected.Status)
	assert.Equal(t, "1", rejected.ReviewedBy)

	_, err = f.reg.ApproveApplication(f.ctx, app.ID, "1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	seniors, err := f.reg.ListSeniors(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, seniors)
}

func TestListApplicationsFilter(t *testing.T) {
	f := newFixture(t)
	a := submit(t, f, "Ana", "One")
	b := submit(t, f, "Ben", "Two")

	_, err := f.reg.ApproveApplication(f.ctx, a.ID, "1")
	require.NoError(t, err)

	pending, err := f.reg.ListApplications(f.ctx, model.ApplicationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	all, err := f.reg.ListApplications(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)

	_, err = f.reg.ListApplications(f.ctx, "Archived")
	assert.True(t, IsValidationError(err))
}

func TestUpdateApplication(t *testing.T) {
	f := newFixture(t)
	app := submit(t, f, "Lito", "Ramos")

	app.Address = "Brgy. Harrison, Paluan"
	updated, err := f.reg.UpdateApplication(f.ctx, app)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "Brgy. Harrison, Paluan", updated.Address)

	approve := updated
	approve.Status = model.ApplicationApproved
	_, err = f.reg.UpdateApplication(f.ctx, approve)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	reject := updated
	reject.Status = model.ApplicationRejected
	rejected, err := f.reg.UpdateApplication(WithActor(f.ctx, "7"), reject)
	require.NoError(t, err)
	assert.Equal(t, "7", rejected.ReviewedBy)

	rejected.Status = model.ApplicationPending
	_, err = f.reg.UpdateApplication(f.ctx, rejected)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.reg.UpdateApplication(f.ctx, app)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestUpdateApplication_InsertStartsPending(t *testing.T) {
	f := newFixture(t)
	reviewed := f.reg.now()

	created, err := f.reg.UpdateApplication(f.ctx, model.Application{
		ID:         "walk-in",
		Person:     person("Nena", "Villar"),
		Status:     model.ApplicationApproved,
		ReviewedBy: "nobody",
		ReviewedAt: &reviewed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationPending, created.Status)
	assert.Empty(t, created.ReviewedBy)
	assert.Nil(t, created.ReviewedAt)

	stored, err := f.reg.GetApplication(f.ctx, "walk-in")
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationPending, stored.Status)
	assert.Empty(t, stored.ReviewedBy)

	_, err = f.reg.GetSenior(f.ctx, "walk-in")
	assert.ErrorIs(t, err, ErrNotFound)

	senior, err := f.reg.ApproveApplication(f.ctx, "walk-in", store.DefaultAdminID)
	require.NoError(t, err)
	assert.Equal(t, "walk-in", senior.ID)
	assert.Equal(t, model.SeniorActive, senior.Status)
}

func TestDeleteApplication(t *testing.T) {
	f := newFixture(t)
	app := submit(t, f, "Nena", "Cruz")

	assert.ErrorIs(t, f.reg.DeleteApplication(f.ctx, app.ID), ErrApplicationNotDeletable)

	_, err := f.reg.RejectApplication(f.ctx, app.ID, "1")
	require.NoError(t, err)
	require.NoError(t, f.reg.DeleteApplication(f.ctx, app.ID))

	_, err = f.reg.GetApplication(f.ctx, app.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.reg.DeleteApplication(f.ctx, app.ID), ErrNotFound)
}

func TestListUsersSeedsDefaultAdmin(t *testing.T) {
	f := newFixture(t)

	users, err := f.reg.ListUsers(f.ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.NotEqual(t, "password123", users[0].PasswordHash)

	users, err = f.reg.ListUsers(f.ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"exact", "admin", "password123", nil},
		{"mixed case", "Admin", "password123", nil},
		{"padded", "  ADMIN ", "password123", nil},
		{"wrong password", "admin", "password124", ErrInvalidCredentials},
		{"unknown user", "nobody", "password123", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			u, err := f.reg.Login(f.ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				cur, err := f.reg.CurrentSession(f.ctx)
				require.NoError(t, err)
				assert.Nil(t, cur)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin", u.Username)
			assert.NotNil(t, u.LastLoginAt)

			cur, err := f.reg.CurrentSession(f.ctx)
			require.NoError(t, err)
			require.NotNil(t, cur)
			assert.Equal(t, u.ID, cur.ID)
		})
	}
}

func TestLoginFailureIsAudited(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.Login(f.ctx, "admin", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NotEmpty(t, f.audit.entries)
	last := f.audit.entries[len(f.audit.entries)-1]
	assert.Equal(t, model.EventLevelWarning, last.level)
	assert.Equal(t, model.EventCategoryAuth, last.category)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.Login(f.ctx, "admin", "password123")
	require.NoError(t, err)
	require.NoError(t, f.reg.Logout(f.ctx))

	cur, err := f.reg.CurrentSession(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestCurrentSession_DeletedUser(t *testing.T) {
	f := newFixture(t)

	staff, err := f.reg.SaveUser(f.ctx, model.User{Username: "clerk", Role: model.RoleStaff}, "clerk-pass-1")
	require.NoError(t, err)
	_, err = f.reg.Login(f.ctx, "clerk", "clerk-pass-1")
	require.NoError(t, err)

	require.NoError(t, f.reg.DeleteUser(context.Background(), staff.ID, "1"))

	cur, err := f.reg.CurrentSession(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestSaveUser(t *testing.T) {
	f := newFixture(t)

	u, err := f.reg.SaveUser(f.ctx, model.User{Username: "  Checker ", Role: model.RoleQRChecker}, "checker-pass")
	require.NoError(t, err)
	assert.Equal(t, "checker", u.Username)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "checker-pass", u.PasswordHash)

	_, err = f.reg.Login(f.ctx, "CHECKER", "checker-pass")
	require.NoError(t, err)

	// Empty password keeps the existing hash.
	u.Role = model.RoleStaff
	updated, err := f.reg.SaveUser(f.ctx, u, "")
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
	assert.Equal(t, model.RoleStaff, updated.Role)

	_, err = f.reg.SaveUser(f.ctx, model.User{Username: "checker", Role: model.RoleStaff}, "another-pass")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "username")

	_, err = f.reg.SaveUser(f.ctx, model.User{Username: "nopass", Role: model.RoleStaff}, "")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")

	_, err = f.reg.SaveUser(f.ctx, model.User{Username: "short", Role: model.RoleStaff}, "abc")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")

	_, err = f.reg.SaveUser(f.ctx, model.User{Username: "bad", Role: "Root"}, "long-enough")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "role")
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)

	users, err := f.reg.ListUsers(f.ctx)
	require.NoError(t, err)
	admin := users[0]

	assert.ErrorIs(t, f.reg.DeleteUser(f.ctx, admin.ID, admin.ID), ErrSelfDelete)

	staff, err := f.reg.SaveUser(f.ctx, model.User{Username: "staff", Role: model.RoleStaff}, "staff-pass")
	require.NoError(t, err)
	assert.ErrorIs(t, f.reg.DeleteUser(f.ctx, admin.ID, staff.ID), ErrLastAdmin)

	admin.Role = model.RoleStaff
	_, err = f.reg.SaveUser(f.ctx, admin, "")
	assert.ErrorIs(t, err, ErrLastAdmin)

	require.NoError(t, f.reg.DeleteUser(f.ctx, staff.ID, admin.ID))
	assert.ErrorIs(t, f.reg.DeleteUser(f.ctx, staff.ID, admin.ID), ErrNotFound)
}

func TestSettings(t *testing.T) {
	f := newFixture(t)

	s, err := f.reg.GetSettings(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSiteSettings(), s)

	saved, err := f.reg.SaveSettings(f.ctx, model.SiteSettings{
		Title:        "<b>OSCA</b> Paluan",
		PrimaryColor: "#1D4ED8",
		DarkMode:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "OSCA Paluan", saved.Title)
	assert.Equal(t, "#1d4ed8", saved.PrimaryColor)

	got, err := f.reg.GetSettings(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	_, err = f.reg.SaveSettings(f.ctx, model.SiteSettings{Title: "x", PrimaryColor: "green"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "primary_color")
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	a := submit(t, f, "A", "One")
	submit(t, f, "B", "Two")
	c := submit(t, f, "C", "Three")
	_, err := f.reg.ApproveApplication(f.ctx, a.ID, "1")
	require.NoError(t, err)
	_, err = f.reg.RejectApplication(f.ctx, c.ID, "1")
	require.NoError(t, err)
	_, err = f.reg.SaveSenior(f.ctx, model.Senior{Person: person("D", "Four"), Status: model.SeniorInactive})
	require.NoError(t, err)

	st, err := f.reg.Stats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalSeniors:         2,
		ActiveSeniors:        1,
		PendingApplications:  1,
		ApprovedApplications: 1,
		RejectedApplications: 1,
	}, st)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)

	s, err := f.reg.SaveSenior(f.ctx, model.Senior{Person: person("Ramon", "Villa")})
	require.NoError(t, err)

	v, err := f.reg.Verify(f.ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, v.Active)
	assert.Equal(t, s.ControlNumber, v.ControlNumber)
	assert.Equal(t, "Ramon Villa", v.FullName)

	s.Status = model.SeniorSuspended
	_, err = f.reg.SaveSenior(f.ctx, s)
	require.NoError(t, err)

	v, err = f.reg.Verify(f.ctx, s.ControlNumber)
	require.NoError(t, err)
	assert.False(t, v.Active)

	_, err = f.reg.Verify(f.ctx, "unknown")
	assert.True(t, errors.Is(err, ErrNotFound))
}
