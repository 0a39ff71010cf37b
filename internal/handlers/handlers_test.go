package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tom2tomtomtom/traffic-manager/internal/handlers"
	assignmentsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/assignment"
	capacitysvc "github.com/tom2tomtomtom/traffic-manager/internal/services/capacity"
	transcriptsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/transcript"
	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/middleware"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

var monday = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

type routes interface {
	RegisterRoutes(g *echo.Group)
}

func newServer(handlers ...routes) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	api := e.Group("/api")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type fakeCapacity struct {
	snapshots   []models.CapacitySnapshot
	conflicts   []models.CapacityConflict
	gotWeek     *time.Time
	gotWeeks    int
	recalculate error
}

func (f *fakeCapacity) ComputeSnapshot(_ context.Context, personID uuid.UUID, week *time.Time) (models.CapacitySnapshot, error) {
	f.gotWeek = week
	for _, s := range f.snapshots {
		if s.TeamMemberID == personID {
			return s, nil
		}
	}
	return models.CapacitySnapshot{}, apperrors.NotFound("team member %s does not exist", personID)
}

func (f *fakeCapacity) ReportCurrentWeek(context.Context) ([]models.CapacitySnapshot, error) {
	return f.snapshots, nil
}

func (f *fakeCapacity) DetectConflicts(_ context.Context, week *time.Time) ([]models.CapacityConflict, error) {
	f.gotWeek = week
	return f.conflicts, nil
}

func (f *fakeCapacity) Forecast(_ context.Context, weeks int) ([]capacitysvc.ForecastWeek, error) {
	f.gotWeeks = weeks
	if weeks > 12 {
		return nil, apperrors.InvalidInput("weeks must be between 1 and %d", 12)
	}
	return []capacitysvc.ForecastWeek{{WeekStart: monday, WeekNumber: 3, Members: f.snapshots}}, nil
}

func (f *fakeCapacity) Summary(context.Context) (capacitysvc.Summary, error) {
	return capacitysvc.Summary{
		TotalTeamMembers:    2,
		TotalCapacityHours:  decimal.NewFromInt(70),
		TotalAllocatedHours: decimal.NewFromInt(55),
		TotalAvailableHours: decimal.NewFromInt(15),
		AverageUtilization:  decimal.RequireFromString("78.571428"),
		OverallocatedCount:  1,
		ConflictCount:       1,
		WeekStart:           monday,
	}, nil
}

func (f *fakeCapacity) Recalculate(context.Context) (capacitysvc.RecalculationResult, error) {
	if f.recalculate != nil {
		return capacitysvc.RecalculationResult{}, f.recalculate
	}
	return capacitysvc.RecalculationResult{
		Recalculated: []capacitysvc.RecalculatedMember{{TeamMemberID: f.snapshots[0].TeamMemberID, FullName: "P", AllocatedHours: decimal.NewFromInt(45), UtilizationPct: decimal.RequireFromString("112.5")}},
		Errors:       []capacitysvc.RecalculationError{{TeamMemberID: uuid.New(), FullName: "Gone", Error: "not found"}},
		Total:        1,
	}, nil
}

func snapshot(name, capacityHours, allocated string) models.CapacitySnapshot {
	total := decimal.RequireFromString(capacityHours)
	alloc := decimal.RequireFromString(allocated)
	return models.CapacitySnapshot{
		ID:                 uuid.New(),
		TeamMemberID:       uuid.New(),
		FullName:           name,
		WeekStartDate:      monday,
		TotalCapacityHours: total,
		AllocatedHours:     alloc,
		AvailableHours:     total.Sub(alloc),
		UtilizationPct:     alloc.Div(total).Mul(decimal.NewFromInt(100)),
		Overallocated:      alloc.GreaterThan(total),
	}
}

func TestCapacityHandler(t *testing.T) {
	svc := &fakeCapacity{snapshots: []models.CapacitySnapshot{
		snapshot("P", "40", "45"),
		snapshot("Third", "30", "10"),
	}}
	e := newServer(handlers.NewCapacityHandler(svc))

	t.Run("current week rounds utilization", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/capacity/current-week", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[[]handlers.SnapshotResponse](t, rec)
		require.Len(t, body, 2)
		assert.Equal(t, 112.5, body[0].UtilizationPct)
		assert.Equal(t, -5.0, body[0].AvailableHours)
		assert.Equal(t, "2025-01-13", body[0].WeekStartDate)
		assert.Equal(t, 33.3, body[1].UtilizationPct)
	})

	t.Run("conflicts for a week", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/capacity/conflicts?week=2025-01-16", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.gotWeek)
		assert.Equal(t, monday, *svc.gotWeek)
	})

	t.Run("conflicts with a bad week", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/capacity/conflicts?week=16-01-2025", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("forecast defaults to four weeks", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/capacity/forecast", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4, svc.gotWeeks)

		body := decode[handlers.ForecastResponse](t, rec)
		assert.Equal(t, 4, body.Weeks)
		require.Len(t, body.Forecast, 1)
		assert.Equal(t, "2025-01-13", body.Forecast[0].WeekStart)
		assert.Equal(t, 40.0, body.Forecast[0].Members[0].Capacity)
	})

	t.Run("forecast out of range", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/capacity/forecast?weeks=52", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(e, http.MethodGet, "/api/capacity/forecast?weeks=many", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("team member", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/capacity/team-member/"+svc.snapshots[0].TeamMemberID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, svc.gotWeek)

		rec = do(e, http.MethodGet, "/api/capacity/team-member/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(e, http.MethodGet, "/api/capacity/team-member/nope", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("summary", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/capacity/summary", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[handlers.SummaryResponse](t, rec)
		assert.Equal(t, 78.6, body.AverageUtilization)
		assert.Equal(t, 15.0, body.TotalAvailableHours)
		assert.Equal(t, "2025-01-13", body.WeekStart)
	})

	t.Run("recalculate", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/capacity/recalculate", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[handlers.RecalculateResponse](t, rec)
		assert.Equal(t, 1, body.Total)
		assert.Len(t, body.Errors, 1)
		assert.Equal(t, 45.0, body.Recalculated[0].AllocatedHours)
	})

	t.Run("recalculate already running", func(t *testing.T) {
		busy := &fakeCapacity{recalculate: apperrors.Conflict("a capacity recalculation is already running")}
		rec := do(newServer(handlers.NewCapacityHandler(busy)), http.MethodPost, "/api/capacity/recalculate", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

type fakeAssignments struct {
	created    []assignmentsvc.NewAssignment
	lastFilter models.AssignmentFilter
	deleted    []uuid.UUID
}

func (f *fakeAssignments) result(req assignmentsvc.NewAssignment) *models.AssignmentWithProject {
	name := "Apollo"
	return &models.AssignmentWithProject{
		Assignment: models.Assignment{
			ID:            uuid.New(),
			ProjectID:     req.ProjectID,
			TeamMemberID:  req.TeamMemberID,
			HoursThisWeek: req.HoursThisWeek,
			Status:        models.AssignmentStatusActive,
			AssignedBy:    models.AssignmentSourceManual,
		},
		ProjectName: &name,
	}
}

func (f *fakeAssignments) Create(_ context.Context, req assignmentsvc.NewAssignment) (*models.AssignmentWithProject, error) {
	f.created = append(f.created, req)
	return f.result(req), nil
}

func (f *fakeAssignments) CreateBulk(_ context.Context, reqs []assignmentsvc.NewAssignment) (assignmentsvc.BulkResult, error) {
	result := assignmentsvc.BulkResult{Conflicts: []models.CapacityConflict{}}
	for _, req := range reqs {
		result.Created = append(result.Created, *f.result(req))
	}
	return result, nil
}

func (f *fakeAssignments) Get(_ context.Context, id uuid.UUID) (*models.AssignmentWithProject, error) {
	return nil, apperrors.NotFound("assignment %s does not exist", id)
}

func (f *fakeAssignments) List(_ context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithProject, error) {
	f.lastFilter = filter
	return []models.AssignmentWithProject{}, nil
}

func (f *fakeAssignments) Update(_ context.Context, _ uuid.UUID, update models.AssignmentUpdate) (*models.AssignmentWithProject, error) {
	if update.IsEmpty() {
		return nil, apperrors.InvalidInput("no fields to update")
	}
	return f.result(assignmentsvc.NewAssignment{HoursThisWeek: *update.HoursThisWeek}), nil
}

func (f *fakeAssignments) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestAssignmentHandler(t *testing.T) {
	svc := &fakeAssignments{}
	e := newServer(handlers.NewAssignmentHandler(svc))
	projectID, personID := uuid.New(), uuid.New()

	t.Run("create", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/assignments",
			`{"project_id":"`+projectID.String()+`","team_member_id":"`+personID.String()+`","hours_this_week":12.5}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decode[handlers.AssignmentResponse](t, rec)
		assert.Equal(t, 12.5, body.HoursThisWeek)
		assert.Equal(t, "Apollo", *body.ProjectName)
		require.Len(t, svc.created, 1)
		assert.True(t, svc.created[0].HoursThisWeek.Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("create without project", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/assignments", `{"team_member_id":"`+personID.String()+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create with out of range confidence", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/assignments",
			`{"project_id":"`+projectID.String()+`","team_member_id":"`+personID.String()+`","confidence_score":2}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bulk", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/assignments/bulk",
			`{"assignments":[{"project_id":"`+projectID.String()+`","team_member_id":"`+personID.String()+`","hours_this_week":"8"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[handlers.BulkCreateAssignmentsResponse](t, rec)
		assert.Len(t, body.Created, 1)
		assert.NotNil(t, body.Conflicts)
	})

	t.Run("list defaults to active", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/assignments?team_member_id="+personID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.AssignmentStatusActive, svc.lastFilter.Status)
		require.NotNil(t, svc.lastFilter.TeamMemberID)
		assert.Equal(t, personID, *svc.lastFilter.TeamMemberID)
		assert.Nil(t, svc.lastFilter.ProjectID)
	})

	t.Run("list every status", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/assignments?status=", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, svc.lastFilter.Status)
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/assignments/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(e, http.MethodPatch, "/api/assignments/"+uuid.NewString(), `{"hours_this_week":20}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 20.0, decode[handlers.AssignmentResponse](t, rec).HoursThisWeek)

		rec = do(e, http.MethodPatch, "/api/assignments/"+uuid.NewString(), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		id := uuid.New()
		rec := do(e, http.MethodDelete, "/api/assignments/"+id.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[handlers.DeleteAssignmentResponse](t, rec)
		assert.Equal(t, "deleted", body.Status)
		assert.Equal(t, id, body.AssignmentID)
		assert.Equal(t, []uuid.UUID{id}, svc.deleted)
	})
}

type fakePeople struct {
	people     map[uuid.UUID]models.Person
	recomputed []uuid.UUID
}

func (f *fakePeople) GetByID(_ context.Context, id uuid.UUID) (*models.Person, error) {
	p, ok := f.people[id]
	if !ok {
		return nil, apperrors.NotFound("team member %s does not exist", id)
	}
	return &p, nil
}

func (f *fakePeople) List(context.Context) ([]models.Person, error) {
	people := []models.Person{}
	for _, p := range f.people {
		people = append(people, p)
	}
	return people, nil
}

func (f *fakePeople) ListActive(ctx context.Context) ([]models.Person, error) {
	people, _ := f.List(ctx)
	active := []models.Person{}
	for _, p := range people {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

func (f *fakePeople) Create(_ context.Context, person *models.Person) error {
	f.people[person.ID] = *person
	return nil
}

func (f *fakePeople) Update(_ context.Context, person *models.Person) error {
	if _, ok := f.people[person.ID]; !ok {
		return apperrors.NotFound("team member %s does not exist", person.ID)
	}
	f.people[person.ID] = *person
	return nil
}

func (f *fakePeople) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := f.people[id]
	if !ok {
		return apperrors.NotFound("team member %s does not exist", id)
	}
	p.Active = false
	f.people[id] = p
	return nil
}

func (f *fakePeople) ComputeSnapshot(_ context.Context, personID uuid.UUID, _ *time.Time) (models.CapacitySnapshot, error) {
	f.recomputed = append(f.recomputed, personID)
	return models.CapacitySnapshot{}, nil
}

func TestTeamHandler(t *testing.T) {
	people := &fakePeople{people: map[uuid.UUID]models.Person{}}
	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
	e := newServer(handlers.NewTeamHandler(people, people, logger))

	rec := do(e, http.MethodPost, "/api/team", `{"full_name":"Jess Moore"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[handlers.PersonResponse](t, rec)
	assert.Equal(t, models.DefaultRole, created.Role)
	assert.Equal(t, 40.0, created.WeeklyCapacityHours)
	assert.True(t, created.Active)

	rec = do(e, http.MethodPut, "/api/team/"+created.ID.String(), `{"full_name":"Jess Moore","role":"Producer","weekly_capacity_hours":0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[handlers.PersonResponse](t, rec)
	assert.Equal(t, 0.0, updated.WeeklyCapacityHours)
	assert.Equal(t, []uuid.UUID{created.ID}, people.recomputed)

	rec = do(e, http.MethodPut, "/api/team/"+uuid.NewString(), `{"full_name":"Nobody"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/api/team", `{"role":"Producer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/team", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]handlers.PersonResponse](t, rec), 1)

	rec = do(e, http.MethodDelete, "/api/team/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "deactivated", decode[handlers.DeactivateTeamMemberResponse](t, rec).Status)
	assert.False(t, people.people[created.ID].Active)

	rec = do(e, http.MethodGet, "/api/team", "")
	assert.Empty(t, decode[[]handlers.PersonResponse](t, rec))
	rec = do(e, http.MethodGet, "/api/team?include_inactive=true", "")
	assert.Len(t, decode[[]handlers.PersonResponse](t, rec), 1)

	rec = do(e, http.MethodDelete, "/api/team/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeProjects struct {
	projects []models.Project
	filter   models.ProjectFilter
}

func (f *fakeProjects) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	return nil, apperrors.NotFound("project %s does not exist", id)
}

func (f *fakeProjects) List(_ context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	f.filter = filter
	return f.projects, nil
}

func (f *fakeProjects) Create(_ context.Context, project *models.Project) error {
	f.projects = append(f.projects, *project)
	return nil
}

type fakeProjectService struct {
	updates   []models.ProjectUpdate
	deleted   []uuid.UUID
	members   []assignmentsvc.NewAssignment
	recommend *models.StaffingRecommendation
}

func (f *fakeProjectService) Update(_ context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	if update.IsEmpty() {
		return nil, apperrors.InvalidInput("no fields to update")
	}
	f.updates = append(f.updates, update)
	project := models.Project{ID: id, Name: "Legos", Status: models.ProjectStatusActive, Priority: models.PriorityNormal}
	if update.Priority != nil {
		project.Priority = *update.Priority
	}
	project.Deadline = update.Deadline
	return &project, nil
}

func (f *fakeProjectService) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProjectService) Recommend(_ context.Context, id uuid.UUID) (*models.StaffingRecommendation, error) {
	if f.recommend == nil {
		return nil, apperrors.NotFound("project %s does not exist", id)
	}
	return f.recommend, nil
}

func (f *fakeProjectService) AddToProject(_ context.Context, req assignmentsvc.NewAssignment) (*models.AssignmentWithProject, error) {
	for _, m := range f.members {
		if m.TeamMemberID == req.TeamMemberID {
			return nil, apperrors.Conflict("team member %s is already assigned to project %s", req.TeamMemberID, req.ProjectID)
		}
	}
	f.members = append(f.members, req)
	return &models.AssignmentWithProject{Assignment: models.Assignment{
		ID:            uuid.New(),
		ProjectID:     req.ProjectID,
		TeamMemberID:  req.TeamMemberID,
		RoleOnProject: req.RoleOnProject,
		Status:        models.AssignmentStatusActive,
		AssignedBy:    models.AssignmentSourceManual,
	}}, nil
}

func TestProjectHandler(t *testing.T) {
	projects := &fakeProjects{}
	svc := &fakeProjectService{}
	e := newServer(handlers.NewProjectHandler(projects, svc, svc))

	rec := do(e, http.MethodPost, "/api/projects", `{"name":"Legos","priority":"urgent","deadline":"2025-02-14"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[handlers.ProjectResponse](t, rec)
	assert.Equal(t, models.PriorityUrgent, body.Priority)
	assert.Equal(t, models.ProjectStatusActive, body.Status)
	require.NotNil(t, body.Deadline)
	assert.Equal(t, "2025-02-14", *body.Deadline)

	rec = do(e, http.MethodPost, "/api/projects", `{"name":"Legos","priority":"asap"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/projects?status=on-hold&client=acme", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ProjectStatusOnHold, projects.filter.Status)
	assert.Equal(t, "acme", projects.filter.Client)

	rec = do(e, http.MethodGet, "/api/projects?status=paused", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectHandler_Edit(t *testing.T) {
	svc := &fakeProjectService{}
	e := newServer(handlers.NewProjectHandler(&fakeProjects{}, svc, svc))
	id := uuid.New()

	t.Run("patch", func(t *testing.T) {
		rec := do(e, http.MethodPatch, "/api/projects/"+id.String(), `{"priority":"urgent","deadline":"2025-02-14"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[handlers.ProjectResponse](t, rec)
		assert.Equal(t, models.PriorityUrgent, body.Priority)
		require.NotNil(t, body.Deadline)
		assert.Equal(t, "2025-02-14", *body.Deadline)

		require.Len(t, svc.updates, 1)
		assert.Nil(t, svc.updates[0].Status)
		assert.Nil(t, svc.updates[0].Name)
	})

	t.Run("patch without fields", func(t *testing.T) {
		rec := do(e, http.MethodPatch, "/api/projects/"+id.String(), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("patch with an unknown status", func(t *testing.T) {
		rec := do(e, http.MethodPatch, "/api/projects/"+id.String(), `{"status":"archived"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(e, http.MethodDelete, "/api/projects/"+id.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, decode[handlers.DeleteProjectResponse](t, rec).ProjectID)
		assert.Equal(t, []uuid.UUID{id}, svc.deleted)
	})

	t.Run("delete with a bad id", func(t *testing.T) {
		rec := do(e, http.MethodDelete, "/api/projects/nope", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProjectHandler_Staffing(t *testing.T) {
	svc := &fakeProjectService{}
	e := newServer(handlers.NewProjectHandler(&fakeProjects{}, svc, svc))
	id, personID := uuid.New(), uuid.New()

	t.Run("recommend for an unknown project", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/projects/"+id.String()+"/recommend", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("recommend", func(t *testing.T) {
		available := decimal.RequireFromString("27.5")
		svc.recommend = &models.StaffingRecommendation{
			Recommendations: []models.Recommendation{{
				TeamMemberName: "Jess Moore",
				SuggestedRole:  "producer",
				SuggestedHours: 10,
				Confidence:     0.8,
				Priority:       "primary",
				TeamMemberID:   &personID,
				AvailableHours: &available,
			}},
			TeamCompositionNotes: "Small team",
		}

		rec := do(e, http.MethodGet, "/api/projects/"+id.String()+"/recommend", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[handlers.StaffingRecommendationResponse](t, rec)
		require.Len(t, body.Recommendations, 1)
		assert.Equal(t, personID, *body.Recommendations[0].TeamMemberID)
		assert.Equal(t, 27.5, *body.Recommendations[0].AvailableHours)
		assert.NotNil(t, body.Warnings)
	})

	t.Run("recommend with everyone assigned", func(t *testing.T) {
		svc.recommend = &models.StaffingRecommendation{TeamCompositionNotes: models.AllAssignedNote}

		rec := do(e, http.MethodGet, "/api/projects/"+id.String()+"/recommend", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"recommendations":[],"team_composition_notes":"`+models.AllAssignedNote+`","warnings":[]}`, rec.Body.String())
	})

	t.Run("add member", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/projects/"+id.String()+"/assignments", `{"team_member_id":"`+personID.String()+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decode[handlers.AssignmentResponse](t, rec)
		assert.Equal(t, "support", body.RoleOnProject)
		require.Len(t, svc.members, 1)
		assert.Equal(t, id, svc.members[0].ProjectID)
		assert.True(t, svc.members[0].HoursThisWeek.IsZero())
		assert.Equal(t, 1.0, *svc.members[0].ConfidenceScore)
	})

	t.Run("add member twice", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/projects/"+id.String()+"/assignments", `{"team_member_id":"`+personID.String()+`","role_on_project":"lead"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("add member without a team member", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/projects/"+id.String()+"/assignments", `{"role_on_project":"lead"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type fakeTranscripts struct {
	err       error
	processed []transcriptsvc.ProcessRequest
}

func (f *fakeTranscripts) Process(_ context.Context, req transcriptsvc.ProcessRequest) (*transcriptsvc.ProcessResult, error) {
	f.processed = append(f.processed, req)
	if f.err != nil {
		return nil, f.err
	}
	confidence := 0.8
	return &transcriptsvc.ProcessResult{
		Transcript: &models.Transcript{
			ID:                   uuid.New(),
			MeetingDate:          monday,
			MeetingType:          models.MeetingTypeWIP,
			ExtractedData:        database.NewJSONB(models.ExtractionResult{OverallConfidence: confidence}),
			ExtractionConfidence: &confidence,
		},
		Unresolved: transcriptsvc.Unresolved{People: []string{"Marcus"}, Projects: []string{}},
	}, nil
}

func (f *fakeTranscripts) Get(_ context.Context, id uuid.UUID) (*models.Transcript, error) {
	return nil, apperrors.NotFound("transcript %s does not exist", id)
}

func (f *fakeTranscripts) List(_ context.Context, limit, _ int) ([]models.TranscriptSummary, error) {
	if limit < 1 {
		return nil, apperrors.InvalidInput("limit must be positive")
	}
	return []models.TranscriptSummary{{ID: uuid.New(), MeetingType: models.MeetingTypeWIP}}, nil
}

func (f *fakeTranscripts) Approve(_ context.Context, id uuid.UUID) (*models.Transcript, error) {
	now := time.Now()
	return &models.Transcript{ID: id, Approved: true, ApprovedAt: &now}, nil
}

func (f *fakeTranscripts) Delete(_ context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apperrors.NotFound("transcript %s does not exist", id)
	}
	return nil
}

func TestTranscriptHandler(t *testing.T) {
	svc := &fakeTranscripts{}
	e := newServer(handlers.NewTranscriptHandler(svc))

	t.Run("process", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/transcripts/process", `{"transcript_text":"Jess is on Legos","meeting_date":"2025-01-13","meeting_type":"planning"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[handlers.ProcessTranscriptResponse](t, rec)
		assert.Equal(t, "2025-01-13", body.MeetingDate)
		assert.Equal(t, []string{"Marcus"}, body.UnresolvedEntities.People)
		assert.Equal(t, 0.8, body.ExtractedData.OverallConfidence)

		require.Len(t, svc.processed, 1)
		assert.Equal(t, models.MeetingTypePlanning, svc.processed[0].MeetingType)
		require.NotNil(t, svc.processed[0].MeetingDate)
		assert.Equal(t, monday, *svc.processed[0].MeetingDate)
	})

	t.Run("process with a bad meeting type", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/transcripts/process", `{"transcript_text":"Jess is on Legos","meeting_type":"standup"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("process surfaces extraction failures", func(t *testing.T) {
		failing := &fakeTranscripts{err: apperrors.MalformedOutput("model returned no JSON")}
		rec := do(newServer(handlers.NewTranscriptHandler(failing)), http.MethodPost, "/api/transcripts/process", `{"transcript_text":"Jess is on Legos"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		failing.err = apperrors.UpstreamUnavailable("rate limited")
		rec = do(newServer(handlers.NewTranscriptHandler(failing)), http.MethodPost, "/api/transcripts/process", `{"transcript_text":"Jess is on Legos"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/transcripts", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[handlers.TranscriptListResponse](t, rec).Total)

		rec = do(e, http.MethodGet, "/api/transcripts?limit=0", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/transcripts/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("approve", func(t *testing.T) {
		id := uuid.New()
		rec := do(e, http.MethodPost, "/api/transcripts/"+id.String()+"/approve", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[handlers.ApproveTranscriptResponse](t, rec)
		assert.Equal(t, "approved", body.Status)
		assert.Equal(t, id, body.TranscriptID)
	})

	t.Run("delete", func(t *testing.T) {
		id := uuid.New()
		rec := do(e, http.MethodDelete, "/api/transcripts/"+id.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[handlers.DeleteTranscriptResponse](t, rec)
		assert.Equal(t, "deleted", body.Status)
		assert.Equal(t, id, body.TranscriptID)

		rec = do(e, http.MethodDelete, "/api/transcripts/"+uuid.Nil.String(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
