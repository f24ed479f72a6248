package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/commander/go/internal/models"
	"github.com/courtside/commander/go/internal/roster"
	"github.com/courtside/commander/go/internal/schedule"
)

func newApp() (*roster.App, *schedule.Engine) {
	engine := schedule.NewEngine(schedule.DefaultRules())
	return roster.NewApp(engine), engine
}

func TestAddPlayer(t *testing.T) {
	app, _ := newApp()
	plan := models.NewPlan("plan-1", "Test Plan")

	next, diags, err := app.AddPlayer(plan, models.Player{ID: "p1", Name: "Jordan", JerseyNumber: "23", Position: "SG"})
	require.NoError(t, err)
	require.Len(t, next.Players, 1)
	assert.Equal(t, "Jordan", next.Players[0].Name)
	require.Len(t, diags, 1)
	assert.Equal(t, "Jordan has been added.", diags[0].Message)

	// Input plan untouched.
	assert.Empty(t, plan.Players)
}

func TestAddPlayerValidation(t *testing.T) {
	app, _ := newApp()
	plan := models.NewPlan("plan-1", "Test Plan")

	_, _, err := app.AddPlayer(plan, models.Player{Name: "No ID"})
	assert.Error(t, err)

	_, _, err = app.AddPlayer(plan, models.Player{ID: "p1"})
	assert.Error(t, err)
}

func TestAddPlayerAllowsDuplicateNames(t *testing.T) {
	app, _ := newApp()
	plan := models.NewPlan("plan-1", "Test Plan")

	plan, _, err := app.AddPlayer(plan, models.Player{ID: "p1", Name: "Sam"})
	require.NoError(t, err)
	plan, _, err = app.AddPlayer(plan, models.Player{ID: "p2", Name: "Sam"})
	require.NoError(t, err)
	assert.Len(t, plan.Players, 2)
}

func TestEditPlayer(t *testing.T) {
	app, _ := newApp()
	plan := models.NewPlan("plan-1", "Test Plan")
	plan, _, _ = app.AddPlayer(plan, models.Player{ID: "p1", Name: "Sam", JerseyNumber: "4"})

	next, diags, err := app.EditPlayer(plan, models.Player{ID: "p1", Name: "Samuel", JerseyNumber: "12", Position: "C"})
	require.NoError(t, err)
	require.Len(t, next.Players, 1)
	assert.Equal(t, "Samuel", next.Players[0].Name)
	assert.Equal(t, "12", next.Players[0].JerseyNumber)
	require.Len(t, diags, 1)
}

func TestEditPlayerUnknownIsNoOp(t *testing.T) {
	app, _ := newApp()
	plan := models.NewPlan("plan-1", "Test Plan")
	plan, _, _ = app.AddPlayer(plan, models.Player{ID: "p1", Name: "Sam"})

	next, diags, err := app.EditPlayer(plan, models.Player{ID: "ghost", Name: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, plan.Players, next.Players)
}

func TestDeletePlayerCascadesThroughSchedule(t *testing.T) {
	app, engine := newApp()
	plan := models.NewPlan("plan-1", "Test Plan")
	plan, _, _ = app.AddPlayer(plan, models.Player{ID: "p1", Name: "Sam"})
	plan, _, _ = app.AddPlayer(plan, models.Player{ID: "p2", Name: "Alex"})

	plan.Schedule, _ = engine.AssignPlayer(plan.Schedule, "p1", models.QuarterQ1, 0, nil)
	plan.Schedule, _ = engine.AssignPlayer(plan.Schedule, "p1", models.QuarterQ4, 2, nil)
	plan.Schedule, _ = engine.AssignPlayer(plan.Schedule, "p2", models.QuarterQ1, 1, nil)

	next, diags, err := app.DeletePlayer(plan, "p1")
	require.NoError(t, err)
	require.Len(t, next.Players, 1)
	assert.Equal(t, "p2", next.Players[0].ID)
	require.Len(t, diags, 1)
	assert.Equal(t, "Sam has been removed.", diags[0].Message)

	assert.Equal(t, 0, schedule.TotalPlayingTime(next.Schedule, "p1"))
	assert.Equal(t, 10, schedule.TotalPlayingTime(next.Schedule, "p2"))

	// Deleting an id that never existed still succeeds.
	again, _, err := app.DeletePlayer(next, "ghost")
	require.NoError(t, err)
	assert.Len(t, again.Players, 1)
}
