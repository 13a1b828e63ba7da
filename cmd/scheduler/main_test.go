package main

import (
	"testing"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd().Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, "%s should have Short description", cmd.Name())
	}

	for _, want := range []string{"serve", "migrate", "generate", "reconcile", "token"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestGenerateCmd_Defaults(t *testing.T) {
	cmd := generateCmd()

	weekdays, err := cmd.Flags().GetIntSlice("weekdays")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, weekdays)

	duration, err := cmd.Flags().GetInt("duration")
	require.NoError(t, err)
	assert.Equal(t, 60, duration)
}

func TestGenerateFlags_Schedule(t *testing.T) {
	flags := generateFlags{
		from:     "2024-03-04",
		to:       "2024-03-05",
		start:    "09:00",
		end:      "11:00",
		duration: 60,
		weekdays: []int{1, 2},
		modality: "presencial",
	}

	sch, err := flags.schedule()
	require.NoError(t, err)
	assert.Equal(t, model.ModalityInPerson, sch.Modality)
	assert.Equal(t, 2, sch.Days())

	slots, err := sch.Generate()
	require.NoError(t, err)
	assert.Len(t, slots, 4)

	bad := flags
	bad.weekdays = []int{8}
	_, err = bad.schedule()
	assert.ErrorIs(t, err, model.ErrValidation)

	bad = flags
	bad.start = "9am"
	_, err = bad.schedule()
	assert.ErrorIs(t, err, model.ErrValidation)
}
