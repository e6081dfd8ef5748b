package delivery

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftDeleteAfterConfirmation(t *testing.T) {
	d := NewDraft(Config{BlockedDates: []string{"2024-01-01", "2024-01-02", "2024-01-03"}})

	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 1}))
	assert.Len(t, d.Working.BlockedDates, 3, "nothing removed before confirmation")

	require.NoError(t, d.ConfirmDelete())
	assert.Equal(t, []string{"2024-01-01", "2024-01-03"}, d.Working.BlockedDates)
	assert.Equal(t, PhaseIdle, d.Confirmation.Phase)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, d.Baseline.BlockedDates)
}

func TestDraftCancelLeavesCollectionUnchanged(t *testing.T) {
	d := NewDraft(Config{BlockedDates: []string{"2024-01-01", "2024-01-02", "2024-01-03"}})

	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 1}))
	d.CancelDelete()

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, d.Working.BlockedDates)
	assert.False(t, d.HasChanges())
	assert.ErrorIs(t, d.ConfirmDelete(), ErrNoPendingDelete)
}

func TestDraftDeleteRange(t *testing.T) {
	d := NewDraft(Config{BlockedRanges: []DateRange{
		{Start: "2024-01-01", End: "2024-01-05"},
		{Start: "2024-02-01", End: "2024-02-05"},
	}})

	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetRange, Index: 0}))
	require.NoError(t, d.ConfirmDelete())
	assert.Equal(t, []DateRange{{Start: "2024-02-01", End: "2024-02-05"}}, d.Working.BlockedRanges)
}

func TestDraftRequestDeleteValidation(t *testing.T) {
	d := NewDraft(Config{BlockedDates: []string{"2024-01-01"}})

	assert.ErrorIs(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 3}), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.RequestDelete(DeleteTarget{Kind: TargetRange, Index: 0}), ErrIndexOutOfRange)
	assert.Error(t, d.RequestDelete(DeleteTarget{Kind: "weekday", Index: 0}))

	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 0}))
	assert.ErrorIs(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 0}), ErrDeletePending)
}

func TestDraftHasChangesLifecycle(t *testing.T) {
	d := NewDraft(Config{BlockedWeekdays: []time.Weekday{time.Sunday}})
	assert.False(t, d.HasChanges())

	require.NoError(t, d.ToggleWeekday(time.Saturday))
	assert.True(t, d.HasChanges())

	d.MarkSaved()
	assert.False(t, d.HasChanges(), "saved working copy is the new baseline")

	require.NoError(t, d.AddDate("2024-06-10"))
	assert.True(t, d.HasChanges())
	d.MarkSaved()

	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 0}))
	require.NoError(t, d.ConfirmDelete())
	assert.True(t, d.HasChanges())
}

func TestDraftToggleBackIsNotAChange(t *testing.T) {
	d := NewDraft(Config{BlockedWeekdays: []time.Weekday{time.Sunday, time.Saturday}})

	require.NoError(t, d.ToggleWeekday(time.Sunday))
	require.NoError(t, d.ToggleWeekday(time.Sunday))

	// order differs from the baseline, the set does not
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, d.Working.BlockedWeekdays)
	assert.False(t, d.HasChanges())
	assert.ErrorIs(t, d.ToggleWeekday(7), ErrInvalidWeekday)
}

func TestDraftAddDateAndRange(t *testing.T) {
	d := NewDraft(DefaultConfig())

	require.NoError(t, d.AddDate("2024-06-10T00:00:00.000Z"))
	require.NoError(t, d.AddDate("2024-06-10"))
	assert.Equal(t, []string{"2024-06-10"}, d.Working.BlockedDates)

	require.NoError(t, d.AddRange("2024-07-05", "2024-07-01"))
	require.NoError(t, d.AddRange("2024-07-01", "2024-07-05"))
	assert.Equal(t, []DateRange{{Start: "2024-07-01", End: "2024-07-05"}}, d.Working.BlockedRanges)

	assert.ErrorIs(t, d.AddDate("someday"), ErrInvalidDate)
	assert.ErrorIs(t, d.AddRange("2024-07-01", ""), ErrInvalidDate)
}

func TestDraftEditsDoNotLeakIntoBaseline(t *testing.T) {
	loaded := Config{BlockedDates: []string{"2024-01-01", "2024-01-02"}}
	d := NewDraft(loaded)

	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 0}))
	require.NoError(t, d.ConfirmDelete())

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, d.Baseline.BlockedDates)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, loaded.BlockedDates)
}

func TestDraftDiscard(t *testing.T) {
	d := NewDraft(Config{BlockedDates: []string{"2024-01-01"}})
	require.NoError(t, d.AddDate("2024-01-02"))
	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 0}))

	d.Discard()

	assert.False(t, d.HasChanges())
	_, pending := d.Confirmation.Pending()
	assert.False(t, pending)
}

func TestDraftSurvivesJSONRoundTrip(t *testing.T) {
	d := NewDraft(Config{BlockedDates: []string{"2024-01-01", "2024-01-02"}})
	require.NoError(t, d.RequestDelete(DeleteTarget{Kind: TargetDate, Index: 1}))

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var restored Draft
	require.NoError(t, json.Unmarshal(data, &restored))
	require.NoError(t, restored.ConfirmDelete())
	assert.Equal(t, []string{"2024-01-01"}, restored.Working.BlockedDates)
}

func TestConfirmationZeroValueIsIdle(t *testing.T) {
	var c Confirmation
	_, pending := c.Pending()
	assert.False(t, pending)

	_, err := c.Confirm()
	assert.ErrorIs(t, err, ErrNoPendingDelete)

	c.Cancel()
	assert.Equal(t, PhaseIdle, c.Phase)
}
