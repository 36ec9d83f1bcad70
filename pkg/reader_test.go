package rootable

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventStream = `
{"event": 0, "digits": {"sensor_id": [8480], "u_cell_id": [1], "v_cell_id": [2], "charge": [30]}}
{"event": 1, "digits": {"sensor_id": [8480, 8512], "u_cell_id": [1, 4], "v_cell_id": [2, 5], "charge": [30, 12]},
 "relation": {"from": [1], "to": [0]},
 "particles": {"pdg": [211], "momentum_x": [0.1], "momentum_y": [0.2], "momentum_z": [0.3]}}
{"event": 2, "digits": {"sensor_id": [], "u_cell_id": [], "v_cell_id": [], "charge": []},
 "unselected_digits": {"sensor_id": [9024], "u_cell_id": [7], "v_cell_id": [8], "charge": [3]}}
`

func TestEventReader(t *testing.T) {
	t.Parallel()

	r := NewEventReader(strings.NewReader(eventStream), 0, 100)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, first.Number)
	assert.Equal(t, []SensorID{8480}, first.Digits.SensorID)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Number)
	assert.Equal(t, []int32{30, 12}, second.Digits.Charge)
	assert.Equal(t, TruthRelation{From: []int{1}, To: []int{0}}, second.Relation)
	assert.Equal(t, []int32{211}, second.Particles.PDG)
	assert.Equal(t, []float64{0.3}, second.Particles.MomentumZ)

	third, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, third.Digits.Len())
	assert.Equal(t, 1, third.UnselectedDigits.Len())

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, r.EvtCount)
}

func TestEventReaderSkipAndMax(t *testing.T) {
	t.Parallel()

	r := NewEventReader(strings.NewReader(eventStream), 1, 1)
	event, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, event.Number)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEventReaderBadInput(t *testing.T) {
	t.Parallel()

	r := NewEventReader(strings.NewReader(`{"event": 0} {"event": `), 0, 10)
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestEventReaderSend(t *testing.T) {
	t.Parallel()

	r := NewEventReader(strings.NewReader(eventStream), 0, 100)
	events := make(chan EventType, 10)
	require.NoError(t, r.Send(context.Background(), events))

	numbers := make([]int, 0)
	for event := range events {
		numbers = append(numbers, event.Number)
	}
	assert.Equal(t, []int{0, 1, 2}, numbers)
}

func TestEventReaderFeedsPipeline(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, func(c *Configuration) { c.IncludeUnselected = true })
	r := NewEventReader(strings.NewReader(eventStream), 0, 100)
	events := make(chan EventType)
	go r.Send(context.Background(), events)

	results := collect(ProcessEvents(context.Background(), p, events, 2))
	require.Len(t, results, 3)
	for _, res := range results {
		require.NoError(t, res.Err)
	}
	assert.Len(t, results[0].Rows, 1)
	require.Len(t, results[1].Rows, 2)
	// event 1 links its second cluster (sensor 8512) to the pion
	assert.Equal(t, NoTruth, results[1].Rows[0].ClsNumber)
	assert.Equal(t, int32(211), results[1].Rows[1].PDG)
	require.Len(t, results[2].Rows, 1)
	assert.False(t, results[2].Rows[0].ROISelected)
}
