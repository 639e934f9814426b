package model

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsTrained())

	err := s.RequireTrained("KPLS")
	var nt *errors.NotTrainedError
	require.True(t, errors.As(err, &nt))
	assert.Equal(t, "KPLS", nt.ModelName)

	s.SetDimensions(2, 1, 20)
	s.SetTrained()
	assert.NoError(t, s.RequireTrained("KPLS"))
	nx, ny, n := s.GetDimensions()
	assert.Equal(t, []int{2, 1, 20}, []int{nx, ny, n})

	st := s.GetState()
	assert.Equal(t, ModelState{Trained: true, NX: 2, NY: 1, NT: 20}, st)

	s.Reset()
	assert.False(t, s.IsTrained())
	s.SetState(st)
	assert.True(t, s.IsTrained())
}

func TestStateManager_Concurrent(t *testing.T) {
	s := NewStateManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.SetDimensions(i, 1, i)
			s.SetTrained()
		}(i)
		go func() {
			defer wg.Done()
			_ = s.IsTrained()
			_, _, _ = s.GetDimensions()
		}()
	}
	wg.Wait()
	assert.True(t, s.IsTrained())
}

func TestSummary(t *testing.T) {
	s := &Summary{
		Model:   "RMTS",
		Version: SummaryVersion,
		Trained: true,
		NX:      2,
		NY:      1,
		Points:  map[string]int{"exact": 10, "0": 5},
		Options: map[string]interface{}{"num_elem": 4},
	}
	require.NoError(t, s.Validate())
	assert.Equal(t, 15, s.TotalPoints())

	data, err := s.ToJSON()
	require.NoError(t, err)

	var back Summary
	require.NoError(t, back.FromJSON(data))
	assert.Equal(t, "RMTS", back.Model)
	assert.Equal(t, 10, back.Points["exact"])
	assert.Equal(t, 4.0, back.Options["num_elem"])

	c := s.Clone()
	c.Points["exact"] = 1
	assert.Equal(t, 10, s.Points["exact"])

	assert.Error(t, (&Summary{Version: SummaryVersion}).Validate())
	assert.Error(t, (&Summary{Model: "LS"}).Validate())
	assert.Error(t, (&Summary{Model: "LS", Version: SummaryVersion, Trained: true, NX: 1, NY: 1}).Validate())
	assert.NoError(t, (&Summary{Model: "LS", Version: SummaryVersion}).Validate())
	assert.Error(t, back.FromJSON([]byte("{")))
}

func TestSummaryPersistence(t *testing.T) {
	s := &Summary{
		Model:   "RMTB",
		Version: SummaryVersion,
		Trained: true,
		NX:      3,
		NY:      1,
		Points:  map[string]int{"exact": 500},
		Options: map[string]interface{}{"order": 4},
	}
	path := filepath.Join(t.TempDir(), "rmtb.json")
	require.NoError(t, SaveSummary(s, path))

	got, err := LoadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, "RMTB", got.Model)
	assert.Equal(t, 500, got.TotalPoints())
	assert.Equal(t, 4.0, got.Options["order"])

	var buf bytes.Buffer
	assert.Error(t, SaveSummaryToWriter(&Summary{Version: SummaryVersion}, &buf))
	assert.Zero(t, buf.Len())

	_, err = LoadSummaryFromReader(bytes.NewBufferString(`{"model": "LS"}`))
	assert.Error(t, err)
	_, err = LoadSummary(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
