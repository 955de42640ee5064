package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowTracker_RefreshHonorsTTL(t *testing.T) {
	windows := []model.Window{{Handle: 1}, {Handle: 2}}
	var (
		lists       int
		invalidated []platform.Handle
	)
	tr := newWindowTracker(time.Second,
		func(context.Context) ([]model.Window, error) {
			lists++
			return windows, nil
		},
		func(h platform.Handle) { invalidated = append(invalidated, h) },
	)
	now := time.Unix(100, 0)
	tr.now = func() time.Time { return now }

	require.NoError(t, tr.Refresh(context.Background()))
	require.NoError(t, tr.Refresh(context.Background()))
	assert.Equal(t, 1, lists)

	windows = windows[:1]
	now = now.Add(2 * time.Second)
	require.NoError(t, tr.Refresh(context.Background()))
	assert.Equal(t, 2, lists)
	assert.Equal(t, []platform.Handle{2}, invalidated)
}

func TestWindowTracker_ListError(t *testing.T) {
	tr := newWindowTracker(0,
		func(context.Context) ([]model.Window, error) { return nil, errors.New("EnumWindows failed") },
		func(platform.Handle) { t.Fatal("nothing should be invalidated") },
	)
	assert.ErrorContains(t, tr.Refresh(context.Background()), "EnumWindows failed")
}
