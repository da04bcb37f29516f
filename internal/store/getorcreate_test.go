package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateVendorIdempotent(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	v1, created1, err := f.GetOrCreateVendor(ctx, "Dell")
	require.NoError(t, err)
	require.True(t, created1)

	v2, created2, err := f.GetOrCreateVendor(ctx, "Dell")
	require.NoError(t, err)
	require.False(t, created2)
	require.Equal(t, v1.ID, v2.ID)
}

func TestGetOrCreateDeviceIdempotent(t *testing.T) {
	f := NewFake()
	ctx := context.Background()
	v, _, err := f.GetOrCreateVendor(ctx, "Intel Corp.")
	require.NoError(t, err)

	d1, created1, err := f.GetOrCreateDevice(ctx, v.ID, "i5-7300U", "v1", "", "", "PROCESSOR")
	require.NoError(t, err)
	require.True(t, created1)

	d2, created2, err := f.GetOrCreateDevice(ctx, v.ID, "i5-7300U", "v1", "", "", "PROCESSOR")
	require.NoError(t, err)
	require.False(t, created2)
	require.Equal(t, d1.ID, d2.ID)
}
