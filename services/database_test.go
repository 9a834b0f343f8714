package services

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/GregoryFarmer/orthant/errors"
	"github.com/stretchr/testify/require"
)

func Test_Handle_Is_Memoized(t *testing.T) {
	req := require.New(t)
	database := NewDatabase(t.TempDir(), "orthant", false, slog.Default())
	defer database.Close()

	req.False(database.Connected())

	first, err := database.Handle()
	req.NoError(err)
	req.True(database.Connected())

	second, err := database.Handle()
	req.NoError(err)
	req.Same(first, second)
}

func Test_Handle_Failure_Is_Retried_On_Next_Use(t *testing.T) {
	req := require.New(t)

	// A regular file in place of the data directory makes the open fail.
	path := filepath.Join(t.TempDir(), "blocked")
	req.NoError(os.WriteFile(path, []byte("x"), 0o600))

	database := NewDatabase(path, "orthant", false, slog.Default())
	_, err := database.Handle()
	req.ErrorIs(err, apperrors.ErrConnectionUnavailable)
	req.False(database.Connected())

	// Still unconnectable; the next use attempts again rather than
	// caching the failure.
	_, err = database.Handle()
	req.ErrorIs(err, apperrors.ErrConnectionUnavailable)
}

func Test_Close_Without_Connection(t *testing.T) {
	database := NewDatabase(t.TempDir(), "orthant", true, slog.Default())
	require.Equal(t, "orthant", database.Name())
	require.True(t, database.Production())
	require.NoError(t, database.Close())
}
