package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	boltInfra "github.com/fastygo/taskflow/internal/infrastructure/bolt"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/repotest"
)

func openDB(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "data", "taskflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, boltInfra.Ping(db))
	return db
}

func TestTaskRepository(t *testing.T) {
	repotest.TaskRepository(t, func(t *testing.T) repository.TaskRepository {
		return NewTaskRepository(openDB(t))
	})
}

func TestUserRepository(t *testing.T) {
	repotest.UserRepository(t, func(t *testing.T) repository.UserRepository {
		return NewUserRepository(openDB(t))
	})
}
