package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/clock"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

var silent = zerolog.New(nil).Level(zerolog.Disabled)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Object
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Object{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func TestCreateAndUpload(t *testing.T) {
	db := testingpkg.NewTestDB(t, "fintrack")
	_, err := db.Conn().Exec(`INSERT INTO expenses (description, amount, date, category, payment_method)
		VALUES ('Rent', '3000', '2026-10-01', 'Rent', 'Bank')`)
	require.NoError(t, err)

	store := newMemoryStore()
	clk := clock.NewFake(time.Date(2026, time.October, 18, 3, 0, 0, 0, time.UTC))
	svc := NewBackupService(db, store, clk, t.TempDir(), silent)

	info, err := svc.CreateAndUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fintrack-backup-2026-10-18-030000.tar.gz", info.Filename)

	archive, ok := store.objects[info.Filename]
	require.True(t, ok)
	assert.EqualValues(t, len(archive), info.SizeBytes)

	gz, err := gzip.NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := map[string][]byte{}
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[h.Name] = b
	}
	require.Contains(t, files, "fintrack.db")
	require.Contains(t, files, "backup-metadata.json")

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &meta))
	require.Len(t, meta.Databases, 1)
	assert.Equal(t, "fintrack", meta.Databases[0].Name)
	assert.EqualValues(t, len(files["fintrack.db"]), meta.Databases[0].SizeBytes)
	assert.True(t, strings.HasPrefix(meta.Databases[0].Checksum, "sha256:"))
}

func TestRotateKeepsNewestThree(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2026, time.October, 18, 3, 0, 0, 0, time.UTC)
	svc := NewBackupService(nil, store, clock.NewFake(now), t.TempDir(), silent)

	for _, daysAgo := range []int{1, 40, 50, 60, 70} {
		key := archivePrefix + now.AddDate(0, 0, -daysAgo).Format(archiveStamp) + archiveSuffix
		store.objects[key] = []byte("x")
	}
	store.objects["fintrack-backup-garbage.tar.gz"] = []byte("x")

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.EqualValues(t, 24, list[0].AgeHours)

	deleted, err := svc.Rotate(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	sort.Strings(store.deleted)
	assert.Equal(t, []string{
		"fintrack-backup-2026-08-09-030000.tar.gz",
		"fintrack-backup-2026-08-19-030000.tar.gz",
	}, store.deleted)

	deleted, err = svc.Rotate(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
