package database

import (
	"testing"
	"testing/fstest"
)

func TestListMigrationFilesAndCount(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000002_index.up.sql":   {Data: []byte("CREATE INDEX x ON t(a);")},
		"migrations/000001_init.up.sql":    {Data: []byte("CREATE TABLE t(a int);")},
		"migrations/000001_init.down.sql":  {Data: []byte("DROP TABLE t;")},
		"migrations/nested/ignored.up.sql": {Data: []byte("")},
	}

	files := listMigrationFiles(fsys, "migrations")
	if len(files) != 2 || files[0] != "000001_init.up.sql" || files[1] != "000002_index.up.sql" {
		t.Fatalf("unexpected files: %v", files)
	}
	if got := countApplied(files, 0, 2); got != 2 {
		t.Fatalf("countApplied(0,2) = %d, want 2", got)
	}
	if got := countApplied(files, 1, 2); got != 1 {
		t.Fatalf("countApplied(1,2) = %d, want 1", got)
	}
	if got := countApplied(files, 2, 2); got != 0 {
		t.Fatalf("countApplied(2,2) = %d, want 0", got)
	}
	if got := listMigrationFiles(fsys, "absent"); got != nil {
		t.Fatalf("expected nil for missing dir, got %v", got)
	}
}
