package usecase

import (
	"context"
	"testing"
	"testing/fstest"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"api-key-service/internal/domain"
	"api-key-service/internal/repository"
)

// setupMigrationTest はインメモリSQLiteと埋め込みFS相当のテストFSを用意する。
func setupMigrationTest(t *testing.T, sources fstest.MapFS) (*MigrationService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	repo := repository.NewMigrationRepository(db)
	return NewMigrationService(repo, db, sources), db
}

func testSources() fstest.MapFS {
	return fstest.MapFS{
		"001_create_widgets.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);"),
		},
		"002_create_gadgets.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE gadgets (id TEXT PRIMARY KEY);"),
		},
	}
}

func TestMigrationService_ApplyMigrations(t *testing.T) {
	ctx := context.Background()
	svc, db := setupMigrationTest(t, testSources())

	applied, err := svc.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 applied migrations, got %d", applied)
	}

	// テーブルが作成されたことを確認
	for _, table := range []string{"widgets", "gadgets"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// 履歴が記録されたことを確認
	var records []repository.SchemaMigrationModel
	if err := db.Order("version ASC").Find(&records).Error; err != nil {
		t.Fatalf("failed to fetch history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(records))
	}
	// applied_atはNOT NULL制約があるため必ず記録される
	for _, record := range records {
		if record.AppliedAt.IsZero() {
			t.Errorf("version %s: expected applied_at to be set", record.Version)
		}
	}
}

func TestMigrationService_ApplyMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupMigrationTest(t, testSources())

	if _, err := svc.ApplyMigrations(ctx); err != nil {
		t.Fatalf("first ApplyMigrations failed: %v", err)
	}

	// 2回目は適用対象なし
	applied, err := svc.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected 0 applied migrations, got %d", applied)
	}
}

func TestMigrationService_ApplyMigrations_InvalidSQL(t *testing.T) {
	ctx := context.Background()
	sources := fstest.MapFS{
		"001_broken.sql": &fstest.MapFile{Data: []byte("NOT VALID SQL")},
	}
	svc, db := setupMigrationTest(t, sources)

	if _, err := svc.ApplyMigrations(ctx); err == nil {
		t.Fatal("expected error for invalid SQL, got nil")
	}

	// 失敗したマイグレーションは履歴に記録されない
	var count int64
	if err := db.Table("schema_migrations").Count(&count).Error; err != nil {
		t.Fatalf("failed to count history: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 history records, got %d", count)
	}
}

func TestMigrationService_ApplyMigrations_InvalidFileName(t *testing.T) {
	ctx := context.Background()
	sources := fstest.MapFS{
		"badname.sql": &fstest.MapFile{Data: []byte("CREATE TABLE x (id TEXT);")},
	}
	svc, _ := setupMigrationTest(t, sources)

	if _, err := svc.ApplyMigrations(ctx); err == nil {
		t.Fatal("expected error for invalid file name, got nil")
	}
}

func TestMigrationService_GetMigrationStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupMigrationTest(t, testSources())

	// 適用前は全てpending
	status, err := svc.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if len(status) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(status))
	}
	for _, m := range status {
		if m.Status != domain.MigrationStatusPending {
			t.Errorf("version %s: expected pending, got %s", m.Version, m.Status)
		}
	}

	if _, err := svc.ApplyMigrations(ctx); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}

	// 適用後は全てapplied
	status, err = svc.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	for _, m := range status {
		if m.Status != domain.MigrationStatusApplied {
			t.Errorf("version %s: expected applied, got %s", m.Version, m.Status)
		}
		if m.AppliedAt == nil {
			t.Errorf("version %s: expected applied_at to be set", m.Version)
		}
	}

	// バージョン順に並ぶことを確認
	if status[0].Version != "001" || status[1].Version != "002" {
		t.Errorf("expected versions in order, got %s, %s", status[0].Version, status[1].Version)
	}
}
