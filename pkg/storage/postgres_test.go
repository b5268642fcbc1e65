package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/deenmate/sync-core/pkg/types"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgres(sqlx.NewDb(db, "postgres"), 2), mock
}

func TestUpsertQuranChapterSucceeds(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO quran_chapters").
		WithArgs(1, "Al-Fatihah", "الفاتحة", "The Opening", "Meccan", 7).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := p.UpsertQuranChapter(context.Background(), &types.QuranChapter{
		Number: 1, Name: "Al-Fatihah", NameArabic: "الفاتحة", NameEnglish: "The Opening",
		RevelationType: "Meccan", VerseCount: 7,
	})
	if err != nil {
		t.Fatalf("UpsertQuranChapter() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBulkUpsertQuranVersesChunks(t *testing.T) {
	p, mock := newMockStore(t)
	// chunkSize=2, 3 verses => 2 batches of sizes 2 and 1, each verse
	// executed as its own statement inside the batch.
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO quran_verses").WillReturnResult(sqlmock.NewResult(1, 1))
	}

	verses := []*types.QuranVerse{
		{ChapterNumber: 1, VerseNumber: 1, TextArabic: "a"},
		{ChapterNumber: 1, VerseNumber: 2, TextArabic: "b"},
		{ChapterNumber: 1, VerseNumber: 3, TextArabic: "c"},
	}
	n, err := p.BulkUpsertQuranVerses(context.Background(), verses)
	if err != nil {
		t.Fatalf("BulkUpsertQuranVerses() error: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateAdminUserConflictMapsToConflictError(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO admin_users").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := p.CreateAdminUser(context.Background(), &types.AdminUser{
		ID: "u1", Email: "dup@example.com", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestUpdateRateLimitRuleNotFound(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectExec("UPDATE rate_limit_rules").WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.UpdateRateLimitRule(context.Background(), &types.RateLimitRule{ID: "missing"})
	if err == nil {
		t.Fatal("expected not-found error when no rows affected")
	}
}

func TestSaveProviderCredentialSucceeds(t *testing.T) {
	p, mock := newMockStore(t)
	now := time.Now()
	mock.ExpectExec("INSERT INTO provider_credentials").
		WithArgs("hadith", "ciphertext-base64", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := p.SaveProviderCredential(context.Background(), &types.ProviderCredential{
		Provider: "hadith", EncryptedKey: "ciphertext-base64", UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("SaveProviderCredential() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
