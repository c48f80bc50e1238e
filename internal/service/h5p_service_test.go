package service

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/internal/repository/postgres"
	"github.com/yourusername/school-quiz-api/pkg/database"
)

func buildH5P(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseH5PPackage_DetectsType(t *testing.T) {
	cases := []struct {
		library string
		want    string
	}{
		{"H5P.MultiChoice", entity.PuzzleTypeH5PMultiChoice},
		{"H5P.QuestionSet", entity.PuzzleTypeH5PQuestionSet},
		{"H5P.DragQuestion", entity.PuzzleTypeH5PDrag},
		{"H5P.InteractiveVideo", entity.PuzzleTypeH5PInteractive},
		{"", entity.PuzzleTypeH5PInteractive},
	}
	for _, tc := range cases {
		t.Run(tc.want+"/"+tc.library, func(t *testing.T) {
			pkg, err := parseH5PPackage(buildH5P(t, map[string]string{
				"h5p.json":             `{"title":"Тест","mainLibrary":"` + tc.library + `"}`,
				"content/content.json": `{"question":"?"}`,
			}))
			require.NoError(t, err)
			assert.Equal(t, tc.want, pkg.PuzzleType)
			assert.Equal(t, "Тест", pkg.Title)
			assert.JSONEq(t, `{"question":"?"}`, string(pkg.Content))
		})
	}
}

func TestParseH5PPackage_Title(t *testing.T) {
	pkg, err := parseH5PPackage(buildH5P(t, map[string]string{
		"h5p.json":             `{"title":"   "}`,
		"content/content.json": `{}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, defaultH5PTitle, pkg.Title)

	pkg, err = parseH5PPackage(buildH5P(t, map[string]string{
		"h5p.json":             `{"title":"` + strings.Repeat("я", 250) + `"}`,
		"content/content.json": `{}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, 200, len([]rune(pkg.Title)))
}

func TestParseH5PPackage_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"not a zip":           []byte("definitely not a zip"),
		"h5p.json missing":    buildH5P(t, map[string]string{"content/content.json": `{}`}),
		"content missing":     buildH5P(t, map[string]string{"h5p.json": `{}`}),
		"content not JSON":    buildH5P(t, map[string]string{"h5p.json": `{}`, "content/content.json": `{`}),
		"manifest not JSON":   buildH5P(t, map[string]string{"h5p.json": `nope`, "content/content.json": `{}`}),
		"manifest not object": buildH5P(t, map[string]string{"h5p.json": `[1,2]`, "content/content.json": `{}`}),
		"content too large": buildH5P(t, map[string]string{
			"h5p.json":             `{}`,
			"content/content.json": `"` + strings.Repeat("a", maxH5PManifestSize) + `"`,
		}),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseH5PPackage(data)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestH5PService_ImportLifecycle(t *testing.T) {
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "h5p.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	teacher := createUser(t, db, "teacher", entity.RoleTeacher)
	other := createUser(t, db, "other", entity.RoleTeacher)
	student := createUser(t, db, "student", entity.RoleStudent)
	room := &entity.Room{Name: "H5P", TeacherID: teacher.ID, TimeLimitMinutes: 30}
	require.NoError(t, db.Create(room).Error)

	puzzleRepo := postgres.NewPuzzleRepo(db)
	notifier := &recordingNotifier{}
	rooms := NewRoomService(postgres.NewRoomRepo(db), puzzleRepo, postgres.NewResultRepo(db), nil, NewOfflineRooms(), notifier, 0)
	svc := NewH5PService(rooms, puzzleRepo)
	svc.newID = func() string { return "7f1c2a2e-0000-4000-8000-000000000001" }

	data := buildH5P(t, map[string]string{
		"h5p.json":             `{"title":"Дроби","mainLibrary":"H5P.MultiChoice"}`,
		"content/content.json": `{"question":"1/2 + 1/2?","answers":[{"text":"1","correct":true},{"text":"2"}]}`,
	})

	_, err = svc.Import(student, room.ID, "fractions.h5p", data)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.Import(other, room.ID, "fractions.h5p", data)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.Import(teacher, room.ID, "fractions.zip", data)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.Import(teacher, 9999, "fractions.h5p", data)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, notifier.count())

	res, err := svc.Import(teacher, room.ID, "Fractions.H5P", data)
	require.NoError(t, err)
	assert.Equal(t, "7f1c2a2e-0000-4000-8000-000000000001", res.ContentID)
	assert.Equal(t, entity.PuzzleTypeH5PMultiChoice, res.PuzzleType)
	assert.Equal(t, 1, notifier.count())

	stored, err := puzzleRepo.GetByID(res.PuzzleID)
	require.NoError(t, err)
	require.NotNil(t, stored.H5PContentID)
	assert.Equal(t, res.ContentID, *stored.H5PContentID)
	assert.Equal(t, room.ID, stored.RoomID)
	assert.Equal(t, 0, stored.OrderIndex)

	content, err := svc.GetContent(teacher, res.ContentID)
	require.NoError(t, err)
	assert.Equal(t, res.PuzzleID, content.PuzzleID)
	assert.JSONEq(t, `{"title":"Дроби","mainLibrary":"H5P.MultiChoice"}`, string(content.Metadata))

	_, err = svc.GetContent(other, res.ContentID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.GetContent(student, res.ContentID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.GetContent(teacher, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	plain, err := rooms.CreatePuzzle(teacher, room.ID, PuzzleInput{
		Title:   strPtr("Обычное"),
		Content: []byte(`{"question":"?","options":["a","b"],"correct_index":0}`),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteContent(teacher, plain.ID), apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteContent(other, res.PuzzleID), apperrors.ErrForbidden)

	require.NoError(t, svc.DeleteContent(teacher, res.PuzzleID))
	_, err = svc.GetContent(teacher, res.ContentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = puzzleRepo.GetByID(plain.ID)
	assert.NoError(t, err)
}
