package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/pkg/scoring"
)

// SessionService управляет жизненным циклом игровых сессий:
// старт, отправка ответов, прогресс и завершение.
type SessionService struct {
	db          *gorm.DB
	roomRepo    repository.RoomRepository
	puzzleRepo  repository.PuzzleRepository
	sessionRepo repository.SessionRepository
	resultRepo  repository.ResultRepository
	offline     *OfflineRooms
	events      SessionEventPublisher
	progress    ProgressNotifier
	evaluator   *scoring.Registry
	grace       time.Duration
	now         func() time.Time
}

// NewSessionService создает новый сервис сессий
func NewSessionService(
	db *gorm.DB,
	roomRepo repository.RoomRepository,
	puzzleRepo repository.PuzzleRepository,
	sessionRepo repository.SessionRepository,
	resultRepo repository.ResultRepository,
	offline *OfflineRooms,
	events SessionEventPublisher,
	progress ProgressNotifier,
	grace time.Duration,
) *SessionService {
	if offline == nil {
		offline = NewOfflineRooms()
	}
	if events == nil {
		events = NoOpSessionPublisher{}
	}
	if progress == nil {
		progress = NoOpProgressNotifier{}
	}
	return &SessionService{
		db:          db,
		roomRepo:    roomRepo,
		puzzleRepo:  puzzleRepo,
		sessionRepo: sessionRepo,
		resultRepo:  resultRepo,
		offline:     offline,
		events:      events,
		progress:    progress,
		evaluator:   scoring.DefaultRegistry(),
		grace:       grace,
		now:         time.Now,
	}
}

// StartSession возвращает незавершенную сессию пользователя в комнате или создает новую.
// Комнаты из БД имеют приоритет над файловыми комнатами с тем же ID.
func (s *SessionService) StartSession(ctx context.Context, roomID uint, user *entity.User) (*StartResult, error) {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) && s.offline.Has(roomID) {
			session, offErr := s.offline.Start(roomID, user.ID)
			if offErr != nil {
				return nil, offErr
			}
			return &StartResult{Session: session, Mode: entity.SessionModeOffline}, nil
		}
		return nil, transient("get room", err)
	}
	if !room.VisibleTo(user) {
		return nil, fmt.Errorf("%w: room %d is not available", apperrors.ErrForbidden, roomID)
	}

	var session *entity.Session
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, findErr := s.sessionRepo.FindInProgress(tx, roomID, user.ID)
		if findErr == nil {
			session = existing
			return nil
		}
		if !errors.Is(findErr, apperrors.ErrNotFound) {
			return findErr
		}

		created := &entity.Session{
			RoomID:     roomID,
			StudentID:  user.ID,
			StartedAt:  s.now(),
			TotalScore: 0,
			Status:     entity.SessionStatusInProgress,
		}
		if createErr := s.sessionRepo.Create(tx, created); createErr != nil {
			return createErr
		}
		session = created
		return nil
	})

	if errors.Is(err, apperrors.ErrConflict) {
		// Параллельный старт успел создать сессию: уникальный индекс отклонил вставку
		existing, findErr := s.sessionRepo.FindInProgress(nil, roomID, user.ID)
		if findErr != nil {
			return nil, transient("reload session", findErr)
		}
		session, err = existing, nil
	}
	if err != nil {
		return nil, transient("start session", err)
	}

	log.Printf("[SessionService] Сессия %d: room=%d student=%d", session.ID, roomID, user.ID)
	return &StartResult{Session: session, Mode: entity.SessionModeCatalog}, nil
}

// ownedSession загружает сессию пользователя. Чужая сессия неотличима от отсутствующей.
func (s *SessionService) ownedSession(sessionID, userID uint) (*entity.Session, error) {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, transient("get session", err)
	}
	if session.StudentID != userID {
		return nil, fmt.Errorf("%w: session %d", apperrors.ErrNotFound, sessionID)
	}
	return session, nil
}

// GetSessionPuzzles возвращает задания комнаты сессии в порядке (order_index, id)
func (s *SessionService) GetSessionPuzzles(ctx context.Context, sessionID, userID uint) ([]SessionPuzzle, error) {
	if entity.IsOfflineSessionID(sessionID) {
		return s.offline.Puzzles(sessionID, userID)
	}
	session, err := s.ownedSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	puzzles, err := s.puzzleRepo.ListByRoom(session.RoomID)
	if err != nil {
		return nil, transient("list puzzles", err)
	}
	out := make([]SessionPuzzle, 0, len(puzzles))
	for _, p := range puzzles {
		out = append(out, toSessionPuzzle(p))
	}
	return out, nil
}

// SubmitAnswer оценивает ответ и атомарно сохраняет результат вместе с приростом счета.
// Повторный ответ на то же задание возвращает DuplicateAnswerError с исходным результатом.
func (s *SessionService) SubmitAnswer(ctx context.Context, userID uint, in SubmitInput) (*SubmitResult, error) {
	answer, err := scoring.ParseAnswer(in.Answer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if in.TimeTakenSeconds < 0 {
		return nil, fmt.Errorf("%w: time_taken_seconds must not be negative", apperrors.ErrValidation)
	}

	if entity.IsOfflineSessionID(in.SessionID) {
		return s.offline.Submit(userID, in, answer, s.evaluator)
	}

	// Задание читается до транзакции: внутри нее допустимы только запросы через tx
	puzzle, puzzleErr := s.puzzleRepo.GetByID(in.PuzzleID)
	if puzzleErr != nil && !errors.Is(puzzleErr, apperrors.ErrNotFound) {
		return nil, transient("get puzzle", puzzleErr)
	}

	var (
		result *SubmitResult
		scored *entity.Session
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, lockErr := s.sessionRepo.LockByID(tx, in.SessionID)
		if lockErr != nil {
			return lockErr
		}
		if session.StudentID != userID {
			return fmt.Errorf("%w: session %d", apperrors.ErrNotFound, in.SessionID)
		}
		if !session.IsInProgress() {
			return fmt.Errorf("%w: session %d is %s", apperrors.ErrConflict, session.ID, session.Status)
		}
		if puzzle == nil || puzzle.RoomID != session.RoomID {
			return fmt.Errorf("%w: puzzle %d", apperrors.ErrNotFound, in.PuzzleID)
		}

		prev, findErr := s.resultRepo.FindBySessionAndPuzzle(tx, session.ID, puzzle.ID)
		if findErr == nil {
			return &DuplicateAnswerError{Result: SubmitResult{
				IsCorrect:    prev.IsCorrect,
				PointsEarned: prev.PointsEarned,
				TotalScore:   session.TotalScore,
			}}
		}
		if !errors.Is(findErr, apperrors.ErrNotFound) {
			return findErr
		}

		outcome := s.evaluator.Evaluate(puzzle.PuzzleType, puzzle.Points, puzzle.Content, answer)
		record := &entity.Result{
			SessionID:        session.ID,
			PuzzleID:         puzzle.ID,
			Answer:           in.Answer,
			IsCorrect:        outcome.IsCorrect,
			PointsEarned:     outcome.PointsEarned,
			TimeTakenSeconds: in.TimeTakenSeconds,
			AnsweredAt:       s.now(),
		}
		if createErr := s.resultRepo.Create(tx, record); createErr != nil {
			if errors.Is(createErr, apperrors.ErrConflict) {
				return ErrAnswerAlreadySubmitted
			}
			return createErr
		}
		if outcome.PointsEarned > 0 {
			if scoreErr := s.sessionRepo.AddScore(tx, session.ID, outcome.PointsEarned); scoreErr != nil {
				return scoreErr
			}
		}

		session.TotalScore += outcome.PointsEarned
		scored = session
		result = &SubmitResult{
			IsCorrect:    outcome.IsCorrect,
			PointsEarned: outcome.PointsEarned,
			TotalScore:   session.TotalScore,
		}
		return nil
	})
	if err != nil {
		if _, ok := AsDuplicateAnswer(err); ok {
			return nil, err
		}
		return nil, transient("submit answer", err)
	}
	s.notifyProgress(scored)
	return result, nil
}

// GetProgress пересчитывает прогресс сессии из хранилища
func (s *SessionService) GetProgress(ctx context.Context, sessionID, userID uint) (*entity.SessionProgress, error) {
	if entity.IsOfflineSessionID(sessionID) {
		return s.offline.Progress(sessionID, userID)
	}
	session, err := s.ownedSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.progressOf(session)
}

func (s *SessionService) progressOf(session *entity.Session) (*entity.SessionProgress, error) {
	completed, err := s.resultRepo.CountBySession(session.ID)
	if err != nil {
		return nil, transient("count results", err)
	}
	total, err := s.puzzleRepo.CountByRoom(session.RoomID)
	if err != nil {
		return nil, transient("count puzzles", err)
	}
	return &entity.SessionProgress{
		SessionID:      session.ID,
		CompletedCount: completed,
		TotalCount:     total,
		Score:          session.TotalScore,
		Status:         session.Status,
	}, nil
}

// notifyProgress рассылает прогресс после фиксации транзакции. Ошибка подсчета только логируется.
func (s *SessionService) notifyProgress(session *entity.Session) {
	progress, err := s.progressOf(session)
	if err != nil {
		log.Printf("[SessionService] Прогресс сессии %d не разослан: %v", session.ID, err)
		return
	}
	s.progress.NotifyProgress(entity.ProgressUpdate{
		RoomID:          session.RoomID,
		StudentID:       session.StudentID,
		SessionProgress: *progress,
	})
}

// CompleteSession завершает сессию. Повторное завершение возвращает сохраненный итог без изменений.
func (s *SessionService) CompleteSession(ctx context.Context, sessionID, userID uint) (*CompleteResult, error) {
	if entity.IsOfflineSessionID(sessionID) {
		session, changed, err := s.offline.Complete(sessionID, userID)
		if err != nil {
			return nil, err
		}
		if changed {
			s.publishCompleted(ctx, session, entity.SessionModeOffline)
		}
		return toCompleteResult(session), nil
	}

	var (
		session *entity.Session
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, lockErr := s.sessionRepo.LockByID(tx, sessionID)
		if lockErr != nil {
			return lockErr
		}
		if locked.StudentID != userID {
			return fmt.Errorf("%w: session %d", apperrors.ErrNotFound, sessionID)
		}
		switch locked.Status {
		case entity.SessionStatusCompleted:
			session = locked
			return nil
		case entity.SessionStatusAbandoned:
			return fmt.Errorf("%w: session %d is abandoned", apperrors.ErrConflict, sessionID)
		}

		completedAt := s.now()
		if markErr := s.sessionRepo.MarkCompleted(tx, sessionID, completedAt); markErr != nil {
			return markErr
		}
		locked.Status = entity.SessionStatusCompleted
		locked.CompletedAt = &completedAt
		session = locked
		changed = true
		return nil
	})
	if err != nil {
		return nil, transient("complete session", err)
	}

	if changed {
		log.Printf("[SessionService] Сессия %d завершена, счет %d", session.ID, session.TotalScore)
		s.publishCompleted(ctx, session, entity.SessionModeCatalog)
		s.notifyProgress(session)
	}
	return toCompleteResult(session), nil
}

func (s *SessionService) publishCompleted(ctx context.Context, session *entity.Session, mode string) {
	event := SessionCompletedEvent{
		SessionID:  session.ID,
		RoomID:     session.RoomID,
		StudentID:  session.StudentID,
		TotalScore: session.TotalScore,
		Mode:       mode,
	}
	if session.CompletedAt != nil {
		event.CompletedAt = *session.CompletedAt
	}
	if err := s.events.PublishSessionCompleted(ctx, event); err != nil {
		log.Printf("[SessionService] Событие завершения сессии %d не опубликовано: %v", session.ID, err)
	}
}

// AbandonExpired переводит в abandoned сессии, превысившие лимит времени комнаты
func (s *SessionService) AbandonExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.sessionRepo.AbandonExpired(now, s.grace)
	if err != nil {
		return 0, transient("abandon expired", err)
	}
	return count + s.offline.AbandonExpired(now, s.grace), nil
}

// RunSweeper периодически вызывает AbandonExpired до отмены ctx
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if n, err := s.AbandonExpired(ctx, t); err != nil {
				log.Printf("[SessionService] Ошибка очистки просроченных сессий: %v", err)
			} else if n > 0 {
				log.Printf("[SessionService] Просроченных сессий помечено abandoned: %d", n)
			}
		}
	}
}
