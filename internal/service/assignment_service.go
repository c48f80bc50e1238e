package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// AssignResult - итог закрепления ученика за комнатой
type AssignResult struct {
	RoomID    uint `json:"room_id"`
	StudentID uint `json:"student_id"`
	// Created == false, если ученик уже был закреплен
	Created bool `json:"created"`
}

// AssignmentService ведет список учеников комнаты и проверяет доступ к живому прогрессу комнаты.
// Назначение не влияет на видимость: ученики по-прежнему видят все активные комнаты.
type AssignmentService struct {
	rooms          *RoomService
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	now            func() time.Time
}

// NewAssignmentService создает сервис назначений
func NewAssignmentService(rooms *RoomService, userRepo repository.UserRepository, assignmentRepo repository.AssignmentRepository) *AssignmentService {
	return &AssignmentService{
		rooms:          rooms,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		now:            time.Now,
	}
}

// AssignStudent закрепляет ученика за комнатой. Повторный вызов возвращает Created == false.
func (s *AssignmentService) AssignStudent(user *entity.User, roomID, studentID uint) (*AssignResult, error) {
	if _, err := s.rooms.GetManagedRoom(user, roomID); err != nil {
		return nil, err
	}
	student, err := s.userRepo.GetByID(studentID)
	if err != nil {
		return nil, transient("get student", err)
	}
	if student.Role != entity.RoleStudent {
		return nil, fmt.Errorf("%w: user %d is not a student", apperrors.ErrNotFound, studentID)
	}

	created, err := s.assignmentRepo.Assign(roomID, studentID, s.now())
	if err != nil {
		return nil, transient("assign student", err)
	}
	if created {
		log.Printf("[AssignmentService] Ученик %d закреплен за комнатой %d пользователем %d", studentID, roomID, user.ID)
	}
	return &AssignResult{RoomID: roomID, StudentID: studentID, Created: created}, nil
}

// ListAssigned возвращает учеников, закрепленных за комнатой
func (s *AssignmentService) ListAssigned(user *entity.User, roomID uint) ([]entity.AssignedStudent, error) {
	if _, err := s.rooms.GetManagedRoom(user, roomID); err != nil {
		return nil, err
	}
	students, err := s.assignmentRepo.ListByRoom(roomID)
	if err != nil {
		return nil, transient("list assignments", err)
	}
	if students == nil {
		students = []entity.AssignedStudent{}
	}
	return students, nil
}

// AuthorizeRoomWatch разрешает подписку на прогресс комнаты ее владельцу и администратору
func (s *AssignmentService) AuthorizeRoomWatch(userID, roomID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: user %d no longer exists", apperrors.ErrUnauthorized, userID)
		}
		return transient("get user", err)
	}
	_, err = s.rooms.GetManagedRoom(user, roomID)
	return err
}
