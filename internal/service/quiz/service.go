package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"
)

// Service: 주제/문항 조회와 객관식 제출 채점을 담당한다.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewService: 퀴즈 서비스를 생성하고 topics/questions 테이블을 준비합니다.
func NewService(ctx context.Context, db *gorm.DB, logger *slog.Logger) (*Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := db.WithContext(ctx).AutoMigrate(&Topic{}, &questionModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate quiz tables: %w", err)
	}
	return &Service{db: db, logger: logger}, nil
}

// GetTopics: 전체 주제 목록을 반환합니다.
func (s *Service) GetTopics(ctx context.Context) ([]Topic, error) {
	topics := make([]Topic, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch topics: %w", err)
	}
	return topics, nil
}

// GetQuestionsByTopic: 주제에 속한 문항을 정답 번호와 함께 반환합니다.
func (s *Service) GetQuestionsByTopic(ctx context.Context, topicID uint) ([]Question, error) {
	var models []questionModel
	err := s.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}

	questions := make([]Question, 0, len(models))
	for _, m := range models {
		questions = append(questions, Question{
			ID:            m.ID,
			Question:      m.Question,
			Option1:       m.Option1,
			Option2:       m.Option2,
			Option3:       m.Option3,
			Option4:       m.Option4,
			CorrectAnswer: m.CorrectOption,
		})
	}
	return questions, nil
}

// SubmitAnswers: 문항 ID → 선택지 번호 맵을 채점합니다.
// 존재하지 않는 문항 ID는 무시한다.
func (s *Service) SubmitAnswers(ctx context.Context, answers map[uint]int) (*SubmitResult, error) {
	result := &SubmitResult{Correct: make([]uint, 0), Wrong: make([]uint, 0)}
	if len(answers) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}

	var models []questionModel
	err := s.db.WithContext(ctx).
		Select("id, correct_option").
		Where("id IN ?", ids).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch answer key: %w", err)
	}

	for _, m := range models {
		if answers[m.ID] == m.CorrectOption {
			result.Correct = append(result.Correct, m.ID)
		} else {
			result.Wrong = append(result.Wrong, m.ID)
		}
	}
	sort.Slice(result.Correct, func(i, j int) bool { return result.Correct[i] < result.Correct[j] })
	sort.Slice(result.Wrong, func(i, j int) bool { return result.Wrong[i] < result.Wrong[j] })
	return result, nil
}
