package game

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kapu/sql-detective-go/internal/constants"
	"github.com/kapu/sql-detective-go/internal/util"
)

const (
	instructionCasePage = "Write a SQL query to find the person_id of this crime scene report."
	instructionCase     = "Write a SQL query to find the person_ids involved in this crime."

	msgInvalidInput  = "Invalid input. Please enter valid person IDs."
	msgCorrectSolved = "Correct answer! You found all persons involved. You earned 10 points."
	msgAlreadySolved = "Correct answer! You have already solved this case previously."
	msgIncorrect     = "Incorrect answer. Try again!"
)

// Service: 레벨별 사건 조회와 정답 판정, 진행도/점수/스트릭 갱신을 담당한다.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

// CasePage: 페이지당 1건씩 내려주는 사건 문제 응답
type CasePage struct {
	Case         Case
	Pagination   Pagination
	Instructions string
}

// NewService: 게임 서비스를 생성하고 레벨별 사건/정답 테이블과 user_progress를 준비합니다.
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

	for level := constants.GameConfig.MinLevel; level <= constants.GameConfig.MaxLevel; level++ {
		if err := db.WithContext(ctx).Table(caseTable(level)).AutoMigrate(&Case{}); err != nil {
			return nil, fmt.Errorf("failed to migrate %s: %w", caseTable(level), err)
		}
		if err := db.WithContext(ctx).Table(checkTable(level)).AutoMigrate(&checkRow{}); err != nil {
			return nil, fmt.Errorf("failed to migrate %s: %w", checkTable(level), err)
		}
	}
	if err := db.WithContext(ctx).AutoMigrate(&progressModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate user_progress: %w", err)
	}

	return &Service{db: db, logger: logger}, nil
}

func validateLevel(level int) error {
	if level < constants.GameConfig.MinLevel || level > constants.GameConfig.MaxLevel {
		return newError(CodeInvalidLevel, fmt.Sprintf("level %d does not exist", level), nil)
	}
	return nil
}

// solvableCases: 정답이 등록된 사건만 조회 대상으로 잡는다.
func (s *Service) solvableCases(ctx context.Context, level int) *gorm.DB {
	return s.db.WithContext(ctx).
		Table(caseTable(level)+" AS cr").
		Joins(fmt.Sprintf("INNER JOIN %s AS ct ON cr.case_id = ct.case_id", checkTable(level))).
		Select("cr.case_id, cr.date, cr.type, cr.description, cr.city").
		Group("cr.case_id, cr.date, cr.type, cr.description, cr.city").
		Order("cr.case_id")
}

// ListCases: 해당 레벨에서 풀이 가능한 전체 사건 목록을 반환합니다.
func (s *Service) ListCases(ctx context.Context, level int) ([]Case, *Pagination, error) {
	if err := validateLevel(level); err != nil {
		return nil, nil, err
	}

	var cases []Case
	if err := s.solvableCases(ctx, level).Find(&cases).Error; err != nil {
		return nil, nil, newError(CodeInternal, "failed to fetch cases", err)
	}
	if len(cases) == 0 {
		return nil, nil, newError(CodeNotFound, "No cases available", nil)
	}

	perPage := constants.GameConfig.CasesPerPage
	pagination := &Pagination{
		TotalPages: (len(cases) + perPage - 1) / perPage,
		TotalCases: len(cases),
	}
	return cases, pagination, nil
}

// CaseByPage: 페이지 번호(0부터)로 사건을 1건씩 조회합니다.
func (s *Service) CaseByPage(ctx context.Context, level, page int) (*CasePage, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Table(caseTable(level)+" AS cr").
		Joins(fmt.Sprintf("INNER JOIN %s AS ct ON cr.case_id = ct.case_id", checkTable(level))).
		Distinct("cr.case_id").
		Count(&total).Error; err != nil {
		return nil, newError(CodeInternal, "failed to count cases", err)
	}

	var cases []Case
	if err := s.solvableCases(ctx, level).Limit(1).Offset(page).Find(&cases).Error; err != nil {
		return nil, newError(CodeInternal, "failed to fetch case", err)
	}
	if len(cases) == 0 {
		return nil, newError(CodeNotFound, "No questions available", nil)
	}

	return &CasePage{
		Case: cases[0],
		Pagination: Pagination{
			CurrentPage:    page,
			TotalPages:     int(total),
			TotalQuestions: int(total),
		},
		Instructions: instructionCasePage,
	}, nil
}

// GetCase: 사건 단건을 조회합니다.
func (s *Service) GetCase(ctx context.Context, level int, caseID uint) (*Case, string, error) {
	if err := validateLevel(level); err != nil {
		return nil, "", err
	}

	var c Case
	err := s.db.WithContext(ctx).
		Table(caseTable(level)).
		Where("case_id = ?", caseID).
		Take(&c).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", newError(CodeNotFound, "Case not found", err)
		}
		return nil, "", newError(CodeInternal, "failed to fetch case", err)
	}
	return &c, instructionCase, nil
}

// CompletedCases: 해당 레벨에서 완료한 사건 ID 목록을 반환합니다.
func (s *Service) CompletedCases(ctx context.Context, userID uint, level int) ([]uint, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}

	caseIDs := make([]uint, 0)
	err := s.db.WithContext(ctx).
		Model(&progressModel{}).
		Where("user_id = ? AND level_id = ? AND completed = ?", userID, level, true).
		Order("case_id").
		Pluck("case_id", &caseIDs).Error
	if err != nil {
		return nil, newError(CodeInternal, "failed to fetch completed cases", err)
	}
	return caseIDs, nil
}

// CheckAnswer: 제출 답안을 정답 집합과 비교하고 진행도/점수/스트릭을 한 트랜잭션에서 갱신한다.
// 제출 ID는 중복 제거 후 집합으로 비교하며, 시도 횟수는 제출할 때마다 증가한다.
func (s *Service) CheckAnswer(ctx context.Context, userID uint, level int, caseID uint, answer string) (*CheckResult, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	if caseID == 0 {
		return nil, newError(CodeInvalidInput, "Case ID and Answer are required", nil)
	}

	submitted := util.UniqueInts(util.ParseIDList(answer))
	if len(submitted) == 0 {
		return nil, newError(CodeInvalidInput, msgInvalidInput, nil)
	}

	var result *CheckResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		truth := make([]int, 0)
		if err := tx.Table(checkTable(level)).
			Distinct("person_id").
			Where("case_id = ?", caseID).
			Order("person_id").
			Pluck("person_id", &truth).Error; err != nil {
			return newError(CodeInternal, "failed to fetch answer key", err)
		}
		if len(truth) == 0 {
			return newError(CodeNotFound, "Case not found", nil)
		}

		truthSet := make(map[int]struct{}, len(truth))
		for _, id := range truth {
			truthSet[id] = struct{}{}
		}
		found := 0
		for _, id := range submitted {
			if _, ok := truthSet[id]; ok {
				found++
			}
		}
		correct := found == len(truth) && len(submitted) == len(truth)

		var prev progressModel
		alreadySolved := false
		err := tx.Where("user_id = ? AND level_id = ? AND case_id = ?", userID, level, caseID).
			Take(&prev).Error
		if err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return newError(CodeInternal, "failed to read progress", err)
		}
		alreadySolved = err == nil && prev.Completed

		res := &CheckResult{
			Correct:      correct,
			CaseID:       caseID,
			FoundPersons: found,
			TotalPersons: len(truth),
		}

		switch {
		case correct && alreadySolved:
			if err := s.upsertProgress(tx, userID, level, caseID, nil); err != nil {
				return err
			}
			res.AlreadySolved = true
			res.Message = msgAlreadySolved
			res.NextLevel = nextLevelPath(level)

		case correct:
			points := constants.GameConfig.PointsPerCase
			solved := &solvedMark{Points: points, CompletedAt: time.Now().UTC()}
			if err := s.upsertProgress(tx, userID, level, caseID, solved); err != nil {
				return err
			}
			if err := s.applyScoreAndStreak(tx, userID, points); err != nil {
				return err
			}
			res.PointsAwarded = points
			res.Message = msgCorrectSolved
			res.NextLevel = nextLevelPath(level)

		case found > 0:
			if err := s.upsertProgress(tx, userID, level, caseID, nil); err != nil {
				return err
			}
			res.Message = fmt.Sprintf("You found %d out of %d persons involved. Keep trying!", found, len(truth))

		default:
			if err := s.upsertProgress(tx, userID, level, caseID, nil); err != nil {
				return err
			}
			res.Message = msgIncorrect
		}

		result = res
		return nil
	})
	if err != nil {
		var gameErr *Error
		if stdErrors.As(err, &gameErr) {
			return nil, gameErr
		}
		return nil, newError(CodeInternal, "failed to check answer", err)
	}

	s.logger.Debug("answer_checked",
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("level", level),
		slog.Uint64("case_id", uint64(caseID)),
		slog.Bool("correct", result.Correct),
	)
	return result, nil
}

// solvedMark: 첫 정답 처리 시 진행 레코드에 기록할 값
type solvedMark struct {
	Points      int
	CompletedAt time.Time
}

// upsertProgress: (user_id, level_id, case_id) 유니크 키 기반 업서트.
// solved가 nil이면 attempts만 증가시키고, 아니면 완료 컬럼까지 함께 갱신한다.
func (s *Service) upsertProgress(tx *gorm.DB, userID uint, level int, caseID uint, solved *solvedMark) error {
	assignments := map[string]any{
		"attempts": gorm.Expr("attempts + 1"),
	}
	rec := progressModel{
		UserID:   userID,
		LevelID:  level,
		CaseID:   caseID,
		Attempts: 1,
	}

	if solved != nil {
		completedAt := solved.CompletedAt
		rec.Completed = true
		rec.Score = solved.Points
		rec.CompletedAt = &completedAt

		assignments["completed"] = true
		assignments["score"] = solved.Points
		assignments["completed_at"] = completedAt
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "level_id"}, {Name: "case_id"},
		},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&rec).Error
	if err != nil {
		return newError(CodeInternal, "failed to update progress", err)
	}
	return nil
}

// applyScoreAndStreak: 점수 가산과 스트릭 재계산을 호출 측 트랜잭션 안에서 수행한다.
func (s *Service) applyScoreAndStreak(tx *gorm.DB, userID uint, points int) error {
	var u struct {
		TotalScore     int
		CurrentStreak  int
		HighestStreak  int
		LastActiveDate *string
	}
	err := tx.Table("users").
		Select("total_score, current_streak, highest_streak, last_active_date").
		Where("id = ?", userID).
		Take(&u).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return newError(CodeNotFound, "User not found", err)
		}
		return newError(CodeInternal, "failed to read user", err)
	}

	today := util.TodayUTC()
	newStreak := computeStreak(u.LastActiveDate, u.CurrentStreak, today, util.YesterdayUTC())

	err = tx.Table("users").
		Where("id = ?", userID).
		Updates(map[string]any{
			"total_score":      u.TotalScore + points,
			"current_streak":   newStreak,
			"highest_streak":   maxInt(u.HighestStreak, newStreak),
			"last_active_date": today,
		}).Error
	if err != nil {
		return newError(CodeInternal, "failed to update score", err)
	}
	return nil
}

func nextLevelPath(level int) string {
	if level >= constants.GameConfig.MaxLevel {
		return ""
	}
	return fmt.Sprintf("/game/level%d", level+1)
}
