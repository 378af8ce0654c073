package quiz

// Topic: 학습 주제 (읽기 전용 참조 데이터)
type Topic struct {
	ID          uint   `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name        string `gorm:"column:name;size:128" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`
}

func (Topic) TableName() string { return "topics" }

// questionModel: questions 테이블 매핑. correct_option은 1부터 시작한다.
type questionModel struct {
	ID            uint   `gorm:"primaryKey;autoIncrement;column:id"`
	TopicID       uint   `gorm:"column:topic_id;index"`
	Question      string `gorm:"column:question;type:text"`
	Option1       string `gorm:"column:option1;size:255"`
	Option2       string `gorm:"column:option2;size:255"`
	Option3       string `gorm:"column:option3;size:255"`
	Option4       string `gorm:"column:option4;size:255"`
	CorrectOption int    `gorm:"column:correct_option"`
}

func (questionModel) TableName() string { return "questions" }

// Question: API 응답용 문항. 프런트의 즉시 채점을 위해 정답 번호를 함께 내린다.
type Question struct {
	ID            uint   `json:"id"`
	Question      string `json:"question"`
	Option1       string `json:"option1"`
	Option2       string `json:"option2"`
	Option3       string `json:"option3"`
	Option4       string `json:"option4"`
	CorrectAnswer int    `json:"correctAnswer"`
}

// SubmitResult: 제출 채점 결과 (문항 ID 목록)
type SubmitResult struct {
	Correct []uint `json:"correct"`
	Wrong   []uint `json:"wrong"`
}
