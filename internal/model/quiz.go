package model

import "time"

// swagger:model Quiz
type Quiz struct {
	UUIDBase
	ContentID       string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"content_id"`
	Title           string         `gorm:"size:255" json:"title"`
	Fingerprint     string         `gorm:"size:64" json:"fingerprint"`
	Source          string         `gorm:"size:20" json:"source"`
	AttemptsAllowed int            `gorm:"not null;default:3" json:"attempts_allowed"`
	Questions       []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quiz"
}

type QuizQuestion struct {
	UUIDBase
	QuizID   string       `gorm:"type:varchar(36);index;not null" json:"quiz_id"`
	Prompt   string       `gorm:"type:text;not null" json:"prompt"`
	Position int          `gorm:"not null" json:"position"`
	Options  []QuizOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_question"
}

type QuizOption struct {
	UUIDBase
	QuestionID string `gorm:"type:varchar(36);index;not null" json:"question_id"`
	Label      string `gorm:"type:text;not null" json:"label"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
	Position   int    `gorm:"not null" json:"position"`
}

func (QuizOption) TableName() string {
	return "quiz_option"
}

// swagger:model ExamAttempt
type ExamAttempt struct {
	UUIDBase
	UserID       string       `gorm:"type:varchar(36);index;not null" json:"user_id"`
	QuizID       string       `gorm:"type:varchar(36);index;not null" json:"quiz_id"`
	ContentID    string       `gorm:"type:varchar(36);index;not null" json:"content_id"`
	ScorePercent float64      `gorm:"not null" json:"score_percent"`
	Passed       bool         `gorm:"not null" json:"passed"`
	Answers      []ExamAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempt"
}

type ExamAnswer struct {
	UUIDBase
	AttemptID  string `gorm:"type:varchar(36);index;not null" json:"attempt_id"`
	QuestionID string `gorm:"type:varchar(36);not null" json:"question_id"`
	OptionID   string `gorm:"type:varchar(36)" json:"option_id"`
	IsCorrect  bool   `gorm:"not null" json:"is_correct"`
}

func (ExamAnswer) TableName() string {
	return "exam_answer"
}

// swagger:model CourseCertificate
type CourseCertificate struct {
	UUIDBase
	UserID       string    `gorm:"type:varchar(36);uniqueIndex:uq_certificate_user_course;not null" json:"user_id"`
	CourseID     string    `gorm:"type:varchar(36);uniqueIndex:uq_certificate_user_course;not null" json:"course_id"`
	AttemptID    string    `gorm:"type:varchar(36)" json:"attempt_id"`
	ScorePercent float64   `json:"score_percent"`
	IssuedAt     time.Time `json:"issued_at"`
}

func (CourseCertificate) TableName() string {
	return "course_certificate"
}
