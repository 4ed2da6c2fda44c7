package repository

import (
	"guidesphere_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func deleteQuizTree(tx *gorm.DB, contentID string) error {
	quizIDs := tx.Model(&model.Quiz{}).Select("id").Where("content_id = ?", contentID)
	questionIDs := tx.Model(&model.QuizQuestion{}).Select("id").Where("quiz_id IN (?)", quizIDs)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.QuizOption{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quiz_id IN (?)", quizIDs).Delete(&model.QuizQuestion{}).Error; err != nil {
		return err
	}
	return tx.Where("content_id = ?", contentID).Delete(&model.Quiz{}).Error
}

// Replace 删除该内容已有的测验后写入新的测验
func (r *QuizRepository) Replace(quiz *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteQuizTree(tx, quiz.ContentID); err != nil {
			return err
		}
		return tx.Create(quiz).Error
	})
}

func (r *QuizRepository) FindByContent(contentID string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("content_id = ?", contentID).
		First(&quiz).Error
	return &quiz, err
}

// SaveAttempt 在一个事务里保存作答，通过时颁发证书（每人每课一次）
func (r *QuizRepository) SaveAttempt(attempt *model.ExamAttempt, certificate *model.CourseCertificate) (bool, error) {
	issued := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		if certificate == nil {
			return nil
		}

		// 证书已存在时忽略冲突，作答照常保存
		certificate.AttemptID = attempt.ID
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).Create(certificate)
		if result.Error != nil {
			return result.Error
		}
		issued = result.RowsAffected > 0
		return nil
	})
	return issued, err
}

// LatestAttempts 返回用户在各内容上最近一次作答
func (r *QuizRepository) LatestAttempts(userID string, contentIDs []string) (map[string]model.ExamAttempt, error) {
	out := make(map[string]model.ExamAttempt)
	if len(contentIDs) == 0 {
		return out, nil
	}

	var attempts []model.ExamAttempt
	err := r.DB.Where("user_id = ? AND content_id IN ?", userID, contentIDs).
		Order("created_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	for _, a := range attempts {
		if _, ok := out[a.ContentID]; !ok {
			out[a.ContentID] = a
		}
	}
	return out, nil
}

func (r *QuizRepository) CountAttempts() (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamAttempt{}).Count(&count).Error
	return count, err
}

func (r *QuizRepository) CertificatesByUser(userID string) ([]model.CourseCertificate, map[string]string, error) {
	var certs []model.CourseCertificate
	if err := r.DB.Where("user_id = ?", userID).Order("issued_at DESC").Find(&certs).Error; err != nil {
		return nil, nil, err
	}

	titles := make(map[string]string)
	if len(certs) == 0 {
		return certs, titles, nil
	}
	ids := make([]string, 0, len(certs))
	for _, c := range certs {
		ids = append(ids, c.CourseID)
	}
	var courses []model.Course
	if err := r.DB.Select("id", "title").Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, nil, err
	}
	for _, c := range courses {
		titles[c.ID] = c.Title
	}
	return certs, titles, nil
}

func (r *QuizRepository) CountCertificates() (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseCertificate{}).Count(&count).Error
	return count, err
}
