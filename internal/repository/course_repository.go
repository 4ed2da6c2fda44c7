package repository

import (
	"guidesphere_backend/internal/model"
	"strings"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

const courseListColumns = `c.id, c.title, c.description, c.passing_score, c.created_by, c.is_published,
	u.username AS owner_username,
	(SELECT COUNT(*) FROM content_item ci WHERE ci.course_id = c.id) AS resources_count,
	COALESCE((SELECT AVG(r.rating * 1.0) FROM course_rating r WHERE r.course_id = c.id), 0) AS rating_avg,
	(SELECT COUNT(*) FROM course_rating r WHERE r.course_id = c.id) AS ratings_count`

// CourseFilter 课程列表的查询条件
type CourseFilter struct {
	Scope    string
	UserID   string
	Query    string
	Page     int
	PageSize int
}

func (r *CourseRepository) listQuery(f CourseFilter) *gorm.DB {
	query := r.DB.Table("course AS c").
		Joins("LEFT JOIN user_account u ON u.id = c.created_by")

	switch f.Scope {
	case "mine":
		query = query.Where("c.created_by = ?", f.UserID)
	case "public":
		query = query.Where("c.is_published = ?", true)
	case "enrolled":
		query = query.Joins("JOIN enrollment e ON e.course_id = c.id AND e.user_id = ?", f.UserID)
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(c.title) LIKE ? OR LOWER(c.description) LIKE ?", like, like)
	}
	return query
}

func (r *CourseRepository) List(f CourseFilter) ([]model.CourseListItem, int64, error) {
	var total int64
	if err := r.listQuery(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "c.created_at DESC"
	if f.Scope == "enrolled" {
		order = "e.enrolled_at DESC"
	}

	var rows []model.CourseListItem
	err := r.listQuery(f).
		Select(courseListColumns).
		Order(order).
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Scan(&rows).Error
	return rows, total, err
}

// Search 公开搜索，标题或描述匹配
func (r *CourseRepository) Search(q string, limit int) ([]model.Course, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	var courses []model.Course
	err := r.DB.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like).
		Order("created_at DESC").
		Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("id = ?", id).First(&course).Error
	return &course, err
}

func (r *CourseRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Course{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func insertItems(tx *gorm.DB, items []model.ContentItem) error {
	for i := range items {
		item := &items[i]
		doc, media := item.Document, item.Media
		if err := tx.Omit("Document", "Media").Create(item).Error; err != nil {
			return err
		}
		if doc != nil {
			doc.ContentID = item.ID
			if err := tx.Create(doc).Error; err != nil {
				return err
			}
		}
		if media != nil {
			media.ContentID = item.ID
			if err := tx.Create(media).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteItems(tx *gorm.DB, courseID string) error {
	itemIDs := tx.Model(&model.ContentItem{}).Select("id").Where("course_id = ?", courseID)
	if err := tx.Where("content_id IN (?)", itemIDs).Delete(&model.DocumentAsset{}).Error; err != nil {
		return err
	}
	if err := tx.Where("content_id IN (?)", itemIDs).Delete(&model.MediaAsset{}).Error; err != nil {
		return err
	}
	return tx.Where("course_id = ?", courseID).Delete(&model.ContentItem{}).Error
}

// CreateWithContent 在一个事务里写入课程及其内容
func (r *CourseRepository) CreateWithContent(course *model.Course, items []model.ContentItem) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].CourseID = course.ID
		}
		return insertItems(tx, items)
	})
}

// ReplaceContent 更新元数据，删除旧内容后重新写入
func (r *CourseRepository) ReplaceContent(course *model.Course, items []model.ContentItem) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
			"title":         course.Title,
			"description":   course.Description,
			"passing_score": course.PassingScore,
		}).Error
		if err != nil {
			return err
		}
		if err := deleteItems(tx, course.ID); err != nil {
			return err
		}
		for i := range items {
			items[i].CourseID = course.ID
		}
		return insertItems(tx, items)
	})
}

// SetPublished 只更新调用者有权限的行
func (r *CourseRepository) SetPublished(id, userID string, any bool, publish bool) (int64, error) {
	query := r.DB.Model(&model.Course{}).Where("id = ?", id)
	if !any {
		query = query.Where("created_by = ?", userID)
	}
	res := query.Update("is_published", publish)
	return res.RowsAffected, res.Error
}

// Delete 级联删除课程的所有数据
func (r *CourseRepository) Delete(id string) (int64, error) {
	var deleted int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		itemIDs := tx.Model(&model.ContentItem{}).Select("id").Where("course_id = ?", id)
		quizIDs := tx.Model(&model.Quiz{}).Select("id").Where("content_id IN (?)", itemIDs)
		questionIDs := tx.Model(&model.QuizQuestion{}).Select("id").Where("quiz_id IN (?)", quizIDs)
		attemptIDs := tx.Model(&model.ExamAttempt{}).Select("id").Where("quiz_id IN (?)", quizIDs)

		steps := []struct {
			model interface{}
			where string
			arg   interface{}
		}{
			{&model.ExamAnswer{}, "attempt_id IN (?)", attemptIDs},
			{&model.ExamAttempt{}, "quiz_id IN (?)", quizIDs},
			{&model.QuizOption{}, "question_id IN (?)", questionIDs},
			{&model.QuizQuestion{}, "quiz_id IN (?)", quizIDs},
			{&model.Quiz{}, "content_id IN (?)", itemIDs},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, s.arg).Delete(s.model).Error; err != nil {
				return err
			}
		}

		if err := deleteItems(tx, id); err != nil {
			return err
		}
		for _, m := range []interface{}{&model.CourseProgress{}, &model.Enrollment{}, &model.CourseRating{}, &model.CourseCertificate{}} {
			if err := tx.Where("course_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&model.Course{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

// FindItems 按位置排序返回课程内容及资源
func (r *CourseRepository) FindItems(courseID string) ([]model.ContentItem, error) {
	var items []model.ContentItem
	err := r.DB.Preload("Document").Preload("Media").
		Where("course_id = ?", courseID).
		Order("position ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *CourseRepository) FindItem(id string) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.DB.Preload("Document").Preload("Media").Where("id = ?", id).First(&item).Error
	return &item, err
}

func (r *CourseRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Course{}).Count(&count).Error
	return count, err
}
