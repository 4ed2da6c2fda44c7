package service

import (
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
)

const topCoursesLimit = 5

type StatsService struct {
	UserRepo     *repository.UserRepository
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
	QuizRepo     *repository.QuizRepository
	StatsRepo    *repository.StatsRepository
}

func NewStatsService(userRepo *repository.UserRepository, courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository, quizRepo *repository.QuizRepository, statsRepo *repository.StatsRepository) *StatsService {
	return &StatsService{
		UserRepo:     userRepo,
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		QuizRepo:     quizRepo,
		StatsRepo:    statsRepo,
	}
}

type StatsTotals struct {
	Users        int64 `json:"users"`
	Students     int64 `json:"students"`
	Professors   int64 `json:"professors"`
	Courses      int64 `json:"courses"`
	Enrollments  int64 `json:"enrollments"`
	ExamAttempts int64 `json:"exam_attempts"`
	Certificates int64 `json:"certificates"`
}

type StatsOverview struct {
	Totals             StatsTotals            `json:"totals"`
	TopCoursesByEnroll []repository.TopCourse `json:"top_courses_by_enrollments"`
	TopCoursesByRating []repository.TopCourse `json:"top_courses_by_rating"`
}

func (s *StatsService) Overview() (*StatsOverview, error) {
	var t StatsTotals
	counters := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&t.Users, func() (int64, error) { return s.UserRepo.CountByRole("") }},
		{&t.Students, func() (int64, error) { return s.UserRepo.CountByRole(model.Student) }},
		{&t.Professors, func() (int64, error) { return s.UserRepo.CountByRole(model.Professor) }},
		{&t.Courses, s.CourseRepo.Count},
		{&t.Enrollments, s.ProgressRepo.CountEnrollments},
		{&t.ExamAttempts, s.QuizRepo.CountAttempts},
		{&t.Certificates, s.QuizRepo.CountCertificates},
	}
	for _, c := range counters {
		n, err := c.fn()
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	byEnroll, err := s.StatsRepo.TopByEnrollments(topCoursesLimit)
	if err != nil {
		return nil, err
	}
	byRating, err := s.StatsRepo.TopByRating(topCoursesLimit)
	if err != nil {
		return nil, err
	}
	for _, list := range [][]repository.TopCourse{byEnroll, byRating} {
		for i := range list {
			list[i].RatingAvg = util.Round2(list[i].RatingAvg)
		}
	}
	if byEnroll == nil {
		byEnroll = []repository.TopCourse{}
	}
	if byRating == nil {
		byRating = []repository.TopCourse{}
	}

	return &StatsOverview{Totals: t, TopCoursesByEnroll: byEnroll, TopCoursesByRating: byRating}, nil
}
